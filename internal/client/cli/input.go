package cli

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// readPassword is swapped out in tests.
var readPassword = term.ReadPassword

var errEmptyPassword = errors.New("password must not be empty")

// GetSimpleText writes "label: " to w and returns the next line from reader
// with surrounding whitespace removed. A final line without a newline is
// accepted; an exhausted reader yields io.EOF.
func GetSimpleText(reader *bufio.Reader, label string, w io.Writer) (string, error) {
	fmt.Fprintf(w, "%s: ", label)

	line, err := reader.ReadString('\n')
	switch {
	case err == nil:
	case errors.Is(err, io.EOF) && line != "":
	default:
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// GetPassword reads a password from stdin with echo disabled.
// The caller owns the returned slice and should wipe it.
func GetPassword(w io.Writer) ([]byte, error) {
	fmt.Fprint(w, "Password: ")
	pw, err := readPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(w)
	if err != nil {
		return nil, fmt.Errorf("read password: %w", err)
	}

	pw = bytes.TrimRight(pw, "\r")
	if len(pw) == 0 {
		return nil, errEmptyPassword
	}
	return pw, nil
}
