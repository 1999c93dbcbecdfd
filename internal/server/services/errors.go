package services

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/dmitrijs2005/textdrive/internal/common"
)

// storageErr passes through the sentinels repositories report on purpose and
// turns everything else into common.ErrorInternal, keeping the cause.
func storageErr(op string, err error) error {
	if errors.Is(err, common.ErrorNotFound) || errors.Is(err, common.ErrorConflict) {
		return err
	}
	return fmt.Errorf("%w: %s: %v", common.ErrorInternal, op, err)
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{common.ErrorInvalidInput}, args...)...)
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}

// maxNameLength matches the VARCHAR(255) name columns; PostgreSQL counts
// characters, not bytes.
const maxNameLength = 255

func checkName(what, name string) error {
	if blank(name) {
		return invalid("%s must not be blank", what)
	}
	return checkNameLength(what, name)
}

func checkNameLength(what, name string) error {
	if utf8.RuneCountInString(name) > maxNameLength {
		return invalid("%s must be at most %d characters", what, maxNameLength)
	}
	return nil
}
