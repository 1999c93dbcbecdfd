package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// printlnFn is a test seam for user-facing output.
var printlnFn = fmt.Println

// execIface is the command surface the REPL dispatches to. App satisfies it;
// tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	Register(ctx context.Context) error
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	ListFolders(ctx context.Context) error
	MakeFolder(ctx context.Context, name string) error
	OpenFolder(ctx context.Context, id string) error
	FindFolders(ctx context.Context, fragment string) error
	RenameFolder(ctx context.Context, id, name string) error
	RemoveFolder(ctx context.Context, id string) error
	Upload(ctx context.Context, folderID, path string) error
	Cat(ctx context.Context, id string) error
	Download(ctx context.Context, id string) error
	FindFiles(ctx context.Context, fragment string) error
	MoveFile(ctx context.Context, id, newName string) error
	RemoveFile(ctx context.Context, id string) error
}

const (
	helpAnonymous = "Available commands: register, login, exit"
	helpSignedIn  = "Available commands: folders, mkdir <name>, open <folder-id>, findfolder <text>, " +
		"renamefolder <folder-id> <name>, rmdir <folder-id>, upload <folder-id> <path>, cat <file-id>, " +
		"download <file-id>, findfile <text>, mv <file-id> <name>, rm <file-id>, logout, exit"
)

// runREPL reads commands line by line and dispatches them to a. It returns
// on EOF or when the user types "exit" or "quit". Command errors are printed
// and the loop continues.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader) {
	for {
		printlnFn(fmt.Sprintf("td %s> ", statusFn()))

		line, err := reader.ReadString('\n')
		if err != nil && (!errors.Is(err, io.EOF) || line == "") {
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		if cmd == "exit" || cmd == "quit" {
			printlnFn("Bye!")
			return
		}

		if err := dispatch(ctx, a, cmd, args); err != nil {
			printlnFn("Error:", err)
		}
	}
}

func dispatch(ctx context.Context, a execIface, cmd string, args []string) error {
	switch cmd {
	case "help":
		if a.isLoggedIn() {
			printlnFn(helpSignedIn)
		} else {
			printlnFn(helpAnonymous)
		}
		return nil
	case "register":
		return a.Register(ctx)
	case "login":
		return a.Login(ctx)
	}

	if !a.isLoggedIn() {
		printlnFn("Please login first")
		return nil
	}

	switch cmd {
	case "logout":
		return a.Logout(ctx)
	case "folders", "ls":
		return a.ListFolders(ctx)
	case "mkdir":
		if len(args) == 0 {
			return usage("mkdir <name>")
		}
		return a.MakeFolder(ctx, strings.Join(args, " "))
	case "open":
		if len(args) != 1 {
			return usage("open <folder-id>")
		}
		return a.OpenFolder(ctx, args[0])
	case "findfolder":
		if len(args) == 0 {
			return usage("findfolder <text>")
		}
		return a.FindFolders(ctx, strings.Join(args, " "))
	case "renamefolder":
		if len(args) < 2 {
			return usage("renamefolder <folder-id> <name>")
		}
		return a.RenameFolder(ctx, args[0], strings.Join(args[1:], " "))
	case "rmdir":
		if len(args) != 1 {
			return usage("rmdir <folder-id>")
		}
		return a.RemoveFolder(ctx, args[0])
	case "upload":
		if len(args) != 2 {
			return usage("upload <folder-id> <path>")
		}
		return a.Upload(ctx, args[0], args[1])
	case "cat":
		if len(args) != 1 {
			return usage("cat <file-id>")
		}
		return a.Cat(ctx, args[0])
	case "download":
		if len(args) != 1 {
			return usage("download <file-id>")
		}
		return a.Download(ctx, args[0])
	case "findfile":
		if len(args) == 0 {
			return usage("findfile <text>")
		}
		return a.FindFiles(ctx, strings.Join(args, " "))
	case "mv":
		if len(args) < 2 {
			return usage("mv <file-id> <name>")
		}
		return a.MoveFile(ctx, args[0], strings.Join(args[1:], " "))
	case "rm":
		if len(args) != 1 {
			return usage("rm <file-id>")
		}
		return a.RemoveFile(ctx, args[0])
	default:
		printlnFn("Unknown command:", cmd)
		return nil
	}
}

func usage(s string) error {
	return fmt.Errorf("usage: %s", s)
}
