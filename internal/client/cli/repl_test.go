package cli

import (
	"bufio"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeExec struct {
	loggedIn bool
	err      error
	calls    []string
}

func (f *fakeExec) call(s string) error { f.calls = append(f.calls, s); return f.err }

func (f *fakeExec) isLoggedIn() bool { return f.loggedIn }
func (f *fakeExec) Register(context.Context) error {
	return f.call("register")
}
func (f *fakeExec) Login(context.Context) error {
	f.loggedIn = true
	return f.call("login")
}
func (f *fakeExec) Logout(context.Context) error {
	f.loggedIn = false
	return f.call("logout")
}
func (f *fakeExec) ListFolders(context.Context) error { return f.call("folders") }
func (f *fakeExec) MakeFolder(_ context.Context, name string) error {
	return f.call("mkdir " + name)
}
func (f *fakeExec) OpenFolder(_ context.Context, id string) error { return f.call("open " + id) }
func (f *fakeExec) FindFolders(_ context.Context, s string) error {
	return f.call("findfolder " + s)
}
func (f *fakeExec) RenameFolder(_ context.Context, id, name string) error {
	return f.call("renamefolder " + id + " " + name)
}
func (f *fakeExec) RemoveFolder(_ context.Context, id string) error { return f.call("rmdir " + id) }
func (f *fakeExec) Upload(_ context.Context, folderID, path string) error {
	return f.call("upload " + folderID + " " + path)
}
func (f *fakeExec) Cat(_ context.Context, id string) error      { return f.call("cat " + id) }
func (f *fakeExec) Download(_ context.Context, id string) error { return f.call("download " + id) }
func (f *fakeExec) FindFiles(_ context.Context, s string) error {
	return f.call("findfile " + s)
}
func (f *fakeExec) MoveFile(_ context.Context, id, name string) error {
	return f.call("mv " + id + " " + name)
}
func (f *fakeExec) RemoveFile(_ context.Context, id string) error { return f.call("rm " + id) }

func run(t *testing.T, exec *fakeExec, lines ...string) []string {
	t.Helper()
	out := silencePrintln(t)
	reader := bufio.NewReader(strings.NewReader(strings.Join(lines, "\n")))
	runREPL(context.Background(), exec, func() string { return "status" }, reader)
	return *out
}

func TestRunREPL_CommandsAfterLogin(t *testing.T) {
	exec := &fakeExec{}

	run(t, exec,
		"help",
		"login",
		"mkdir work notes",
		"folders",
		"open d1",
		"findfolder wor",
		"renamefolder d1 old work",
		"upload d1 ./todo.txt",
		"cat f1",
		"download f1",
		"findfile todo",
		"mv f1 list.txt",
		"rm f1",
		"rmdir d1",
		"logout",
		"exit",
		"folders",
	)

	assert.Equal(t, []string{
		"login",
		"mkdir work notes",
		"folders",
		"open d1",
		"findfolder wor",
		"renamefolder d1 old work",
		"upload d1 ./todo.txt",
		"cat f1",
		"download f1",
		"findfile todo",
		"mv f1 list.txt",
		"rm f1",
		"rmdir d1",
		"logout",
	}, exec.calls)
}

func TestRunREPL_RequiresLogin(t *testing.T) {
	exec := &fakeExec{}

	out := run(t, exec, "folders", "help", "quit")

	assert.Empty(t, exec.calls)
	assert.Contains(t, out, "Please login first")
	assert.Contains(t, out, helpAnonymous)
	assert.Contains(t, out, "Bye!")
}

func TestRunREPL_UsageErrorsAndUnknown(t *testing.T) {
	exec := &fakeExec{loggedIn: true}

	out := run(t, exec, "mkdir", "open", "upload d1", "mv f1", "rm", "", "frobnicate", "help")

	assert.Empty(t, exec.calls)
	assert.Contains(t, out, "Error: usage: mkdir <name>")
	assert.Contains(t, out, "Error: usage: upload <folder-id> <path>")
	assert.Contains(t, out, "Unknown command: frobnicate")
	assert.Contains(t, out, helpSignedIn)
}

func TestRunREPL_PrintsCommandErrors(t *testing.T) {
	exec := &fakeExec{loggedIn: true, err: errors.New("boom")}

	out := run(t, exec, "folders", "cat f1")

	assert.Equal(t, []string{"folders", "cat f1"}, exec.calls)
	assert.Contains(t, out, "Error: boom")
}
