package cli

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/dmitrijs2005/textdrive/internal/client/api"
	"github.com/dmitrijs2005/textdrive/internal/client/config"
)

type fakeDrive struct {
	pingErr  error
	loginErr error
	err      error

	folders []api.Folder
	files   map[string]api.File

	calls    []string
	password string
	loggedIn bool
}

func newFakeDrive() *fakeDrive {
	return &fakeDrive{files: map[string]api.File{}}
}

func (f *fakeDrive) record(s string) { f.calls = append(f.calls, s) }

func (f *fakeDrive) Ping(context.Context) error { return f.pingErr }

func (f *fakeDrive) Register(_ context.Context, userName, password string) (*api.User, error) {
	f.record("register " + userName)
	f.password = password
	if f.err != nil {
		return nil, f.err
	}
	return &api.User{ID: "u1", Username: userName, Role: "ROLE_USER"}, nil
}

func (f *fakeDrive) Login(_ context.Context, userName, password string) (*api.User, error) {
	f.record("login " + userName)
	f.password = password
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	f.loggedIn = true
	return &api.User{ID: "u1", Username: userName, Role: "ROLE_USER"}, nil
}

func (f *fakeDrive) Logout() { f.loggedIn = false; f.record("logout") }

func (f *fakeDrive) CreateFolder(_ context.Context, name string) (*api.Folder, error) {
	f.record("mkdir " + name)
	if f.err != nil {
		return nil, f.err
	}
	folder := api.Folder{ID: "d1", Name: name}
	f.folders = append(f.folders, folder)
	return &folder, nil
}

func (f *fakeDrive) GetFolder(_ context.Context, id string) (*api.Folder, error) {
	f.record("open " + id)
	for _, d := range f.folders {
		if d.ID == id {
			return &d, nil
		}
	}
	return nil, &api.Error{Status: 404, Message: "not found"}
}

func (f *fakeDrive) ListFolders(context.Context) ([]api.Folder, error) {
	f.record("folders")
	return f.folders, f.err
}

func (f *fakeDrive) SearchFolders(_ context.Context, fragment string) ([]api.Folder, error) {
	f.record("findfolder " + fragment)
	if f.err != nil {
		return nil, f.err
	}
	return f.folders, nil
}

func (f *fakeDrive) RenameFolder(_ context.Context, id, name string) (*api.Folder, error) {
	f.record("renamefolder " + id + " " + name)
	return &api.Folder{ID: id, Name: name}, f.err
}

func (f *fakeDrive) DeleteFolder(_ context.Context, id string) error {
	f.record("rmdir " + id)
	return f.err
}

func (f *fakeDrive) Upload(_ context.Context, folderID, name string, content []byte) (*api.File, error) {
	f.record("upload " + folderID + " " + name)
	file := api.File{ID: "f1", Name: name, Content: string(content), FolderID: folderID}
	f.files[file.ID] = file
	return &file, f.err
}

func (f *fakeDrive) GetFile(_ context.Context, id string) (*api.File, error) {
	f.record("getfile " + id)
	file, ok := f.files[id]
	if !ok {
		return nil, &api.Error{Status: 404, Message: "not found"}
	}
	return &file, nil
}

func (f *fakeDrive) Download(_ context.Context, id string) (string, error) {
	f.record("cat " + id)
	file, ok := f.files[id]
	if !ok {
		return "", &api.Error{Status: 404, Message: "not found"}
	}
	return file.Content, nil
}

func (f *fakeDrive) SearchFiles(_ context.Context, fragment string) ([]api.File, error) {
	f.record("findfile " + fragment)
	if f.err != nil {
		return nil, f.err
	}
	out := make([]api.File, 0, len(f.files))
	for _, v := range f.files {
		out = append(out, v)
	}
	return out, nil
}

func (f *fakeDrive) RenameFile(_ context.Context, id, newName string) (*api.File, error) {
	f.record("mv " + id + " " + newName)
	return &api.File{ID: id, Name: newName}, f.err
}

func (f *fakeDrive) DeleteFile(_ context.Context, id string) error {
	f.record("rm " + id)
	return f.err
}

// newTestApp returns an App over d whose stdin is input and whose output is
// captured.
func newTestApp(t *testing.T, d *fakeDrive, input string) (*App, *bytes.Buffer) {
	t.Helper()
	var out bytes.Buffer
	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.DownloadDir = t.TempDir()
	return &App{
		config: cfg,
		drive:  d,
		reader: bufio.NewReader(strings.NewReader(input)),
		out:    &out,
	}, &out
}

func stubInputs(t *testing.T, username string, password []byte) {
	t.Helper()
	origST, origGP := getSimpleText, getPassword
	getSimpleText = func(_ *bufio.Reader, _ string, _ io.Writer) (string, error) { return username, nil }
	getPassword = func(_ io.Writer) ([]byte, error) { return append([]byte(nil), password...), nil }
	t.Cleanup(func() {
		getSimpleText = origST
		getPassword = origGP
	})
}

func silencePrintln(t *testing.T) *[]string {
	t.Helper()
	var lines []string
	orig := printlnFn
	printlnFn = func(a ...any) (int, error) {
		lines = append(lines, strings.TrimSpace(fmt.Sprintln(a...)))
		return 0, nil
	}
	t.Cleanup(func() { printlnFn = orig })
	return &lines
}
