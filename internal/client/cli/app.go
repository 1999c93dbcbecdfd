package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"sync"
	"time"

	"github.com/dmitrijs2005/textdrive/internal/client/api"
	"github.com/dmitrijs2005/textdrive/internal/client/config"
)

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

// driveClient is the part of api.Client the commands use.
type driveClient interface {
	Ping(ctx context.Context) error
	Register(ctx context.Context, userName, password string) (*api.User, error)
	Login(ctx context.Context, userName, password string) (*api.User, error)
	Logout()
	CreateFolder(ctx context.Context, name string) (*api.Folder, error)
	GetFolder(ctx context.Context, id string) (*api.Folder, error)
	ListFolders(ctx context.Context) ([]api.Folder, error)
	SearchFolders(ctx context.Context, fragment string) ([]api.Folder, error)
	RenameFolder(ctx context.Context, id, name string) (*api.Folder, error)
	DeleteFolder(ctx context.Context, id string) error
	Upload(ctx context.Context, folderID, name string, content []byte) (*api.File, error)
	GetFile(ctx context.Context, id string) (*api.File, error)
	Download(ctx context.Context, id string) (string, error)
	SearchFiles(ctx context.Context, fragment string) ([]api.File, error)
	RenameFile(ctx context.Context, id, newName string) (*api.File, error)
	DeleteFile(ctx context.Context, id string) error
}

type App struct {
	config   *config.Config
	drive    driveClient
	user     *api.User
	userName string
	reader   *bufio.Reader
	out      io.Writer

	mu   sync.Mutex
	mode Mode
}

func NewApp(c *config.Config) (*App, error) {
	return &App{
		config: c,
		drive:  api.New(c.ServerURL, c.RequestTimeout),
		reader: bufio.NewReader(os.Stdin),
		out:    os.Stdout,
	}, nil
}

func (a *App) setMode(mode Mode) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.mode != mode {
		a.mode = mode
		log.Printf("Switched to %s mode\n", mode)
	}
}

func (a *App) Mode() Mode {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.mode
}

func (a *App) isLoggedIn() bool {
	return a.user != nil
}

func (a *App) getStatus() string {
	s := ""
	if a.userName != "" {
		s = a.userName + " "
	}
	if m := a.Mode(); m != "" {
		s = s + string(m)
	}
	if s != "" {
		s = fmt.Sprintf("(%s)", s)
	}
	return s
}

// Run greets the user, starts the connectivity watcher and blocks in the
// REPL until the user exits or stdin closes.
func (a *App) Run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	fmt.Fprintln(a.out, "Welcome to TextDrive CLI (type 'help' for commands)")

	go a.StartOnlineStatusWatcher(ctx, a.config.OnlineCheckInterval)

	runREPL(ctx, a, a.getStatus, a.reader)
}

func (a *App) StartOnlineStatusWatcher(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
			err := a.drive.Ping(pingCtx)
			cancel()

			if err != nil {
				a.setMode(ModeOffline)
			} else {
				a.setMode(ModeOnline)
			}

		case <-ctx.Done():
			return
		}
	}
}
