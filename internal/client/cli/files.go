package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dmitrijs2005/textdrive/internal/client/api"
	"github.com/dmitrijs2005/textdrive/internal/filex"
)

func (a *App) printFiles(list []api.File) {
	if len(list) == 0 {
		fmt.Fprintln(a.out, "No files")
		return
	}
	for _, f := range list {
		fmt.Fprintf(a.out, "%s  %s  (%d bytes)\n", f.ID, f.Name, len(f.Content))
	}
}

// Upload sends a local file into a folder under its base name.
func (a *App) Upload(ctx context.Context, folderID, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	f, err := a.drive.Upload(ctx, folderID, filepath.Base(path), data)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Uploaded %s  %s\n", f.ID, f.Name)
	return nil
}

func (a *App) Cat(ctx context.Context, id string) error {
	text, err := a.drive.Download(ctx, id)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, text)
	return nil
}

// Download saves a file into the configured download directory.
func (a *App) Download(ctx context.Context, id string) error {
	f, err := a.drive.GetFile(ctx, id)
	if err != nil {
		return err
	}

	dir, err := filex.EnsureSubDir(a.config.DownloadDir)
	if err != nil {
		return err
	}

	name := filepath.Base(f.Name)
	if name == "" || name == "." || name == ".." || name == string(filepath.Separator) {
		name = f.ID + ".txt"
	}
	dst := filepath.Join(dir, name)
	if err := os.WriteFile(dst, []byte(f.Content), 0o600); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Saved %s\n", dst)
	return nil
}

func (a *App) FindFiles(ctx context.Context, fragment string) error {
	list, err := a.drive.SearchFiles(ctx, fragment)
	if err != nil {
		if api.IsNotFound(err) {
			fmt.Fprintln(a.out, "No files match")
			return nil
		}
		return err
	}
	a.printFiles(list)
	return nil
}

func (a *App) MoveFile(ctx context.Context, id, newName string) error {
	f, err := a.drive.RenameFile(ctx, id, newName)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Renamed file to %s\n", f.Name)
	return nil
}

func (a *App) RemoveFile(ctx context.Context, id string) error {
	if err := a.drive.DeleteFile(ctx, id); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "File deleted")
	return nil
}
