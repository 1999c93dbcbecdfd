package cli

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/textdrive/internal/client/api"
)

func (a *App) printFolders(list []api.Folder) {
	if len(list) == 0 {
		fmt.Fprintln(a.out, "No folders")
		return
	}
	for _, f := range list {
		fmt.Fprintf(a.out, "%s  %s  (%d files)\n", f.ID, f.Name, len(f.Files))
	}
}

func (a *App) ListFolders(ctx context.Context) error {
	list, err := a.drive.ListFolders(ctx)
	if err != nil {
		return err
	}
	a.printFolders(list)
	return nil
}

func (a *App) MakeFolder(ctx context.Context, name string) error {
	f, err := a.drive.CreateFolder(ctx, name)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Created folder %s  %s\n", f.ID, f.Name)
	return nil
}

// OpenFolder prints a folder and the files in it.
func (a *App) OpenFolder(ctx context.Context, id string) error {
	f, err := a.drive.GetFolder(ctx, id)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%s  %s\n", f.ID, f.Name)
	a.printFiles(f.Files)
	return nil
}

func (a *App) FindFolders(ctx context.Context, fragment string) error {
	list, err := a.drive.SearchFolders(ctx, fragment)
	if err != nil {
		if api.IsNotFound(err) {
			fmt.Fprintln(a.out, "No folders match")
			return nil
		}
		return err
	}
	a.printFolders(list)
	return nil
}

func (a *App) RenameFolder(ctx context.Context, id, name string) error {
	f, err := a.drive.RenameFolder(ctx, id, name)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Renamed folder to %s\n", f.Name)
	return nil
}

func (a *App) RemoveFolder(ctx context.Context, id string) error {
	if err := a.drive.DeleteFolder(ctx, id); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Folder deleted")
	return nil
}
