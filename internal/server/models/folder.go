package models

import "time"

type Folder struct {
	ID        string
	Name      string
	OwnerID   string
	CreatedAt time.Time
	Files     []*File
}

type File struct {
	ID        string
	Name      string
	Content   string
	FolderID  string
	CreatedAt time.Time
}
