package httpapi

import "github.com/dmitrijs2005/textdrive/internal/server/models"

type credentialsRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type nameRequest struct {
	Name string `json:"name" validate:"required"`
}

type userResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

type loginResponse struct {
	Token string       `json:"token"`
	User  userResponse `json:"user"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

type fileResponse struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Content  string `json:"content"`
	FolderID string `json:"folderId"`
}

type folderResponse struct {
	ID      string         `json:"id"`
	Name    string         `json:"name"`
	OwnerID string         `json:"ownerId"`
	Files   []fileResponse `json:"files"`
}

func toUser(u *models.User) userResponse {
	return userResponse{ID: u.ID, Username: u.UserName, Role: string(u.Role)}
}

func toFile(f *models.File) fileResponse {
	return fileResponse{ID: f.ID, Name: f.Name, Content: f.Content, FolderID: f.FolderID}
}

func toFiles(list []*models.File) []fileResponse {
	out := make([]fileResponse, 0, len(list))
	for _, f := range list {
		out = append(out, toFile(f))
	}
	return out
}

func toFolder(f *models.Folder) folderResponse {
	return folderResponse{ID: f.ID, Name: f.Name, OwnerID: f.OwnerID, Files: toFiles(f.Files)}
}

func toFolders(list []*models.Folder) []folderResponse {
	out := make([]folderResponse, 0, len(list))
	for _, f := range list {
		out = append(out, toFolder(f))
	}
	return out
}
