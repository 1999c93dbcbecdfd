package services

import (
	"context"
	"database/sql"
	"fmt"
	"mime"
	"strings"
	"unicode/utf8"

	"github.com/dmitrijs2005/textdrive/internal/common"
	"github.com/dmitrijs2005/textdrive/internal/dbx"
	"github.com/dmitrijs2005/textdrive/internal/server/models"
	"github.com/dmitrijs2005/textdrive/internal/server/repositories/repomanager"
	"golang.org/x/text/encoding/htmlindex"
)

// UploadRequest is a single uploaded document as received from the client.
type UploadRequest struct {
	Name        string
	ContentType string
	Data        []byte
	FolderID    string
}

// FileService manages text files. A file belongs to whoever owns its folder.
type FileService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
}

func NewFileService(db *sql.DB, m repomanager.RepositoryManager) *FileService {
	return &FileService{db: db, repomanager: m}
}

// Upload stores req as a new file in one of the owner's folders. Only
// text/* content is accepted. The payload is decoded using the charset
// parameter of the content type, UTF-8 when absent; bytes that do not decode
// fail with common.ErrorInternal.
func (s *FileService) Upload(ctx context.Context, req UploadRequest, ownerID string) (*models.File, error) {
	if len(req.Data) == 0 {
		return nil, invalid("file is empty")
	}
	if err := checkNameLength("file name", req.Name); err != nil {
		return nil, err
	}

	content, err := decodeText(req.ContentType, req.Data)
	if err != nil {
		return nil, err
	}
	if blank(content) {
		return nil, invalid("file has no text content")
	}

	var file *models.File
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if _, err := s.repomanager.Folders(tx).GetByIDAndOwner(ctx, req.FolderID, ownerID); err != nil {
			return storageErr("get folder", err)
		}
		f, err := s.repomanager.Files(tx).Create(ctx, &models.File{
			Name:     req.Name,
			Content:  content,
			FolderID: req.FolderID,
		})
		if err != nil {
			return storageErr("create file", err)
		}
		file = f
		return nil
	})
	if err != nil {
		return nil, err
	}
	return file, nil
}

func (s *FileService) Get(ctx context.Context, id, ownerID string) (*models.File, error) {
	f, err := s.repomanager.Files(s.db).GetByIDAndOwner(ctx, id, ownerID)
	if err != nil {
		return nil, storageErr("get file", err)
	}
	return f, nil
}

// Download returns only the text of the file.
func (s *FileService) Download(ctx context.Context, id, ownerID string) (string, error) {
	f, err := s.Get(ctx, id, ownerID)
	if err != nil {
		return "", err
	}
	return f.Content, nil
}

// Search matches fragment case-insensitively against the names of all files
// in the owner's folders. No match is reported as common.ErrorNotFound, the
// same as for folders.
func (s *FileService) Search(ctx context.Context, fragment, ownerID string) ([]*models.File, error) {
	if blank(fragment) {
		return nil, invalid("search term must not be blank")
	}

	list, err := s.repomanager.Files(s.db).SearchByName(ctx, fragment, ownerID)
	if err != nil {
		return nil, storageErr("search files", err)
	}
	if len(list) == 0 {
		return nil, fmt.Errorf("%w: no files match %q", common.ErrorNotFound, fragment)
	}
	return list, nil
}

func (s *FileService) Rename(ctx context.Context, id, newName, ownerID string) (*models.File, error) {
	if err := checkName("file name", newName); err != nil {
		return nil, err
	}

	var file *models.File
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Files(tx)
		if err := repo.UpdateName(ctx, id, ownerID, newName); err != nil {
			return storageErr("rename file", err)
		}
		f, err := repo.GetByIDAndOwner(ctx, id, ownerID)
		if err != nil {
			return storageErr("get file", err)
		}
		file = f
		return nil
	})
	if err != nil {
		return nil, err
	}
	return file, nil
}

func (s *FileService) Delete(ctx context.Context, id, ownerID string) error {
	if err := s.repomanager.Files(s.db).Delete(ctx, id, ownerID); err != nil {
		return storageErr("delete file", err)
	}
	return nil
}

// ListByFolder returns the files of one of the owner's folders.
func (s *FileService) ListByFolder(ctx context.Context, folderID, ownerID string) ([]*models.File, error) {
	if _, err := s.repomanager.Folders(s.db).GetByIDAndOwner(ctx, folderID, ownerID); err != nil {
		return nil, storageErr("get folder", err)
	}

	list, err := s.repomanager.Files(s.db).ListByFolder(ctx, folderID)
	if err != nil {
		return nil, storageErr("list files", err)
	}
	return list, nil
}

func decodeText(contentType string, data []byte) (string, error) {
	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return "", invalid("unreadable content type %q", contentType)
	}
	if !strings.HasPrefix(mediaType, "text/") {
		return "", invalid("only text files are accepted, got %q", mediaType)
	}

	charset := strings.ToLower(params["charset"])
	if charset != "" && charset != "utf-8" && charset != "utf8" {
		enc, err := htmlindex.Get(charset)
		if err != nil {
			return "", invalid("unsupported charset %q", charset)
		}
		decoded, err := enc.NewDecoder().Bytes(data)
		if err != nil {
			return "", fmt.Errorf("%w: decode %s payload: %v", common.ErrorInternal, charset, err)
		}
		data = decoded
	}

	if !utf8.Valid(data) {
		return "", fmt.Errorf("%w: payload is not valid UTF-8", common.ErrorInternal)
	}
	return string(data), nil
}
