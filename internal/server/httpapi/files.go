package httpapi

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/dmitrijs2005/textdrive/internal/common"
	"github.com/dmitrijs2005/textdrive/internal/server/services"
	"github.com/go-chi/chi/v5"
)

const maxUploadSize = 10 << 20

func (s *Server) uploadFile(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			s.writeError(w, r, fmt.Errorf("%w: upload exceeds %d bytes", common.ErrorInvalidInput, tooBig.Limit))
			return
		}
		s.writeError(w, r, fmt.Errorf("%w: expected a multipart form: %v", common.ErrorInvalidInput, err))
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	folderID := r.FormValue("folderId")
	if err := s.checkID("folderId", folderID); err != nil {
		s.writeError(w, r, err)
		return
	}

	part, header, err := r.FormFile("file")
	if err != nil {
		s.writeError(w, r, fmt.Errorf("%w: missing file part", common.ErrorInvalidInput))
		return
	}
	defer part.Close()

	data, err := io.ReadAll(part)
	if err != nil {
		s.writeError(w, r, fmt.Errorf("read upload: %w", err))
		return
	}

	f, err := s.files.Upload(r.Context(), services.UploadRequest{
		Name:        header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
		FolderID:    folderID,
	}, principal(r).ID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.logger.Info(r.Context(), "file uploaded", "file_id", f.ID, "folder_id", folderID, "size", len(data))
	writeJSON(w, http.StatusCreated, toFile(f))
}

func (s *Server) getFile(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.checkID("file id", id); err != nil {
		s.writeError(w, r, err)
		return
	}

	f, err := s.files.Get(r.Context(), id, principal(r).ID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toFile(f))
}

func (s *Server) downloadFile(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.checkID("file id", id); err != nil {
		s.writeError(w, r, err)
		return
	}

	content, err := s.files.Download(r.Context(), id, principal(r).ID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, content)
}

func (s *Server) searchFiles(w http.ResponseWriter, r *http.Request) {
	list, err := s.files.Search(r.Context(), r.URL.Query().Get("name"), principal(r).ID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toFiles(list))
}

// renameFile takes the new name from ?newName= and falls back to a JSON
// body {"name": ...}.
func (s *Server) renameFile(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.checkID("file id", id); err != nil {
		s.writeError(w, r, err)
		return
	}

	newName := r.URL.Query().Get("newName")
	if !r.URL.Query().Has("newName") {
		var req nameRequest
		if err := s.decodeJSON(w, r, &req); err != nil {
			s.writeError(w, r, err)
			return
		}
		newName = req.Name
	}

	f, err := s.files.Rename(r.Context(), id, newName, principal(r).ID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toFile(f))
}

func (s *Server) deleteFile(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.checkID("file id", id); err != nil {
		s.writeError(w, r, err)
		return
	}

	if err := s.files.Delete(r.Context(), id, principal(r).ID); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) listFolderFiles(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.checkID("folder id", id); err != nil {
		s.writeError(w, r, err)
		return
	}

	list, err := s.files.ListByFolder(r.Context(), id, principal(r).ID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toFiles(list))
}
