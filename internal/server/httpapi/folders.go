package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func (s *Server) createFolder(w http.ResponseWriter, r *http.Request) {
	var req nameRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	f, err := s.folders.Create(r.Context(), req.Name, principal(r).ID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toFolder(f))
}

func (s *Server) getFolder(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.checkID("folder id", id); err != nil {
		s.writeError(w, r, err)
		return
	}

	f, err := s.folders.Get(r.Context(), id, principal(r).ID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toFolder(f))
}

func (s *Server) listFolders(w http.ResponseWriter, r *http.Request) {
	list, err := s.folders.List(r.Context(), principal(r).ID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toFolders(list))
}

func (s *Server) searchFolders(w http.ResponseWriter, r *http.Request) {
	list, err := s.folders.Search(r.Context(), r.URL.Query().Get("name"), principal(r).ID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toFolders(list))
}

func (s *Server) renameFolder(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.checkID("folder id", id); err != nil {
		s.writeError(w, r, err)
		return
	}

	var req nameRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	f, err := s.folders.Rename(r.Context(), id, req.Name, principal(r).ID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toFolder(f))
}

func (s *Server) deleteFolder(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.checkID("folder id", id); err != nil {
		s.writeError(w, r, err)
		return
	}

	if err := s.folders.Delete(r.Context(), id, principal(r).ID); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.logger.Info(r.Context(), "folder deleted", "folder_id", id, "user_id", principal(r).ID)
	w.WriteHeader(http.StatusNoContent)
}
