package httpapi

import (
	"fmt"
	"net/http"

	"github.com/dmitrijs2005/textdrive/internal/common"
	"github.com/go-chi/chi/v5"
)

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	u, err := s.users.Register(r.Context(), req.Username, req.Password)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.logger.Info(r.Context(), "Registered", "username", u.UserName, "user_id", u.ID)
	writeJSON(w, http.StatusOK, toUser(u))
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	token, u, err := s.users.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, loginResponse{Token: token, User: toUser(u)})
}

func (s *Server) getUser(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.checkID("user id", id); err != nil {
		s.writeError(w, r, err)
		return
	}

	u, err := s.users.FindByID(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if u == nil {
		s.writeError(w, r, fmt.Errorf("%w: user %s", common.ErrorNotFound, id))
		return
	}

	writeJSON(w, http.StatusOK, toUser(u))
}
