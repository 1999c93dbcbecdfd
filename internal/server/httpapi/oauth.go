package httpapi

import (
	"crypto/subtle"
	"fmt"
	"net/http"

	"github.com/dmitrijs2005/textdrive/internal/common"
	"github.com/go-chi/chi/v5"
)

const stateCookieName = "textdrive_oauth_state"

func (s *Server) oauthStart(w http.ResponseWriter, r *http.Request) {
	p, err := s.provider.Get(chi.URLParam(r, "provider"))
	if err != nil {
		s.writeError(w, r, fmt.Errorf("%w: %v", common.ErrorNotFound, err))
		return
	}

	state, err := common.MakeRandHexString(16)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     stateCookieName,
		Value:    state,
		Path:     "/",
		MaxAge:   300,
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, p.AuthCodeURL(state), http.StatusFound)
}

// oauthCallback finishes the handshake and answers {"token": ...}.
func (s *Server) oauthCallback(w http.ResponseWriter, r *http.Request) {
	p, err := s.provider.Get(chi.URLParam(r, "provider"))
	if err != nil {
		s.writeError(w, r, fmt.Errorf("%w: %v", common.ErrorNotFound, err))
		return
	}

	q := r.URL.Query()
	if e := q.Get("error"); e != "" {
		s.writeError(w, r, fmt.Errorf("%w: provider refused: %s", common.ErrorUnauthorized, e))
		return
	}

	cookie, err := r.Cookie(stateCookieName)
	if err != nil || q.Get("state") == "" ||
		subtle.ConstantTimeCompare([]byte(cookie.Value), []byte(q.Get("state"))) != 1 {
		s.writeError(w, r, fmt.Errorf("%w: state mismatch", common.ErrorInvalidInput))
		return
	}
	http.SetCookie(w, &http.Cookie{Name: stateCookieName, Value: "", Path: "/", MaxAge: -1})

	code := q.Get("code")
	if code == "" {
		s.writeError(w, r, fmt.Errorf("%w: missing code", common.ErrorInvalidInput))
		return
	}

	ident, err := p.Exchange(r.Context(), code)
	if err != nil {
		s.logger.Warn(r.Context(), "external login failed", "provider", p.Name(), "error", err)
		s.writeError(w, r, fmt.Errorf("%w: external login failed", common.ErrorUnauthorized))
		return
	}

	token, u, err := s.users.LoginExternal(r.Context(), ident)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.logger.Info(r.Context(), "external login", "provider", p.Name(), "user_id", u.ID)
	writeJSON(w, http.StatusOK, tokenResponse{Token: token})
}
