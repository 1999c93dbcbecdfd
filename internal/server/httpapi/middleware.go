package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/textdrive/internal/common"
	"github.com/dmitrijs2005/textdrive/internal/server/models"
	"github.com/go-chi/chi/v5/middleware"
)

type ctxKeyUser struct{}

func withUser(ctx context.Context, u *models.User) context.Context {
	return context.WithValue(ctx, ctxKeyUser{}, u)
}

// principal returns the authenticated user. Only valid behind authenticate.
func principal(r *http.Request) *models.User {
	u, _ := r.Context().Value(ctxKeyUser{}).(*models.User)
	return u
}

// authenticate resolves the bearer token into a user and stores it in the
// request context. Missing or bad tokens get 401.
func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get(common.AuthorizationHeaderName)
		token, ok := strings.CutPrefix(header, common.BearerPrefix)
		if !ok || strings.TrimSpace(token) == "" {
			writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "unauthorized"})
			return
		}

		user, err := s.users.ResolvePrincipal(r.Context(), strings.TrimSpace(token))
		if err != nil {
			if errors.Is(err, common.ErrorUnauthorized) {
				s.logger.Debug(r.Context(), "bearer token rejected", "error", err)
				writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "unauthorized"})
				return
			}
			s.writeError(w, r, err)
			return
		}

		next.ServeHTTP(w, r.WithContext(withUser(r.Context(), user)))
	})
}

// requirePermission answers 403 unless the principal's role grants p.
func (s *Server) requirePermission(p models.Permission) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u := principal(r)
			if u == nil || !u.Role.Can(p) {
				writeJSON(w, http.StatusForbidden, errorResponse{Error: "forbidden"})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (s *Server) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		s.logger.Info(r.Context(), "request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}
