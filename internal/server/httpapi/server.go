// Package httpapi exposes the drive over HTTP: a chi router with bearer
// authentication, JSON handlers for users and folders, multipart upload for
// files and the external identity login callbacks.
package httpapi

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/dmitrijs2005/textdrive/internal/logging"
	"github.com/dmitrijs2005/textdrive/internal/server/models"
	"github.com/dmitrijs2005/textdrive/internal/server/oauth"
	"github.com/dmitrijs2005/textdrive/internal/server/services"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"
)

const shutdownTimeout = 10 * time.Second

// Services are the collaborators the handlers delegate to.
type Services struct {
	Users     *services.UserService
	Folders   *services.FolderService
	Files     *services.FileService
	Providers oauth.Registry
}

type Server struct {
	address  string
	logger   logging.Logger
	users    *services.UserService
	folders  *services.FolderService
	files    *services.FileService
	provider oauth.Registry
	validate *validator.Validate
	handler  http.Handler
}

// NewServer wires the routes. allowedOrigins feeds the CORS policy.
func NewServer(address string, l logging.Logger, svc Services, allowedOrigins []string) *Server {
	s := &Server{
		address:  address,
		logger:   l.With("module", "http_server"),
		users:    svc.Users,
		folders:  svc.Folders,
		files:    svc.Files,
		provider: svc.Providers,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
	s.handler = s.routes(allowedOrigins)
	return s
}

// Handler returns the root handler, mostly for tests.
func (s *Server) Handler() http.Handler { return s.handler }

func (s *Server) routes(allowedOrigins []string) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.accessLog)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/healthz", s.health)

	r.Post("/users/register", s.register)
	r.Post("/users/login", s.login)

	r.Get("/oauth2/authorization/{provider}", s.oauthStart)
	r.Get("/login/oauth2/code/{provider}", s.oauthCallback)

	r.Group(func(r chi.Router) {
		r.Use(s.authenticate)

		r.Get("/users/{id}", s.getUser)

		r.Route("/folders", func(r chi.Router) {
			r.Post("/", s.createFolder)
			r.Get("/", s.listFolders)
			r.Get("/search", s.searchFolders)
			r.Get("/{id}", s.getFolder)
			r.Put("/{id}", s.renameFolder)
			r.With(s.requirePermission(models.PermDeleteFolder)).Delete("/{id}", s.deleteFolder)
		})

		r.Route("/files", func(r chi.Router) {
			r.Post("/", s.uploadFile)
			r.Get("/search", s.searchFiles)
			r.Get("/download/{id}", s.downloadFile)
			r.Get("/folder/{id}", s.listFolderFiles)
			r.Get("/{id}", s.getFile)
			r.Put("/{id}", s.renameFile)
			r.Delete("/{id}", s.deleteFile)
		})
	})

	return r
}

// Run serves until ctx is cancelled and then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(ctx, "shutdown failed", "error", err)
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", listen.Addr().String())

	if err := srv.Serve(listen); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
