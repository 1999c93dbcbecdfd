package httpapi

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/textdrive/internal/logging"
	"github.com/dmitrijs2005/textdrive/internal/server/auth"
	"github.com/dmitrijs2005/textdrive/internal/server/oauth"
	"github.com/dmitrijs2005/textdrive/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/textdrive/internal/server/services"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
	_ "modernc.org/sqlite"
)

type harness struct {
	t      *testing.T
	server *Server
	users  *services.UserService
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	repos := repomanager.NewInMemoryRepositoryManager()
	tokens := auth.NewTokenService([]byte("test-secret"), "textdrive", time.Hour)
	us := services.NewUserService(db, repos, tokens)

	gh := newFakeGitHub(t)
	providers := oauth.NewRegistry(oauth.NewProvider("github", &oauth2.Config{
		ClientID:     "client",
		ClientSecret: "secret",
		Endpoint: oauth2.Endpoint{
			AuthURL:   gh.URL + "/login/oauth/authorize",
			TokenURL:  gh.URL + "/login/oauth/access_token",
			AuthStyle: oauth2.AuthStyleInParams,
		},
		RedirectURL: "http://localhost:8080/login/oauth2/code/github",
	}, gh.URL+"/user"))

	srv := NewServer("127.0.0.1:0", logging.Nop(), Services{
		Users:     us,
		Folders:   services.NewFolderService(db, repos),
		Files:     services.NewFileService(db, repos),
		Providers: providers,
	}, []string{"http://localhost:3000"})

	return &harness{t: t, server: srv, users: us}
}

func newFakeGitHub(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/login/oauth/access_token", func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		w.Header().Set("Content-Type", "application/json")
		if r.Form.Get("code") != "good-code" {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"bad_verification_code"}`))
			return
		}
		_, _ = w.Write([]byte(`{"access_token":"gh-token","token_type":"bearer"}`))
	})
	mux.HandleFunc("/user", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id": 583231, "login": "octocat", "email": null}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func (h *harness) do(req *http.Request) *httptest.ResponseRecorder {
	h.t.Helper()
	rec := httptest.NewRecorder()
	h.server.Handler().ServeHTTP(rec, req)
	return rec
}

func (h *harness) request(method, path, token string, body any) *httptest.ResponseRecorder {
	h.t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(h.t, err)
		rd = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return h.do(req)
}

func (h *harness) upload(token, folderID, filename, contentType, content string) *httptest.ResponseRecorder {
	h.t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if folderID != "" {
		require.NoError(h.t, mw.WriteField("folderId", folderID))
	}
	hdr := textproto.MIMEHeader{}
	hdr.Set("Content-Disposition", `form-data; name="file"; filename="`+filename+`"`)
	hdr.Set("Content-Type", contentType)
	part, err := mw.CreatePart(hdr)
	require.NoError(h.t, err)
	_, err = io.WriteString(part, content)
	require.NoError(h.t, err)
	require.NoError(h.t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/files", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	return h.do(req)
}

// signUp registers and logs in, returning the token and user id.
func (h *harness) signUp(name string) (string, string) {
	h.t.Helper()
	rec := h.request(http.MethodPost, "/users/register", "", credentialsRequest{Username: name, Password: "password1"})
	require.Equal(h.t, http.StatusOK, rec.Code, rec.Body.String())
	return h.loginAs(name, "password1")
}

func (h *harness) loginAs(name, password string) (string, string) {
	h.t.Helper()
	rec := h.request(http.MethodPost, "/users/login", "", credentialsRequest{Username: name, Password: password})
	require.Equal(h.t, http.StatusOK, rec.Code, rec.Body.String())
	var resp loginResponse
	decode(h.t, rec, &resp)
	return resp.Token, resp.User.ID
}

func (h *harness) createFolder(token, name string) folderResponse {
	h.t.Helper()
	rec := h.request(http.MethodPost, "/folders", token, nameRequest{Name: name})
	require.Equal(h.t, http.StatusCreated, rec.Code, rec.Body.String())
	var f folderResponse
	decode(h.t, rec, &f)
	return f
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.NewDecoder(strings.NewReader(rec.Body.String())).Decode(v), rec.Body.String())
}

func errorOf(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var e errorResponse
	decode(t, rec, &e)
	return e.Error
}

