// Package api is a typed HTTP client for the TextDrive server. It keeps the
// bearer token returned by Login and attaches it to every later call.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/textdrive/internal/common"
)

var (
	ErrUnavailable  = errors.New("server unavailable")
	ErrUnauthorized = errors.New("unauthorized")
)

// Error is a non-2xx answer carrying the server's {"error": ...} message.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", http.StatusText(e.Status), e.Message)
}

// IsNotFound reports whether err is a 404 from the server.
func IsNotFound(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Status == http.StatusNotFound
}

type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

type File struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Content  string `json:"content"`
	FolderID string `json:"folderId"`
}

type Folder struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	OwnerID string `json:"ownerId"`
	Files   []File `json:"files"`
}

type Client struct {
	baseURL string
	http    *http.Client

	mu    sync.RWMutex
	token string
}

func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

// Ping checks that the server answers its health endpoint.
func (c *Client) Ping(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/healthz", nil, "", nil)
}

func (c *Client) Register(ctx context.Context, userName, password string) (*User, error) {
	var u User
	body := map[string]string{"username": userName, "password": password}
	if err := c.doJSON(ctx, http.MethodPost, "/users/register", body, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// Login authenticates and keeps the returned token for later calls.
func (c *Client) Login(ctx context.Context, userName, password string) (*User, error) {
	var resp struct {
		Token string `json:"token"`
		User  User   `json:"user"`
	}
	body := map[string]string{"username": userName, "password": password}
	if err := c.doJSON(ctx, http.MethodPost, "/users/login", body, &resp); err != nil {
		return nil, err
	}
	c.SetToken(resp.Token)
	return &resp.User, nil
}

func (c *Client) Logout() { c.SetToken("") }

func (c *Client) CreateFolder(ctx context.Context, name string) (*Folder, error) {
	var f Folder
	if err := c.doJSON(ctx, http.MethodPost, "/folders", map[string]string{"name": name}, &f); err != nil {
		return nil, err
	}
	return &f, nil
}

func (c *Client) GetFolder(ctx context.Context, id string) (*Folder, error) {
	var f Folder
	if err := c.do(ctx, http.MethodGet, "/folders/"+url.PathEscape(id), nil, "", &f); err != nil {
		return nil, err
	}
	return &f, nil
}

func (c *Client) ListFolders(ctx context.Context) ([]Folder, error) {
	var list []Folder
	if err := c.do(ctx, http.MethodGet, "/folders", nil, "", &list); err != nil {
		return nil, err
	}
	return list, nil
}

func (c *Client) SearchFolders(ctx context.Context, fragment string) ([]Folder, error) {
	var list []Folder
	if err := c.do(ctx, http.MethodGet, "/folders/search?name="+url.QueryEscape(fragment), nil, "", &list); err != nil {
		return nil, err
	}
	return list, nil
}

func (c *Client) RenameFolder(ctx context.Context, id, name string) (*Folder, error) {
	var f Folder
	if err := c.doJSON(ctx, http.MethodPut, "/folders/"+url.PathEscape(id), map[string]string{"name": name}, &f); err != nil {
		return nil, err
	}
	return &f, nil
}

func (c *Client) DeleteFolder(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/folders/"+url.PathEscape(id), nil, "", nil)
}

// Upload sends content as a multipart "file" part. The part's content type
// follows the file extension and falls back to sniffing the data.
func (c *Client) Upload(ctx context.Context, folderID, name string, content []byte) (*File, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if err := mw.WriteField("folderId", folderID); err != nil {
		return nil, err
	}

	hdr := textproto.MIMEHeader{}
	hdr.Set("Content-Disposition", mime.FormatMediaType("form-data", map[string]string{"name": "file", "filename": name}))
	hdr.Set("Content-Type", contentTypeOf(name, content))
	part, err := mw.CreatePart(hdr)
	if err != nil {
		return nil, err
	}
	if _, err := part.Write(content); err != nil {
		return nil, err
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	var f File
	if err := c.do(ctx, http.MethodPost, "/files", &buf, mw.FormDataContentType(), &f); err != nil {
		return nil, err
	}
	return &f, nil
}

func contentTypeOf(name string, content []byte) string {
	if ct := mime.TypeByExtension(filepath.Ext(name)); ct != "" {
		return ct
	}
	return http.DetectContentType(content)
}

func (c *Client) GetFile(ctx context.Context, id string) (*File, error) {
	var f File
	if err := c.do(ctx, http.MethodGet, "/files/"+url.PathEscape(id), nil, "", &f); err != nil {
		return nil, err
	}
	return &f, nil
}

// Download returns the raw text of a file.
func (c *Client) Download(ctx context.Context, id string) (string, error) {
	var sb strings.Builder
	if err := c.do(ctx, http.MethodGet, "/files/download/"+url.PathEscape(id), nil, "", &sb); err != nil {
		return "", err
	}
	return sb.String(), nil
}

func (c *Client) SearchFiles(ctx context.Context, fragment string) ([]File, error) {
	var list []File
	if err := c.do(ctx, http.MethodGet, "/files/search?name="+url.QueryEscape(fragment), nil, "", &list); err != nil {
		return nil, err
	}
	return list, nil
}

func (c *Client) RenameFile(ctx context.Context, id, newName string) (*File, error) {
	var f File
	path := "/files/" + url.PathEscape(id) + "?newName=" + url.QueryEscape(newName)
	if err := c.do(ctx, http.MethodPut, path, nil, "", &f); err != nil {
		return nil, err
	}
	return &f, nil
}

func (c *Client) DeleteFile(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/files/"+url.PathEscape(id), nil, "", nil)
}

func (c *Client) ListFolderFiles(ctx context.Context, folderID string) ([]File, error) {
	var list []File
	if err := c.do(ctx, http.MethodGet, "/files/folder/"+url.PathEscape(folderID), nil, "", &list); err != nil {
		return nil, err
	}
	return list, nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, in, out any) error {
	b, err := json.Marshal(in)
	if err != nil {
		return err
	}
	return c.do(ctx, method, path, bytes.NewReader(b), "application/json", out)
}

// do sends the request and decodes a 2xx body into out. A *strings.Builder
// receives the body verbatim; nil discards it.
func (c *Client) do(ctx context.Context, method, path string, body io.Reader, contentType string, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token := c.Token(); token != "" {
		req.Header.Set(common.AuthorizationHeaderName, common.BearerPrefix+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return c.mapError(resp)
	}

	switch dst := out.(type) {
	case nil:
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	case *strings.Builder:
		_, err := io.Copy(dst, resp.Body)
		return err
	default:
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode %s %s: %w", method, path, err)
		}
		return nil
	}
}

func (c *Client) mapError(resp *http.Response) error {
	var e struct {
		Error string `json:"error"`
	}
	_ = json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&e)
	if e.Error == "" {
		e.Error = http.StatusText(resp.StatusCode)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return fmt.Errorf("%w: %s", ErrUnauthorized, e.Error)
	case resp.StatusCode == http.StatusBadGateway,
		resp.StatusCode == http.StatusServiceUnavailable,
		resp.StatusCode == http.StatusGatewayTimeout:
		return fmt.Errorf("%w: %s", ErrUnavailable, e.Error)
	default:
		return &Error{Status: resp.StatusCode, Message: e.Error}
	}
}
