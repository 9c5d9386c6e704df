package fixture

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"net/url"
	"path"
	"strings"

	"github.com/spf13/afero"
)

// Source opens fixture files by name.
type Source interface {
	Open(ctx context.Context, name string) (io.ReadCloser, error)
}

// validName rejects anything but a plain file name.
func validName(name string) error {
	if name == "" || name != path.Base(name) || strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return fmt.Errorf("invalid fixture name %q: %w", name, fs.ErrNotExist)
	}
	return nil
}

// FSSource reads fixtures from a directory of an afero filesystem.
type FSSource struct {
	fs afero.Fs
}

// NewFSSource returns a source rooted at dir on fsys. Use afero.NewOsFs() in
// production and afero.NewMemMapFs() in tests. An empty dir reads from the
// root of fsys.
func NewFSSource(fsys afero.Fs, dir string) *FSSource {
	if dir == "" || dir == "." {
		return &FSSource{fs: fsys}
	}
	return &FSSource{fs: afero.NewBasePathFs(fsys, dir)}
}

// Open implements Source.
func (s *FSSource) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := validName(name); err != nil {
		return nil, err
	}
	return s.fs.Open(name)
}

// HTTPSource fetches fixtures with a GET relative to a base URL.
type HTTPSource struct {
	base   string
	client *http.Client
}

// NewHTTPSource returns a source fetching baseURL/<name>. A nil client uses
// http.DefaultClient.
func NewHTTPSource(baseURL string, client *http.Client) *HTTPSource {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPSource{base: strings.TrimRight(baseURL, "/"), client: client}
}

// Open implements Source. Non-2xx responses are returned as *StatusError.
func (s *HTTPSource) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	if err := validName(name); err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.base+"/"+url.PathEscape(name), nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		return nil, &StatusError{Code: resp.StatusCode}
	}
	return resp.Body, nil
}
