// Package fetch retrieves text resources (stylesheets, documents) by URL.
//
// Every Fetcher returns an error on failure; callers that must degrade
// instead of failing use TextOr, which logs the failure and returns a
// fallback.
package fetch

import (
	"context"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/plain-reactive/plain/internal/errors"
)

// Fetcher retrieves the text at a URL.
type Fetcher interface {
	FetchText(ctx context.Context, rawURL string) (string, error)
}

// Func adapts a function to Fetcher.
type Func func(ctx context.Context, rawURL string) (string, error)

// FetchText calls f.
func (f Func) FetchText(ctx context.Context, rawURL string) (string, error) {
	return f(ctx, rawURL)
}

// maxBody bounds every fetched resource.
const maxBody = 8 << 20

// readBody reads r, failing when it holds more than maxBody bytes.
func readBody(rawURL string, r io.Reader) (string, error) {
	body, err := io.ReadAll(io.LimitReader(r, maxBody+1))
	if err != nil {
		return "", failed(rawURL, err)
	}
	if len(body) > maxBody {
		return "", errors.New(errors.CodeFetchFailed).
			WithDetailf("%s: larger than %d bytes", rawURL, maxBody)
	}
	return string(body), nil
}

func failed(rawURL string, err error) error {
	return errors.New(errors.CodeFetchFailed).WithDetail(rawURL).Wrap(err)
}

// HTTP fetches http and https URLs.
type HTTP struct {
	Client *http.Client
}

// FetchText issues a GET request and returns the body of a 2xx response.
func (h HTTP) FetchText(ctx context.Context, rawURL string) (string, error) {
	client := h.Client
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", failed(rawURL, err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", failed(rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", errors.New(errors.CodeFetchFailed).
			WithDetailf("%s: %s", rawURL, resp.Status)
	}
	return readBody(rawURL, resp.Body)
}

// File reads paths from a file system. Both "file:///a/b.css" and "a/b.css"
// name the file a/b.css in FS.
type File struct {
	FS fs.FS
}

// FetchText reads the named file.
func (f File) FetchText(_ context.Context, rawURL string) (string, error) {
	name := strings.TrimPrefix(rawURL, "file://")
	name = path.Clean("/" + name)[1:]
	if name == "" {
		name = "."
	}
	data, err := fs.ReadFile(f.FS, name)
	if err != nil {
		return "", failed(rawURL, err)
	}
	return string(data), nil
}

// S3API is the subset of the S3 client used by S3.
type S3API interface {
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3 fetches s3://bucket/key URLs.
type S3 struct {
	Client S3API
}

// FetchText downloads the object.
func (s S3) FetchText(ctx context.Context, rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", failed(rawURL, err)
	}
	key := strings.TrimPrefix(u.Path, "/")
	if u.Host == "" || key == "" {
		return "", errors.New(errors.CodeFetchFailed).
			WithDetailf("%s: want s3://bucket/key", rawURL)
	}
	out, err := s.Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(u.Host),
		Key:    aws.String(key),
	})
	if err != nil {
		return "", failed(rawURL, err)
	}
	defer out.Body.Close()
	return readBody(rawURL, out.Body)
}

// Mux routes URLs to fetchers by scheme. URLs without a scheme go to the
// fetcher registered for "".
type Mux struct {
	mu       sync.RWMutex
	fetchers map[string]Fetcher
}

// NewMux creates an empty Mux.
func NewMux() *Mux {
	return &Mux{fetchers: make(map[string]Fetcher)}
}

// Handle registers f for scheme.
func (m *Mux) Handle(scheme string, f Fetcher) *Mux {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fetchers[strings.ToLower(scheme)] = f
	return m
}

// FetchText dispatches on the URL scheme.
func (m *Mux) FetchText(ctx context.Context, rawURL string) (string, error) {
	scheme := ""
	if i := strings.Index(rawURL, "://"); i > 0 {
		scheme = strings.ToLower(rawURL[:i])
	}
	m.mu.RLock()
	f, ok := m.fetchers[scheme]
	m.mu.RUnlock()
	if !ok {
		return "", errors.New(errors.CodeFetchFailed).
			WithDetailf("%s: no fetcher for scheme %q", rawURL, scheme)
	}
	return f.FetchText(ctx, rawURL)
}

// Default returns a Mux serving http, https and file URLs, with scheme-less
// paths read from root.
func Default(root fs.FS) *Mux {
	m := NewMux()
	m.Handle("http", HTTP{}).Handle("https", HTTP{})
	if root != nil {
		m.Handle("file", File{FS: root}).Handle("", File{FS: root})
	}
	return m
}

// TextOr fetches rawURL and returns fallback, after logging, if that fails.
func TextOr(ctx context.Context, f Fetcher, rawURL, fallback string, logger *slog.Logger) string {
	text, err := f.FetchText(ctx, rawURL)
	if err != nil {
		if logger == nil {
			logger = slog.Default()
		}
		logger.Warn("fetch: failed", "url", rawURL, "error", err, "code", errors.CodeFetchFailed)
		return fallback
	}
	return text
}
