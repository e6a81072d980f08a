// Package docs loads markdown documents and renders them to markup for
// widget templates.
package docs

import (
	"context"
	"log/slog"
	"strings"

	"github.com/gomarkdown/markdown"
	mdhtml "github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"

	"github.com/plain-reactive/plain/internal/errors"
	"github.com/plain-reactive/plain/pkg/fetch"
)

// Fallback is returned in place of a document that could not be loaded.
const Fallback = "<p>Error loading the document. Please try again.</p>"

// Loader fetches <Base>/<id>.md documents.
type Loader struct {
	Fetcher fetch.Fetcher
	Base    string
	Logger  *slog.Logger
}

// URL returns the location of the document id.
func (l *Loader) URL(id string) string {
	id = strings.Trim(id, "/")
	if l.Base == "" {
		return id + ".md"
	}
	return strings.TrimSuffix(l.Base, "/") + "/" + id + ".md"
}

// Load fetches and renders document id. Failures are logged and yield
// Fallback.
func (l *Loader) Load(ctx context.Context, id string) string {
	html, err := l.Render(ctx, id)
	if err != nil {
		l.logger().Warn("docs: load failed", "id", id, "url", l.URL(id), "error", err, "code", errors.CodeFetchFailed)
		return Fallback
	}
	return html
}

// Render fetches and renders document id, returning the fetch error.
func (l *Loader) Render(ctx context.Context, id string) (string, error) {
	if l.Fetcher == nil {
		return "", errors.New(errors.CodeFetchFailed).WithDetail("no fetcher configured")
	}
	src, err := l.Fetcher.FetchText(ctx, l.URL(id))
	if err != nil {
		return "", err
	}
	return ToHTML(src), nil
}

func (l *Loader) logger() *slog.Logger {
	if l.Logger != nil {
		return l.Logger
	}
	return slog.Default()
}

// ToHTML renders GitHub-flavored markdown with hard line breaks and heading
// ids.
func ToHTML(src string) string {
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.AutoHeadingIDs | parser.HardLineBreak)
	doc := p.Parse([]byte(src))
	r := mdhtml.NewRenderer(mdhtml.RendererOptions{Flags: mdhtml.CommonFlags})
	return string(markdown.Render(doc, r))
}
