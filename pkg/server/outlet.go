package server

import (
	"log/slog"
	"strings"

	"github.com/plain-reactive/plain/pkg/docs"
	"github.com/plain-reactive/plain/pkg/fetch"
	"github.com/plain-reactive/plain/pkg/view"
	"github.com/plain-reactive/plain/pkg/widget"
)

// ViewTag is the element that displays the resolver's current view.
const ViewTag = "plain-view"

// DefineView registers ViewTag on host. The element renders the page
// source the resolver maps the current path to, fetched through pages;
// markdown sources are converted to markup. The widget is bound to the
// resolver while attached, so navigation re-renders it in full.
func DefineView(host *widget.Host, res *view.Resolver, pages fetch.Fetcher, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	return host.Define(ViewTag, func(w *widget.Widget) widget.Component {
		return &outlet{w: w, res: res, pages: pages, logger: logger}
	}, widget.WithoutStyle())
}

type outlet struct {
	w      *widget.Widget
	res    *view.Resolver
	pages  fetch.Fetcher
	logger *slog.Logger
}

func (o *outlet) Template() string {
	src := o.res.View()
	if src == "" {
		return ""
	}
	text := fetch.TextOr(o.w.Context(), o.pages, src, docs.Fallback, o.logger)
	if text != docs.Fallback && isMarkdown(src) {
		return docs.ToHTML(text)
	}
	return text
}

func (o *outlet) Attached(w *widget.Widget) { o.res.Bind(w) }

func (o *outlet) Detaching(*widget.Widget) { o.res.Unbind() }

func isMarkdown(src string) bool {
	src = strings.ToLower(src)
	return strings.HasSuffix(src, ".md") || strings.HasSuffix(src, ".markdown")
}
