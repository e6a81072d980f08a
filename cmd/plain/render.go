package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/plain-reactive/plain/pkg/docs"
	"github.com/plain-reactive/plain/pkg/markup"
	"github.com/plain-reactive/plain/pkg/widget"
)

// pageTag is the widget a rendered file is mounted in.
const pageTag = "plain-page"

func renderCmd() *cobra.Command {
	var (
		configPath string
		inner      bool
	)

	cmd := &cobra.Command{
		Use:   "render <file>",
		Short: "Render a markup or markdown page through a widget",
		Long: `Mount the file's content in a widget and print the resulting document,
shadow root included. Markdown files (.md) are converted first. Nested
<plain-doc doc="..."> elements load their documents from docs.base.

A plain.json found in the working directory or above is used for
styles, docs and logging; without one the defaults apply.

Examples:
  plain render pages/home.html
  plain render --inner README.md`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath, true)
			if err != nil {
				return err
			}
			src, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}
			if ext := strings.ToLower(filepath.Ext(args[0])); ext == ".md" || ext == ".markdown" {
				src = docs.ToHTML(src)
			}

			p, err := newProject(cmd.Context(), cfg, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer p.Close()

			if err := docs.Define(p.host, &docs.Loader{Fetcher: p.fetcher, Base: cfg.Docs.Base, Logger: p.logger}); err != nil {
				return err
			}
			if err := p.host.Define(pageTag, func(*widget.Widget) widget.Component {
				return staticPage(src)
			}, widget.WithoutStyle()); err != nil {
				return err
			}
			w, err := p.host.Mount(cmd.Context(), pageTag)
			if err != nil {
				return err
			}

			out := p.host.RenderHTML()
			if inner {
				out = markup.Render(w.Root())
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), out)
			return err
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Config file or project directory (default: search upward)")
	cmd.Flags().BoolVar(&inner, "inner", false, "Print only the rendered content, without the element and shadow root")

	return cmd
}

// staticPage is a component with fixed markup.
type staticPage string

func (s staticPage) Template() string { return string(s) }
