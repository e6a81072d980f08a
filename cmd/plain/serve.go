package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/plain-reactive/plain/internal/config"
	"github.com/plain-reactive/plain/internal/dev"
	"github.com/plain-reactive/plain/pkg/docs"
	"github.com/plain-reactive/plain/pkg/server"
	"github.com/plain-reactive/plain/pkg/style"
	"github.com/plain-reactive/plain/pkg/view"
	"github.com/plain-reactive/plain/pkg/widget"
)

// defaultPage is loaded when the config names no page.
const defaultPage = "<plain-view></plain-view>"

func serveCmd() *cobra.Command {
	var (
		configPath string
		port       int
		host       string
		watch      bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the development host",
		Long: `Start the development host for the project in plain.json.

The page is rendered on the server with declarative shadow roots.
Connected browsers forward events over a websocket and receive the
edit scripts each render produces.

Examples:
  plain serve
  plain serve --port=8080 --watch
  plain serve --config=site/plain.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath, false)
			if err != nil {
				return err
			}
			if port > 0 {
				cfg.Server.Port = port
			}
			if host != "" {
				cfg.Server.Host = host
			}
			if cmd.Flags().Changed("watch") {
				cfg.Server.Watch = watch
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, cmd, cfg)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Config file or project directory (default: search upward)")
	cmd.Flags().IntVarP(&port, "port", "p", 0, "Port to run on (default from plain.json)")
	cmd.Flags().StringVarP(&host, "host", "H", "", "Host to bind to (default from plain.json)")
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "Reload styles and pages when files change")

	return cmd
}

func runServe(ctx context.Context, cmd *cobra.Command, cfg *config.Config) error {
	p, err := newProject(ctx, cfg, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer p.Close()

	start := cfg.Server.Base
	if start == "" {
		start = "/"
	}
	res := view.New(view.NewMemoryHistory(start), view.WithBase(cfg.Server.Base), view.WithLogger(p.logger))
	res.Setup(cfg.Routes, cfg.Wildcard)

	if err := server.DefineView(p.host, res, p.fetcher, p.logger); err != nil {
		return err
	}
	if err := docs.Define(p.host, &docs.Loader{Fetcher: p.fetcher, Base: cfg.Docs.Base, Logger: p.logger}); err != nil {
		return err
	}

	load := func(h *widget.Host) error {
		page := defaultPage
		if cfg.Page != "" {
			text, err := p.fetcher.FetchText(ctx, cfg.Page)
			if err != nil {
				return err
			}
			page = text
		}
		_, err := h.Load(ctx, page)
		return err
	}
	if err := load(p.host); err != nil {
		return err
	}

	srvConfig := &server.Config{
		Address:  cfg.Address(),
		Title:    cfg.Name,
		Resolver: res,
		Metrics:  p.metrics,
		Logger:   p.logger,
	}
	if p.registry != nil {
		srvConfig.Gatherer = p.registry
	}
	srv := server.New(p.host, srvConfig)

	if cfg.Server.Watch {
		w := dev.NewWatcher(dev.WatcherConfig{
			Paths:  dev.CollectWatchPaths(cfg),
			Logger: p.logger,
		})
		w.OnChange(func(c dev.Change) {
			onChange(ctx, srv, c, load, p)
		})
		go func() {
			if err := w.Start(ctx); err != nil && ctx.Err() == nil {
				p.logger.Error("watcher stopped", "error", err)
			}
		}()
		defer w.Stop()
	}

	success(cmd, "Serving %s", cfg.URL())
	if cfg.Metrics.Enabled {
		info(cmd, "Metrics at %s/metrics", cfg.URL())
	}
	return srv.Run(ctx)
}

// onChange applies one file change: stylesheets are swapped in place,
// pages and documents reload the whole page.
func onChange(ctx context.Context, srv *server.Server, c dev.Change, load func(*widget.Host) error, p *project) {
	switch c.Type {
	case dev.ChangeStyle:
		name, ok := style.NameForPath(c.Path)
		if !ok {
			return
		}
		if err := srv.Restyle(ctx, name); err != nil {
			p.logger.Warn("serve: restyle failed", "name", name, "error", err)
		}
	case dev.ChangeMarkup, dev.ChangeMarkdown:
		if err := srv.Do(load); err != nil {
			p.logger.Warn("serve: reload failed", "path", c.Path, "error", err)
			srv.Hub().NotifyError(err.Error())
			return
		}
		srv.Hub().NotifyReload(filepath.Base(c.Path))
	case dev.ChangeConfig:
		p.logger.Info("serve: config changed, restart to apply", "path", c.Path)
	}
}
