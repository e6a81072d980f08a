package main

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/plain-reactive/plain/internal/config"
	"github.com/plain-reactive/plain/internal/errors"
	"github.com/plain-reactive/plain/pkg/fetch"
	"github.com/plain-reactive/plain/pkg/reconcile"
	"github.com/plain-reactive/plain/pkg/store"
	"github.com/plain-reactive/plain/pkg/style"
	"github.com/plain-reactive/plain/pkg/telemetry"
	"github.com/plain-reactive/plain/pkg/widget"
)

// newLogger builds the slog handler the config asks for.
func newLogger(cfg *config.Config, w io.Writer) (*slog.Logger, error) {
	level, err := config.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg.Log.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	}
	return slog.New(slog.NewTextHandler(w, opts)), nil
}

// newFetcher serves scheme-less paths from the project directory, http(s)
// from the network and s3:// when a region is configured.
func newFetcher(cfg *config.Config) fetch.Fetcher {
	dir := cfg.Dir()
	if dir == "" {
		dir = "."
	}
	mux := fetch.Default(os.DirFS(dir))
	if cfg.S3.Region != "" {
		mux.Handle("s3", fetch.S3{Client: newS3Client(cfg.S3)})
	}
	return mux
}

// newS3Client reads static credentials from the standard AWS environment
// variables.
func newS3Client(c config.S3Config) *s3.Client {
	opts := s3.Options{
		Region: c.Region,
		Credentials: aws.NewCredentialsCache(aws.CredentialsProviderFunc(func(context.Context) (aws.Credentials, error) {
			return aws.Credentials{
				AccessKeyID:     os.Getenv("AWS_ACCESS_KEY_ID"),
				SecretAccessKey: os.Getenv("AWS_SECRET_ACCESS_KEY"),
				SessionToken:    os.Getenv("AWS_SESSION_TOKEN"),
				Source:          "environment",
			}, nil
		})),
	}
	if c.Endpoint != "" {
		opts.BaseEndpoint = aws.String(c.Endpoint)
		opts.UsePathStyle = true
	}
	return s3.New(opts)
}

// newStores opens the durable tier at the configured path, or keeps it in
// memory.
func newStores(cfg *config.Config, logger *slog.Logger, metrics *telemetry.Metrics) (*store.Registry, error) {
	opts := []store.RegistryOption{
		store.WithLogger(logger),
		store.WithRecorder(metrics),
	}
	if path := cfg.StoragePath(); path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, err
		}
		db, err := store.OpenBolt(path)
		if err != nil {
			return nil, err
		}
		opts = append(opts, store.WithBackend(store.Durable, db))
	}
	return store.NewRegistry(opts...), nil
}

// project bundles what the commands build from a config.
type project struct {
	logger   *slog.Logger
	fetcher  fetch.Fetcher
	metrics  *telemetry.Metrics
	registry *prometheus.Registry
	stores   *store.Registry
	styles   *style.Registry
	host     *widget.Host
}

func newProject(ctx context.Context, cfg *config.Config, logOut io.Writer) (*project, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logger, err := newLogger(cfg, logOut)
	if err != nil {
		return nil, err
	}

	p := &project{logger: logger, fetcher: newFetcher(cfg)}
	if cfg.Metrics.Enabled {
		p.registry = prometheus.NewRegistry()
		p.registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		p.metrics = telemetry.NewMetrics(
			telemetry.WithNamespace(cfg.Metrics.Namespace),
			telemetry.WithRegistry(p.registry),
		)
	}

	p.stores, err = newStores(cfg, logger, p.metrics)
	if err != nil {
		return nil, err
	}
	p.styles = style.NewRegistry(p.fetcher, style.WithBase(cfg.Styles.Base), style.WithLogger(logger))

	engineOpts := []reconcile.Option{reconcile.WithLogger(logger), reconcile.WithRecorder(p.metrics)}
	if cfg.Reconcile.StrictAttributes {
		engineOpts = append(engineOpts, reconcile.WithStrictAttributes())
	}
	p.host = widget.NewHost(
		widget.WithContext(ctx),
		widget.WithLogger(logger),
		widget.WithEngine(reconcile.New(engineOpts...)),
		widget.WithStyles(p.styles),
		widget.WithStores(p.stores),
		widget.WithMetrics(p.metrics),
	)
	return p, nil
}

func (p *project) Close() error {
	p.host.Close()
	return p.stores.Close()
}

// loadConfig reads the config at path, a file or a project directory, or
// searches upward from the working directory when path is empty. With
// optional set, a missing config yields the defaults.
func loadConfig(path string, optional bool) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	switch info, statErr := os.Stat(path); {
	case path == "":
		cfg, err = config.LoadFromWorkingDir()
	case statErr == nil && info.IsDir():
		cfg, err = config.Load(path)
	default:
		cfg, err = config.LoadFile(path)
	}
	if err != nil && optional && errors.HasCode(err, errors.CodeConfigNotFound) {
		return config.New(), nil
	}
	return cfg, err
}
