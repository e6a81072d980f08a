package config

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/plain-reactive/plain/internal/errors"
)

const (
	// ConfigFileName is the name of the JSON configuration file.
	ConfigFileName = "plain.json"

	// YAMLConfigFileName is the name of the YAML configuration file, used
	// when no JSON file exists.
	YAMLConfigFileName = "plain.yaml"

	// DefaultPort is the default development server port.
	DefaultPort = 3000

	// DefaultHost is the default development server host.
	DefaultHost = "localhost"

	// DefaultWildcard is the default fallback route key.
	DefaultWildcard = "*"

	// DefaultStylesDir is the default stylesheet directory.
	DefaultStylesDir = "styles"
)

// Config represents the complete plain.json configuration.
type Config struct {
	// Name is the project name.
	Name string `json:"name,omitempty" yaml:"name,omitempty"`

	// Page is the page markup loaded into the host on start. It holds the
	// root custom elements.
	Page string `json:"page,omitempty" yaml:"page,omitempty"`

	// Server contains development server configuration.
	Server ServerConfig `json:"server,omitempty" yaml:"server,omitempty"`

	// Styles contains stylesheet configuration.
	Styles StylesConfig `json:"styles,omitempty" yaml:"styles,omitempty"`

	// Storage contains scoped store configuration.
	Storage StorageConfig `json:"storage,omitempty" yaml:"storage,omitempty"`

	// Routes maps view paths to page sources.
	Routes map[string]string `json:"routes,omitempty" yaml:"routes,omitempty"`

	// Wildcard is the route key used when no route matches.
	Wildcard string `json:"wildcard,omitempty" yaml:"wildcard,omitempty"`

	// Docs contains markdown document configuration.
	Docs DocsConfig `json:"docs,omitempty" yaml:"docs,omitempty"`

	// Reconcile contains diff engine configuration.
	Reconcile ReconcileConfig `json:"reconcile,omitempty" yaml:"reconcile,omitempty"`

	// Log contains logging configuration.
	Log LogConfig `json:"log,omitempty" yaml:"log,omitempty"`

	// Metrics contains Prometheus configuration.
	Metrics MetricsConfig `json:"metrics,omitempty" yaml:"metrics,omitempty"`

	// S3 configures the client used for s3:// resources.
	S3 S3Config `json:"s3,omitempty" yaml:"s3,omitempty"`

	// configPath stores the path where the config was loaded from.
	configPath string
}

// ServerConfig contains development server settings.
type ServerConfig struct {
	// Host is the host to bind to.
	Host string `json:"host,omitempty" yaml:"host,omitempty"`

	// Port is the port to listen on.
	Port int `json:"port,omitempty" yaml:"port,omitempty"`

	// Base is a path prefix the application is mounted under.
	Base string `json:"base,omitempty" yaml:"base,omitempty"`

	// Watch enables stylesheet hot reload.
	Watch bool `json:"watch,omitempty" yaml:"watch,omitempty"`
}

// StylesConfig contains stylesheet settings.
type StylesConfig struct {
	// Dir is the local directory watched for stylesheet changes.
	Dir string `json:"dir,omitempty" yaml:"dir,omitempty"`

	// Base is the location stylesheets are fetched from: a path below the
	// project root or an http(s):// or s3:// URL.
	Base string `json:"base,omitempty" yaml:"base,omitempty"`
}

// StorageConfig contains scoped store settings.
type StorageConfig struct {
	// Path is the bbolt file backing the durable tier. Empty keeps durable
	// stores in memory.
	Path string `json:"path,omitempty" yaml:"path,omitempty"`
}

// DocsConfig contains markdown document settings.
type DocsConfig struct {
	// Base is the location documents are fetched from.
	Base string `json:"base,omitempty" yaml:"base,omitempty"`
}

// ReconcileConfig contains diff engine settings.
type ReconcileConfig struct {
	// StrictAttributes compares attribute values, not only their count.
	StrictAttributes bool `json:"strictAttributes,omitempty" yaml:"strictAttributes,omitempty"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `json:"level,omitempty" yaml:"level,omitempty"`

	// Format is text or json.
	Format string `json:"format,omitempty" yaml:"format,omitempty"`
}

// MetricsConfig contains Prometheus settings.
type MetricsConfig struct {
	// Enabled serves /metrics.
	Enabled bool `json:"enabled,omitempty" yaml:"enabled,omitempty"`

	// Namespace prefixes every metric name.
	Namespace string `json:"namespace,omitempty" yaml:"namespace,omitempty"`
}

// S3Config configures the S3 client.
type S3Config struct {
	// Region is the bucket region.
	Region string `json:"region,omitempty" yaml:"region,omitempty"`

	// Endpoint overrides the service endpoint, for S3-compatible stores.
	Endpoint string `json:"endpoint,omitempty" yaml:"endpoint,omitempty"`
}

// New creates a new Config with default values.
func New() *Config {
	return &Config{
		Page: "index.html",
		Server: ServerConfig{
			Host: DefaultHost,
			Port: DefaultPort,
		},
		Styles: StylesConfig{
			Dir:  DefaultStylesDir,
			Base: DefaultStylesDir,
		},
		Wildcard: DefaultWildcard,
		Docs: DocsConfig{
			Base: "docs",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Metrics: MetricsConfig{
			Enabled:   true,
			Namespace: "plain",
		},
	}
}

// Load reads configuration from the specified directory. It looks for
// plain.json, then plain.yaml.
func Load(dir string) (*Config, error) {
	path := filepath.Join(dir, ConfigFileName)
	if _, err := os.Stat(path); err != nil {
		yamlPath := filepath.Join(dir, YAMLConfigFileName)
		if _, yerr := os.Stat(yamlPath); yerr == nil {
			path = yamlPath
		}
	}
	return LoadFile(path)
}

// LoadFile reads configuration from the specified file path. Files ending
// in .yaml or .yml are parsed as YAML, everything else as JSON.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New(errors.CodeConfigNotFound).
				WithDetail("No plain.json or plain.yaml found in " + filepath.Dir(path)).
				WithSuggestion("Create plain.json at the project root")
		}
		return nil, errors.New(errors.CodeConfigInvalid).Wrap(err)
	}

	cfg := New()
	if isYAML(path) {
		err = yaml.Unmarshal(data, cfg)
	} else {
		err = json.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, errors.New(errors.CodeConfigInvalid).
			WithDetail("Failed to parse " + filepath.Base(path) + ": " + err.Error()).
			WithSuggestion("Check the file syntax")
	}

	cfg.configPath = path
	cfg.applyDefaults()

	return cfg, nil
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

// Save writes the configuration to the file it was loaded from.
func (c *Config) Save() error {
	if c.configPath == "" {
		return errors.Newf(errors.CategoryConfig, "no config path set")
	}
	return c.SaveTo(c.configPath)
}

// SaveTo writes the configuration to the specified path, as YAML or JSON
// depending on the extension.
func (c *Config) SaveTo(path string) error {
	var (
		data []byte
		err  error
	)
	if isYAML(path) {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
		data = append(data, '\n')
	}
	if err != nil {
		return errors.New(errors.CodeConfigInvalid).Wrap(err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.New(errors.CodeConfigInvalid).Wrap(err)
	}

	c.configPath = path
	return nil
}

// Path returns the path where the config was loaded from.
func (c *Config) Path() string {
	return c.configPath
}

// Dir returns the directory containing the config file.
func (c *Config) Dir() string {
	if c.configPath == "" {
		return ""
	}
	return filepath.Dir(c.configPath)
}

// applyDefaults fills in default values for empty fields.
func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = DefaultPort
	}
	if c.Server.Host == "" {
		c.Server.Host = DefaultHost
	}
	if c.Styles.Dir == "" {
		c.Styles.Dir = DefaultStylesDir
	}
	if c.Styles.Base == "" {
		c.Styles.Base = c.Styles.Dir
	}
	if c.Wildcard == "" {
		c.Wildcard = DefaultWildcard
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
	if c.Metrics.Namespace == "" {
		c.Metrics.Namespace = "plain"
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return errors.New(errors.CodeConfigInvalid).
			WithDetail("Port must be between 0 and 65535")
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		return err
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return errors.New(errors.CodeConfigInvalid).
			WithDetailf("Unknown log format %q", c.Log.Format).
			WithSuggestion(`Use "text" or "json"`)
	}
	for path := range c.Routes {
		if path != c.Wildcard && !strings.HasPrefix(path, "/") {
			return errors.New(errors.CodeConfigInvalid).
				WithDetailf("Route %q must start with /", path)
		}
	}
	return nil
}

// ParseLevel converts a configured level name to a slog.Level.
func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, errors.New(errors.CodeConfigInvalid).
			WithDetailf("Unknown log level %q", s).
			WithSuggestion("Use debug, info, warn or error")
	}
	return level, nil
}

// Address returns the address string for the server.
func (c *Config) Address() string {
	return c.Server.Host + ":" + strconv.Itoa(c.Server.Port)
}

// URL returns the full URL for the server.
func (c *Config) URL() string {
	return "http://" + c.Address() + strings.TrimSuffix(c.Server.Base, "/")
}

// Resolve returns p relative to the config directory. Absolute paths and
// URLs are returned unchanged.
func (c *Config) Resolve(p string) string {
	if p == "" || filepath.IsAbs(p) || strings.Contains(p, "://") {
		return p
	}
	return filepath.Join(c.Dir(), p)
}

// StylesPath returns the absolute path to the stylesheet directory.
func (c *Config) StylesPath() string {
	return c.Resolve(c.Styles.Dir)
}

// StoragePath returns the absolute path to the durable store file, or "".
func (c *Config) StoragePath() string {
	return c.Resolve(c.Storage.Path)
}

// Exists checks if a config file exists in the given directory.
func Exists(dir string) bool {
	for _, name := range []string{ConfigFileName, YAMLConfigFileName} {
		if _, err := os.Stat(filepath.Join(dir, name)); err == nil {
			return true
		}
	}
	return false
}

// FindProjectRoot walks up directories to find the project root.
// Returns the directory containing the config file, or an error if not found.
func FindProjectRoot(startDir string) (string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}

	for {
		if Exists(dir) {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", errors.New(errors.CodeConfigNotFound).
				WithDetail("No plain.json found in " + startDir + " or any parent directory").
				WithSuggestion("Create plain.json at the project root")
		}
		dir = parent
	}
}

// LoadFromWorkingDir loads configuration from the current working directory.
func LoadFromWorkingDir() (*Config, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, err
	}

	root, err := FindProjectRoot(wd)
	if err != nil {
		return nil, err
	}

	return Load(root)
}
