package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/plain-reactive/plain/internal/errors"
)

func TestNew(t *testing.T) {
	cfg := New()

	if cfg.Server.Port != DefaultPort {
		t.Errorf("Server.Port = %d, want %d", cfg.Server.Port, DefaultPort)
	}
	if cfg.Server.Host != DefaultHost {
		t.Errorf("Server.Host = %q, want %q", cfg.Server.Host, DefaultHost)
	}
	if cfg.Wildcard != DefaultWildcard {
		t.Errorf("Wildcard = %q, want %q", cfg.Wildcard, DefaultWildcard)
	}
	if cfg.Styles.Dir != DefaultStylesDir {
		t.Errorf("Styles.Dir = %q, want %q", cfg.Styles.Dir, DefaultStylesDir)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() = %v, want nil", err)
	}
}

func TestLoad(t *testing.T) {
	tmpDir := t.TempDir()

	_, err := Load(tmpDir)
	if !errors.HasCode(err, errors.CodeConfigNotFound) {
		t.Fatalf("Load(empty) error = %v, want %s", err, errors.CodeConfigNotFound)
	}

	configJSON := `{
  "name": "site",
  "server": {"port": 8080, "host": "0.0.0.0"},
  "routes": {"/": "pages/home.html", "*": "pages/404.html"},
  "reconcile": {"strictAttributes": true},
  "log": {"level": "debug", "format": "json"}
}
`
	if err := os.WriteFile(filepath.Join(tmpDir, ConfigFileName), []byte(configJSON), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Name != "site" {
		t.Errorf("Name = %q, want %q", cfg.Name, "site")
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("Server.Host = %q, want %q", cfg.Server.Host, "0.0.0.0")
	}
	if !cfg.Reconcile.StrictAttributes {
		t.Error("Reconcile.StrictAttributes = false, want true")
	}
	if got := cfg.Routes["*"]; got != "pages/404.html" {
		t.Errorf("Routes[*] = %q, want %q", got, "pages/404.html")
	}
	if cfg.Styles.Base != DefaultStylesDir {
		t.Errorf("Styles.Base = %q, want %q", cfg.Styles.Base, DefaultStylesDir)
	}
	if cfg.Dir() != tmpDir {
		t.Errorf("Dir() = %q, want %q", cfg.Dir(), tmpDir)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}
}

func TestLoadYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configYAML := `name: site
server:
  port: 4000
storage:
  path: data/store.db
styles:
  dir: css
metrics:
  enabled: false
`
	if err := os.WriteFile(filepath.Join(tmpDir, YAMLConfigFileName), []byte(configYAML), 0644); err != nil {
		t.Fatal(err)
	}

	if !Exists(tmpDir) {
		t.Fatal("Exists() = false, want true")
	}

	cfg, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Port != 4000 {
		t.Errorf("Server.Port = %d, want 4000", cfg.Server.Port)
	}
	if cfg.Server.Host != DefaultHost {
		t.Errorf("Server.Host = %q, want %q", cfg.Server.Host, DefaultHost)
	}
	if cfg.Metrics.Enabled {
		t.Error("Metrics.Enabled = true, want false")
	}
	if cfg.Styles.Base != "css" {
		t.Errorf("Styles.Base = %q, want %q", cfg.Styles.Base, "css")
	}
	if want := filepath.Join(tmpDir, "data", "store.db"); cfg.StoragePath() != want {
		t.Errorf("StoragePath() = %q, want %q", cfg.StoragePath(), want)
	}
}

func TestLoadInvalid(t *testing.T) {
	tmpDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(tmpDir, ConfigFileName), []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := Load(tmpDir)
	if !errors.HasCode(err, errors.CodeConfigInvalid) {
		t.Errorf("Load() error = %v, want %s", err, errors.CodeConfigInvalid)
	}
}

func TestSave(t *testing.T) {
	tmpDir := t.TempDir()

	cfg := New()
	cfg.Name = "saved"
	cfg.Server.Port = 9000
	cfg.Routes = map[string]string{"/": "home.html"}

	for _, name := range []string{ConfigFileName, YAMLConfigFileName} {
		path := filepath.Join(tmpDir, name)
		if err := cfg.SaveTo(path); err != nil {
			t.Fatalf("SaveTo(%s) error = %v", name, err)
		}

		loaded, err := LoadFile(path)
		if err != nil {
			t.Fatalf("LoadFile(%s) error = %v", name, err)
		}
		if loaded.Name != "saved" {
			t.Errorf("%s: Name = %q, want %q", name, loaded.Name, "saved")
		}
		if loaded.Server.Port != 9000 {
			t.Errorf("%s: Server.Port = %d, want 9000", name, loaded.Server.Port)
		}
		if loaded.Routes["/"] != "home.html" {
			t.Errorf("%s: Routes[/] = %q, want %q", name, loaded.Routes["/"], "home.html")
		}
	}

	if cfg.Path() != filepath.Join(tmpDir, YAMLConfigFileName) {
		t.Errorf("Path() = %q after SaveTo", cfg.Path())
	}
}

func TestSaveWithoutPath(t *testing.T) {
	if err := New().Save(); err == nil {
		t.Error("Save() without path should fail")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"port too high", func(c *Config) { c.Server.Port = 70000 }, true},
		{"negative port", func(c *Config) { c.Server.Port = -1 }, true},
		{"bad level", func(c *Config) { c.Log.Level = "loud" }, true},
		{"bad format", func(c *Config) { c.Log.Format = "xml" }, true},
		{"relative route", func(c *Config) { c.Routes = map[string]string{"about": "a.html"} }, true},
		{"wildcard route", func(c *Config) { c.Routes = map[string]string{"*": "404.html"} }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := New()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.HasCode(err, errors.CodeConfigInvalid) {
				t.Errorf("Validate() error = %v, want %s", err, errors.CodeConfigInvalid)
			}
		})
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug": slog.LevelDebug,
		"info":  slog.LevelInfo,
		"WARN":  slog.LevelWarn,
		"error": slog.LevelError,
	}
	for in, want := range tests {
		got, err := ParseLevel(in)
		if err != nil {
			t.Errorf("ParseLevel(%q) error = %v", in, err)
			continue
		}
		if got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestAddress(t *testing.T) {
	cfg := New()
	cfg.Server.Host = "127.0.0.1"
	cfg.Server.Port = 8080
	cfg.Server.Base = "/app/"

	if got := cfg.Address(); got != "127.0.0.1:8080" {
		t.Errorf("Address() = %q, want %q", got, "127.0.0.1:8080")
	}
	if got := cfg.URL(); got != "http://127.0.0.1:8080/app" {
		t.Errorf("URL() = %q, want %q", got, "http://127.0.0.1:8080/app")
	}
}

func TestResolve(t *testing.T) {
	tmpDir := t.TempDir()
	cfg := New()
	if err := cfg.SaveTo(filepath.Join(tmpDir, ConfigFileName)); err != nil {
		t.Fatal(err)
	}

	tests := map[string]string{
		"":                    "",
		"pages/a.html":        filepath.Join(tmpDir, "pages", "a.html"),
		"https://x.test/a.md": "https://x.test/a.md",
		"s3://bucket/k":       "s3://bucket/k",
	}
	for in, want := range tests {
		if got := cfg.Resolve(in); got != want {
			t.Errorf("Resolve(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestFindProjectRoot(t *testing.T) {
	tmpDir := t.TempDir()
	nested := filepath.Join(tmpDir, "a", "b")
	if err := os.MkdirAll(nested, 0755); err != nil {
		t.Fatal(err)
	}

	if _, err := FindProjectRoot(nested); err == nil {
		t.Error("FindProjectRoot() without config should fail")
	}

	if err := os.WriteFile(filepath.Join(tmpDir, ConfigFileName), []byte("{}"), 0644); err != nil {
		t.Fatal(err)
	}

	root, err := FindProjectRoot(nested)
	if err != nil {
		t.Fatalf("FindProjectRoot() error = %v", err)
	}
	want, _ := filepath.Abs(tmpDir)
	if root != want {
		t.Errorf("FindProjectRoot() = %q, want %q", root, want)
	}
}
