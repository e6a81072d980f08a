package dev

import (
	"path/filepath"
	"strings"

	"github.com/plain-reactive/plain/internal/config"
)

// CollectWatchPaths returns the local directories a project's styles, page
// and route sources live in. Remote locations are skipped.
func CollectWatchPaths(cfg *config.Config) []string {
	paths := []string{cfg.StylesPath(), cfg.Resolve(cfg.Docs.Base)}
	for _, src := range append([]string{cfg.Page}, routeSources(cfg)...) {
		if src != "" && !isRemote(src) {
			paths = append(paths, filepath.Dir(cfg.Resolve(src)))
		}
	}

	unique := make([]string, 0, len(paths))
	seen := make(map[string]struct{}, len(paths))
	for _, path := range paths {
		if path == "" || isRemote(path) {
			continue
		}
		clean := filepath.Clean(path)
		if _, ok := seen[clean]; ok {
			continue
		}
		seen[clean] = struct{}{}
		unique = append(unique, clean)
	}

	return unique
}

func routeSources(cfg *config.Config) []string {
	out := make([]string, 0, len(cfg.Routes))
	for _, src := range cfg.Routes {
		out = append(out, src)
	}
	return out
}

func isRemote(p string) bool {
	return strings.Contains(p, "://")
}
