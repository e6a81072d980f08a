// Package dev provides the file watcher and websocket hub behind the
// development server.
//
// # Architecture
//
//   - Watcher: reports changed project files through fsnotify, debounced
//   - Hub: tracks websocket clients and broadcasts JSON messages to them
//
// The server in pkg/server owns the per-connection read loops; the hub only
// serializes writes and fans messages out.
//
// # Usage
//
//	w := dev.NewWatcher(dev.WatcherConfig{Paths: dev.CollectWatchPaths(cfg)})
//	w.OnChange(func(c dev.Change) {
//	    if c.Type == dev.ChangeStyle {
//	        hub.NotifyReload(filepath.Base(c.Path))
//	    }
//	})
//	go w.Start(ctx)
//
// # Reload Protocol
//
//	{"type": "reload", "file": "card.css"}  // a stylesheet changed
//	{"type": "error", "error": "..."}      // a server-side failure
package dev
