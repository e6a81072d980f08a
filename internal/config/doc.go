// Package config provides configuration parsing for plain projects.
//
// The configuration is stored in plain.json (or plain.yaml) at the project
// root. This package handles loading, saving, and validating it.
//
// # Configuration File Structure
//
//	{
//	  "name": "docs-site",
//	  "page": "index.html",
//	  "server": {"host": "localhost", "port": 3000},
//	  "styles": {"dir": "styles", "base": "styles"},
//	  "storage": {"path": ".plain/store.db"},
//	  "routes": {"/": "pages/home.html", "/about": "pages/about.html", "*": "pages/404.html"},
//	  "wildcard": "*",
//	  "docs": {"base": "docs"},
//	  "reconcile": {"strictAttributes": false},
//	  "log": {"level": "info", "format": "text"},
//	  "metrics": {"enabled": true, "namespace": "plain"}
//	}
//
// # Usage
//
//	cfg, err := config.Load(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	fmt.Println("Listening on", cfg.Address())
package config
