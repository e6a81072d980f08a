// Package server is the development host for a widget tree.
//
// A Server owns one widget.Host and serializes every access to it on a
// single mutex, so widgets keep their single-threaded model while many
// browsers connect. Each browser receives the whole document once and then
// follows the edit scripts the host produces.
//
// # Routes
//
//	GET /healthz   liveness probe
//	GET /metrics   Prometheus exposition, when a Gatherer is configured
//	GET /ws        websocket stream
//	GET /*         the full document, declarative shadow roots included
//
// # Wire Protocol
//
// Client to server:
//
//	{"type":"event","widget":"w1","path":[0,1],"event":"click","data":{"value":"x"}}
//	{"type":"navigate","path":"/about"}
//
// Server to client:
//
//	{"type":"patch","widget":"w1","ops":[{"op":"update-text","path":[0,0],"text":"B"}]}
//	{"type":"patch","widget":"w1","full":true,"markup":"<p>...</p>"}
//	{"type":"reload","file":"card.css"}
//	{"type":"error","error":"..."}
package server
