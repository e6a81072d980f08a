// Package markup turns markup strings into node trees and back.
//
// A snapshot is parsed as an HTML fragment in a <div> context and hung
// below a detached container element. The container stands for the live
// subtree root a widget renders into: reconciliation paths are child
// indices below it, and the container itself is never edited.
//
//	root, err := markup.Parse(`<ul><li>1</li></ul>`)
//	markup.Render(root) // "<ul><li>1</li></ul>"
//
// HTML builds template output with every argument escaped, the Go
// counterpart of a tagged template literal:
//
//	markup.HTML(`<p class="%s">%s</p>`, cls, userText)
package markup
