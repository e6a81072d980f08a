// Package reconcile computes and applies minimal edit scripts between two
// markup snapshots of a widget's subtree.
//
// # Diffing
//
// Diff parses both snapshots and walks them breadth-first from their
// fragment roots, carrying a Path of child indices. At each pair of nodes:
//
//   - a node only in next becomes an Insert of its whole subtree
//   - a node only in prev becomes a Remove
//   - different node types or element tags become a ReplaceByType
//   - text or comment nodes whose trimmed text differs become an UpdateText
//   - elements with a different attribute count become a ReplaceByAttributes
//   - otherwise every child pair is queued
//
// The attribute rule compares counts only, so an edit that changes a value
// but keeps the count goes undetected. WithStrictAttributes also compares
// names and values.
//
// # Applying
//
// Apply runs the ops in emission order against the live tree. Paths are
// expressed in the previous tree's indexing; a per-parent ledger translates
// them into current positions as removals and insertions land, and marks
// removed or replaced positions void. An op whose path no longer resolves
// is logged, counted as skipped, and the rest of the script still runs.
//
// Untouched nodes keep their identity across Apply, so anything keyed by
// node pointer (listeners, focus, per-element state) survives a re-render.
package reconcile
