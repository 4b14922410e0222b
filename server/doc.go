// Package server exposes a read-only REST frontage over the archive's
// history, get_version, container_contents, and iter_hierarchy
// operations. It is an optional convenience layer: nothing in the core
// package depends on it, and an embedder that only needs the Go API can
// ignore this package entirely.
package server
