package main

import (
	"sync"

	"github.com/ndlib/repoarchive/archive"
)

// registryResolver is the CLI's stand-in for an embedding application's
// own class registry: it hands out a stable handle the first time a
// (module, name) pair is seen and resolves it back on every later lookup.
// A real embedder would replace this with its own ClassResolver backed by
// its existing type registry.
type registryResolver struct {
	mu      sync.Mutex
	next    archive.ClassHandle
	forward map[[2]string]archive.ClassHandle
	back    map[archive.ClassHandle][2]string
}

func newRegistryResolver() *registryResolver {
	return &registryResolver{
		forward: make(map[[2]string]archive.ClassHandle),
		back:    make(map[archive.ClassHandle][2]string),
	}
}

func (r *registryResolver) intern(module, name string) archive.ClassHandle {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := [2]string{module, name}
	if h, ok := r.forward[key]; ok {
		return h
	}
	r.next++
	r.forward[key] = r.next
	r.back[r.next] = key
	return r.next
}

// Resolve implements archive.ClassResolver.
func (r *registryResolver) Resolve(module, name string) (archive.ClassHandle, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	h, ok := r.forward[[2]string{module, name}]
	return h, ok
}

// Describe implements archive.ClassResolver.
func (r *registryResolver) Describe(handle archive.ClassHandle) (string, string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	pair := r.back[handle]
	return pair[0], pair[1]
}
