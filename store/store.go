/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

// Package store provides the flat string key-value storage used to persist
// per-player state, in the manner of a browser's local storage.
package store

import "sync"

// Store is a synchronous string-keyed key-value store.
// Implementations must be safe for concurrent use.
type Store interface {
	// Get returns the value for key, and whether it was present.
	Get(key string) (string, bool, error)
	Set(key, value string) error
	Remove(key string) error
}

// Memory is an in-process Store. The zero value is ready to use.
type Memory struct {
	mu   sync.RWMutex
	data map[string]string
}

func NewMemory() *Memory {
	return &Memory{data: make(map[string]string)}
}

func (m *Memory) Get(key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	v, ok := m.data[key]

	return v, ok, nil
}

func (m *Memory) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.data == nil {
		m.data = make(map[string]string)
	}
	m.data[key] = value

	return nil
}

func (m *Memory) Remove(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.data, key)

	return nil
}

type namespaced struct {
	prefix string
	s      Store
}

// Namespace returns a Store that prepends prefix to every key before
// delegating to s. Nested namespaces concatenate their prefixes.
func Namespace(s Store, prefix string) Store {
	if n, ok := s.(*namespaced); ok {
		return &namespaced{prefix: n.prefix + prefix, s: n.s}
	}

	return &namespaced{prefix: prefix, s: s}
}

func (n *namespaced) Get(key string) (string, bool, error) {
	return n.s.Get(n.prefix + key)
}

func (n *namespaced) Set(key, value string) error {
	return n.s.Set(n.prefix+key, value)
}

func (n *namespaced) Remove(key string) error {
	return n.s.Remove(n.prefix + key)
}
