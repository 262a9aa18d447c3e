/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

// Package usage tracks which catalog items a player has already been shown,
// so that a category is never repeated until every item in it has come up
// once.
package usage

import (
	"encoding/json"
	"log"
	"math"
	"slices"
	"sync"

	"github.com/Seednode/charades/store"
	"golang.org/x/text/cases"
)

// StorageKey is the single store key holding the whole serialized mapping.
const StorageKey = "usedItems"

// Identifier is implemented by anything the tracker can filter.
type Identifier interface {
	Identifier() string
}

type Stats struct {
	Total          int `json:"total"`
	Used           int `json:"used"`
	Unused         int `json:"unused"`
	PercentageUsed int `json:"percentageUsed"`
}

type Option func(*Tracker)

// WithLogger sets the function used to report storage failures.
func WithLogger(logf func(format string, args ...any)) Option {
	return func(t *Tracker) {
		if logf != nil {
			t.logf = logf
		}
	}
}

// Tracker holds, per category, the ordered set of item identifiers already
// shown. The in-memory state is authoritative; the store is written through
// on every mutation but failures there never reach the caller.
type Tracker struct {
	mu   sync.Mutex
	kv   store.Store
	logf func(format string, args ...any)
	used map[string][]string
}

func New(kv store.Store, opts ...Option) *Tracker {
	t := &Tracker{
		kv:   kv,
		logf: log.Printf,
	}

	for _, opt := range opts {
		opt(t)
	}

	t.used = t.load()

	return t
}

func key(category string) string {
	return cases.Fold().String(category)
}

func (t *Tracker) load() map[string][]string {
	used := make(map[string][]string)

	if t.kv == nil {
		return used
	}

	raw, ok, err := t.kv.Get(StorageKey)
	if err != nil {
		t.logf("USAGE: Error loading used items: %v", err)

		return used
	}
	if !ok || raw == "" {
		return used
	}

	var stored map[string][]string
	if err := json.Unmarshal([]byte(raw), &stored); err != nil {
		t.logf("USAGE: Discarding malformed used items: %v", err)

		return used
	}

	// Keys written by older clients may differ only in case, and lists may
	// carry duplicates; fold both away.
	for category, ids := range stored {
		k := key(category)
		for _, id := range ids {
			if !slices.Contains(used[k], id) {
				used[k] = append(used[k], id)
			}
		}
	}

	return used
}

func (t *Tracker) saveLocked() {
	if t.kv == nil {
		return
	}

	data, err := json.Marshal(t.used)
	if err != nil {
		t.logf("USAGE: Error encoding used items: %v", err)

		return
	}

	if err := t.kv.Set(StorageKey, string(data)); err != nil {
		t.logf("USAGE: Error saving used items: %v", err)
	}
}

func (t *Tracker) IsUsed(category, id string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	return slices.Contains(t.used[key(category)], id)
}

// MarkUsed records id as shown in category. Marking an id twice is a no-op.
func (t *Tracker) MarkUsed(category, id string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	k := key(category)
	if slices.Contains(t.used[k], id) {
		return
	}

	t.used[k] = append(t.used[k], id)
	t.saveLocked()
}

func (t *Tracker) ResetCategory(category string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.resetLocked(key(category))
}

func (t *Tracker) resetLocked(k string) {
	if _, ok := t.used[k]; !ok {
		return
	}

	delete(t.used, k)
	t.saveLocked()
}

func (t *Tracker) ResetAll() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.used = make(map[string][]string)
	t.saveLocked()
}

// Stats reports usage for a category holding total items. Used is the raw
// recorded count and is not checked against the current contents, so ids of
// items since removed from the catalog still count.
func (t *Tracker) Stats(category string, total int) Stats {
	t.mu.Lock()
	used := len(t.used[key(category)])
	t.mu.Unlock()

	s := Stats{
		Total:  total,
		Used:   used,
		Unused: total - used,
	}

	if total > 0 {
		s.PercentageUsed = int(math.Round(float64(used) / float64(total) * 100))
	}

	return s
}

// Snapshot returns a copy of the recorded state.
func (t *Tracker) Snapshot() map[string][]string {
	t.mu.Lock()
	defer t.mu.Unlock()

	snapshot := make(map[string][]string, len(t.used))
	for k, ids := range t.used {
		snapshot[k] = slices.Clone(ids)
	}

	return snapshot
}

// Unused returns the items of category not yet shown. Once every supplied
// item has been shown the category is reset and the full list is returned,
// starting a new cycle. An empty list yields an empty result and changes
// nothing.
func Unused[T Identifier](t *Tracker, category string, items []T) []T {
	if len(items) == 0 {
		return []T{}
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	k := key(category)

	used := t.used[k]
	if len(used) == 0 {
		return items
	}

	seen := make(map[string]struct{}, len(used))
	for _, id := range used {
		seen[id] = struct{}{}
	}

	unused := make([]T, 0, len(items))
	for _, item := range items {
		if _, ok := seen[item.Identifier()]; !ok {
			unused = append(unused, item)
		}
	}

	if len(unused) == 0 {
		t.resetLocked(k)

		return items
	}

	return unused
}

// StatsFor is Stats with the total taken from items.
func StatsFor[T any](t *Tracker, category string, items []T) Stats {
	return t.Stats(category, len(items))
}
