/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

// Package catalog loads the charades content (movies, TV shows, songs,
// books and games) and answers lookups against it.
package catalog

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"log"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/google/uuid"
	"github.com/pelletier/go-toml/v2"
)

// DefaultPattern matches every supported content file under a directory.
const DefaultPattern = "**/*.{json,toml}"

// Problem describes an item that failed validation. Such items are still
// served, as the content is hand-edited and a typo should not hide a card.
type Problem struct {
	Category Category
	ID       string
	Title    string
	Errors   []string
}

type Stats struct {
	Counts map[Category]int `json:"counts"`
	Total  int              `json:"total"`
}

// Results holds search hits per category.
type Results map[Category][]Item

func (r Results) Total() int {
	total := 0
	for _, items := range r {
		total += len(items)
	}

	return total
}

type Catalog struct {
	mu       sync.RWMutex
	items    map[Category][]Item
	problems []Problem
	files    []string
}

func New() *Catalog {
	return &Catalog{items: make(map[Category][]Item)}
}

type tomlFile struct {
	Items []Item `toml:"items"`
}

type LoadOption func(*loader)

type loader struct {
	logf func(format string, args ...any)
	now  func() time.Time
}

func WithLogger(logf func(format string, args ...any)) LoadOption {
	return func(l *loader) {
		if logf != nil {
			l.logf = logf
		}
	}
}

func WithNow(now func() time.Time) LoadOption {
	return func(l *loader) {
		l.now = now
	}
}

// Load reads every file in fsys matching pattern. Each file is named after
// its category (movies.json, films.toml, ...); files whose name is not a
// category are skipped. Several files may feed the same category.
func Load(fsys fs.FS, pattern string, opts ...LoadOption) (*Catalog, error) {
	l := &loader{logf: log.Printf, now: time.Now}
	for _, opt := range opts {
		opt(l)
	}

	if pattern == "" {
		pattern = DefaultPattern
	}

	matches, err := doublestar.Glob(fsys, pattern, doublestar.WithFilesOnly())
	if err != nil {
		return nil, fmt.Errorf("invalid content pattern %q: %w", pattern, err)
	}

	c := New()

	for _, name := range matches {
		base := path.Base(name)
		ext := path.Ext(base)

		category, err := ParseCategory(strings.TrimSuffix(base, ext))
		if err != nil {
			l.logf("CATALOG: Skipping %s: %v", name, err)

			continue
		}

		data, err := fs.ReadFile(fsys, name)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", name, err)
		}

		items, err := decode(ext, data)
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", name, err)
		}

		c.add(category, items, l)
		c.files = append(c.files, name)
	}

	return c, nil
}

func decode(ext string, data []byte) ([]Item, error) {
	switch strings.ToLower(ext) {
	case ".json":
		var items []Item
		if err := json.Unmarshal(data, &items); err != nil {
			return nil, err
		}

		return items, nil
	case ".toml":
		var f tomlFile
		if err := toml.Unmarshal(data, &f); err != nil {
			return nil, err
		}

		return f.Items, nil
	default:
		return nil, fmt.Errorf("unsupported file type %q", ext)
	}
}

func (c *Catalog) add(category Category, items []Item, l *loader) {
	now := l.now()

	for _, item := range items {
		item.Category = category
		if item.ID == "" {
			item.ID = category.Singular() + "_" + uuid.NewString()
		}
		if item.Language == "" {
			item.Language = "English"
		}

		if errs := item.Validate(now); len(errs) > 0 {
			l.logf("CATALOG: Invalid %s %q: %s", category.Singular(), item.Title, strings.Join(errs, "; "))

			c.problems = append(c.problems, Problem{
				Category: category,
				ID:       item.ID,
				Title:    item.Title,
				Errors:   errs,
			})
		}

		c.items[category] = append(c.items[category], item)
	}
}

// Replace swaps in the contents of other, for use after a reload.
func (c *Catalog) Replace(other *Catalog) {
	other.mu.RLock()
	items, problems, files := other.items, other.problems, other.files
	other.mu.RUnlock()

	c.mu.Lock()
	c.items, c.problems, c.files = items, problems, files
	c.mu.Unlock()
}

// Items returns the items of a category. The slice must not be modified.
func (c *Catalog) Items(category Category) []Item {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.items[category]
}

// Pick returns a random element of items.
func Pick(items []Item, intn func(n int) int) (Item, bool) {
	if len(items) == 0 {
		return Item{}, false
	}

	return items[intn(len(items))], true
}

// Search returns every item matching query, case-insensitively, grouped by
// category. A blank query matches nothing.
func (c *Catalog) Search(query string) Results {
	results := make(Results, len(Categories))
	for _, category := range Categories {
		results[category] = []Item{}
	}

	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return results
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, category := range Categories {
		for _, item := range c.items[category] {
			if item.Matches(query) {
				results[category] = append(results[category], item)
			}
		}
	}

	return results
}

func (c *Catalog) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	s := Stats{Counts: make(map[Category]int, len(Categories))}
	for _, category := range Categories {
		n := len(c.items[category])
		s.Counts[category] = n
		s.Total += n
	}

	return s
}

func (c *Catalog) Problems() []Problem {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return append([]Problem(nil), c.problems...)
}

// Files lists the content files the catalog was loaded from.
func (c *Catalog) Files() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return append([]string(nil), c.files...)
}
