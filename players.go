/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/Seednode/charades/catalog"
	"github.com/Seednode/charades/store"
	"github.com/Seednode/charades/usage"
)

const playerCookieName = "charades_id"

const defaultBgColor = "#e9ecef"

const (
	searchHistoryKey = "searchHistory"
	maxSearchHistory = 10
)

var colorPalette = []string{
	"#e9ecef", // grey
	"#ffffff", // white
	"#f8f9fa", // light grey
	"#0d6efd", // blue
	"#198754", // green
	"#dc3545", // red
	"#ffc107", // yellow
	"#6f42c1", // purple
	"#20c997", // teal
	"#fd7e14", // orange
}

// SearchEntry is one remembered query, most recent first.
type SearchEntry struct {
	Query     string    `json:"query"`
	Timestamp time.Time `json:"timestamp"`
}

type Settings struct {
	BgColor    string `json:"bgColor"`
	ScreenWake bool   `json:"screenWake"`
}

// Player is everything remembered about one browser, keyed by cookie.
type Player struct {
	ID    string
	Usage *usage.Tracker

	kv   store.Store
	logf func(format string, args ...any)

	mu       sync.Mutex
	settings Settings
	history  []SearchEntry
}

func (p *Player) Settings() Settings {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.settings
}

// UpdateSettings applies the non-nil fields. An unknown color is rejected
// and nothing is changed.
func (p *Player) UpdateSettings(bgColor *string, screenWake *bool) (Settings, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if bgColor != nil && !slices.Contains(colorPalette, *bgColor) {
		return p.settings, fmt.Errorf("unsupported background color %q", *bgColor)
	}

	if bgColor != nil {
		p.settings.BgColor = *bgColor
		if err := p.kv.Set("bgColor", *bgColor); err != nil {
			p.logf("USAGE: Error saving settings for %s: %v", p.ID, err)
		}
	}

	if screenWake != nil {
		p.settings.ScreenWake = *screenWake
		if err := p.kv.Set("screenWake", strconv.FormatBool(*screenWake)); err != nil {
			p.logf("USAGE: Error saving settings for %s: %v", p.ID, err)
		}
	}

	return p.settings, nil
}

// RecordSearch puts query at the front of the history, moving it there if
// it was already present. Only the most recent searches are kept.
func (p *Player) RecordSearch(query string, now time.Time) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.history = slices.DeleteFunc(p.history, func(e SearchEntry) bool {
		return e.Query == query
	})
	p.history = slices.Insert(p.history, 0, SearchEntry{Query: query, Timestamp: now})

	if len(p.history) > maxSearchHistory {
		p.history = p.history[:maxSearchHistory]
	}

	p.saveHistoryLocked()
}

func (p *Player) SearchHistory() []SearchEntry {
	p.mu.Lock()
	defer p.mu.Unlock()

	return append([]SearchEntry{}, p.history...)
}

func (p *Player) ClearSearchHistory() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.history = nil

	if err := p.kv.Remove(searchHistoryKey); err != nil {
		p.logf("SEARCH: Error clearing history for %s: %v", p.ID, err)
	}
}

func (p *Player) saveHistoryLocked() {
	data, err := json.Marshal(p.history)
	if err != nil {
		p.logf("SEARCH: Error encoding history for %s: %v", p.ID, err)

		return
	}

	if err := p.kv.Set(searchHistoryKey, string(data)); err != nil {
		p.logf("SEARCH: Error saving history for %s: %v", p.ID, err)
	}
}

// Stats reports usage for every category against the current catalog.
func (p *Player) Stats(c *catalog.Catalog) map[catalog.Category]usage.Stats {
	stats := make(map[catalog.Category]usage.Stats, len(catalog.Categories))
	for _, category := range catalog.Categories {
		stats[category] = usage.StatsFor(p.Usage, category.String(), c.Items(category))
	}

	return stats
}

// Players hands out one Player per id, loading its state from the shared
// store the first time it is seen.
type Players struct {
	mu      sync.Mutex
	kv      store.Store
	logf    func(format string, args ...any)
	players map[string]*Player
}

func newPlayers(kv store.Store, logf func(format string, args ...any)) *Players {
	return &Players{
		kv:      kv,
		logf:    logf,
		players: make(map[string]*Player),
	}
}

func (ps *Players) Get(id string) *Player {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	if p, ok := ps.players[id]; ok {
		return p
	}

	kv := store.Namespace(ps.kv, "player:"+id+":")

	p := &Player{
		ID:    id,
		Usage: usage.New(kv, usage.WithLogger(ps.logf)),
		kv:    kv,
		logf:  ps.logf,
		settings: Settings{
			BgColor: defaultBgColor,
		},
	}

	if v, ok, err := kv.Get("bgColor"); err == nil && ok && slices.Contains(colorPalette, v) {
		p.settings.BgColor = v
	}
	if v, ok, err := kv.Get("screenWake"); err == nil && ok {
		p.settings.ScreenWake = v == "true"
	}
	if v, ok, err := kv.Get(searchHistoryKey); err == nil && ok {
		if err := json.Unmarshal([]byte(v), &p.history); err != nil {
			p.logf("SEARCH: Discarding unreadable history for %s: %v", id, err)
			p.history = nil
		}
	}

	ps.players[id] = p

	return p
}

func newPlayerID() string {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return ""
	}

	return hex.EncodeToString(buf)
}

func validPlayerID(id string) bool {
	if len(id) != 32 {
		return false
	}

	_, err := hex.DecodeString(id)

	return err == nil
}

// playerCookie returns the caller's player id. For a first visit it also
// returns the cookie that must be sent back to remember the new id.
func playerCookie(cfg *Config, r *http.Request) (string, *http.Cookie) {
	if c, err := r.Cookie(playerCookieName); err == nil && validPlayerID(c.Value) {
		return c.Value, nil
	}

	id := newPlayerID()
	if id == "" {
		return "", nil
	}

	path := cfg.prefix
	if path == "" {
		path = "/"
	}

	return id, &http.Cookie{
		Name:     playerCookieName,
		Value:    id,
		Path:     path,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   cfg.scheme() == "https",
		MaxAge:   365 * 24 * 60 * 60,
	}
}

func getOrSetPlayerID(cfg *Config, w http.ResponseWriter, r *http.Request) string {
	id, fresh := playerCookie(cfg, r)
	if fresh != nil {
		http.SetCookie(w, fresh)
	}

	return id
}
