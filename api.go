/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/Seednode/charades/catalog"
	"github.com/Seednode/charades/usage"
	"github.com/julienschmidt/httprouter"
)

const maxQueryLength = 100

type searchResponse struct {
	Query   string                             `json:"query"`
	Total   int                                `json:"total"`
	Results map[catalog.Category][]ItemMessage `json:"results"`
}

type statsResponse struct {
	Settings Settings                         `json:"settings"`
	Stats    map[catalog.Category]usage.Stats `json:"stats"`
	Used     map[string][]string              `json:"used"`
}

type historyResponse struct {
	History []SearchEntry `json:"history"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(cfg *Config, w http.ResponseWriter, r *http.Request, status int, v any, errs chan<- error) {
	startTime := time.Now()

	data, err := json.Marshal(v)
	if err != nil {
		errs <- err

		http.Error(w, "encoding failed", http.StatusInternalServerError)

		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	securityHeaders(cfg, w)
	w.WriteHeader(status)

	written, err := w.Write(data)
	if err != nil {
		errs <- err

		return
	}

	logf(cfg, "SERVE: %s (%s) to %s in %s",
		r.URL.Path,
		humanReadableSize(int64(written)),
		realIP(r),
		time.Since(startTime).Round(time.Microsecond),
	)
}

func serveCategories(cfg *Config, app *App, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		writeJSON(cfg, w, r, http.StatusOK, categoryInfos(app.catalog), errs)
	}
}

// parseFilter reads the optional year, genre, rating_min and rating_max
// parameters of a search.
func parseFilter(q url.Values) (catalog.Filter, error) {
	f := catalog.Filter{Genre: strings.TrimSpace(q.Get("genre"))}

	if v := q.Get("year"); v != "" {
		year, err := strconv.Atoi(v)
		if err != nil || year <= 0 {
			return f, fmt.Errorf("invalid year %q", v)
		}
		f.Year = year
	}

	for name, dst := range map[string]*float64{"rating_min": &f.RatingMin, "rating_max": &f.RatingMax} {
		v := q.Get(name)
		if v == "" {
			continue
		}

		rating, err := strconv.ParseFloat(v, 64)
		if err != nil || rating < 0 || rating > 10 {
			return f, fmt.Errorf("invalid %s %q", name, v)
		}
		*dst = rating
	}

	if f.RatingMin != 0 && f.RatingMax != 0 && f.RatingMin > f.RatingMax {
		return f, errors.New("rating_min is greater than rating_max")
	}

	return f, nil
}

// serveSearch matches ?q= against the catalog and narrows the hits by any
// filters given. Filters alone browse the whole catalog.
func serveSearch(cfg *Config, app *App, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		params := r.URL.Query()
		query := strings.TrimSpace(params.Get("q"))

		if utf8.RuneCountInString(query) > maxQueryLength {
			writeJSON(cfg, w, r, http.StatusBadRequest, errorResponse{Error: "search query too long"}, errs)

			return
		}

		filter, err := parseFilter(params)
		if err != nil {
			writeJSON(cfg, w, r, http.StatusBadRequest, errorResponse{Error: err.Error()}, errs)

			return
		}

		var found catalog.Results

		switch {
		case query != "":
			found = app.catalog.Search(query).Where(filter)

			player := app.players.Get(getOrSetPlayerID(cfg, w, r))
			player.RecordSearch(query, time.Now())
		case !filter.IsZero():
			found = app.catalog.Browse(filter)
		default:
			writeJSON(cfg, w, r, http.StatusBadRequest, errorResponse{Error: "missing search query"}, errs)

			return
		}

		resp := searchResponse{
			Query:   query,
			Total:   found.Total(),
			Results: make(map[catalog.Category][]ItemMessage, len(found)),
		}

		for category, items := range found {
			messages := make([]ItemMessage, 0, len(items))
			for _, item := range items {
				messages = append(messages, newItemMessage(item))
			}
			resp.Results[category] = messages
		}

		writeJSON(cfg, w, r, http.StatusOK, resp, errs)
	}
}

func serveSearchHistory(cfg *Config, app *App, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		player := app.players.Get(getOrSetPlayerID(cfg, w, r))

		if r.Method == http.MethodDelete {
			player.ClearSearchHistory()
			logf(cfg, "SEARCH: Player %s cleared search history", player.ID)
		}

		writeJSON(cfg, w, r, http.StatusOK, historyResponse{History: player.SearchHistory()}, errs)
	}
}

func newStatsResponse(app *App, player *Player) statsResponse {
	return statsResponse{
		Settings: player.Settings(),
		Stats:    player.Stats(app.catalog),
		Used:     player.Usage.Snapshot(),
	}
}

func serveStats(cfg *Config, app *App, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		player := app.players.Get(getOrSetPlayerID(cfg, w, r))

		writeJSON(cfg, w, r, http.StatusOK, newStatsResponse(app, player), errs)
	}
}

// serveReset clears the caller's used items, for one category when
// ?category= is given and for all of them otherwise.
func serveReset(cfg *Config, app *App, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		player := app.players.Get(getOrSetPlayerID(cfg, w, r))

		if name := r.URL.Query().Get("category"); name != "" {
			category, err := catalog.ParseCategory(name)
			if err != nil {
				writeJSON(cfg, w, r, http.StatusBadRequest, errorResponse{Error: err.Error()}, errs)

				return
			}

			player.Usage.ResetCategory(category.String())
			logf(cfg, "USAGE: Player %s reset %s", player.ID, category)
		} else {
			player.Usage.ResetAll()
			logf(cfg, "USAGE: Player %s reset all categories", player.ID)
		}

		writeJSON(cfg, w, r, http.StatusOK, newStatsResponse(app, player), errs)
	}
}

func registerAPI(cfg *Config, app *App, mux *httprouter.Router, errs chan<- error) {
	mux.GET(cfg.prefix+"/api/categories", serveCategories(cfg, app, errs))

	mux.GET(cfg.prefix+"/api/search", serveSearch(cfg, app, errs))

	mux.GET(cfg.prefix+"/api/search/history", serveSearchHistory(cfg, app, errs))
	mux.DELETE(cfg.prefix+"/api/search/history", serveSearchHistory(cfg, app, errs))

	mux.GET(cfg.prefix+"/api/stats", serveStats(cfg, app, errs))

	mux.POST(cfg.prefix+"/api/reset", serveReset(cfg, app, errs))
}
