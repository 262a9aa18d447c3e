/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"net/http"
	"net/http/pprof"

	"github.com/julienschmidt/httprouter"
)

var profiles = []string{"allocs", "block", "goroutine", "heap", "mutex", "threadcreate"}

func logProfile(cfg *Config, name string, h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logf(cfg, "SERVE: Profile %s to %s", name, realIP(r))

		h.ServeHTTP(w, r)
	})
}

func registerProfileHandlers(cfg *Config, mux *httprouter.Router) {
	base := cfg.prefix + "/pprof/"

	for _, name := range profiles {
		mux.Handler(http.MethodGet, base+name, logProfile(cfg, name, pprof.Handler(name)))
	}

	mux.Handler(http.MethodGet, base+"cmdline", logProfile(cfg, "cmdline", http.HandlerFunc(pprof.Cmdline)))
	mux.Handler(http.MethodGet, base+"profile", logProfile(cfg, "profile", http.HandlerFunc(pprof.Profile)))
	mux.Handler(http.MethodGet, base+"symbol", logProfile(cfg, "symbol", http.HandlerFunc(pprof.Symbol)))
	mux.Handler(http.MethodGet, base+"trace", logProfile(cfg, "trace", http.HandlerFunc(pprof.Trace)))

	logf(cfg, "START: Registered profiling handlers under %s", base)
}
