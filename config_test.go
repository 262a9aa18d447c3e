/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"bytes"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		ok     bool
	}{
		{"defaults", func(*Config) {}, true},
		{"port too low", func(c *Config) { c.port = 0 }, false},
		{"port too high", func(c *Config) { c.port = 70000 }, false},
		{"cert without key", func(c *Config) { c.tlsCert = "cert.pem" }, false},
		{"key without cert", func(c *Config) { c.tlsKey = "key.pem" }, false},
		{"cert and key", func(c *Config) { c.tlsCert, c.tlsKey = "cert.pem", "key.pem" }, true},
		{"zero input rate", func(c *Config) { c.inputRate = 0 }, false},
		{"watch without data", func(c *Config) { c.watch = true }, false},
		{"watch with data", func(c *Config) { c.watch, c.dataDir = true, "content" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			tt.modify(cfg)

			if tt.ok {
				assert.NoError(t, cfg.validate())
			} else {
				assert.Error(t, cfg.validate())
			}
		})
	}
}

func TestScheme(t *testing.T) {
	cfg := testConfig()
	assert.Equal(t, "http", cfg.scheme())

	cfg.tlsCert, cfg.tlsKey = "cert.pem", "key.pem"
	assert.Equal(t, "https", cfg.scheme())
}

func TestFlagDefaults(t *testing.T) {
	cfg := &Config{}
	newCmd(cfg)

	assert.Equal(t, 8080, cfg.port)
	assert.Equal(t, "0.0.0.0", cfg.bind)
	assert.Equal(t, 60*time.Minute, cfg.sessionTimeout)
	assert.InDelta(t, 60.0, cfg.inputRate, 0)
	assert.Empty(t, cfg.dbPath)
	assert.NoError(t, cfg.validate())
}

func TestEnvironmentOverridesDefaults(t *testing.T) {
	t.Setenv("CHARADES_PORT", "9090")
	t.Setenv("CHARADES_INPUT_RATE", "15")
	t.Setenv("CHARADES_SESSION_TIMEOUT", "5m")

	cfg := &Config{}
	newCmd(cfg)

	assert.Equal(t, 9090, cfg.port)
	assert.InDelta(t, 15.0, cfg.inputRate, 0)
	assert.Equal(t, 5*time.Minute, cfg.sessionTimeout)
}

func TestVersionFlag(t *testing.T) {
	cfg := &Config{}
	cmd := newCmd(cfg)

	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--version"})

	require.NoError(t, cmd.Execute())
	assert.Equal(t, "charades v"+releaseVersion+"\n", out.String())
}

func TestInvalidConfigRefusesToServe(t *testing.T) {
	cfg := &Config{}
	cmd := newCmd(cfg)
	cmd.SetArgs([]string{"--port", "0"})

	assert.Error(t, cmd.Execute())
}

func TestCatalogCommand(t *testing.T) {
	cfg := &Config{}
	cmd := newCmd(cfg)

	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"catalog"})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "Movie")
	assert.Contains(t, out.String(), "TV Show")
	assert.Contains(t, out.String(), "32")
	assert.Contains(t, out.String(), "Loaded from: books.json, games.json, movies.json")
}

func TestLoadCatalogRejectsFile(t *testing.T) {
	cfg := testConfig()
	cfg.dataDir = filepath.Join("assets", "app.css")

	_, err := loadCatalog(cfg)
	assert.Error(t, err)

	cfg.dataDir = filepath.Join(t.TempDir(), "missing")
	_, err = loadCatalog(cfg)
	assert.Error(t, err)
}
