/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package catalog

import (
	"errors"
	"fmt"
	"strings"
)

var ErrUnknownCategory = errors.New("unknown category")

type Category string

const (
	Movies  Category = "movies"
	TVShows Category = "tvshows"
	Songs   Category = "songs"
	Books   Category = "books"
	Games   Category = "games"
)

// Categories lists every category in display order.
var Categories = []Category{Movies, TVShows, Songs, Books, Games}

var aliases = map[string]Category{
	"movie":  Movies,
	"movies": Movies,
	"film":   Movies,
	"films":  Movies,

	"tvshow":   TVShows,
	"tvshows":  TVShows,
	"tv":       TVShows,
	"show":     TVShows,
	"shows":    TVShows,
	"tv-shows": TVShows,

	"song":  Songs,
	"songs": Songs,

	"book":  Books,
	"books": Books,

	"game":  Games,
	"games": Games,
}

// ParseCategory maps a canonical name or a known alias, in any case, to its
// Category.
func ParseCategory(s string) (Category, error) {
	if c, ok := aliases[strings.ToLower(strings.TrimSpace(s))]; ok {
		return c, nil
	}

	return "", fmt.Errorf("%w: %q", ErrUnknownCategory, s)
}

func (c Category) String() string {
	return string(c)
}

// Singular is used as the prefix of generated item ids.
func (c Category) Singular() string {
	switch c {
	case Movies:
		return "movie"
	case TVShows:
		return "tvshow"
	case Songs:
		return "song"
	case Books:
		return "book"
	case Games:
		return "game"
	default:
		return "item"
	}
}

// Label is the name shown on the front of a card.
func (c Category) Label() string {
	switch c {
	case Movies:
		return "Movie"
	case TVShows:
		return "TV Show"
	case Songs:
		return "Song"
	case Books:
		return "Book"
	case Games:
		return "Game"
	default:
		return "Content"
	}
}
