/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package catalog

import (
	"strconv"
	"strings"
	"time"
)

// Item is one entry in the catalog. Fields beyond the common ones only
// apply to some categories and are left empty elsewhere.
type Item struct {
	ID          string   `json:"id" toml:"id"`
	Category    Category `json:"category" toml:"-"`
	Title       string   `json:"title" toml:"title"`
	Year        int      `json:"year" toml:"year"`
	Genre       []string `json:"genre" toml:"genre"`
	Rating      float64  `json:"rating" toml:"rating"`
	Description string   `json:"description" toml:"description"`
	Language    string   `json:"language,omitempty" toml:"language"`
	Country     string   `json:"country,omitempty" toml:"country"`
	Released    *bool    `json:"released,omitempty" toml:"released"`

	Director string   `json:"director,omitempty" toml:"director"`
	Cast     []string `json:"cast,omitempty" toml:"cast"`

	Creator  string `json:"creator,omitempty" toml:"creator"`
	Network  string `json:"network,omitempty" toml:"network"`
	Episodes int    `json:"episodes,omitempty" toml:"episodes"`

	Artist   string `json:"artist,omitempty" toml:"artist"`
	Album    string `json:"album,omitempty" toml:"album"`
	Duration string `json:"duration,omitempty" toml:"duration"`

	Author string `json:"author,omitempty" toml:"author"`
	Pages  int    `json:"pages,omitempty" toml:"pages"`
	ISBN   string `json:"isbn,omitempty" toml:"isbn"`

	Developer  string   `json:"developer,omitempty" toml:"developer"`
	Publisher  string   `json:"publisher,omitempty" toml:"publisher"`
	Platform   []string `json:"platform,omitempty" toml:"platform"`
	ESRBRating string   `json:"esrbRating,omitempty" toml:"esrb_rating"`
}

func (i Item) Identifier() string {
	return i.ID
}

// IsReleased defaults to true when the source did not say.
func (i Item) IsReleased() bool {
	return i.Released == nil || *i.Released
}

func (i Item) DisplayTitle() string {
	if i.Year == 0 {
		return i.Title
	}

	return i.Title + " (" + strconv.Itoa(i.Year) + ")"
}

// Byline is the secondary line on the front of a card.
func (i Item) Byline() string {
	switch i.Category {
	case Movies:
		if i.Director != "" {
			return "Director: " + i.Director
		}
		return "Film"
	case TVShows:
		if i.Creator != "" {
			return "Creator: " + i.Creator
		}
		return "Television"
	case Songs:
		if i.Artist != "" {
			return "Artist: " + i.Artist
		}
		return "Music"
	case Books:
		if i.Author != "" {
			return "Author: " + i.Author
		}
		return "Literature"
	case Games:
		if i.Developer != "" {
			return "Developer: " + i.Developer
		}
		return "Video Game"
	default:
		return "Item"
	}
}

// Validate returns a description of every problem with the item; an empty
// result means it is valid.
func (i Item) Validate(now time.Time) []string {
	var problems []string

	label := i.Category.Label()

	if strings.TrimSpace(i.Title) == "" {
		problems = append(problems, label+" title is required")
	}

	if i.Category == Books && strings.TrimSpace(i.Author) == "" {
		problems = append(problems, "Book author is required")
	}

	earliest := 1800
	if i.Category == Games {
		earliest = 1958
	}
	if i.Year < earliest || i.Year > now.Year() {
		problems = append(problems, label+" year must be between "+strconv.Itoa(earliest)+" and current year")
	}

	if len(i.Genre) == 0 {
		problems = append(problems, label+" genre is required")
	}

	if i.Rating < 0 || i.Rating > 10 {
		problems = append(problems, label+" rating must be between 0 and 10")
	}

	if strings.TrimSpace(i.Description) == "" {
		problems = append(problems, label+" description is required")
	}

	return problems
}

// Matches reports whether the lower-cased query appears in any searchable
// field.
func (i Item) Matches(query string) bool {
	if query == "" {
		return false
	}

	for _, field := range []string{
		i.Title, i.Description,
		i.Director, i.Creator, i.Network,
		i.Artist, i.Album,
		i.Author,
		i.Developer, i.Publisher,
	} {
		if field != "" && strings.Contains(strings.ToLower(field), query) {
			return true
		}
	}

	for _, list := range [][]string{i.Genre, i.Cast, i.Platform} {
		for _, v := range list {
			if strings.Contains(strings.ToLower(v), query) {
				return true
			}
		}
	}

	return false
}
