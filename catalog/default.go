/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package catalog

import (
	"embed"
	"io/fs"
)

//go:embed data/*.json
var defaultData embed.FS

// DefaultFS is the content bundled into the binary, used when no data
// directory is configured.
func DefaultFS() fs.FS {
	sub, err := fs.Sub(defaultData, "data")
	if err != nil {
		panic("catalog: embedded data missing: " + err.Error())
	}

	return sub
}
