// Package assets embeds the default word lists and the SQL migrations.
package assets

import (
	"embed"
	"io/fs"
)

//go:embed words.yaml migrations/*.sql
var FS embed.FS

// WordLists returns the default words.yaml document.
func WordLists() ([]byte, error) {
	return FS.ReadFile("words.yaml")
}

// Migrations returns the directory of *.sql migration files.
func Migrations() fs.FS {
	sub, err := fs.Sub(FS, "migrations")
	if err != nil {
		// The directory is embedded at build time.
		panic(err)
	}
	return sub
}
