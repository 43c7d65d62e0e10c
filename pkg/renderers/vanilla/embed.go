package vanilla

import (
	"embed"
	"io/fs"
)

var (
	//go:embed templates/*.tmpl
	templates embed.FS

	//go:embed assets/*
	assets embed.FS
)

// StylesheetName is the bundled stylesheet, served from AssetsFS.
const StylesheetName = "kardex-forms.css"

// TemplatesFS is the bundled template set rooted above templates/.
func TemplatesFS() fs.FS { return templates }

// AssetsFS holds the static files the markup links to.
func AssetsFS() fs.FS {
	sub, _ := fs.Sub(assets, "assets")
	return sub
}
