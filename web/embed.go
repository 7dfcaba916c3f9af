// Package web embeds the single-page interface served by the API server:
// HTML templates for the page and its results fragment, plus static assets.
//
// Usage in the API server:
//
//	pages, err := web.Templates()
//	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServerFS(web.StaticFS())))
package web

import (
	"embed"
	"html/template"
	"io/fs"
	"log"
)

//go:embed templates static
var content embed.FS

// Page template names.
const (
	IndexTemplate   = "index.html.tmpl"
	ResultsTemplate = "results"
)

var funcs = template.FuncMap{
	// pct clamps a 0-100 value for use as a CSS width.
	"pct": func(v float64) float64 {
		switch {
		case v < 0:
			return 0
		case v > 100:
			return 100
		default:
			return v
		}
	},
}

// Templates parses the embedded page templates.
func Templates() (*template.Template, error) {
	return template.New("web").Funcs(funcs).ParseFS(content, "templates/*.tmpl")
}

// StaticFS returns a filesystem rooted at the embedded static/ directory.
func StaticFS() fs.FS {
	sub, err := fs.Sub(content, "static")
	if err != nil {
		log.Fatalf("web.StaticFS: %v", err)
	}
	return sub
}
