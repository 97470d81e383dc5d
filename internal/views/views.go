// Package views holds the server-rendered pages and their stylesheet.
package views

import (
	"embed"
	"html/template"
	"io/fs"
	"time"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static/css/*.css
var staticFS embed.FS

var funcs = template.FuncMap{
	"date": func(t time.Time) string { return t.Format("Jan 2, 2006") },
}

// Templates parses every page; it panics on a malformed template.
func Templates() *template.Template {
	return template.Must(template.New("").Funcs(funcs).ParseFS(templateFS, "templates/*.html"))
}

// CSS is the stylesheet directory, rooted so that "app.css" resolves.
func CSS() fs.FS {
	sub, err := fs.Sub(staticFS, "static/css")
	if err != nil {
		panic(err)
	}
	return sub
}
