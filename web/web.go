package web

import (
	"embed"
	"html/template"
)

//go:embed templates static
var FS embed.FS

// Templates holds the parsed dashboard templates.
var Templates = template.Must(template.ParseFS(FS, "templates/*.html"))
