package handlers

import (
	"embed"
	"html/template"
)

const dashboardTemplate = "dashboard.html"

//go:embed templates/*.html
var templateFS embed.FS

// Templates parses the embedded HTML templates for gin's renderer.
func Templates() *template.Template {
	return template.Must(template.New("").ParseFS(templateFS, "templates/*.html"))
}
