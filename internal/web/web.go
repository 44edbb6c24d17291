package web

import (
	"embed"
	"html/template"
	"net/http"

	"audio-converter/internal/logging"
)

//go:embed templates/*.html
var templateFS embed.FS

var pages = template.Must(template.ParseFS(templateFS, "templates/*.html"))

// LoginData feeds the login template.
type LoginData struct {
	Error string
}

// UploadData feeds the upload template.
type UploadData struct {
	Username string
}

// Render writes the named template to w. Render errors after the first
// byte cannot be recovered, so they are only logged.
func Render(w http.ResponseWriter, name string, data interface{}) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := pages.ExecuteTemplate(w, name, data); err != nil {
		logging.Error("failed to render template %s: %v", name, err)
	}
}
