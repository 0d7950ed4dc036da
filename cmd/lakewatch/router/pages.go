package router

import (
	"embed"
	"html/template"
	"net/http"
)

//go:embed templates/*.html
var templateFS embed.FS

var pages = template.Must(template.ParseFS(templateFS, "templates/*.html"))

// pageData is the payload handed to every page template.
type pageData struct {
	Title            string
	ConservationPool float64
	FloodPool        float64
	EmptyPool        float64
}

// handlePage renders one of the embedded HTML templates.
func (d *Deps) handlePage(name, title string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data := pageData{
			Title:            title,
			ConservationPool: d.Thresholds.ConservationElevation,
			FloodPool:        d.Thresholds.FloodElevation,
			EmptyPool:        d.Thresholds.EmptyElevation,
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := pages.ExecuteTemplate(w, name, data); err != nil {
			d.Logger.Error("failed to render page", "template", name, "error", err)
		}
	})
}

// exactPath returns 404 for any path other than the one given. The mux
// treats "/" as a catch-all pattern, so the root page needs this guard.
func exactPath(path string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != path {
			http.NotFound(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}
