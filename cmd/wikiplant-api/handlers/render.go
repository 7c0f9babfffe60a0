package handlers

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"strings"

	"github.com/Nexakreation/Wikiplant2/internal/observability"
	"github.com/Nexakreation/Wikiplant2/internal/plantrecord"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// Static serves the embedded placeholder images and stylesheet.
func Static() http.Handler {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return http.FileServer(http.FS(sub))
}

// Page names.
const (
	pageHome    = "home"
	pagePlant   = "plant"
	pageSpecies = "species"
	pageDetails = "details"
	pageFacts   = "facts"
	pageAbout   = "about"
	pageError   = "error"
)

var pageNames = []string{pageHome, pagePlant, pageSpecies, pageDetails, pageFacts, pageAbout, pageError}

var funcs = template.FuncMap{
	"recordJSON": func(r plantrecord.Record) (string, error) {
		b, err := json.Marshal(r)
		return string(b), err
	},
	"isLocal": func(u string) bool {
		return strings.HasPrefix(u, "/static/")
	},
	"pct": func(f float64) string {
		return fmt.Sprintf("%.0f%%", f*100)
	},
}

// Renderer renders pages inside the shared layout.
type Renderer struct {
	pages  map[string]*template.Template
	logger *observability.Logger
}

// NewRenderer parses the embedded templates.
func NewRenderer(logger *observability.Logger) (*Renderer, error) {
	r := &Renderer{pages: make(map[string]*template.Template, len(pageNames)), logger: logger}
	for _, name := range pageNames {
		t, err := template.New("layout.html").Funcs(funcs).
			ParseFS(templateFS, "templates/layout.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", name, err)
		}
		r.pages[name] = t
	}
	return r, nil
}

// pageData is passed to every template.
type pageData struct {
	Title  string
	Active string
	Body   any
}

// Render writes page with status. The page is executed into a buffer first
// so a template error never produces a half-written response.
func (rd *Renderer) Render(w http.ResponseWriter, status int, page, title string, body any) {
	t, ok := rd.pages[page]
	if !ok {
		rd.logger.Error().Str("page", page).Msg("Unknown page template")
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", pageData{Title: title, Active: page, Body: body}); err != nil {
		rd.logger.Error().Err(err).Str("page", page).Msg("Failed to render page")
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if _, err := buf.WriteTo(w); err != nil {
		rd.logger.Debug().Err(err).Msg("Failed to write page")
	}
}

type errorPage struct {
	Status  int
	Message string
	Back    string
}
