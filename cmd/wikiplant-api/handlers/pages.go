package handlers

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"html/template"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Nexakreation/Wikiplant2/internal/domain"
	"github.com/Nexakreation/Wikiplant2/internal/facts"
	"github.com/Nexakreation/Wikiplant2/internal/observability"
	"github.com/Nexakreation/Wikiplant2/internal/plantrecord"
	"github.com/Nexakreation/Wikiplant2/internal/plants"
	"github.com/Nexakreation/Wikiplant2/internal/recognition"
	"github.com/Nexakreation/Wikiplant2/internal/session"
	"github.com/Nexakreation/Wikiplant2/internal/wikipedia"
)

// PlantService runs the plant pipelines.
type PlantService interface {
	Identify(ctx context.Context, up recognition.Upload) (*plants.Identification, error)
	Search(ctx context.Context, term string) (*plants.SearchResult, error)
	CheckSpecies(ctx context.Context, term string) ([]plantrecord.Species, error)
	Describe(ctx context.Context, term string) (*plants.Identification, error)
	SpeciesDetails(ctx context.Context, sp plantrecord.Species) (*plants.Identification, error)
	PlantPage(ctx context.Context, rec plantrecord.Record) (*wikipedia.PageDetail, error)
}

// FactService fetches random plant facts.
type FactService interface {
	Fetch(ctx context.Context, count int) ([]facts.Fact, error)
}

// SessionStore keeps the last viewed plant.
type SessionStore interface {
	Save(ctx context.Context, w http.ResponseWriter, r *http.Request, e session.Entry) error
	Load(ctx context.Context, r *http.Request) (session.Entry, error)
	Clear(ctx context.Context, w http.ResponseWriter, r *http.Request) error
}

// PageConfig configures the page handler.
type PageConfig struct {
	InitialFacts   int
	MoreFacts      int
	MaxUploadBytes int64
}

// PageHandler serves the HTML pages.
type PageHandler struct {
	logger   *observability.Logger
	render   *Renderer
	plants   PlantService
	facts    FactService
	sessions SessionStore
	cfg      PageConfig
	now      func() time.Time
}

// NewPageHandler creates a new page handler.
func NewPageHandler(logger *observability.Logger, render *Renderer, plantSvc PlantService, factSvc FactService, sessions SessionStore, cfg PageConfig) *PageHandler {
	if cfg.InitialFacts <= 0 {
		cfg.InitialFacts = 5
	}
	if cfg.MoreFacts <= 0 {
		cfg.MoreFacts = 3
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 10 << 20
	}
	return &PageHandler{
		logger:   logger,
		render:   render,
		plants:   plantSvc,
		facts:    factSvc,
		sessions: sessions,
		cfg:      cfg,
		now:      time.Now,
	}
}

type homeData struct {
	Query string
	Error string
}

type plantData struct {
	Query   string
	Preview template.URL
	Plant   *plants.Identification
}

type speciesData struct {
	Term    string
	Species []plantrecord.Species
}

type detailsData struct {
	Entry     session.Entry
	Page      *wikipedia.PageDetail
	PageError string
}

type factsData struct {
	Facts []facts.Fact
	More  int
}

// Home renders the search and upload forms.
func (h *PageHandler) Home(w http.ResponseWriter, r *http.Request) {
	h.render.Render(w, http.StatusOK, pageHome, "Wikiplant", homeData{})
}

// About renders the about page.
func (h *PageHandler) About(w http.ResponseWriter, r *http.Request) {
	h.render.Render(w, http.StatusOK, pageAbout, "About Wikiplant", nil)
}

// Search handles the search form.
func (h *PageHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.FormValue("q"))

	result, err := h.plants.Search(r.Context(), query)
	if err != nil {
		h.homeError(w, r, query, err)
		return
	}

	if result.HasMultipleSpecies() {
		h.render.Render(w, http.StatusOK, pageSpecies, "Species of "+result.Term, speciesData{
			Term:    result.Term,
			Species: result.Species,
		})
		return
	}
	h.render.Render(w, http.StatusOK, pagePlant, result.Plant.Record.Title(), plantData{
		Query: query,
		Plant: result.Plant,
	})
}

// Identify handles the image upload form.
func (h *PageHandler) Identify(w http.ResponseWriter, r *http.Request) {
	up, err := readUpload(r, "image", h.cfg.MaxUploadBytes)
	if err != nil {
		h.homeError(w, r, "", err)
		return
	}

	id, err := h.plants.Identify(r.Context(), up)
	if err != nil {
		h.homeError(w, r, "", err)
		return
	}

	h.render.Render(w, http.StatusOK, pagePlant, id.Record.Title(), plantData{
		Preview: previewURL(up),
		Plant:   id,
	})
}

// Species completes a species chosen from a species list.
func (h *PageHandler) Species(w http.ResponseWriter, r *http.Request) {
	sp := plantrecord.Species{
		CommonName:     strings.TrimSpace(r.FormValue("commonName")),
		ScientificName: strings.TrimSpace(r.FormValue("scientificName")),
		Description:    strings.TrimSpace(r.FormValue("description")),
		ImageURL:       strings.TrimSpace(r.FormValue("imageUrl")),
	}

	id, err := h.plants.SpeciesDetails(r.Context(), sp)
	if err != nil {
		h.errorPage(w, r, err)
		return
	}
	h.render.Render(w, http.StatusOK, pagePlant, id.Record.Title(), plantData{Plant: id})
}

// Details stores the posted record in the session and redirects to the
// plant details page.
func (h *PageHandler) Details(w http.ResponseWriter, r *http.Request) {
	var rec plantrecord.Record
	if err := json.Unmarshal([]byte(r.FormValue("record")), &rec); err != nil || rec.Len() == 0 {
		h.errorPage(w, r, domain.ValidationError("No plant selected", err))
		return
	}

	entry := session.Entry{
		Record:   rec,
		ImageURL: strings.TrimSpace(r.FormValue("imageUrl")),
		SavedAt:  h.now(),
	}
	if err := h.sessions.Save(r.Context(), w, r, entry); err != nil {
		h.errorPage(w, r, domain.UpstreamError("Could not remember this plant. Please try again.", err))
		return
	}
	http.Redirect(w, r, "/plant-details", http.StatusSeeOther)
}

// PlantDetails renders the last stored plant with its Wikipedia article.
func (h *PageHandler) PlantDetails(w http.ResponseWriter, r *http.Request) {
	entry, err := h.sessions.Load(r.Context(), r)
	if err != nil {
		if errors.Is(err, session.ErrNoSession) {
			err = domain.NotFoundError("No plant data found. Search for a plant or upload an image first.", err)
		}
		h.errorPage(w, r, err)
		return
	}

	data := detailsData{Entry: entry}
	page, err := h.plants.PlantPage(r.Context(), entry.Record)
	if err != nil {
		h.logger.WithContext(r.Context()).Warn().Err(err).Str("plant", entry.Record.Title()).Msg("Wikipedia article unavailable")
		data.PageError = messageFor(err)
	} else {
		data.Page = page
		if data.Entry.ImageURL == "" {
			data.Entry.ImageURL = page.LeadImage
		}
	}
	h.render.Render(w, http.StatusOK, pageDetails, entry.Record.Title(), data)
}

// Forget drops the remembered plant and returns to the home page.
func (h *PageHandler) Forget(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Clear(r.Context(), w, r); err != nil {
		h.errorPage(w, r, err)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// RandomFacts renders the first batch of random facts.
func (h *PageHandler) RandomFacts(w http.ResponseWriter, r *http.Request) {
	list, err := h.facts.Fetch(r.Context(), h.cfg.InitialFacts)
	if err != nil {
		h.errorPage(w, r, err)
		return
	}
	h.render.Render(w, http.StatusOK, pageFacts, "Random Plant Facts", factsData{Facts: list, More: h.cfg.MoreFacts})
}

// MoreFacts returns another batch of facts as JSON.
func (h *PageHandler) MoreFacts(w http.ResponseWriter, r *http.Request) {
	list, err := h.facts.Fetch(r.Context(), h.cfg.MoreFacts)
	if err != nil {
		writeDomainError(w, r, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, map[string]any{"facts": list})
}

func (h *PageHandler) homeError(w http.ResponseWriter, r *http.Request, query string, err error) {
	status := statusFor(err)
	h.logger.WithContext(r.Context()).Warn().Err(err).Int("status", status).Msg("Plant lookup failed")
	h.render.Render(w, status, pageHome, "Wikiplant", homeData{Query: query, Error: messageFor(err)})
}

func (h *PageHandler) errorPage(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	h.logger.WithContext(r.Context()).Warn().Err(err).Int("status", status).Msg("Page failed")
	h.render.Render(w, status, pageError, "Something went wrong", errorPage{
		Status:  status,
		Message: messageFor(err),
		Back:    "/",
	})
}

// readUpload reads the image in the multipart field name.
func readUpload(r *http.Request, field string, maxBytes int64) (recognition.Upload, error) {
	if err := r.ParseMultipartForm(maxBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return recognition.Upload{}, domain.ValidationError("The image is too large", err)
		}
		return recognition.Upload{}, domain.ValidationError("No image provided", err)
	}

	file, header, err := r.FormFile(field)
	if err != nil {
		return recognition.Upload{}, domain.ValidationError("No image provided", err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return recognition.Upload{}, domain.ValidationError("Could not read the image", err)
	}
	if len(data) == 0 {
		return recognition.Upload{}, domain.ValidationError("No image provided", nil)
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(data)
	}
	return recognition.Upload{
		Filename:    header.Filename,
		ContentType: contentType,
		Data:        data,
	}, nil
}

// previewURL returns a data URL of an uploaded image for display next to the
// result.
func previewURL(up recognition.Upload) template.URL {
	if !strings.HasPrefix(up.ContentType, "image/") {
		return ""
	}
	return template.URL("data:" + up.ContentType + ";base64," + base64.StdEncoding.EncodeToString(up.Data))
}
