package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/Nexakreation/Wikiplant2/internal/domain"
	"github.com/Nexakreation/Wikiplant2/internal/observability"
	"github.com/Nexakreation/Wikiplant2/internal/plantrecord"
	"github.com/Nexakreation/Wikiplant2/internal/recognition"
)

// Recognizer proxies an image to the recognition service.
type Recognizer interface {
	Identify(ctx context.Context, up recognition.Upload) (json.RawMessage, error)
	Configured() bool
}

// Translator translates text, returning the input unchanged on failure.
type Translator interface {
	Translate(ctx context.Context, text, target string) string
	Configured() bool
}

// APIHandler serves the JSON API.
type APIHandler struct {
	logger     *observability.Logger
	recognizer Recognizer
	plants     PlantService
	translator Translator
	maxUpload  int64
}

// NewAPIHandler creates a new API handler.
func NewAPIHandler(logger *observability.Logger, recognizer Recognizer, plantSvc PlantService, translator Translator, maxUpload int64) *APIHandler {
	if maxUpload <= 0 {
		maxUpload = 10 << 20
	}
	return &APIHandler{
		logger:     logger,
		recognizer: recognizer,
		plants:     plantSvc,
		translator: translator,
		maxUpload:  maxUpload,
	}
}

// PlantNameRequestDTO is the body of the search and species-check routes.
type PlantNameRequestDTO struct {
	PlantName string `json:"plantName"`
}

// SpeciesCheckResponseDTO is the species-check response.
type SpeciesCheckResponseDTO struct {
	HasMultipleSpecies bool                  `json:"hasMultipleSpecies"`
	SpeciesData        []plantrecord.Species `json:"speciesData"`
}

// TranslateRequestDTO is the translate request body.
type TranslateRequestDTO struct {
	Text   string `json:"text"`
	Target string `json:"target"`
}

// TranslateResponseDTO is the translate response.
type TranslateResponseDTO struct {
	TranslatedText string `json:"translatedText"`
}

// IdentifyPlant proxies the uploaded image in field "images" to Plant.id
// and returns its response verbatim.
func (h *APIHandler) IdentifyPlant(w http.ResponseWriter, r *http.Request) {
	log := h.logger.WithContext(r.Context()).WithOperation("identify-plant")

	up, err := readUpload(r, "images", h.maxUpload)
	if err != nil {
		log.Warn().Err(err).Msg("No image provided in request")
		writeError(w, http.StatusBadRequest, domain.MessageOf(err), "")
		return
	}
	if h.recognizer == nil || !h.recognizer.Configured() {
		log.Error().Msg("Plant.id API key not configured")
		writeError(w, http.StatusInternalServerError, "Plant.id API key not configured", "")
		return
	}

	raw, err := h.recognizer.Identify(r.Context(), up)
	if err != nil {
		status := statusFor(err)
		if status == http.StatusBadGateway {
			status = http.StatusInternalServerError
		}
		log.Error().Err(err).Int("status", status).Msg("Error identifying plant")
		writeError(w, status, messageFor(err), "")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(raw); err != nil {
		log.Debug().Err(err).Msg("Failed to write response")
	}
}

// SearchPlant describes a single plant by name and returns its record.
func (h *APIHandler) SearchPlant(w http.ResponseWriter, r *http.Request) {
	var req PlantNameRequestDTO
	if !h.decode(w, r, &req) {
		return
	}

	id, err := h.plants.Describe(r.Context(), req.PlantName)
	if err != nil {
		writeDomainError(w, r, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, id.Record)
}

// CheckMultipleSpecies reports whether a name covers several species.
func (h *APIHandler) CheckMultipleSpecies(w http.ResponseWriter, r *http.Request) {
	var req PlantNameRequestDTO
	if !h.decode(w, r, &req) {
		return
	}

	species, err := h.plants.CheckSpecies(r.Context(), req.PlantName)
	if err != nil {
		writeDomainError(w, r, h.logger, err)
		return
	}
	if species == nil {
		species = []plantrecord.Species{}
	}
	writeJSON(w, h.logger, http.StatusOK, SpeciesCheckResponseDTO{
		HasMultipleSpecies: len(species) > 0,
		SpeciesData:        species,
	})
}

// Translate translates text into the target language.
func (h *APIHandler) Translate(w http.ResponseWriter, r *http.Request) {
	var req TranslateRequestDTO
	if !h.decode(w, r, &req) {
		return
	}
	target := strings.TrimSpace(req.Target)
	if target == "" {
		writeError(w, http.StatusBadRequest, "Target language is required", "")
		return
	}
	if h.translator == nil || !h.translator.Configured() {
		writeError(w, http.StatusInternalServerError, "Google Translate API key not configured", "")
		return
	}

	out := h.translator.Translate(r.Context(), req.Text, target)
	writeJSON(w, h.logger, http.StatusOK, TranslateResponseDTO{TranslatedText: out})
}

func (h *APIHandler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		h.logger.WithContext(r.Context()).Warn().Err(err).Msg("Invalid request body")
		writeError(w, http.StatusBadRequest, "Invalid request body", err.Error())
		return false
	}
	return true
}
