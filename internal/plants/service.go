// Package plants runs the identify, search and species-details pipelines
// that turn an image or a typed name into a displayable plant record.
package plants

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Nexakreation/Wikiplant2/internal/cache"
	"github.com/Nexakreation/Wikiplant2/internal/domain"
	"github.com/Nexakreation/Wikiplant2/internal/generate"
	"github.com/Nexakreation/Wikiplant2/internal/observability"
	"github.com/Nexakreation/Wikiplant2/internal/plantrecord"
	"github.com/Nexakreation/Wikiplant2/internal/recognition"
	"github.com/Nexakreation/Wikiplant2/internal/wikipedia"
)

// Recognizer identifies an uploaded image.
type Recognizer interface {
	Identify(ctx context.Context, up recognition.Upload) (json.RawMessage, error)
	Configured() bool
}

// ImageResolver finds plant images on Wikipedia.
type ImageResolver interface {
	Resolve(ctx context.Context, name string) wikipedia.Image
	ResolveSpecies(ctx context.Context, scientificName, commonName string) wikipedia.Image
}

// Config tunes the pipelines.
type Config struct {
	SpeciesConcurrency int
	SearchTTL          time.Duration
	Retry              generate.RetryConfig
}

// Deps are the collaborators of a Service. Recognizer, Vision, Text and
// Cache may be nil; the pipelines that need a missing one fail with a
// config error.
type Deps struct {
	Recognizer Recognizer
	Vision     generate.Generator
	Text       generate.Generator
	Images     ImageResolver
	Pages      wikipedia.PageSource
	Cache      cache.Client
}

// Identification is a complete plant record with its image.
type Identification struct {
	Record     plantrecord.Record      `json:"record"`
	Text       string                  `json:"text"`
	Image      wikipedia.Image         `json:"image"`
	Suggestion *recognition.Suggestion `json:"suggestion,omitempty"`
	Attempts   int                     `json:"attempts"`
}

// SearchResult is either a single plant or a list of species to choose from.
type SearchResult struct {
	Term    string                `json:"term"`
	Plant   *Identification       `json:"plant,omitempty"`
	Species []plantrecord.Species `json:"species,omitempty"`
}

// HasMultipleSpecies reports whether the result is a species list.
func (r *SearchResult) HasMultipleSpecies() bool {
	return r != nil && len(r.Species) > 0
}

// Service runs the plant pipelines.
type Service struct {
	deps   Deps
	cfg    Config
	logger *observability.Logger
}

// NewService creates a Service.
func NewService(deps Deps, cfg Config, logger *observability.Logger) *Service {
	if cfg.SpeciesConcurrency <= 0 {
		cfg.SpeciesConcurrency = 4
	}
	if cfg.SearchTTL <= 0 {
		cfg.SearchTTL = time.Hour
	}
	return &Service{deps: deps, cfg: cfg, logger: logger.WithComponent("plants")}
}

// Identify recognises the uploaded image, asks the vision model for a full
// description and looks up a Wikipedia image for the result. A recognition
// failure is logged and the description is generated from the image alone.
func (s *Service) Identify(ctx context.Context, up recognition.Upload) (*Identification, error) {
	if len(up.Data) == 0 {
		return nil, domain.ValidationError("No image provided", nil)
	}
	if s.deps.Vision == nil {
		return nil, domain.ConfigError("Google API key not configured", nil)
	}
	log := s.logger.WithContext(ctx).WithOperation("identify")

	var suggestion *recognition.Suggestion
	if s.deps.Recognizer != nil && s.deps.Recognizer.Configured() {
		raw, err := s.deps.Recognizer.Identify(ctx, up)
		switch {
		case err != nil && ctx.Err() != nil:
			return nil, ctx.Err()
		case err != nil:
			log.Warn().Err(err).Msg("Recognition failed, continuing with the image alone")
		default:
			if top, ok := recognition.TopSuggestion(raw); ok {
				suggestion = &top
				log.Info().Str("suggestion", top.Name).Float64("confidence", top.Confidence).Msg("Recognition suggestion")
			}
		}
	}

	var name string
	var confidence float64
	if suggestion != nil {
		name, confidence = suggestion.Name, suggestion.Confidence
	}
	prompt := generate.Prompt{
		Text:  generate.IdentifyPrompt(name, confidence),
		Image: &generate.Image{Data: up.Data, MIME: up.ContentType},
	}

	res, err := generate.NewRetrier(s.deps.Vision, s.cfg.Retry, s.logger).UntilComplete(ctx, prompt)
	if err != nil {
		return nil, err
	}

	id := &Identification{
		Record:     res.Record,
		Text:       res.Text,
		Suggestion: suggestion,
		Attempts:   res.Attempts,
	}
	id.Image = s.resolveRecordImage(ctx, res.Record)
	return id, nil
}

// Search asks whether term covers several species. A species list is
// returned with an image for each species; otherwise the single-plant
// description is generated. Successful results are cached per term.
func (s *Service) Search(ctx context.Context, term string) (*SearchResult, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil, domain.ValidationError("Please enter a plant name", nil)
	}
	if s.deps.Text == nil {
		return nil, domain.ConfigError("Google API key not configured", nil)
	}
	log := s.logger.WithContext(ctx).WithOperation("search")

	key := cache.Key("search", term)
	if s.deps.Cache != nil {
		var cached SearchResult
		if err := cache.GetJSON(ctx, s.deps.Cache, key, &cached); err == nil {
			log.Debug().Str("term", term).Msg("Search served from cache")
			cached.Term = term
			return &cached, nil
		}
	}

	species, err := s.CheckSpecies(ctx, term)
	if err != nil {
		return nil, err
	}

	result := &SearchResult{Term: term, Species: species}
	if len(species) > 0 {
		log.Info().Str("term", term).Int("species", len(species)).Msg("Multiple species found")
	} else {
		plant, err := s.Describe(ctx, term)
		if err != nil {
			return nil, err
		}
		result.Plant = plant
	}

	if s.deps.Cache != nil {
		if err := cache.SetJSON(ctx, s.deps.Cache, key, result, s.cfg.SearchTTL); err != nil {
			log.Warn().Err(err).Msg("Failed to cache search result")
		}
	}
	return result, nil
}

// CheckSpecies asks whether term covers several species and returns them
// with an image each. An empty result means a single species, or an answer
// in which no complete species block could be read.
func (s *Service) CheckSpecies(ctx context.Context, term string) ([]plantrecord.Species, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil, domain.ValidationError("Please enter a plant name", nil)
	}
	if s.deps.Text == nil {
		return nil, domain.ConfigError("Google API key not configured", nil)
	}

	answer, err := s.deps.Text.Generate(ctx, generate.Prompt{Text: generate.SpeciesCheckPrompt(term)})
	if err != nil {
		return nil, domain.UpstreamError("An error occurred while searching for the plant", err)
	}
	if plantrecord.IsNoMultipleSpecies(answer) {
		return nil, nil
	}

	species := plantrecord.ParseSpecies(answer)
	if len(species) == 0 {
		return nil, nil
	}
	if err := s.attachSpeciesImages(ctx, species); err != nil {
		return nil, err
	}
	return species, nil
}

// Describe runs the single-plant pipeline for a name.
func (s *Service) Describe(ctx context.Context, term string) (*Identification, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil, domain.ValidationError("Please enter a plant name", nil)
	}
	if s.deps.Text == nil {
		return nil, domain.ConfigError("Google API key not configured", nil)
	}

	res, err := generate.NewRetrier(s.deps.Text, s.cfg.Retry, s.logger).
		UntilComplete(ctx, generate.Prompt{Text: generate.SearchPrompt(term)})
	if err != nil {
		return nil, err
	}
	return &Identification{
		Record:   res.Record,
		Text:     res.Text,
		Image:    s.resolveRecordImage(ctx, res.Record),
		Attempts: res.Attempts,
	}, nil
}

// SpeciesDetails completes a species picked from a species list. Its image
// is reused unless it is a placeholder.
func (s *Service) SpeciesDetails(ctx context.Context, sp plantrecord.Species) (*Identification, error) {
	if strings.TrimSpace(sp.CommonName) == "" && strings.TrimSpace(sp.ScientificName) == "" {
		return nil, domain.ValidationError("No species selected", nil)
	}
	if s.deps.Text == nil {
		return nil, domain.ConfigError("Google API key not configured", nil)
	}

	additional, err := s.deps.Text.Generate(ctx, generate.Prompt{Text: generate.DetailsPrompt(sp.CommonName, sp.ScientificName)})
	if err != nil {
		return nil, domain.UpstreamError("An error occurred while fetching plant details.", err)
	}

	text := plantrecord.Combine(sp, additional)
	id := &Identification{
		Record:   plantrecord.Parse(text),
		Text:     text,
		Attempts: 1,
	}
	switch suggested := plantrecord.ExtractImageURL(additional); {
	case reusableImage(sp.ImageURL):
		id.Image = wikipedia.Image{URL: sp.ImageURL, Found: true}
	case reusableImage(suggested):
		id.Image = wikipedia.Image{URL: suggested, Found: true}
	default:
		id.Image = s.resolveRecordImage(ctx, id.Record)
	}
	return id, nil
}

// PlantPage loads the Wikipedia article for a record.
func (s *Service) PlantPage(ctx context.Context, rec plantrecord.Record) (*wikipedia.PageDetail, error) {
	scientific, ok := rec.Get(plantrecord.LabelScientificName)
	if !ok {
		return nil, domain.NotFoundError("No plant selected", nil)
	}
	detail, err := wikipedia.LoadPage(ctx, s.deps.Pages, scientific, rec.GetOr(plantrecord.LabelCommonName, ""))
	if err != nil {
		if errors.Is(err, wikipedia.ErrPageNotFound) {
			return nil, domain.NotFoundError("No Wikipedia article found for "+scientific, err)
		}
		return nil, err
	}
	return detail, nil
}

func (s *Service) attachSpeciesImages(ctx context.Context, species []plantrecord.Species) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.SpeciesConcurrency)

	for i := range species {
		sp := &species[i]
		if reusableImage(sp.ImageURL) {
			continue
		}
		g.Go(func() error {
			img := s.deps.Images.ResolveSpecies(gctx, plantrecord.CleanScientificName(sp.ScientificName), sp.CommonName)
			sp.ImageURL = img.URL
			return gctx.Err()
		})
	}
	return g.Wait()
}

func (s *Service) resolveRecordImage(ctx context.Context, rec plantrecord.Record) wikipedia.Image {
	name := plantrecord.CleanScientificName(rec.GetOr(plantrecord.LabelScientificName, ""))
	if name == "" {
		name = rec.GetOr(plantrecord.LabelCommonName, "")
	}
	if name == "" {
		return wikipedia.Image{URL: wikipedia.PlaceholderPlant}
	}
	return s.deps.Images.Resolve(ctx, name)
}

// reusableImage reports whether an image supplied with a species, or by the
// model, can be shown without a Wikipedia lookup.
func reusableImage(u string) bool {
	if u == "" || u == wikipedia.PlaceholderPlant || strings.Contains(u, "via.placeholder.com") {
		return false
	}
	return strings.HasPrefix(u, "https://") && wikipedia.IsValidPlantImage(u)
}
