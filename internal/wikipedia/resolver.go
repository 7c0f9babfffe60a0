package wikipedia

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/Nexakreation/Wikiplant2/internal/cache"
	"github.com/Nexakreation/Wikiplant2/internal/observability"
)

// Local placeholder images served from /static.
const (
	PlaceholderPlant = "/static/placeholder-plant.svg"
	PlaceholderImage = "/static/placeholder-image.svg"
)

var parenNote = regexp.MustCompile(`\s*\([^)]*\)`)

// Source is the part of Client the resolver needs.
type Source interface {
	ParseHTML(ctx context.Context, page string) (string, error)
	Summary(ctx context.Context, title string) (*Summary, error)
	SearchURL(query string) string
}

// Image is a resolved image URL. Found is false when URL is a search page
// or a placeholder rather than a picture.
type Image struct {
	URL   string `json:"url"`
	Found bool   `json:"found"`
}

// Resolver finds a representative image for a plant name.
type Resolver struct {
	source Source
	cache  cache.Client
	ttl    time.Duration
	logger *observability.Logger
}

// NewResolver creates a resolver. cache may be nil.
func NewResolver(source Source, c cache.Client, ttl time.Duration, logger *observability.Logger) *Resolver {
	return &Resolver{
		source: source,
		cache:  c,
		ttl:    ttl,
		logger: logger.WithComponent("wikipedia"),
	}
}

// Resolve tries the name, then progressively shorter variants of it, and
// returns the first acceptable Commons image. When none is found it returns
// the Wikipedia search URL for name.
func (r *Resolver) Resolve(ctx context.Context, name string) Image {
	name = strings.TrimSpace(name)
	if name == "" {
		return Image{URL: r.source.SearchURL("")}
	}

	key := cache.Key("wiki-image", name)
	if r.cache != nil {
		var cached Image
		if err := cache.GetJSON(ctx, r.cache, key, &cached); err == nil {
			return cached
		}
	}

	img, transient := r.resolve(ctx, name)

	if r.cache != nil && (img.Found || !transient) {
		if err := cache.SetJSON(ctx, r.cache, key, img, r.ttl); err != nil {
			r.logger.Warn().Err(err).Str("name", name).Msg("Failed to cache image resolution")
		}
	}
	return img
}

func (r *Resolver) resolve(ctx context.Context, name string) (Image, bool) {
	transient := false
	for _, q := range QueryVariants(name) {
		if ctx.Err() != nil {
			return Image{URL: r.source.SearchURL(name)}, true
		}

		doc, err := r.source.ParseHTML(ctx, q)
		if err != nil {
			if !errors.Is(err, ErrPageNotFound) {
				transient = true
			}
			r.logger.Debug().Err(err).Str("query", q).Msg("Wikipedia parse failed, trying next variant")
			continue
		}

		if u, ok := FirstValidImage(doc); ok {
			return Image{URL: u, Found: true}, false
		}
	}
	return Image{URL: r.source.SearchURL(name)}, transient
}

// ResolveSpecies resolves by common name, then scientific name, and falls
// back to the local plant placeholder.
func (r *Resolver) ResolveSpecies(ctx context.Context, scientificName, commonName string) Image {
	for _, n := range []string{commonName, scientificName} {
		if strings.TrimSpace(n) == "" {
			continue
		}
		if img := r.Resolve(ctx, n); img.Found {
			return img
		}
	}
	return Image{URL: PlaceholderPlant}
}

// Thumbnail returns the REST summary thumbnail for a plant name, retrying
// with the cleaned name, its genus, and the raw name before falling back to
// the local placeholder.
func (r *Resolver) Thumbnail(ctx context.Context, name string) string {
	cleaned := cleanFactName(name)

	candidates := []string{cleaned}
	if strings.Contains(cleaned, " ") {
		candidates = append(candidates, strings.Fields(cleaned)[0])
	}
	candidates = append(candidates, name)

	for _, c := range dedupe(candidates) {
		s, err := r.source.Summary(ctx, c)
		if err != nil {
			r.logger.Debug().Err(err).Str("name", c).Msg("Wikipedia summary failed")
			continue
		}
		if u := s.ThumbnailURL(); u != "" {
			return u
		}
	}
	return PlaceholderImage
}

// QueryVariants lists the page titles tried for name: the name itself, the
// part before an apostrophe, the part before any bracket, slash or quote,
// and the genus.
func QueryVariants(name string) []string {
	name = strings.TrimSpace(name)
	if strings.Contains(name, "://") {
		return []string{name}
	}

	beforeQuote, _, _ := strings.Cut(name, "'")
	beforeBracket := name
	if i := strings.IndexAny(name, `([{/'"`); i >= 0 {
		beforeBracket = name[:i]
	}
	beforeBracket = strings.TrimSpace(beforeBracket)

	variants := []string{name, strings.TrimSpace(beforeQuote), beforeBracket}
	if fields := strings.Fields(beforeBracket); len(fields) > 1 {
		variants = append(variants, fields[0])
	}
	return dedupe(variants)
}

func cleanFactName(name string) string {
	name, _, _ = strings.Cut(name, " spp.")
	return strings.TrimSpace(parenNote.ReplaceAllString(name, ""))
}

func dedupe(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
