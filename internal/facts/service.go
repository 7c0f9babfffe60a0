// Package facts assembles random plant facts from Gemini and from random
// members of Wikipedia plant categories.
package facts

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/Nexakreation/Wikiplant2/internal/generate"
	"github.com/Nexakreation/Wikiplant2/internal/observability"
	"github.com/Nexakreation/Wikiplant2/internal/wikipedia"
)

// Fact sources.
const (
	SourceGemini    = "Gemini"
	SourceWikipedia = "Wikipedia"
)

const (
	maxWikipediaAttempts = 3
	defaultConcurrency   = 4
	noDescription        = "No description available."
)

// Categories are the Wikipedia categories random plants are drawn from.
var Categories = []string{
	"Flowering_plants", "Trees", "Shrubs", "Herbs", "Vegetables", "Fruits",
	"Grasses", "Ferns", "Mosses", "Succulents", "Vines", "Aquatic_plants",
	"Conifers", "Palms", "Orchids", "Cacti", "Bamboos", "Bromeliads",
	"Carnivorous_plants", "Epiphytes", "Medicinal_plants", "Poisonous_plants",
	"Edible_plants", "Ornamental_plants", "Tropical_plants", "Desert_plants",
	"Alpine_plants", "Rainforest_plants", "Mangroves", "Seagrasses",
}

var errDisambiguation = errors.New("disambiguation page")

// Fact is one display card.
type Fact struct {
	Text      string `json:"text"`
	ImageURL  string `json:"imageUrl"`
	Source    string `json:"source"`
	PlantName string `json:"plantName"`
	Link      string `json:"link,omitempty"`
}

// Wiki is the part of the Wikipedia client facts need.
type Wiki interface {
	CategoryMembers(ctx context.Context, category string) ([]string, error)
	Summary(ctx context.Context, title string) (*wikipedia.Summary, error)
	RandomSummary(ctx context.Context) (*wikipedia.Summary, error)
	PageURL(title string) string
}

// Thumbnailer finds a thumbnail for a plant name.
type Thumbnailer interface {
	Thumbnail(ctx context.Context, name string) string
}

// Service fetches facts.
type Service struct {
	gen         generate.Generator
	wiki        Wiki
	thumbs      Thumbnailer
	concurrency int
	logger      *observability.Logger

	mu  sync.Mutex
	rnd *rand.Rand
}

// Option configures a Service.
type Option func(*Service)

// WithRand sets the random source used for category sampling and shuffling.
func WithRand(r *rand.Rand) Option {
	return func(s *Service) { s.rnd = r }
}

// WithConcurrency bounds concurrent upstream calls per source.
func WithConcurrency(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// NewService creates a Service. gen may be nil, in which case only
// Wikipedia facts are returned.
func NewService(gen generate.Generator, wiki Wiki, thumbs Thumbnailer, logger *observability.Logger, opts ...Option) *Service {
	s := &Service{
		gen:         gen,
		wiki:        wiki,
		thumbs:      thumbs,
		concurrency: defaultConcurrency,
		logger:      logger.WithComponent("facts"),
		rnd:         rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Fetch returns up to count facts. Gemini (2*count facts) and Wikipedia
// (count facts) are queried concurrently; a failing source contributes
// nothing. The union is shuffled and truncated to count.
func (s *Service) Fetch(ctx context.Context, count int) ([]Fact, error) {
	if count <= 0 {
		return []Fact{}, nil
	}

	var gemini, wiki []Fact
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		var err error
		if gemini, err = s.geminiFacts(ctx, 2*count); err != nil {
			s.logger.Warn().Err(err).Msg("Error fetching Gemini facts")
			gemini = nil
		}
	}()
	go func() {
		defer wg.Done()
		var err error
		if wiki, err = s.wikipediaFacts(ctx, count); err != nil {
			s.logger.Warn().Err(err).Msg("Error fetching Wikipedia plant facts")
			wiki = nil
		}
	}()
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	all := make([]Fact, 0, len(gemini)+len(wiki))
	all = append(all, gemini...)
	all = append(all, wiki...)

	s.mu.Lock()
	s.rnd.Shuffle(len(all), func(i, j int) { all[i], all[j] = all[j], all[i] })
	s.mu.Unlock()

	if len(all) > count {
		all = all[:count]
	}
	return all, nil
}

func (s *Service) geminiFacts(ctx context.Context, n int) ([]Fact, error) {
	if s.gen == nil {
		return nil, errors.New("google API key is not set")
	}

	text, err := s.gen.Generate(ctx, generate.Prompt{Text: generate.FactsPrompt(n)})
	if err != nil {
		return nil, err
	}
	generated, err := generate.ParseFacts(text)
	if err != nil {
		return nil, err
	}

	out := make([]Fact, len(generated))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, f := range generated {
		g.Go(func() error {
			out[i] = Fact{
				Text:      f.PlantName + ": " + f.Fact,
				ImageURL:  s.thumbs.Thumbnail(gctx, f.PlantName),
				Source:    SourceGemini,
				PlantName: f.PlantName,
				Link:      s.wiki.PageURL(f.PlantName),
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// wikipediaFacts fails as a whole when any single fact cannot be fetched.
func (s *Service) wikipediaFacts(ctx context.Context, n int) ([]Fact, error) {
	out := make([]Fact, n)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i := 0; i < n; i++ {
		g.Go(func() error {
			f, err := s.wikipediaFact(gctx)
			if err != nil {
				return err
			}
			out[i] = f
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Service) wikipediaFact(ctx context.Context) (Fact, error) {
	var lastErr error
	for attempt := 1; attempt <= maxWikipediaAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return Fact{}, err
		}
		f, err := s.tryWikipediaFact(ctx)
		if err == nil {
			return f, nil
		}
		lastErr = err
		s.logger.Debug().Err(err).Int("attempt", attempt).Msg("Wikipedia plant fact attempt failed")
	}
	return Fact{}, fmt.Errorf("no valid Wikipedia plant fact after %d attempts: %w", maxWikipediaAttempts, lastErr)
}

func (s *Service) tryWikipediaFact(ctx context.Context) (Fact, error) {
	category := Categories[s.intN(len(Categories))]
	members, err := s.wiki.CategoryMembers(ctx, category)
	if err != nil {
		return Fact{}, err
	}

	var (
		title string
		sum   *wikipedia.Summary
	)
	if len(members) == 0 {
		s.logger.Debug().Str("category", category).Msg("Category has no plant pages, using a random article")
		sum, err = s.wiki.RandomSummary(ctx)
	} else {
		title = members[s.intN(len(members))]
		sum, err = s.wiki.Summary(ctx, title)
	}
	if err != nil {
		return Fact{}, err
	}
	name := sum.Title
	if name == "" {
		name = title
	}
	if sum.IsDisambiguation() {
		return Fact{}, fmt.Errorf("%w: %s", errDisambiguation, name)
	}
	img := sum.ThumbnailURL()
	if img == "" {
		img = wikipedia.PlaceholderImage
	}
	return Fact{
		Text:      name + ": " + Snippet(sum.Extract),
		ImageURL:  img,
		Source:    SourceWikipedia,
		PlantName: name,
		Link:      s.wiki.PageURL(name),
	}, nil
}

func (s *Service) intN(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rnd.IntN(n)
}

// Snippet returns the first two sentences of an extract, ending in a period.
func Snippet(extract string) string {
	extract = strings.TrimSpace(extract)
	if extract == "" {
		return noDescription
	}
	sentences := strings.Split(extract, ". ")
	if len(sentences) > 2 {
		sentences = sentences[:2]
	}
	return strings.TrimRight(strings.Join(sentences, ". "), ".") + "."
}
