package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nexakreation/Wikiplant2/internal/config"
	"github.com/Nexakreation/Wikiplant2/internal/domain"
	"github.com/Nexakreation/Wikiplant2/internal/facts"
	"github.com/Nexakreation/Wikiplant2/internal/observability"
	"github.com/Nexakreation/Wikiplant2/internal/plantrecord"
	"github.com/Nexakreation/Wikiplant2/internal/plants"
	"github.com/Nexakreation/Wikiplant2/internal/recognition"
	"github.com/Nexakreation/Wikiplant2/internal/wikipedia"
)

type fakePlants struct {
	search  *plants.SearchResult
	id      *plants.Identification
	page    *wikipedia.PageDetail
	err     error
	upload  recognition.Upload
	species plantrecord.Species
	record  plantrecord.Record
	term    string
}

func (f *fakePlants) Identify(ctx context.Context, up recognition.Upload) (*plants.Identification, error) {
	f.upload = up
	return f.id, f.err
}

func (f *fakePlants) Search(ctx context.Context, term string) (*plants.SearchResult, error) {
	f.term = term
	return f.search, f.err
}

func (f *fakePlants) SpeciesDetails(ctx context.Context, sp plantrecord.Species) (*plants.Identification, error) {
	f.species = sp
	return f.id, f.err
}

func (f *fakePlants) PlantPage(ctx context.Context, rec plantrecord.Record) (*wikipedia.PageDetail, error) {
	f.record = rec
	return f.page, f.err
}

type fakeFacts struct {
	list  []facts.Fact
	count int
}

func (f *fakeFacts) Fetch(ctx context.Context, count int) ([]facts.Fact, error) {
	f.count = count
	return f.list, nil
}

type fakeTranslator struct{}

func (fakeTranslator) TranslateStrict(ctx context.Context, text, target string) (string, error) {
	return target + ":" + text, nil
}

func ficus() *plants.Identification {
	return &plants.Identification{
		Record: plantrecord.New(
			plantrecord.LabelCommonName, "Weeping fig",
			plantrecord.LabelScientificName, "Ficus benjamina",
			plantrecord.LabelDescription, "An evergreen tree.",
		),
		Image:    wikipedia.Image{URL: "https://upload.wikimedia.org/ficus.jpg", Found: true},
		Attempts: 1,
	}
}

type harness struct {
	plants *fakePlants
	facts  *fakeFacts
	closed int
	builds int
}

func (h *harness) build(ctx context.Context, cfg *config.Config, logger *observability.Logger) (*backend, error) {
	h.builds++
	return &backend{
		plants:     h.plants,
		facts:      h.facts,
		translator: fakeTranslator{},
		close:      func() error { h.closed++; return nil },
	}, nil
}

func run(t *testing.T, h *harness, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	err := execute(&out, &errOut, h.build, append([]string{"--no-color"}, args...))
	return out.String(), err
}

func TestSearchCmd_SinglePlant(t *testing.T) {
	h := &harness{plants: &fakePlants{search: &plants.SearchResult{Term: "weeping fig", Plant: ficus()}}}

	out, err := run(t, h, "search", "weeping", "fig")
	require.NoError(t, err)

	assert.Equal(t, "weeping fig", h.plants.term)
	assert.Contains(t, out, "WEEPING FIG")
	assert.Contains(t, out, "Scientific name: Ficus benjamina")
	assert.Contains(t, out, "Image: https://upload.wikimedia.org/ficus.jpg")
	assert.Equal(t, 1, h.builds)
	assert.Equal(t, 1, h.closed)
}

func TestSearchCmd_SpeciesList(t *testing.T) {
	h := &harness{plants: &fakePlants{search: &plants.SearchResult{Term: "oak", Species: []plantrecord.Species{
		{CommonName: "English oak", ScientificName: "Quercus robur", Description: "Deciduous.", ImageURL: "https://img/robur.jpg"},
		{CommonName: "Holm oak", ScientificName: "Quercus ilex", Description: "Evergreen.", ImageURL: wikipedia.PlaceholderPlant},
	}}}}

	out, err := run(t, h, "search", "oak")
	require.NoError(t, err)
	assert.Contains(t, out, "1. English oak (Quercus robur)")
	assert.Contains(t, out, "2. Holm oak (Quercus ilex)")
	assert.Contains(t, out, "https://img/robur.jpg")
	assert.NotContains(t, out, wikipedia.PlaceholderPlant)
}

func TestSearchCmd_JSON(t *testing.T) {
	h := &harness{plants: &fakePlants{search: &plants.SearchResult{Term: "ficus", Plant: ficus()}}}

	out, err := run(t, h, "--json", "search", "ficus")
	require.NoError(t, err)

	var got struct {
		Term  string `json:"term"`
		Plant struct {
			Record map[string]string `json:"record"`
		} `json:"plant"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "ficus", got.Term)
	assert.Equal(t, "Ficus benjamina", got.Plant.Record["Scientific name"])
}

func TestSearchCmd_Error(t *testing.T) {
	h := &harness{plants: &fakePlants{err: domain.IncompleteError("Unable to fetch plant information.", nil)}}

	_, err := run(t, h, "search", "rose")
	require.Error(t, err)
	assert.Equal(t, "Unable to fetch plant information.", domain.MessageOf(err))
	assert.Equal(t, 1, h.closed, "services are closed after a failed command")
}

func TestIdentifyCmd(t *testing.T) {
	path := filepath.Join(t.TempDir(), "leaf.png")
	require.NoError(t, os.WriteFile(path, []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"), 0o600))

	id := ficus()
	id.Suggestion = &recognition.Suggestion{Name: "Ficus benjamina", Confidence: 0.87}
	h := &harness{plants: &fakePlants{id: id}}

	out, err := run(t, h, "identify", path)
	require.NoError(t, err)
	assert.Equal(t, "leaf.png", h.plants.upload.Filename)
	assert.Equal(t, "image/png", h.plants.upload.ContentType)
	assert.Contains(t, out, "Recognised as Ficus benjamina (87% confidence)")

	_, err = run(t, h, "identify", filepath.Join(t.TempDir(), "missing.png"))
	assert.ErrorContains(t, err, "read image")
}

func TestSpeciesCmd(t *testing.T) {
	h := &harness{plants: &fakePlants{id: ficus()}}

	_, err := run(t, h, "species", "--scientific", "Ficus benjamina", "--common", "Weeping fig")
	require.NoError(t, err)
	assert.Equal(t, plantrecord.Species{CommonName: "Weeping fig", ScientificName: "Ficus benjamina"}, h.plants.species)

	_, err = run(t, h, "species", "--common", "Weeping fig")
	assert.Error(t, err)
}

func TestPageCmd(t *testing.T) {
	h := &harness{plants: &fakePlants{page: &wikipedia.PageDetail{
		Title:      "Ficus benjamina",
		Paragraphs: []string{"Ficus benjamina is a species of flowering plant."},
		Gallery:    []string{"https://upload.wikimedia.org/g1.jpg"},
	}}}

	out, err := run(t, h, "page", "Ficus", "benjamina", "--common", "Weeping fig")
	require.NoError(t, err)
	assert.Equal(t, "Ficus benjamina", h.plants.record.GetOr(plantrecord.LabelScientificName, ""))
	assert.Equal(t, "Weeping fig", h.plants.record.GetOr(plantrecord.LabelCommonName, ""))
	assert.Contains(t, out, "Ficus benjamina is a species of flowering plant.")
	assert.Contains(t, out, "Gallery: https://upload.wikimedia.org/g1.jpg")
}

func TestFactsCmd(t *testing.T) {
	h := &harness{facts: &fakeFacts{list: []facts.Fact{
		{Text: "Mimosa pudica: Folds its leaves when touched.", Source: facts.SourceGemini, PlantName: "Mimosa pudica"},
	}}}

	out, err := run(t, h, "facts", "-n", "2")
	require.NoError(t, err)
	assert.Equal(t, 2, h.facts.count)
	assert.Contains(t, out, "• Mimosa pudica: Folds its leaves when touched.")
	assert.Contains(t, out, "Source: Gemini")

	_, err = run(t, h, "facts", "-n", "0")
	assert.ErrorContains(t, err, "--count must be at least 1")
}

func TestTranslateCmd(t *testing.T) {
	h := &harness{}

	out, err := run(t, h, "translate", "--to", "de", "green", "leaf")
	require.NoError(t, err)
	assert.Equal(t, "de:green leaf\n", out)
}

func TestVersionCmd(t *testing.T) {
	h := &harness{}

	out, err := run(t, h, "version")
	require.NoError(t, err)
	assert.Equal(t, "wikiplant dev\n", out)
	assert.Zero(t, h.builds)
}
