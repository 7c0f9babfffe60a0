package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Nexakreation/Wikiplant2/internal/facts"
	"github.com/Nexakreation/Wikiplant2/internal/plantrecord"
	"github.com/Nexakreation/Wikiplant2/internal/plants"
	"github.com/Nexakreation/Wikiplant2/internal/recognition"
	"github.com/Nexakreation/Wikiplant2/internal/wikipedia"
)

// PlantService runs the plant pipelines.
type PlantService interface {
	Identify(ctx context.Context, up recognition.Upload) (*plants.Identification, error)
	Search(ctx context.Context, term string) (*plants.SearchResult, error)
	SpeciesDetails(ctx context.Context, sp plantrecord.Species) (*plants.Identification, error)
	PlantPage(ctx context.Context, rec plantrecord.Record) (*wikipedia.PageDetail, error)
}

// FactService fetches random plant facts.
type FactService interface {
	Fetch(ctx context.Context, count int) ([]facts.Fact, error)
}

// Translator translates text.
type Translator interface {
	TranslateStrict(ctx context.Context, text, target string) (string, error)
}

// newSearchCmd creates the search subcommand.
func newSearchCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "search <plant name>",
		Short: "Describe a plant by common or scientific name",
		Long: `Search asks the language model whether the name covers several species.
If it does, the species are listed; otherwise the plant is described.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := c.context()
			defer cancel()

			b, err := c.backend(ctx)
			if err != nil {
				return err
			}

			term := strings.Join(args, " ")
			stop := c.ui.Spinner("Searching for " + term)
			result, err := b.plants.Search(ctx, term)
			stop()
			if err != nil {
				return err
			}

			if c.jsonOut {
				return c.ui.JSON(result)
			}
			if result.HasMultipleSpecies() {
				printSpecies(c.ui, result.Term, result.Species)
				return nil
			}
			printPlant(c.ui, result.Plant)
			return nil
		},
	}
}

// newIdentifyCmd creates the identify subcommand.
func newIdentifyCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "identify <image file>",
		Short: "Identify a plant from a photo",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := c.context()
			defer cancel()

			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read image: %w", err)
			}

			b, err := c.backend(ctx)
			if err != nil {
				return err
			}

			stop := c.ui.Spinner("Identifying " + filepath.Base(args[0]))
			id, err := b.plants.Identify(ctx, recognition.Upload{
				Filename:    filepath.Base(args[0]),
				ContentType: http.DetectContentType(data),
				Data:        data,
			})
			stop()
			if err != nil {
				return err
			}

			if c.jsonOut {
				return c.ui.JSON(id)
			}
			printPlant(c.ui, id)
			return nil
		},
	}
}

// newSpeciesCmd creates the species subcommand.
func newSpeciesCmd(c *cli) *cobra.Command {
	var (
		common      string
		scientific  string
		description string
	)

	cmd := &cobra.Command{
		Use:   "species",
		Short: "Describe one species picked from a search result",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := c.context()
			defer cancel()

			b, err := c.backend(ctx)
			if err != nil {
				return err
			}

			stop := c.ui.Spinner("Fetching details for " + scientific)
			id, err := b.plants.SpeciesDetails(ctx, plantrecord.Species{
				CommonName:     common,
				ScientificName: scientific,
				Description:    description,
			})
			stop()
			if err != nil {
				return err
			}

			if c.jsonOut {
				return c.ui.JSON(id)
			}
			printPlant(c.ui, id)
			return nil
		},
	}

	cmd.Flags().StringVar(&common, "common", "", "common name")
	cmd.Flags().StringVar(&scientific, "scientific", "", "scientific name (required)")
	cmd.Flags().StringVar(&description, "description", "", "short description")
	_ = cmd.MarkFlagRequired("scientific")

	return cmd
}

// newPageCmd creates the page subcommand.
func newPageCmd(c *cli) *cobra.Command {
	var common string

	cmd := &cobra.Command{
		Use:   "page <scientific name>",
		Short: "Show the Wikipedia article for a plant",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := c.context()
			defer cancel()

			b, err := c.backend(ctx)
			if err != nil {
				return err
			}

			rec := plantrecord.New(plantrecord.LabelScientificName, strings.Join(args, " "))
			if common != "" {
				rec.Set(plantrecord.LabelCommonName, common)
			}

			stop := c.ui.Spinner("Loading Wikipedia article")
			page, err := b.plants.PlantPage(ctx, rec)
			stop()
			if err != nil {
				return err
			}

			if c.jsonOut {
				return c.ui.JSON(page)
			}
			c.ui.Section(page.Title)
			for _, p := range page.Paragraphs {
				c.ui.Line("%s\n", p)
			}
			if page.LeadImage != "" {
				c.ui.KeyValue("Image", page.LeadImage)
			}
			for _, g := range page.Gallery {
				c.ui.KeyValue("Gallery", g)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&common, "common", "", "common name, used to pick the lead image")
	return cmd
}

// newFactsCmd creates the facts subcommand.
func newFactsCmd(c *cli) *cobra.Command {
	var count int

	cmd := &cobra.Command{
		Use:   "facts",
		Short: "Print random plant facts",
		RunE: func(cmd *cobra.Command, args []string) error {
			if count < 1 {
				return fmt.Errorf("--count must be at least 1")
			}
			ctx, cancel := c.context()
			defer cancel()

			b, err := c.backend(ctx)
			if err != nil {
				return err
			}

			stop := c.ui.Spinner("Gathering plant facts")
			list, err := b.facts.Fetch(ctx, count)
			stop()
			if err != nil {
				return err
			}

			if c.jsonOut {
				return c.ui.JSON(list)
			}
			if len(list) == 0 {
				c.ui.Warning("No facts could be loaded right now")
				return nil
			}
			c.ui.Section("Random plant facts")
			for _, f := range list {
				c.ui.Line("• %s", f.Text)
				c.ui.KeyValue("Source", f.Source)
				if f.Link != "" {
					c.ui.KeyValue("More", f.Link)
				}
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&count, "count", "n", 5, "number of facts")
	return cmd
}

// newTranslateCmd creates the translate subcommand.
func newTranslateCmd(c *cli) *cobra.Command {
	var target string

	cmd := &cobra.Command{
		Use:   "translate <text>",
		Short: "Translate text with Google Translate",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := c.context()
			defer cancel()

			b, err := c.backend(ctx)
			if err != nil {
				return err
			}

			out, err := b.translator.TranslateStrict(ctx, strings.Join(args, " "), target)
			if err != nil {
				return err
			}

			if c.jsonOut {
				return c.ui.JSON(map[string]string{"translatedText": out})
			}
			c.ui.Line("%s", out)
			return nil
		},
	}

	cmd.Flags().StringVarP(&target, "to", "t", "en", "target language code")
	return cmd
}

// newVersionCmd creates the version subcommand.
func newVersionCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		RunE: func(cmd *cobra.Command, args []string) error {
			if c.jsonOut {
				return c.ui.JSON(map[string]string{"version": version})
			}
			c.ui.Line("wikiplant %s", version)
			return nil
		},
	}
}

func printPlant(ui *UI, id *plants.Identification) {
	ui.Section(id.Record.Title())
	if id.Suggestion != nil {
		ui.Info("Recognised as %s (%.0f%% confidence)", id.Suggestion.Name, id.Suggestion.Confidence*100)
	}
	for _, f := range id.Record.Fields() {
		ui.KeyValue(f.Label, f.Value)
	}
	if id.Image.Found {
		ui.KeyValue("Image", id.Image.URL)
	} else if strings.HasPrefix(id.Image.URL, "http") {
		ui.KeyValue("Images", id.Image.URL)
	}
	if id.Attempts > 1 {
		ui.Warning("Answer completed after %d attempts", id.Attempts)
	}
}

func printSpecies(ui *UI, term string, species []plantrecord.Species) {
	ui.Section("Species of " + term)
	for i, sp := range species {
		ui.Line("%d. %s (%s)", i+1, sp.CommonName, sp.ScientificName)
		ui.Line("   %s", sp.Description)
		if sp.ImageURL != "" && strings.HasPrefix(sp.ImageURL, "http") {
			ui.Line("   %s", sp.ImageURL)
		}
	}
	ui.Info("Run: wikiplant species --scientific \"<name>\" for details")
}
