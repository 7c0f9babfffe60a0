package generate

import (
	"fmt"
	"strings"
)

// Labels requested from the model for a full description, in display order.
var descriptionLabels = []string{
	"Common name",
	"Scientific name",
	"Family",
	"Description",
	"Flower characteristics",
	"Leaf characteristics",
	"Plant height",
	"Blooming season",
	"Sunlight requirements",
	"Water needs",
	"Soil type",
	"Growth rate",
	"Hardiness zones",
	"Native region",
	"Potential uses",
	"Care tips",
	"Interesting facts",
}

func labelList(skip ...string) string {
	omit := make(map[string]bool, len(skip))
	for _, s := range skip {
		omit[s] = true
	}
	var sb strings.Builder
	for _, l := range descriptionLabels {
		if omit[l] {
			continue
		}
		sb.WriteString(l)
		sb.WriteString(":\n")
	}
	return sb.String()
}

// IdentifyPrompt asks the vision model to describe the attached image. A
// recognised name, when present, is offered as a hint.
func IdentifyPrompt(recognised string, confidence float64) string {
	var sb strings.Builder
	sb.WriteString("Identify this plant")
	if recognised != "" {
		fmt.Fprintf(&sb, " (an image recognition service suggests %q with %.0f%% confidence)", recognised, confidence*100)
	}
	sb.WriteString(" and provide the following information in a structured format with labels:\n")
	sb.WriteString(labelList())
	return sb.String()
}

// SearchPrompt asks for a full description of a named plant.
func SearchPrompt(term string) string {
	return fmt.Sprintf("Identify this plant %q and provide the following information in a structured format with labels:\n%s",
		term, labelList())
}

// SpeciesCheckPrompt asks whether a name covers several species.
func SpeciesCheckPrompt(term string) string {
	return fmt.Sprintf(`Does the plant %q have multiple species? If yes, list all species with their common names, scientific names, and a brief description in a structured format, separating species with a blank line:
Common name:
Scientific name (by which they are available on wikipedia):
Description:
If no, just say "No multiple species".`, term)
}

// DetailsPrompt asks for the fields a species listing does not carry.
func DetailsPrompt(commonName, scientificName string) string {
	return fmt.Sprintf("Provide the following additional information for the plant %q (%s) in a structured format with labels:\n%s",
		commonName, scientificName, labelList("Common name", "Scientific name", "Description"))
}

// FactsPrompt asks for n plant facts as a JSON array.
func FactsPrompt(n int) string {
	return fmt.Sprintf("Generate %d unique plant facts. Each fact should be about a specific plant species (not a category or family) that hasn't been mentioned before. "+
		"Include the plant's scientific name if possible. Focus on interesting features, uses, or characteristics of the plant. "+
		"Output as a JSON array of objects with 'plantName' and 'fact' keys.", n)
}
