package plantrecord

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	parenthesised = regexp.MustCompile(`\s*\([^)]*\)`)
	sppSuffix     = regexp.MustCompile(`(?i)\s*\bspp\b\.?`)
	imageURLLine  = regexp.MustCompile(`(?i)Image URL:\s*(https?://\S+)`)
)

// Parse scrapes "Label: value" lines into a record. Asterisks are stripped
// everywhere, blank lines are skipped, and a line without a colon continues
// the previous label's value. Labels that end up with no value are dropped.
func Parse(text string) Record {
	var r Record
	current := ""

	for _, line := range splitLines(text) {
		line = strings.TrimSpace(stripMarkup(line))
		if line == "" {
			continue
		}

		if label, value, ok := strings.Cut(line, ":"); ok && !strings.HasPrefix(value, "//") {
			if label = cleanLabel(label); label != "" {
				current = label
				r.Set(label, strings.TrimSpace(value))
				continue
			}
		}

		if current == "" {
			continue
		}
		if prev, _ := r.Get(current); prev != "" {
			r.Set(current, prev+" "+line)
		} else {
			r.Set(current, line)
		}
	}

	for _, k := range r.Keys() {
		if v, _ := r.Get(k); v == "" {
			r.Delete(k)
		}
	}

	return r
}

// Species is one entry of a multi-species answer.
type Species struct {
	CommonName     string `json:"commonName"`
	ScientificName string `json:"scientificName"`
	Description    string `json:"description"`
	ImageURL       string `json:"imageUrl"`
}

// ParseSpecies splits a multi-species answer into blank-line separated blocks
// and keeps the blocks that name a common name, a scientific name and a
// description. An "Image URL:" link in a block is kept as the species image.
func ParseSpecies(text string) []Species {
	var out []Species
	for _, block := range splitBlocks(text) {
		s := Species{
			CommonName:     blockValue(block, "common name"),
			ScientificName: blockValue(block, "scientific name"),
			Description:    blockValue(block, "description"),
			ImageURL:       ExtractImageURL(strings.Join(block, "\n")),
		}
		if s.CommonName != "" && s.ScientificName != "" && s.Description != "" {
			out = append(out, s)
		}
	}
	return out
}

// IsNoMultipleSpecies reports whether the species-check answer says the plant
// has a single species.
func IsNoMultipleSpecies(text string) bool {
	return strings.Contains(strings.ToLower(text), "no multiple species")
}

// ExtractImageURL returns the first "Image URL:" link in text, or "".
func ExtractImageURL(text string) string {
	m := imageURLLine.FindStringSubmatch(stripMarkup(text))
	if m == nil {
		return ""
	}
	return strings.TrimRight(m[1], ").,]")
}

// CleanScientificName strips markup, parenthesised notes and "spp." from a
// scientific name. Names that mention a genus collapse to their first word.
func CleanScientificName(name string) string {
	name = strings.NewReplacer("_", "", "*", "").Replace(name)
	name = parenthesised.ReplaceAllString(name, "")
	name = strings.TrimSpace(sppSuffix.ReplaceAllString(name, ""))

	if strings.Contains(strings.ToLower(name), "genus") {
		if fields := strings.Fields(name); len(fields) > 0 {
			return fields[0]
		}
	}
	return name
}

// Combine renders a species and the generated additional fields as one
// description text.
func Combine(s Species, additional string) string {
	return fmt.Sprintf("%s: %s\n%s: %s\n%s: %s\n%s",
		LabelCommonName, s.CommonName,
		LabelScientificName, s.ScientificName,
		LabelDescription, s.Description,
		additional)
}

func blockValue(lines []string, label string) string {
	for _, line := range lines {
		key, value, ok := strings.Cut(line, ":")
		if !ok || !strings.Contains(strings.ToLower(key), label) {
			continue
		}
		return strings.TrimSpace(stripMarkup(value))
	}
	return ""
}

func splitLines(text string) []string {
	return strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
}

func splitBlocks(text string) [][]string {
	var blocks [][]string
	var current []string
	for _, line := range splitLines(text) {
		if strings.TrimSpace(line) == "" {
			if len(current) > 0 {
				blocks = append(blocks, current)
				current = nil
			}
			continue
		}
		current = append(current, line)
	}
	if len(current) > 0 {
		blocks = append(blocks, current)
	}
	return blocks
}

func stripMarkup(s string) string {
	return strings.ReplaceAll(s, "*", "")
}

// cleanLabel trims list bullets and heading marks from a label.
func cleanLabel(label string) string {
	return strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(label), "-•#> "))
}
