package wikipedia

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/Nexakreation/Wikiplant2/internal/plantrecord"
)

const (
	maxParagraphs = 10
	maxGallery    = 10
)

// PageDetail is what the plant details page shows from Wikipedia.
type PageDetail struct {
	Title      string   `json:"title"`
	LeadImage  string   `json:"leadImage,omitempty"`
	Paragraphs []string `json:"paragraphs"`
	Gallery    []string `json:"gallery"`
}

// PageSource is the part of Client the page loader needs.
type PageSource interface {
	ParseHTML(ctx context.Context, page string) (string, error)
}

// LoadPage fetches the article for a scientific name and extracts its lead
// paragraphs and images. The lead image is the first one whose file name
// mentions the scientific or common name.
func LoadPage(ctx context.Context, src PageSource, scientificName, commonName string) (*PageDetail, error) {
	title := plantrecord.CleanScientificName(scientificName)
	if title == "" {
		return nil, fmt.Errorf("load page: empty scientific name")
	}

	doc, err := src.ParseHTML(ctx, title)
	if err != nil {
		return nil, fmt.Errorf("load page %q: %w", title, err)
	}

	detail := &PageDetail{
		Title:      title,
		Paragraphs: ExtractParagraphs(doc, maxParagraphs),
		Gallery:    Gallery(doc, maxGallery),
	}
	detail.LeadImage = leadImage(detail.Gallery, title, commonName)
	return detail, nil
}

// ExtractParagraphs returns the text of up to limit non-empty <p> elements.
func ExtractParagraphs(doc string, limit int) []string {
	root, err := html.Parse(strings.NewReader(doc))
	if err != nil {
		return nil
	}

	var out []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if len(out) >= limit {
			return
		}
		if n.Type == html.ElementNode && n.DataAtom == atom.P {
			var sb strings.Builder
			textContent(n, &sb)
			if text := strings.Join(strings.Fields(sb.String()), " "); text != "" {
				out = append(out, text)
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return out
}

// Gallery returns up to limit distinct acceptable images.
func Gallery(doc string, limit int) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, u := range ExtractImages(doc) {
		if len(out) >= limit {
			break
		}
		if !IsValidPlantImage(u) {
			continue
		}
		if _, ok := seen[u]; ok {
			continue
		}
		seen[u] = struct{}{}
		out = append(out, u)
	}
	return out
}

func leadImage(gallery []string, names ...string) string {
	for _, name := range names {
		needle := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(name), " ", "_"))
		if needle == "" {
			continue
		}
		for _, u := range gallery {
			if strings.Contains(strings.ToLower(u), needle) {
				return u
			}
		}
	}
	if len(gallery) > 0 {
		return gallery[0]
	}
	return ""
}

func textContent(n *html.Node, sb *strings.Builder) {
	switch n.Type {
	case html.TextNode:
		sb.WriteString(n.Data)
	case html.ElementNode:
		// Reference markers like [1] are not part of the prose.
		if n.DataAtom == atom.Sup || n.DataAtom == atom.Style {
			return
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		textContent(c, sb)
	}
}
