package generate

import (
	"encoding/json"
	"fmt"
	"strings"
)

// GeneratedFact is one entry of the facts JSON.
type GeneratedFact struct {
	PlantName string `json:"plantName"`
	Fact      string `json:"fact"`
}

// ParseFacts decodes a JSON array of facts. A surrounding Markdown code fence
// is ignored, and entries without a plant name or fact are dropped.
func ParseFacts(text string) ([]GeneratedFact, error) {
	body := stripFence(text)

	var facts []GeneratedFact
	if err := json.Unmarshal([]byte(body), &facts); err != nil {
		// Some answers wrap the array in an object.
		var wrapped struct {
			Facts []GeneratedFact `json:"facts"`
		}
		if werr := json.Unmarshal([]byte(body), &wrapped); werr != nil || wrapped.Facts == nil {
			return nil, fmt.Errorf("unexpected facts format: %w", err)
		}
		facts = wrapped.Facts
	}

	out := facts[:0]
	for _, f := range facts {
		f.PlantName = strings.TrimSpace(f.PlantName)
		f.Fact = strings.TrimSpace(f.Fact)
		if f.PlantName == "" || f.Fact == "" {
			continue
		}
		out = append(out, f)
	}
	return out, nil
}

func stripFence(text string) string {
	s := strings.TrimSpace(text)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
