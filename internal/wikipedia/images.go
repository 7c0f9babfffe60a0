package wikipedia

import (
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

const commonsPath = "//upload.wikimedia.org/wikipedia/commons/"

// minImageWidth is the smallest thumbnail width accepted as a plant photo.
const minImageWidth = 100

var thumbWidth = regexp.MustCompile(`/(\d+)px-`)

// ExtractImages returns the Commons image URLs of every <img> in document
// order, with scheme-less URLs made https.
func ExtractImages(doc string) []string {
	var out []string
	z := html.NewTokenizer(strings.NewReader(doc))
	for {
		switch z.Next() {
		case html.ErrorToken:
			return out
		case html.StartTagToken, html.SelfClosingTagToken:
			tok := z.Token()
			if tok.DataAtom != atom.Img {
				continue
			}
			for _, a := range tok.Attr {
				if a.Key != "src" {
					continue
				}
				if u, ok := commonsURL(a.Val); ok {
					out = append(out, u)
				}
			}
		}
	}
}

// IsValidPlantImage rejects SVGs, icons and thumbnails narrower than 100px.
func IsValidPlantImage(u string) bool {
	lower := strings.ToLower(u)
	if strings.Contains(lower, ".svg") || strings.Contains(lower, "icon") {
		return false
	}
	for _, m := range thumbWidth.FindAllStringSubmatch(u, -1) {
		if w, err := strconv.Atoi(m[1]); err == nil && w < minImageWidth {
			return false
		}
	}
	return true
}

// FirstValidImage returns the first acceptable image in doc.
func FirstValidImage(doc string) (string, bool) {
	for _, u := range ExtractImages(doc) {
		if IsValidPlantImage(u) {
			return u, true
		}
	}
	return "", false
}

func commonsURL(src string) (string, bool) {
	switch {
	case strings.HasPrefix(src, commonsPath):
		return "https:" + src, true
	case strings.HasPrefix(src, "https:"+commonsPath), strings.HasPrefix(src, "http:"+commonsPath):
		return src, true
	default:
		return "", false
	}
}
