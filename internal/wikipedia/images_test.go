package wikipedia

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

const rosePageHTML = `<div class="mw-parser-output">
<table class="infobox"><tr><td>
<img src="//upload.wikimedia.org/wikipedia/commons/thumb/4/4a/OOjs_UI_icon_edit-ltr.svg/20px-OOjs_UI_icon_edit-ltr.svg.png" width="20">
<img src="//upload.wikimedia.org/wikipedia/commons/thumb/a/ab/Rosa_canina_leaf.jpg/40px-Rosa_canina_leaf.jpg">
<img src="//upload.wikimedia.org/wikipedia/en/thumb/9/99/Question_book-new.svg/50px-Question_book-new.svg.png">
<img alt="Rosa canina" src="//upload.wikimedia.org/wikipedia/commons/thumb/c/c5/Rosa_canina_flower.jpg/250px-Rosa_canina_flower.jpg"/>
</td></tr></table>
<p>Rosa canina, commonly known as the <b>dog rose</b>,<sup>[1]</sup> is a variable climbing, wild rose species.</p>
<p>   </p>
<p>It is native to Europe, northwest Africa, and western Asia.</p>
<img src="https://upload.wikimedia.org/wikipedia/commons/thumb/d/d1/Hips.jpg/330px-Hips.jpg">
<img src="https://upload.wikimedia.org/wikipedia/commons/thumb/c/c5/Rosa_canina_flower.jpg/250px-Rosa_canina_flower.jpg">
</div>`

func TestExtractImages(t *testing.T) {
	got := ExtractImages(rosePageHTML)

	assert.Equal(t, []string{
		"https://upload.wikimedia.org/wikipedia/commons/thumb/4/4a/OOjs_UI_icon_edit-ltr.svg/20px-OOjs_UI_icon_edit-ltr.svg.png",
		"https://upload.wikimedia.org/wikipedia/commons/thumb/a/ab/Rosa_canina_leaf.jpg/40px-Rosa_canina_leaf.jpg",
		"https://upload.wikimedia.org/wikipedia/commons/thumb/c/c5/Rosa_canina_flower.jpg/250px-Rosa_canina_flower.jpg",
		"https://upload.wikimedia.org/wikipedia/commons/thumb/d/d1/Hips.jpg/330px-Hips.jpg",
		"https://upload.wikimedia.org/wikipedia/commons/thumb/c/c5/Rosa_canina_flower.jpg/250px-Rosa_canina_flower.jpg",
	}, got, "non-Commons images are skipped")
}

func TestFirstValidImage(t *testing.T) {
	u, ok := FirstValidImage(rosePageHTML)
	assert.True(t, ok)
	assert.Equal(t, "https://upload.wikimedia.org/wikipedia/commons/thumb/c/c5/Rosa_canina_flower.jpg/250px-Rosa_canina_flower.jpg", u)

	_, ok = FirstValidImage(`<p>No pictures here</p>`)
	assert.False(t, ok)
}

func TestIsValidPlantImage(t *testing.T) {
	tests := []struct {
		url  string
		want bool
	}{
		{"https://upload.wikimedia.org/wikipedia/commons/a/ab/Rosa.jpg", true},
		{"https://upload.wikimedia.org/wikipedia/commons/thumb/a/ab/Rosa.jpg/100px-Rosa.jpg", true},
		{"https://upload.wikimedia.org/wikipedia/commons/thumb/a/ab/Rosa.jpg/99px-Rosa.jpg", false},
		{"https://upload.wikimedia.org/wikipedia/commons/thumb/a/ab/Rosa.jpg/8px-Rosa.jpg", false},
		{"https://upload.wikimedia.org/wikipedia/commons/a/ab/Map.svg", false},
		{"https://upload.wikimedia.org/wikipedia/commons/thumb/a/ab/Map.svg/400px-Map.svg.png", false},
		{"https://upload.wikimedia.org/wikipedia/commons/a/ab/Red_Icon.png", false},
		{"https://upload.wikimedia.org/wikipedia/commons/a/ab/icon_leaf.png", false},
		{"https://upload.wikimedia.org/wikipedia/commons/a/ab/Wiki_ICON.png", false},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, IsValidPlantImage(tc.url), tc.url)
	}
}

// Any image the resolver accepts from arbitrary page HTML must not be an SVG,
// an icon, or narrower than 100px.
func TestFirstValidImage_NeverAcceptsRejectedShapes(t *testing.T) {
	names := []string{"Leaf.svg", "icon.png", "Flower_Icon.jpg", "Stem.SVG.png", "Bark.jpg", "Root.png"}
	widths := []int{1, 20, 50, 99, 100, 120, 500}

	for _, name := range names {
		for _, w := range widths {
			doc := fmt.Sprintf(`<p><img src="//upload.wikimedia.org/wikipedia/commons/thumb/1/12/%[1]s/%[2]dpx-%[1]s"></p>`, name, w)
			u, ok := FirstValidImage(doc)
			if !ok {
				continue
			}
			assert.True(t, w >= 100, "accepted narrow image %s", u)
			assert.NotContains(t, u, ".svg")
			assert.NotContains(t, u, ".SVG")
			assert.NotContains(t, u, "icon")
			assert.NotContains(t, u, "Icon")
		}
	}
}

func TestExtractParagraphs(t *testing.T) {
	got := ExtractParagraphs(rosePageHTML, 10)

	assert.Equal(t, []string{
		"Rosa canina, commonly known as the dog rose, is a variable climbing, wild rose species.",
		"It is native to Europe, northwest Africa, and western Asia.",
	}, got)

	assert.Len(t, ExtractParagraphs(rosePageHTML, 1), 1)
}

func TestGallery(t *testing.T) {
	got := Gallery(rosePageHTML, 10)

	assert.Equal(t, []string{
		"https://upload.wikimedia.org/wikipedia/commons/thumb/c/c5/Rosa_canina_flower.jpg/250px-Rosa_canina_flower.jpg",
		"https://upload.wikimedia.org/wikipedia/commons/thumb/d/d1/Hips.jpg/330px-Hips.jpg",
	}, got)

	assert.Len(t, Gallery(rosePageHTML, 1), 1)
}
