package content

import (
	"fmt"
	"strings"
)

const (
	sectionMarker  = "\n## "
	fallbackAlt    = "Article illustration"
	imageBlockTmpl = "\n\n![%s](%s)\n"
)

// EmbeddedImage is an uploaded image ready to be placed into the content.
type EmbeddedImage struct {
	URL     string
	AltText string
}

// EmbedImages distributes images through the content at roughly even
// intervals. Content is split into sections at second-level heading
// boundaries; an image block is emitted after every interval-th section,
// where interval = max(1, sectionCount / (imageCount + 1)). Images that do
// not fit the walk are appended at the end, so every image is placed exactly
// once regardless of section count.
func EmbedImages(input string, images []EmbeddedImage) string {
	if len(images) == 0 {
		return input
	}

	sections := strings.Split(input, sectionMarker)
	interval := len(sections) / (len(images) + 1)
	if interval < 1 {
		interval = 1
	}

	var b strings.Builder
	next := 0
	for i, section := range sections {
		if i > 0 {
			b.WriteString(sectionMarker)
		}
		b.WriteString(section)

		if next < len(images) && (i+1)%interval == 0 {
			b.WriteString(imageBlock(images[next]))
			next++
		}
	}

	// Fewer sections than images demand: append the rest at the end.
	for ; next < len(images); next++ {
		b.WriteString(imageBlock(images[next]))
	}

	return b.String()
}

func imageBlock(img EmbeddedImage) string {
	alt := img.AltText
	if alt == "" {
		alt = fallbackAlt
	}
	return fmt.Sprintf(imageBlockTmpl, alt, img.URL)
}
