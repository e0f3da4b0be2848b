package ingestion_engine

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/markdave123-py/vectora/internal/core"
	"github.com/markdave123-py/vectora/internal/models"
)

const (
	// minTextLen suppresses noise: units with shorter text never reach the
	// embedding stage.
	minTextLen = 10

	// defaultSection is the sentinel used before any heading is seen.
	defaultSection = "General"
)

// Structure groups raw elements into content units with page, section and
// cross-reference metadata. Pages are processed in ascending order; within a
// page every image gets a deterministic identifier (img_<page>_<index>) and
// every surviving text/table unit on that page references all of them.
//
// Zero input elements is a processing failure, distinct from input that
// parses fine but filters down to nothing (a valid empty result).
func Structure(elements []models.RawElement, fileHash string) ([]models.ContentUnit, error) {
	if len(elements) == 0 {
		return nil, fmt.Errorf("structure document %s: %w", fileHash, core.ErrNoExtractableContent)
	}

	byPage := make(map[int][]models.RawElement)
	for _, el := range elements {
		page := el.Page
		if page < 1 {
			page = 1
		}
		byPage[page] = append(byPage[page], el)
	}

	pages := make([]int, 0, len(byPage))
	for p := range byPage {
		pages = append(pages, p)
	}
	sort.Ints(pages)

	var units []models.ContentUnit
	section := defaultSection

	for _, page := range pages {
		elems := byPage[page]

		// Pre-scan images so text/table units can reference them.
		imageIDs := make([]string, 0)
		for _, el := range elems {
			if el.Kind != models.ElementImage {
				continue
			}
			imgID := fmt.Sprintf("img_%d_%d", page, len(imageIDs)+1)
			imageIDs = append(imageIDs, imgID)
			units = append(units, models.ContentUnit{
				ID:          imgID,
				ContentType: models.ContentImage,
				TextContent: imageCaption(imgID, page),
				Metadata: models.UnitMetadata{
					Page:          page,
					Section:       section,
					RelatedImages: []string{},
					FileHash:      fileHash,
				},
			})
		}

		for _, el := range elems {
			if el.Kind == models.ElementImage {
				continue
			}

			text := strings.TrimSpace(el.Text)
			// Only title and narrative elements are heading candidates; a
			// table whose header row reads like a title must still be emitted.
			if el.Kind == models.ElementTitle || el.Kind == models.ElementNarrativeText {
				if heading, ok := DetectHeading(text); ok {
					// Headings only update rolling state; they are not
					// emitted as their own units.
					section = heading
					continue
				}
			}

			var contentType models.ContentType
			switch el.Kind {
			case models.ElementTable:
				contentType = models.ContentTable
				if el.HTML != "" {
					text = tableToText(el.HTML)
				}
			case models.ElementTitle, models.ElementNarrativeText, models.ElementListItem:
				contentType = models.ContentText
			default:
				contentType = models.ContentText
			}

			if len([]rune(text)) < minTextLen {
				continue
			}

			units = append(units, models.ContentUnit{
				ID:          uuid.NewString(),
				ContentType: contentType,
				TextContent: text,
				Metadata: models.UnitMetadata{
					Page:          page,
					Section:       section,
					RelatedImages: append([]string(nil), imageIDs...),
					FileHash:      fileHash,
				},
			})
		}
	}

	return units, nil
}

// imageCaption is the placeholder embedded for an image until a vision model
// supplies a real caption.
func imageCaption(imgID string, page int) string {
	return fmt.Sprintf("Image reference [%s] on page %d", imgID, page)
}

var (
	tableReplacer = strings.NewReplacer(
		"<table>", "", "</table>", "",
		"<thead>", "", "</thead>", "",
		"<tbody>", "", "</tbody>", "",
		"<tr>", "\n| ", "</tr>", " |",
		"<th>", " ", "</th>", " |",
		"<td>", " ", "</td>", " |",
	)
	tagPattern = regexp.MustCompile(`<[^>]+>`)
)

// tableToText flattens an HTML table into a pipe-delimited text rendering
// suitable for embedding. Tags with attributes are stripped wholesale.
func tableToText(html string) string {
	text := tableReplacer.Replace(html)
	text = tagPattern.ReplaceAllString(text, " ")
	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.Join(strings.Fields(line), " ")
		if line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}
