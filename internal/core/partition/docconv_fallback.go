package partition

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"code.sajari.com/docconv"

	"github.com/markdave123-py/vectora/internal/core"
	"github.com/markdave123-py/vectora/internal/models"
)

// DocconvFallback is the degraded fast mode: local plain-text extraction via
// docconv. It loses tables, images and page boundaries (everything lands on
// page 1), but still yields embeddable text when the primary engine fails.
type DocconvFallback struct {
	useReadability bool
}

func NewDocconvFallback() *DocconvFallback {
	return &DocconvFallback{useReadability: false}
}

func (d *DocconvFallback) Partition(ctx context.Context, doc []byte) ([]models.RawElement, error) {
	res, err := docconv.Convert(bytes.NewReader(doc), "application/pdf", d.useReadability)
	if err != nil {
		return nil, fmt.Errorf("fast extraction: %w: %w", core.ErrNoExtractableContent, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	text := strings.TrimSpace(res.Body)
	if text == "" {
		return nil, fmt.Errorf("fast extraction yielded empty text: %w", core.ErrNoExtractableContent)
	}

	// Group consecutive non-blank lines into paragraph elements.
	var (
		elements []models.RawElement
		para     []string
	)
	flush := func() {
		if len(para) == 0 {
			return
		}
		elements = append(elements, models.RawElement{
			Kind: models.ElementNarrativeText,
			Text: strings.Join(para, " "),
			Page: 1,
		})
		para = para[:0]
	}
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			flush()
			continue
		}
		para = append(para, line)
	}
	flush()

	return elements, nil
}

var _ core.Partitioner = (*DocconvFallback)(nil)
