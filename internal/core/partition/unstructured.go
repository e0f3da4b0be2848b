// Package partition consumes the external document-partitioning engine. The
// engine is a black box that turns a PDF into typed elements with page
// numbers; this package only speaks its HTTP interface.
package partition

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/markdave123-py/vectora/internal/core"
	"github.com/markdave123-py/vectora/internal/core/retry"
	"github.com/markdave123-py/vectora/internal/models"
)

// UnstructuredClient calls an unstructured-API compatible partitioning
// service. When the primary hi_res partition fails, the optional fallback
// runs in degraded fast mode (plain text, no tables or images).
type UnstructuredClient struct {
	baseURL  string
	httpc    *http.Client
	policy   retry.Policy
	fallback core.Partitioner
}

func NewUnstructuredClient(baseURL string, fallback core.Partitioner) *UnstructuredClient {
	return &UnstructuredClient{
		baseURL:  baseURL,
		httpc:    &http.Client{Timeout: 5 * time.Minute},
		policy:   retry.DefaultPolicy(isTransientHTTP),
		fallback: fallback,
	}
}

// rawAPIElement mirrors the partitioning service's response shape.
type rawAPIElement struct {
	Type     string `json:"type"`
	Text     string `json:"text"`
	Metadata struct {
		PageNumber  int    `json:"page_number"`
		TextAsHTML  string `json:"text_as_html"`
		ImageBase64 string `json:"image_base64"`
	} `json:"metadata"`
}

func (c *UnstructuredClient) Partition(ctx context.Context, doc []byte) ([]models.RawElement, error) {
	elements, err := c.partitionRemote(ctx, doc)
	if err == nil {
		return elements, nil
	}
	if c.fallback == nil {
		return nil, err
	}
	log.Printf("Partitioner: primary partitioning failed (%v), retrying in fast mode", err)
	return c.fallback.Partition(ctx, doc)
}

// partitionRemote posts the document as multipart form data with the hi_res
// strategy and decodes the element list.
func (c *UnstructuredClient) partitionRemote(ctx context.Context, doc []byte) ([]models.RawElement, error) {
	var body []byte
	err := c.policy.Do(ctx, func(ctx context.Context) error {
		b, err := c.post(ctx, doc)
		if err != nil {
			return err
		}
		body = b
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("partition document: %w", err)
	}

	var raw []rawAPIElement
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("decode partitioner response: %w", err)
	}

	elements := make([]models.RawElement, 0, len(raw))
	for _, r := range raw {
		el := models.RawElement{
			Kind: mapElementKind(r.Type),
			Text: r.Text,
			HTML: r.Metadata.TextAsHTML,
			Page: r.Metadata.PageNumber,
		}
		if el.Kind == models.ElementImage && r.Metadata.ImageBase64 != "" {
			if data, err := base64.StdEncoding.DecodeString(r.Metadata.ImageBase64); err == nil {
				el.ImageData = data
			}
		}
		elements = append(elements, el)
	}
	return elements, nil
}

func (c *UnstructuredClient) post(ctx context.Context, doc []byte) ([]byte, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	fw, err := mw.CreateFormFile("files", "document.pdf")
	if err != nil {
		return nil, err
	}
	if _, err := fw.Write(doc); err != nil {
		return nil, err
	}
	if err := mw.WriteField("strategy", "hi_res"); err != nil {
		return nil, err
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/general/v0/general", &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call partitioner: %w: %w", core.ErrInfrastructure, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read partitioner response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("partitioner returned status %d", resp.StatusCode)
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			return nil, fmt.Errorf("%w: %w", core.ErrInfrastructure, err)
		}
		return nil, err
	}
	return body, nil
}

// mapElementKind folds the partitioner's element taxonomy onto ours; unknown
// kinds degrade to narrative text rather than being dropped.
func mapElementKind(apiType string) models.ElementKind {
	switch apiType {
	case "Title", "Header":
		return models.ElementTitle
	case "NarrativeText", "UncategorizedText", "Text":
		return models.ElementNarrativeText
	case "ListItem":
		return models.ElementListItem
	case "Table":
		return models.ElementTable
	case "Image", "Figure", "FigureCaption":
		return models.ElementImage
	default:
		return models.ElementNarrativeText
	}
}

func isTransientHTTP(err error) bool {
	return errors.Is(err, core.ErrInfrastructure)
}
