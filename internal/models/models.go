package models

import (
	"time"
)

// ElementKind identifies one kind of raw element produced by the
// partitioning engine.
type ElementKind string

const (
	ElementTitle         ElementKind = "title"
	ElementNarrativeText ElementKind = "narrative-text"
	ElementListItem      ElementKind = "list-item"
	ElementTable         ElementKind = "table"
	ElementImage         ElementKind = "image"
)

// RawElement is one atomic unit from the partitioning engine. HTML is only
// set for tables that carry a structured representation; ImageData only for
// image elements.
type RawElement struct {
	Kind      ElementKind `json:"kind"`
	Text      string      `json:"text"`
	HTML      string      `json:"html,omitempty"`
	Page      int         `json:"page"`
	ImageData []byte      `json:"-"`
}

// ContentType classifies a content unit for storage and filtering.
type ContentType string

const (
	ContentText  ContentType = "text"
	ContentTable ContentType = "table"
	ContentImage ContentType = "image"
)

// UnitMetadata travels with every content unit into the vector store payload.
// RelatedImages holds the ids of the images co-located on the same page.
type UnitMetadata struct {
	Page          int      `json:"page"`
	Section       string   `json:"section"`
	RelatedImages []string `json:"related_images"`
	FileHash      string   `json:"file_hash"`
}

// ContentUnit is one embeddable piece of extracted document content.
type ContentUnit struct {
	ID          string       `json:"id"`
	ContentType ContentType  `json:"content_type"`
	TextContent string       `json:"text_content"`
	Metadata    UnitMetadata `json:"metadata"`
}

// VectorRecord is the persisted unit: the content unit's id, its embedding,
// and the flattened payload the store can filter on.
type VectorRecord struct {
	ID      string        `json:"id"`
	Vector  []float32     `json:"vector"`
	Payload RecordPayload `json:"payload"`
}

// RecordPayload flattens a content unit's fields for storage.
type RecordPayload struct {
	ContentType   string   `json:"content_type"`
	Text          string   `json:"text"`
	Page          int      `json:"page"`
	Section       string   `json:"section"`
	RelatedImages []string `json:"related_images"`
	FileHash      string   `json:"file_hash"`
}

// SearchHit is one ranked result from a similarity query.
type SearchHit struct {
	ID            string   `json:"id"`
	Score         float32  `json:"score"`
	ContentType   string   `json:"content_type"`
	Text          string   `json:"text"`
	Page          int      `json:"page"`
	Section       string   `json:"section"`
	RelatedImages []string `json:"related_images"`
	FileHash      string   `json:"file_hash"`
}

// Document represents an uploaded source file tracked in object storage.
type Document struct {
	Key         string    `json:"key"`
	FileName    string    `json:"file_name"`
	StorageURL  string    `json:"storage_url"`
	ContentType string    `json:"content_type"`
	UploadedAt  time.Time `json:"uploaded_at"`
}
