package ingestion_engine

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
)

// fingerprintBlockSize keeps hashing memory-bounded for large documents.
const fingerprintBlockSize = 64 * 1024

// Fingerprint computes the SHA-256 hex digest of the full document byte
// stream. Two byte-identical documents collapse to the same fingerprint
// regardless of filename or source.
func Fingerprint(r io.Reader) (string, error) {
	h := sha256.New()
	buf := make([]byte, fingerprintBlockSize)
	if _, err := io.CopyBuffer(h, r, buf); err != nil {
		return "", fmt.Errorf("hash document: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
