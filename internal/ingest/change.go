package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/hyperjump/lexicon/internal/fileid"
)

// FingerprintStore looks up the fingerprint a topic was built from.
type FingerprintStore interface {
	GetFingerprint(ctx context.Context, filename string) (string, bool, error)
}

// ChangeDetector decides whether a document must be (re)processed.
type ChangeDetector struct {
	store FingerprintStore
}

// NewChangeDetector returns a ChangeDetector reading stored fingerprints from store.
func NewChangeDetector(store FingerprintStore) *ChangeDetector {
	return &ChangeDetector{store: store}
}

// Fingerprint returns the hex SHA-256 digest of raw.
func Fingerprint(raw []byte) string {
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}

// ShouldProcess fingerprints raw and compares it with the stored one.
// A key without a stored topic is always changed.
func (d *ChangeDetector) ShouldProcess(ctx context.Context, key fileid.Key, raw []byte) (string, bool, error) {
	fp := Fingerprint(raw)
	stored, ok, err := d.store.GetFingerprint(ctx, key.String())
	if err != nil {
		return "", false, fmt.Errorf("failed to look up fingerprint for %s: %w", key, err)
	}
	return fp, !ok || stored != fp, nil
}
