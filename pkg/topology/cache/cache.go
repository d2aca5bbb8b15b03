// Package cache persists derived artifacts (corpora, dendrograms,
// taxonomies, fingerprints) keyed by content hash, parameter hash and kind.
package cache

import (
	"context"
	"crypto/rand"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/cognicore/topology/internal/version"
	"github.com/cognicore/topology/pkg/topology/internalerr"
)

// Kind names the type of a cached artifact.
type Kind string

const (
	KindCorpus       Kind = "corpus"
	KindDendrogram   Kind = "dendrogram"
	KindTaxonomy     Kind = "taxonomy"
	KindFingerprints Kind = "fingerprints"
)

// Kinds lists every artifact kind.
func Kinds() []Kind {
	return []Kind{KindCorpus, KindDendrogram, KindTaxonomy, KindFingerprints}
}

// ParseKind maps a case-insensitive name to a Kind.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Kinds() {
		if k == known {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: unknown cache kind %q", internalerr.ErrInvalidInput, s)
}

// Meta describes a cached artifact.
type Meta struct {
	ID          string    `json:"id"`
	ContentHash uint64    `json:"content_hash"`
	ArgsHash    uint64    `json:"args_hash"`
	RowCount    int       `json:"row_count"`
	Version     string    `json:"version"`
	CreatedAt   time.Time `json:"created_at"`
}

// NewMeta stamps a fresh id, the running build version and the current
// time (second precision, as stored).
func NewMeta(contentHash, argsHash uint64, rowCount int) Meta {
	return Meta{
		ID:          newID(),
		ContentHash: contentHash,
		ArgsHash:    argsHash,
		RowCount:    rowCount,
		Version:     version.Version,
		CreatedAt:   time.Now().UTC().Truncate(time.Second),
	}
}

// IsValid reports whether an artifact built from (contentHash, argsHash)
// by this build may be reused.
func IsValid(m Meta, contentHash, argsHash uint64) bool {
	return m.ContentHash == contentHash &&
		m.ArgsHash == argsHash &&
		m.Version == version.Version
}

// Artifact is one stored entry. Payload is the encoded form produced by
// Encode.
type Artifact struct {
	Kind    Kind
	Meta    Meta
	Payload []byte
}

// Info summarizes a stored artifact without its payload.
type Info struct {
	Kind        Kind      `json:"kind"`
	ID          string    `json:"id"`
	ContentHash uint64    `json:"content_hash"`
	ArgsHash    uint64    `json:"args_hash"`
	RowCount    int       `json:"row_count"`
	Version     string    `json:"version"`
	CreatedAt   time.Time `json:"created_at"`
	SizeBytes   int64     `json:"size_bytes"`
}

// Store is the artifact persistence backend.
type Store interface {
	Close() error

	// Get returns the artifact stored under (kind, contentHash, argsHash).
	Get(ctx context.Context, kind Kind, contentHash, argsHash uint64) (Artifact, bool, error)
	// Put upserts by (kind, contentHash, argsHash).
	Put(ctx context.Context, a Artifact) error
	// Invalidate deletes every artifact of kind, or everything when kind is
	// nil, and returns the number removed.
	Invalidate(ctx context.Context, kind *Kind) (int64, error)
	// Info lists artifacts newest first.
	Info(ctx context.Context) ([]Info, error)
	// SizeBytes reports the storage footprint.
	SizeBytes(ctx context.Context) (int64, error)
}

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(rand.Reader, 0)
)

func newID() string {
	entropyMu.Lock()
	defer entropyMu.Unlock()
	return ulid.MustNew(ulid.Now(), entropy).String()
}
