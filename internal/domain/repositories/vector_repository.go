package repositories

import "context"

// VectorRepository stores and retrieves embedded changelog sub-chunks.
//
// The store is keyed by (dependency, version, sub-chunk index) and writes are
// idempotent upserts: re-embedding the same key overwrites in place. The
// backing collection is partitioned by the active embedding model so that
// incompatible vector dimensionalities never mix.
type VectorRepository interface {
	// Upsert stores one embedded sub-chunk.
	Upsert(ctx context.Context, depName, version string, subChunk int, content string, vector []float32) error

	// Query returns the contents of the top-limit stored chunks for depName,
	// ranked by similarity to the query vector. limit <= 0 retrieves every
	// stored chunk for the dependency.
	Query(ctx context.Context, depName string, vector []float32, limit int) ([]string, error)

	// CountFor returns how many sub-chunks are stored for depName.
	CountFor(ctx context.Context, depName string) (int, error)
}
