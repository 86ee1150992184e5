// Package embedding turns text into fixed-length dense vectors.
package embedding

import "context"

// Embedder converts text into a vector of a fixed dimensionality.
// The same embedder (model and dimension) must be used for every record
// in a corpus; mixing models silently corrupts similarity ranking.
type Embedder interface {
	// Embed generates the embedding for a single text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// Dimension returns the vector length this embedder produces.
	Dimension() int

	// Model returns the embedding model identifier.
	Model() string
}
