package embedding

import "context"

// MockEmbedder is a deterministic embedder for tests. Each rune of the
// input fills one dimension, so texts sharing a prefix score close and
// an empty text embeds to the zero vector.
type MockEmbedder struct {
	dimension int

	// LastText records the most recent input, so tests can assert on
	// the canonical text a caller chose to embed.
	LastText string
}

func NewMockEmbedder(dimension int) *MockEmbedder {
	return &MockEmbedder{dimension: dimension}
}

func (e *MockEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	e.LastText = text
	vec := make([]float32, e.dimension)
	for i, r := range text {
		if i >= e.dimension {
			break
		}
		vec[i] = float32(r) / 1000.0
	}
	return vec, nil
}

func (e *MockEmbedder) Dimension() int {
	return e.dimension
}

func (e *MockEmbedder) Model() string {
	return "mock"
}
