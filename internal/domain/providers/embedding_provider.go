package providers

import "context"

// EmbeddingProvider turns text into a fixed-dimension vector. All vectors
// produced by one provider share the same dimension, so cosine comparisons
// between them are always well defined.
type EmbeddingProvider interface {
	Embed(ctx context.Context, text string) ([]float32, error)

	// Dimensions reports the width of the vectors this provider produces.
	Dimensions() int
}
