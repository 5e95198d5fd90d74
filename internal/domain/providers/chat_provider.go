package providers

import "context"

// ChatProvider runs one system+user prompt pair against a language model
// and returns the raw completion text. Callers own prompt construction and
// response parsing; the provider owns transport, rate limiting and retries
// at the wire level.
type ChatProvider interface {
	Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}
