// internal/assistant/generator.go
package assistant

import (
	"context"
	"iter"
)

// Turn is one prior message in a conversation.
type Turn struct {
	Role string `json:"role"` // "user" or "model"
	Text string `json:"text"`
}

// Prompt is a fully rendered generation request.
type Prompt struct {
	Feature string
	System  string
	History []Turn
	User    string
}

// Generator produces text for a prompt, either in one piece or as a chunk stream.
type Generator interface {
	Generate(ctx context.Context, p Prompt) (string, error)
	Stream(ctx context.Context, p Prompt) iter.Seq2[string, error]
}
