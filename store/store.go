// Package store persists conversations. One conversation is owned by one
// caller at a time; the service serializes turns per id, so stores only need
// to be safe for concurrent access across different ids.
package store

import (
	"context"
	"errors"

	"github.com/digitalscyther/ai-cv-creator/interview"
)

var ErrNotFound = errors.New("conversation not found")

type Store interface {
	// Create allocates a new empty conversation and returns its id.
	Create(ctx context.Context) (int64, error)
	// Load returns the conversation or ErrNotFound.
	Load(ctx context.Context, id int64) (*interview.Conversation, error)
	// Save writes the conversation atomically.
	Save(ctx context.Context, conv *interview.Conversation) error
}
