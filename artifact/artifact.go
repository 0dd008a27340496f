// Package artifact stores rendered resume documents by generated name.
package artifact

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("artifact not found")

type Store interface {
	Put(ctx context.Context, name string, content []byte) error
	// Get returns the stored bytes or ErrNotFound.
	Get(ctx context.Context, name string) ([]byte, error)
	Delete(ctx context.Context, name string) error
}
