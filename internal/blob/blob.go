package blob

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("blob not found")

// Store holds uploaded file bytes keyed by id, separate from the metadata
// rows in the database. One strategy everywhere: upload, download and delete
// all go through this interface.
type Store interface {
	Put(ctx context.Context, id string, data []byte, contentType string) error
	Get(ctx context.Context, id string) ([]byte, error)
	Delete(ctx context.Context, id string) error
}
