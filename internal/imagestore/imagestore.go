package imagestore

import (
	"context"
	"io"
)

// Asset is the stable reference returned for an uploaded image
type Asset struct {
	URL      string `json:"url"`
	PublicID string `json:"public_id"`
}

// Store uploads and deletes binary image assets in a remote store.
// Implementations must make Delete idempotent: deleting an id that no longer
// exists is not an error.
type Store interface {
	Upload(ctx context.Context, r io.Reader, folder string) (Asset, error)
	Delete(ctx context.Context, publicID string) error
}
