package storage

import "context"

// Fixed storage keys. Single-writer (one process) is assumed and not
// enforced; concurrent processes can race on these keys.
const (
	KeyToken    = "shop-token"
	KeyCart     = "shop-cart"
	KeyLocation = "location"
)

// Repository is the get/set surface over persistent local storage.
// Get returns (nil, nil) for a missing key.
type Repository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	List(ctx context.Context) (map[string][]byte, error)
	Clear(ctx context.Context) error
}
