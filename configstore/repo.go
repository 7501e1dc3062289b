// Package configstore defines the single-row-per-key config store backing the
// ModernNav server. Every field the client synchronizes lives in one row,
// upserted independently; there are no transactions spanning keys.
package configstore

import "context"

// Storage keys. Each key maps to one row holding the serialized value.
const (
	KeyCategories = "categories"
	KeyBackground = "background"
	KeyPrefs      = "prefs"
	KeyAuthCode   = "auth_code"
)

// AllowedKeys are the keys the update endpoint will upsert.
var AllowedKeys = []string{KeyCategories, KeyBackground, KeyPrefs, KeyAuthCode}

// KeyAllowed reports whether key may be written through the update endpoint.
func KeyAllowed(key string) bool {
	for _, k := range AllowedKeys {
		if k == key {
			return true
		}
	}
	return false
}

// Repo is the key/value store interface. Get returns errors.ErrNotFound for
// a missing key.
type Repo interface {
	Get(ctx context.Context, key string) (string, error)
	All(ctx context.Context) (map[string]string, error)
	Upsert(ctx context.Context, key, value string) error
	Ping(ctx context.Context) error
}
