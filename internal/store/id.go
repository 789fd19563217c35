package store

import "github.com/oklog/ulid/v2"

// NewID returns a lexicographically sortable unique id.
func NewID() string {
	return ulid.Make().String()
}
