package ids

import "github.com/oklog/ulid/v2"

// New returns a lexicographically sortable unique identifier. ULIDs order
// by creation time, which keeps primary key indexes append-mostly.
func New() string {
	return ulid.Make().String()
}
