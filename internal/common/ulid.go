package common

import "github.com/oklog/ulid/v2"

// NewULID returns a 26-char, time-ordered id: 48-bit millisecond prefix + 80-bit random suffix.
func NewULID() string {
	return ulid.Make().String()
}
