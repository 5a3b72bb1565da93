// Package id provides identifier generation for Loom entities and tasks.
//
// ULIDs are used instead of UUIDs because they sort lexicographically by
// creation time, which keeps document and task listings in insertion order
// without a secondary sort column.
package id

import (
	"crypto/rand"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(rand.Reader, 0)
)

// New returns a new lowercase ULID string.
func New() string {
	entropyMu.Lock()
	defer entropyMu.Unlock()
	return strings.ToLower(ulid.MustNew(ulid.Timestamp(time.Now()), entropy).String())
}

// NewN returns n new ULID strings.
func NewN(n int) []string {
	ids := make([]string, n)
	for i := range ids {
		ids[i] = New()
	}
	return ids
}

// IsValid reports whether s parses as a ULID.
func IsValid(s string) bool {
	_, err := ulid.ParseStrict(strings.ToUpper(s))
	return err == nil
}

// Time extracts the embedded timestamp from a ULID string. Returns the
// zero time for invalid input.
func Time(s string) time.Time {
	u, err := ulid.ParseStrict(strings.ToUpper(s))
	if err != nil {
		return time.Time{}
	}
	return time.UnixMilli(int64(u.Time()))
}
