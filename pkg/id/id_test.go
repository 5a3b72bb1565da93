package id

import (
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	a := New()
	b := New()

	assert.Len(t, a, 26)
	assert.NotEqual(t, a, b)
	assert.True(t, IsValid(a))
	assert.True(t, IsValid(b))
}

func TestNew_Sortable(t *testing.T) {
	ids := NewN(100)

	sorted := make([]string, len(ids))
	copy(sorted, ids)
	sort.Strings(sorted)

	// Monotonic entropy keeps same-millisecond IDs ordered.
	assert.Equal(t, ids, sorted)
}

func TestTime(t *testing.T) {
	before := time.Now().Truncate(time.Millisecond)
	s := New()
	after := time.Now()

	ts := Time(s)
	require.False(t, ts.IsZero())
	assert.False(t, ts.Before(before))
	assert.False(t, ts.After(after))
}

func TestIsValid_Invalid(t *testing.T) {
	assert.False(t, IsValid(""))
	assert.False(t, IsValid("not-a-ulid"))
	assert.False(t, IsValid("00000000000000000000000000x"))
}
