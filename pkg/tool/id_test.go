package tool

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewRoleOrderID_Shape(t *testing.T) {
	re := regexp.MustCompile(`^plisio-\d{13}-[0-9a-z]{9}$`)
	for i := 0; i < 20; i++ {
		require.Regexp(t, re, NewRoleOrderID())
	}
}

func TestNewStarOrderID_Shape(t *testing.T) {
	re := regexp.MustCompile(`^plisio-star-[^-]{1,8}-\d{6}-[0-9a-z]{5}$`)
	require.Regexp(t, re, NewStarOrderID("abcdefgh12345"))
	require.Regexp(t, re, NewStarOrderID("u1"))
}

func TestNewStarOrderID_TruncatesUserID(t *testing.T) {
	id := NewStarOrderID("0123456789abcdef")
	require.Contains(t, id, "plisio-star-01234567-")
}

func TestGenerateUUIDV7_Unique(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		id := GenerateUUIDV7()
		require.False(t, seen[id])
		seen[id] = true
	}
}
