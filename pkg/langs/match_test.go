package langs

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nullsector/judged/pkg/types"
)

func TestMatchesExactSame(t *testing.T) {
	assert.True(t, matches([]byte("hi\n"), []byte("hi\n"), types.MatchExact))
	assert.False(t, matches([]byte("hi\n"), []byte("hi "), types.MatchExact))
}

func TestMatchesIgnoreTrailingWhitespace(t *testing.T) {
	got := []byte("1 2 3   \n4 5 6\n")
	want := []byte("1 2 3\n4 5 6   \n")
	assert.True(t, matches(got, want, types.MatchIgnoreTrailingWhitespace))
}

func TestMatchesIgnoreTrailingWhitespaceStillChecksContent(t *testing.T) {
	got := []byte("1 2 3\n")
	want := []byte("1 2 4\n")
	assert.False(t, matches(got, want, types.MatchIgnoreTrailingWhitespace))
}

func TestMatchesIgnoreAllWhitespace(t *testing.T) {
	got := []byte("1 2\n3\t\t4")
	want := []byte("1 2 3 4")
	assert.True(t, matches(got, want, types.MatchIgnoreAllWhitespace))
}

func TestMatchesIgnoreAllWhitespaceCollapsesNotStrips(t *testing.T) {
	got := []byte("a b")
	want := []byte("ab")
	assert.False(t, matches(got, want, types.MatchIgnoreAllWhitespace))
}
