package randx

import (
	"regexp"
	"strings"
	"testing"

	"github.com/go-playground/assert/v2"
)

var uuidPattern = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-4[0-9a-f]{3}-[89ab][0-9a-f]{3}-[0-9a-f]{12}$`)

func TestAnonymousName(t *testing.T) {
	t.Parallel()
	for range 50 {
		name := AnonymousName()
		if !strings.HasPrefix(name, "Anonymous ") || len(name) <= len("Anonymous ") {
			t.Fatalf("unexpected anonymous name %q", name)
		}
	}
}

func TestColor(t *testing.T) {
	t.Parallel()
	hex := regexp.MustCompile(`^#[0-9a-f]{6}$`)
	for range 50 {
		assert.MatchRegex(t, Color(), hex)
	}
}

func TestUUID(t *testing.T) {
	t.Parallel()
	a, b := UUID(), UUID()
	assert.MatchRegex(t, a, uuidPattern)
	assert.NotEqual(t, a, b)
}

func TestIndexBounds(t *testing.T) {
	t.Parallel()
	assert.Equal(t, 0, Index(0))
	assert.Equal(t, 0, Index(1))
	for range 100 {
		i := Index(3)
		if i < 0 || i >= 3 {
			t.Fatalf("index %d out of range", i)
		}
	}
}

func TestDefaultSource(t *testing.T) {
	t.Parallel()
	assert.MatchRegex(t, Default.UUID(), uuidPattern)
	assert.NotEqual(t, "", Default.Name())
	assert.NotEqual(t, "", Default.Color())
}
