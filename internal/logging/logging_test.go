package logging

import (
	"testing"

	"github.com/go-playground/assert/v2"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func TestParseLevel(t *testing.T) {
	t.Parallel()
	tests := map[string]zerolog.Level{
		"debug":      zerolog.DebugLevel,
		"DEV":        zerolog.DebugLevel,
		" info ":     zerolog.InfoLevel,
		"warning":    zerolog.WarnLevel,
		"production": zerolog.ErrorLevel,
		"":           zerolog.WarnLevel,
		"bogus":      zerolog.WarnLevel,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLevel(in))
	}
}

func TestOr(t *testing.T) {
	t.Parallel()
	l := zerolog.Nop()
	assert.Equal(t, &l, Or(&l))
	assert.Equal(t, &log.Logger, Or(nil))
}
