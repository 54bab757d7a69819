package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTagsService(t *testing.T) {
	var buf bytes.Buffer
	l := newWithWriter(&buf, "storefront")
	l.Info().Msg("hello")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "storefront", line["service"])
	assert.Equal(t, "hello", line["message"])
	assert.Contains(t, line, "time")
}

func TestSetupLevel(t *testing.T) {
	defer zerolog.SetGlobalLevel(zerolog.TraceLevel)

	Setup("storefront", "DEBUG")
	assert.Equal(t, zerolog.DebugLevel, zerolog.GlobalLevel())

	Setup("storefront", "nonsense")
	assert.Equal(t, zerolog.InfoLevel, zerolog.GlobalLevel())
}
