package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_JSONRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	l, err := New("info", FormatJSON, &buf)
	require.NoError(t, err)

	l.Debug().Msg("hidden")
	l.Info().Str("root", "/x").Msg("shown")

	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &line))
	assert.Equal(t, "shown", line["message"])
	assert.Equal(t, "/x", line["root"])
	assert.Equal(t, "info", line["level"])
}

func TestNew_ConsoleDefaultLevelIsWarn(t *testing.T) {
	var buf bytes.Buffer
	l, err := New("", "", &buf)
	require.NoError(t, err)

	l.Info().Msg("quiet")
	assert.Zero(t, buf.Len())
	l.Warn().Msg("loud")
	assert.Contains(t, buf.String(), "loud")
}

func TestNew_Invalid(t *testing.T) {
	_, err := New("trace", FormatJSON, nil)
	assert.Error(t, err)
	_, err = New("info", "xml", nil)
	assert.Error(t, err)
}

func TestContextRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	l, err := New("debug", FormatJSON, &buf)
	require.NoError(t, err)

	ctx := WithContext(context.Background(), l)
	FromContext(ctx).Debug().Msg("via ctx")
	assert.Contains(t, buf.String(), "via ctx")

	// 没有日志器的 ctx 不应 panic，也不输出。
	FromContext(context.Background()).Error().Msg("dropped")
}
