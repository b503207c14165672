package telemetry

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInfoWritesJSONLine(t *testing.T) {
	var buf bytes.Buffer
	restore := SetOutput(&buf)
	defer restore()

	Info("rank.complete", map[string]any{"scored": 3, "token": "abc"})

	var payload map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &payload))
	assert.Equal(t, "info", payload["level"])
	assert.Equal(t, "rank.complete", payload["msg"])
	assert.EqualValues(t, 3, payload["scored"])
	assert.Equal(t, "abc", payload["token"])
	assert.NotEmpty(t, payload["ts"])
}

func TestDebugSuppressedAtInfoLevel(t *testing.T) {
	var buf bytes.Buffer
	restore := SetOutput(&buf)
	defer restore()

	Debug("noisy", nil)
	Error("loud", nil)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], `"loud"`)
}
