package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInfoWritesJSONFields(t *testing.T) {
	var buf bytes.Buffer
	InitWriter(&buf, "info")
	t.Cleanup(Discard)

	Info("cart restored", map[string]any{"lines": 2})

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "INFO", entry["level"])
	assert.Equal(t, "cart restored", entry["msg"])
	assert.EqualValues(t, 2, entry["lines"])
}

func TestLevelFiltersDebug(t *testing.T) {
	var buf bytes.Buffer
	InitWriter(&buf, "warn")
	t.Cleanup(Discard)

	Debug("noise", nil)
	Info("noise", nil)
	assert.Zero(t, buf.Len())

	Warn("kept", nil)
	assert.Contains(t, buf.String(), `"msg":"kept"`)
}
