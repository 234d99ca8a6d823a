package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_DevelopmentIsTextAtDebug(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter("development", &buf)
	l.Debug("hello", "k", "v")

	out := buf.String()
	assert.Contains(t, out, "level=DEBUG")
	assert.Contains(t, out, "k=v")
}

func TestNew_ProductionIsJSONAtInfo(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter("production", &buf)
	l.Debug("dropped")
	l.Info("kept", "n", 1)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)
	var m map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &m))
	assert.Equal(t, "kept", m["msg"])
	assert.Equal(t, float64(1), m["n"])
}

func TestEvent_AddsModuleKeys(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter("production", &buf)
	Event(l, "req-1", "patients", "create", "patient created", "patient_id", "9")

	var m map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &m))
	assert.Equal(t, "patients", m["module"])
	assert.Equal(t, "create", m["action"])
	assert.Equal(t, "req-1", m["request_id"])
	assert.Equal(t, "9", m["patient_id"])
}
