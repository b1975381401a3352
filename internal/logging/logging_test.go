package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pcadash/internal/config"
)

func TestNew_JSONWithComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := Component(New(config.LoggingConfig{Level: "info", Format: "json"}, &buf), "session")

	logger.Debug("hidden")
	logger.Info("loaded", "rows", 3)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "loaded", entry["msg"])
	assert.Equal(t, "session", entry["component"])
	assert.Equal(t, float64(3), entry["rows"])
}

func TestNew_Text(t *testing.T) {
	var buf bytes.Buffer
	New(config.LoggingConfig{Level: "debug", Format: "text"}, &buf).Debug("visible")

	assert.Contains(t, buf.String(), "msg=visible")
}
