package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewWritesConsoleAndFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bot.log")
	var console bytes.Buffer

	log, err := New(Options{Level: "info", File: path, Console: &console})
	require.NoError(t, err)

	log.Debug("hidden")
	log.Info("Recipe sent", zap.Int64("user_id", 42))
	_ = log.Sync()

	assert.Contains(t, console.String(), "Recipe sent")
	assert.NotContains(t, console.String(), "hidden")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "Recipe sent", entry["msg"])
	assert.Equal(t, "INFO", entry["level"])
	assert.EqualValues(t, 42, entry["user_id"])
}

func TestNewProductionConsoleIsJSON(t *testing.T) {
	var console bytes.Buffer

	log, err := New(Options{Level: "debug", Production: true, Console: &console})
	require.NoError(t, err)
	log.Debug("ping")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(console.Bytes(), &entry))
	assert.Equal(t, "ping", entry["msg"])
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	_, err := New(Options{Level: "loud"})
	assert.Error(t, err)
}
