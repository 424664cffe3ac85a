package observability

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/selimozcann/LinkSentry/internal/config"
)

func TestInitialize(t *testing.T) {
	t.Run("console logger colorizes levels", func(t *testing.T) {
		ResetForTest()
		prev := color.NoColor
		color.NoColor = false
		t.Cleanup(func() { color.NoColor = prev })

		var buf bytes.Buffer
		Initialize(config.LoggerConfig{
			Level:       "debug",
			Format:      "console",
			ServiceName: "linksentry",
			Colors:      config.ColorConfig{Info: "green"},
		}, zapcore.AddSync(&buf))
		GetLogger().Named("runner").Info("scan complete")

		out := buf.String()
		assert.Contains(t, out, "scan complete")
		assert.Contains(t, out, "linksentry.runner.")
		assert.Contains(t, out, color.New(color.FgGreen).Sprint("INFO"))
	})

	t.Run("json logger", func(t *testing.T) {
		ResetForTest()
		var buf bytes.Buffer
		Initialize(config.LoggerConfig{Level: "info", Format: "json", ServiceName: "api"}, zapcore.AddSync(&buf))
		GetLogger().Warn("rate limited", zap.String("remote", "10.0.0.1"))

		var entry map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
		assert.Equal(t, "WARN", entry["level"])
		assert.Equal(t, "api", entry["logger"])
		assert.Equal(t, "rate limited", entry["msg"])
		assert.Equal(t, "10.0.0.1", entry["remote"])
	})

	t.Run("level filters entries", func(t *testing.T) {
		ResetForTest()
		var buf bytes.Buffer
		Initialize(config.LoggerConfig{Level: "warn", Format: "json"}, zapcore.AddSync(&buf))
		GetLogger().Info("hidden")
		assert.Empty(t, buf.String())
	})

	t.Run("file output", func(t *testing.T) {
		ResetForTest()
		path := filepath.Join(t.TempDir(), "linksentry.log")
		var console bytes.Buffer
		Initialize(config.LoggerConfig{Level: "debug", Format: "console", LogFile: path, MaxSize: 1}, zapcore.AddSync(&console))
		GetLogger().Error("persist failed")
		Sync()

		content, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Contains(t, string(content), "persist failed")
	})

	t.Run("initializes once", func(t *testing.T) {
		ResetForTest()
		var buf bytes.Buffer
		Initialize(config.LoggerConfig{Level: "info", Format: "json", ServiceName: "first"}, zapcore.AddSync(&buf))
		first := GetLogger()
		Initialize(config.LoggerConfig{Level: "debug", Format: "json", ServiceName: "second"}, zapcore.AddSync(&buf))

		assert.Same(t, first, GetLogger())
	})
}

func TestGetLogger_Fallback(t *testing.T) {
	ResetForTest()
	assert.NotNil(t, GetLogger())
}
