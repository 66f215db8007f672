package logger_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/auxeira/realtime/pkg/logger"
)

func logLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	return record
}

func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("json output with service attr", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		log := logger.New(
			logger.WithOutput(&buf),
			logger.WithService("realtime"),
		)
		log.Info("gateway started", slog.String("addr", ":8080"))

		record := logLine(t, &buf)
		assert.Equal(t, "gateway started", record["msg"])
		assert.Equal(t, "realtime", record["service"])
		assert.Equal(t, ":8080", record["addr"])
	})

	t.Run("default level filters debug", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		log := logger.New(logger.WithOutput(&buf))
		log.Debug("noise")
		assert.Zero(t, buf.Len())
	})

	t.Run("development enables debug and text format", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		log := logger.New(logger.WithDevelopment(), logger.WithOutput(&buf))
		log.Debug("verbose detail")

		assert.Contains(t, buf.String(), "verbose detail")
		assert.Contains(t, buf.String(), "level=DEBUG")
	})

	t.Run("static attrs on every record", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		log := logger.New(
			logger.WithOutput(&buf),
			logger.WithAttr(slog.String("node", "rt-1")),
		)
		log.Info("first")

		record := logLine(t, &buf)
		assert.Equal(t, "rt-1", record["node"])
	})

	t.Run("invalid format panics", func(t *testing.T) {
		t.Parallel()

		assert.Panics(t, func() { logger.New(logger.WithFormat("yaml")) })
	})
}

func TestAttrs(t *testing.T) {
	t.Parallel()

	t.Run("typed attrs", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		log := logger.New(logger.WithOutput(&buf))
		log.LogAttrs(t.Context(), slog.LevelInfo, "user connected",
			logger.UserID("user-1"),
			logger.ConnectionID("conn-1"),
			logger.RoomID("room-1"),
			logger.Role("investor"),
			logger.EventType("connection_established"),
			logger.Error(errors.New("boom")),
		)

		record := logLine(t, &buf)
		assert.Equal(t, "user-1", record["user_id"])
		assert.Equal(t, "conn-1", record["connection_id"])
		assert.Equal(t, "room-1", record["room_id"])
		assert.Equal(t, "investor", record["role"])
		assert.Equal(t, "connection_established", record["event_type"])
		assert.Equal(t, "boom", record["error"])
	})

	t.Run("empty values collapse to empty attrs", func(t *testing.T) {
		t.Parallel()

		assert.True(t, logger.UserID("").Equal(slog.Attr{}))
		assert.True(t, logger.Error(nil).Equal(slog.Attr{}))
		assert.True(t, logger.RoomID("").Equal(slog.Attr{}))
	})
}
