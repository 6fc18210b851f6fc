package main

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestExitCode(t *testing.T) {
	t.Run("clean shutdown", func(t *testing.T) {
		core, logs := observer.New(zapcore.InfoLevel)

		assert.Equal(t, 0, exitCode(zap.New(core), nil))
		assert.Zero(t, logs.Len())
	})

	t.Run("failure is logged before exit", func(t *testing.T) {
		core, logs := observer.New(zapcore.InfoLevel)

		code := exitCode(zap.New(core), errors.New("listen tcp :8080: bind: address already in use"))

		assert.Equal(t, 1, code)
		entries := logs.FilterMessage("Server failed").All()
		require.Len(t, entries, 1)
		assert.Equal(t, zapcore.ErrorLevel, entries[0].Level)
		assert.Contains(t, entries[0].ContextMap()["error"], "address already in use")
	})
}
