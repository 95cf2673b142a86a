package web

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/bronystylecrazy/layertrace/cfg"
	"github.com/bronystylecrazy/layertrace/layer"
	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func replaceTraceConfig(t *testing.T, path, content string) {
	t.Helper()
	tmp := path + ".tmp"
	require.NoError(t, os.WriteFile(tmp, []byte(content), 0o600))
	require.NoError(t, os.Rename(tmp, path))
}

func TestWatchTraceConfigReloadsFilter(t *testing.T) {
	h := newHarness(t)
	h.mountUsers()

	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[web.trace]\nwatch = true\n"), 0o600))
	core, logs := observer.New(zapcore.DebugLevel)

	require.NoError(t, WatchTraceConfig(watchTraceConfigIn{
		Source: cfg.Source{File: path},
		Config: TraceConfig{Watch: true},
		Inst:   h.inst,
		Logger: zap.New(core),
	}))

	replaceTraceConfig(t, path, "[web.trace]\nwatch = true\nignore_layers = [\"middleware - cors\"]\n")
	require.Eventually(t, func() bool {
		return layer.IsLayerIgnored("middleware - cors", layer.TypeMiddleware, h.inst.Filter())
	}, 5*time.Second, 20*time.Millisecond)

	require.Equal(t, fiber.StatusOK, h.do(t, fiber.MethodGet, "/api/users/5"))
	assert.Equal(t, 0, h.count("middleware - cors"))
	assert.Equal(t, 1, h.count("request handler - /:id"))

	replaceTraceConfig(t, path, "[web.trace]\nwatch = true\nignore_layers_type = [\"bogus\"]\n")
	require.Eventually(t, func() bool {
		return logs.FilterMessage("config reload rejected").Len() > 0
	}, 5*time.Second, 20*time.Millisecond)

	assert.True(t, layer.IsLayerIgnored("middleware - cors", layer.TypeMiddleware, h.inst.Filter()))
	assert.False(t, layer.IsLayerIgnored("router - /api", layer.TypeRouter, h.inst.Filter()))
}

func TestWatchTraceConfigDisabled(t *testing.T) {
	inst := NewInstrumentation(nil)
	require.NoError(t, WatchTraceConfig(watchTraceConfigIn{
		Source: cfg.Source{File: filepath.Join(t.TempDir(), "missing.toml")},
		Inst:   inst,
		Logger: zap.NewNop(),
	}))
	assert.Nil(t, inst.Filter())
}
