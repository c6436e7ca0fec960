package app

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/edigermatthew/wonder-alt/host/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, extra string) string {
	t.Helper()
	dir := t.TempDir()
	body := fmt.Sprintf(`ListenAddr = 127.0.0.1:0
Database = %s
LogLevel = error
LogDir =
WorkerPoolSize = 2
RateLimitPerSecond = 0
%s`, filepath.Join(dir, "media.db"), extra)

	path := filepath.Join(dir, "config.ini")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestAppServesAndFillsAltText(t *testing.T) {
	ctx := context.Background()
	path := writeConfig(t, "\n[plugins.wonderalt]\ndelay_seconds = 0\n")

	a, err := New(ctx, path, BuildInfo{BinVersion: "test"})
	require.NoError(t, err)
	assert.Equal(t, []string{"wonderalt"}, a.Plugins)

	require.NoError(t, a.Start(ctx))
	t.Cleanup(func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		assert.NoError(t, a.Shutdown(shutdownCtx))
	})

	base := "http://" + a.Addr()
	resp, err := http.Post(base+"/api/attachments", "application/json", strings.NewReader(`{"title":"old_stone-bridge"}`))
	require.NoError(t, err)
	var created struct {
		Success bool `json:"success"`
		Data    struct {
			ID uint `json:"id"`
		} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
	resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	require.True(t, created.Success)

	assert.Eventually(t, func() bool {
		alt, err := a.DB.AltText(ctx, created.Data.ID)
		return err == nil && alt == "Old Stone Bridge"
	}, 2*time.Second, 10*time.Millisecond)

	resp, err = http.Get(base + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestPluginCanBeDisabled(t *testing.T) {
	path := writeConfig(t, "\n[plugins.wonderalt]\nenabled = false\n")

	a, err := New(context.Background(), path, BuildInfo{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Shutdown(context.Background()) })

	assert.Empty(t, a.Plugins)
	assert.False(t, a.Media.Hooks().HasAction("after_attachment_inserted"))
}

func TestNewFromConfigDefaultsLoadAllPlugins(t *testing.T) {
	conf, err := config.Load("")
	require.NoError(t, err)
	conf.Set("Database", filepath.Join(t.TempDir(), "media.db"))
	conf.Set("LogDir", "")
	conf.Set("LogLevel", "error")

	a, err := NewFromConfig(context.Background(), conf, BuildInfo{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Shutdown(context.Background()) })

	assert.Contains(t, a.Plugins, "wonderalt")
	assert.True(t, a.Media.Hooks().HasAction("after_attachment_inserted"))
}

func TestNewMissingConfig(t *testing.T) {
	_, err := New(context.Background(), filepath.Join(t.TempDir(), "missing.ini"), BuildInfo{})
	assert.Error(t, err)
}
