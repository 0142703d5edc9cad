package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeTemp(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(writeTemp(t, "app:\n  env: dev\n"))
	require.NoError(t, err)

	require.Equal(t, ":8080", cfg.Server.Addr)
	require.Equal(t, "15m", cfg.JWT.AccessTTL)
	require.Equal(t, 15*time.Minute, cfg.AccessTTL())
	require.Equal(t, "5.131", cfg.Providers.VK.APIVersion)
	require.Equal(t, "Europe/Moscow", cfg.Jobs.Decay.Timezone)
	require.Equal(t, "03:00", cfg.Jobs.Decay.At)
	require.Equal(t, 100, cfg.Jobs.Retention.MaxStories)
	require.Equal(t, "memory", cfg.Rate.Backend)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("SERVER_ADDR", ":9191")
	t.Setenv("JWT_ACCESS_TTL", "30m")
	t.Setenv("RETENTION_MAX_STORIES", "50")
	t.Setenv("VK_API_BASE", "http://127.0.0.1:1234")

	cfg, err := Load(writeTemp(t, "server:\n  addr: \":8080\"\n"))
	require.NoError(t, err)

	require.Equal(t, ":9191", cfg.Server.Addr)
	require.Equal(t, 30*time.Minute, cfg.AccessTTL())
	require.Equal(t, 50, cfg.Jobs.Retention.MaxStories)
	require.Equal(t, "http://127.0.0.1:1234", cfg.Providers.VK.APIBase)
}

func TestLoad_InvalidDuration(t *testing.T) {
	_, err := Load(writeTemp(t, "jwt:\n  access_ttl: nope\n"))
	require.Error(t, err)
}

func TestLoad_InvalidDecayAt(t *testing.T) {
	_, err := Load(writeTemp(t, "jobs:\n  decay:\n    at: \"25:99\"\n"))
	require.Error(t, err)
}

func TestParseClock(t *testing.T) {
	d, err := ParseClock("03:30")
	require.NoError(t, err)
	require.Equal(t, 3*time.Hour+30*time.Minute, d)

	for _, bad := range []string{"", "3", "aa:bb", "24:00", "12:60"} {
		_, err := ParseClock(bad)
		require.Error(t, err, "input %q", bad)
	}
}
