package platform_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/ubrain/internal/platform"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"UB_CONFIG", "NOTION_TOKEN", "UB_TOKEN", "NOTION_VERSION", "VERCEL",
		"UB_READ_ONLY_DEPLOYMENT", "UB_MAPPING_PATH", "UB_KV_URL", "UB_API_KEY",
		"UB_RATE_LIMIT", "UB_RATE_WINDOW", "UB_OFFLINE", "UB_ADDR", "UB_PAGE_SIZE",
		"UB_TRUSTED_PROXIES",
	} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	clearEnv(t)

	v, err := platform.NewViper()
	require.NoError(t, err)
	cfg, err := platform.LoadConfig(v)
	require.NoError(t, err)

	assert.Equal(t, 120, cfg.RateLimit)
	assert.Equal(t, 5*time.Minute, cfg.RateWindow)
	assert.Equal(t, ":8080", cfg.Addr)
	assert.False(t, cfg.Offline)
	assert.False(t, cfg.ReadOnlyDeployment)
	assert.NotEmpty(t, cfg.WorkDir)
	assert.Empty(t, cfg.ConfigFile)
	assert.Empty(t, cfg.TrustedProxies)
}

func TestLoadConfig_Environment(t *testing.T) {
	clearEnv(t)
	t.Setenv("NOTION_TOKEN", "  secret_abc  ")
	t.Setenv("NOTION_VERSION", "2022-06-28")
	t.Setenv("VERCEL", "1")
	t.Setenv("UB_KV_URL", "postgres://localhost/ub")
	t.Setenv("UB_API_KEY", "k")
	t.Setenv("UB_RATE_LIMIT", "10")
	t.Setenv("UB_RATE_WINDOW", "1m")
	t.Setenv("UB_OFFLINE", "true")
	t.Setenv("UB_TRUSTED_PROXIES", " 10.0.0.1, 172.16.0.0/12 ,")

	v, err := platform.NewViper()
	require.NoError(t, err)
	cfg, err := platform.LoadConfig(v)
	require.NoError(t, err)

	assert.Equal(t, "secret_abc", cfg.Token)
	assert.Equal(t, "2022-06-28", cfg.NotionVersion)
	assert.True(t, cfg.ReadOnlyDeployment)
	assert.Empty(t, cfg.WorkDir, "read-only deployments resolve the mapping file in the temp dir")
	assert.Equal(t, "postgres://localhost/ub", cfg.KVURL)
	assert.Equal(t, "k", cfg.APIKey)
	assert.Equal(t, 10, cfg.RateLimit)
	assert.Equal(t, time.Minute, cfg.RateWindow)
	assert.True(t, cfg.Offline)
	assert.Equal(t, []string{"10.0.0.1", "172.16.0.0/12"}, cfg.TrustedProxies)
}

func TestLoadConfig_File(t *testing.T) {
	clearEnv(t)
	file := filepath.Join(t.TempDir(), "ubrain.yaml")
	require.NoError(t, os.WriteFile(file, []byte("addr: \":9090\"\nmapping_path: /srv/ub/mapping.yaml\nrate_limit: -1\ntrusted_proxies: [10.0.0.1]\n"), 0644))
	t.Setenv("UB_CONFIG", file)
	t.Setenv("UB_ADDR", ":7070")

	v, err := platform.NewViper()
	require.NoError(t, err)
	cfg, err := platform.LoadConfig(v)
	require.NoError(t, err)

	assert.Equal(t, file, cfg.ConfigFile)
	assert.Equal(t, ":7070", cfg.Addr, "environment wins over the file")
	assert.Equal(t, "/srv/ub/mapping.yaml", cfg.MappingPath)
	assert.Equal(t, -1, cfg.RateLimit)
	assert.Equal(t, []string{"10.0.0.1"}, cfg.TrustedProxies)
	assert.Empty(t, cfg.WorkDir)
}

func TestLoadConfig_Invalid(t *testing.T) {
	clearEnv(t)
	t.Setenv("UB_RATE_WINDOW", "0s")

	v, err := platform.NewViper()
	require.NoError(t, err)
	_, err = platform.LoadConfig(v)
	assert.Error(t, err)

	t.Setenv("UB_CONFIG", filepath.Join(t.TempDir(), "missing.yaml"))
	_, err = platform.NewViper()
	assert.Error(t, err)
}
