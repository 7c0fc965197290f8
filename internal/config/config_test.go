package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/kevin07696/nuvei-gateway/internal/adapters/nuvei"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"NUVEI_TERMINAL_ID", "NUVEI_CURRENCY", "NUVEI_PROCESSOR", "NUVEI_TEST_MODE",
		"NUVEI_MULTICURRENCY", "NUVEI_BASE_URL", "NUVEI_TIMEOUT", "NUVEI_RATE_LIMIT_RPS",
		"NUVEI_RATE_LIMIT_BURST", "NUVEI_VERIFY_RESPONSE_HASH", "NUVEI_SECRET_SOURCE",
		"NUVEI_SHARED_SECRET", "NUVEI_SECRET_PATH", "LOG_LEVEL", "LOG_DEVELOPMENT",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadFromEnv_Defaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("NUVEI_TERMINAL_ID", "6491002")
	t.Setenv("NUVEI_SHARED_SECRET", "x")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	assert.Equal(t, "6491002", cfg.Nuvei.TerminalID)
	assert.Equal(t, "USD", cfg.Nuvei.Currency)
	assert.Equal(t, "nuvei", cfg.Nuvei.Processor)
	assert.True(t, cfg.Nuvei.TestMode)
	assert.False(t, cfg.Nuvei.MultiCurrency)
	assert.Equal(t, 30*time.Second, cfg.Nuvei.RequestTimeout())
	assert.Equal(t, "env", cfg.Secret.Source)
	assert.Equal(t, "info", cfg.Logger.Level)
}

func TestLoadFromEnv_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("NUVEI_TERMINAL_ID", "T1")
	t.Setenv("NUVEI_PROCESSOR", "WorldNet")
	t.Setenv("NUVEI_TEST_MODE", "false")
	t.Setenv("NUVEI_MULTICURRENCY", "true")
	t.Setenv("NUVEI_TIMEOUT", "5")
	t.Setenv("NUVEI_RATE_LIMIT_RPS", "2.5")
	t.Setenv("NUVEI_RATE_LIMIT_BURST", "4")
	t.Setenv("NUVEI_VERIFY_RESPONSE_HASH", "true")
	t.Setenv("NUVEI_SECRET_SOURCE", "vault")
	t.Setenv("NUVEI_SECRET_PATH", "nuvei/terminals/T1")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	gw := cfg.Nuvei.GatewayConfig("s3cr3t")
	assert.Equal(t, "s3cr3t", gw.SharedSecret)
	assert.True(t, gw.MultiCurrency)
	assert.True(t, gw.VerifyResponseHash)
	assert.Equal(t, nuvei.ProcessorWorldnet, gw.Transport.Processor)
	assert.False(t, gw.Transport.TestMode)
	assert.Equal(t, 2.5, gw.Transport.RateLimit)
	assert.Equal(t, 4, gw.Transport.RateBurst)
	assert.Equal(t, 5*time.Second, cfg.Nuvei.RequestTimeout())

	sc := cfg.Secret.SecretsConfig()
	assert.Equal(t, "nuvei/terminals/T1", sc.Path)
	assert.Equal(t, "secret", sc.VaultMount)
}

func TestLoadFromEnv_Validation(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "missing terminal", env: map[string]string{"NUVEI_SHARED_SECRET": "x"}},
		{name: "missing env secret", env: map[string]string{"NUVEI_TERMINAL_ID": "T1"}},
		{name: "unknown processor", env: map[string]string{
			"NUVEI_TERMINAL_ID": "T1", "NUVEI_SHARED_SECRET": "x", "NUVEI_PROCESSOR": "acme",
		}},
		{name: "file source without path", env: map[string]string{
			"NUVEI_TERMINAL_ID": "T1", "NUVEI_SECRET_SOURCE": "file",
		}},
		{name: "unknown secret source", env: map[string]string{
			"NUVEI_TERMINAL_ID": "T1", "NUVEI_SECRET_SOURCE": "gcp",
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := LoadFromEnv()
			assert.Error(t, err)
		})
	}
}

func TestLoadFromEnv_BaseURLSkipsProcessorCheck(t *testing.T) {
	clearEnv(t)
	t.Setenv("NUVEI_TERMINAL_ID", "T1")
	t.Setenv("NUVEI_SHARED_SECRET", "x")
	t.Setenv("NUVEI_PROCESSOR", "sandbox")
	t.Setenv("NUVEI_BASE_URL", "http://127.0.0.1:9999")

	_, err := LoadFromEnv()
	assert.NoError(t, err)
}

func TestLoad_EnvFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("NUVEI_TERMINAL_ID=FROMFILE\nNUVEI_SHARED_SECRET=x\n"), 0600))

	// godotenv never overrides variables already present, even empty ones
	require.NoError(t, os.Unsetenv("NUVEI_TERMINAL_ID"))
	require.NoError(t, os.Unsetenv("NUVEI_SHARED_SECRET"))
	t.Cleanup(func() {
		os.Unsetenv("NUVEI_TERMINAL_ID")
		os.Unsetenv("NUVEI_SHARED_SECRET")
	})

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "FROMFILE", cfg.Nuvei.TerminalID)
}

func TestLoad_MissingEnvFileIsIgnored(t *testing.T) {
	clearEnv(t)
	t.Setenv("NUVEI_TERMINAL_ID", "T1")
	t.Setenv("NUVEI_SHARED_SECRET", "x")

	_, err := Load(filepath.Join(t.TempDir(), "absent.env"))
	assert.NoError(t, err)
}
