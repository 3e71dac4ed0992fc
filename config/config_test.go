package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "config.yaml", "server:\n  port: 9090\n")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "remote", cfg.Billing.Mode)
	assert.Equal(t, "INR", cfg.Billing.Currency)
	assert.Equal(t, "/login?redirect=pricing", cfg.Checkout.LoginRedirect)
	assert.Equal(t, "gemini", cfg.Chat.Provider)
	assert.Equal(t, 300, cfg.Chat.MaxOutputTokens)
	assert.False(t, cfg.LocalBilling())
}

func TestLoad_LocalOverride(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "config.yaml", "billing:\n  mode: remote\n")
	writeConfig(t, dir, "config.local.yaml", "billing:\n  mode: local\nrazorpay:\n  key_id: rzp_test_x\n")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.True(t, cfg.LocalBilling())
	assert.Equal(t, "rzp_test_x", cfg.Razorpay.KeyID)
}

func TestLoad_EnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "config.yaml", "backend:\n  base_url: http://from-file\n")

	t.Setenv("BACKEND_BASE_URL", "http://from-env")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "http://from-env", cfg.Backend.BaseURL)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
