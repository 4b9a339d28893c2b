package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/memohai/searcharr/internal/config"
)

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	t.Cleanup(func() { configFlag = "" })
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestConfigCheck(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.toml")
	require.NoError(t, os.WriteFile(good, []byte(`
[bot]
token = "123:abc"
password = "pw"
admin_password = "adm"

[radarr]
enabled = true
url = "http://radarr:7878"
api_key = "k"
`), 0o600))
	bad := filepath.Join(dir, "bad.toml")
	require.NoError(t, os.WriteFile(bad, []byte("[sonarr]\nenabled = true\n"), 0o600))

	out, err := execute(t, "", "config", "check", "--config", good)
	require.NoError(t, err)
	assert.Contains(t, out, "ok")

	out, err = execute(t, "", "config", "check", "--config", bad)
	require.Error(t, err)
	assert.Contains(t, out, "bot.token")
	assert.Contains(t, out, "sonarr.url")
}

func TestHashPassword(t *testing.T) {
	out, err := execute(t, "", "config", "hash-password", "s3cret")
	require.NoError(t, err)
	hash := strings.TrimSpace(out)
	assert.True(t, config.IsHashed(hash))
	assert.True(t, config.MatchPassword(hash, "s3cret"))

	out, err = execute(t, "from-stdin\n", "config", "hash-password")
	require.NoError(t, err)
	assert.True(t, config.MatchPassword(strings.TrimSpace(out), "from-stdin"))

	_, err = execute(t, "\n", "config", "hash-password")
	assert.Error(t, err)
}
