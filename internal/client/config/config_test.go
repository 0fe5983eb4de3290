package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	var c Config
	c.LoadDefaults()
	assert.Equal(t, "http://127.0.0.1:3000", c.ServerURL)
	assert.Equal(t, 10*time.Second, c.RequestTimeout)
}

func TestLoadConfig_Precedence(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	path := filepath.Join(t.TempDir(), "cli.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"server_url":"http://json:1","request_timeout":"3s"}`), 0o600))

	os.Args = []string{"taskctl", "-c", path, "-a", "http://flag:2"}
	cfg := LoadConfig()

	// -t is absent, so the JSON timeout survives the flag pass
	assert.Empty(t, cmp.Diff(&Config{ServerURL: "http://flag:2", RequestTimeout: 3 * time.Second}, cfg))
}

func TestParseFlags(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	tests := []struct {
		name        string
		args        []string
		expected    *Config
		expectPanic bool
	}{
		{name: "ok", args: []string{"cmd", "-a", "http://h:9", "-t", "5"},
			expected: &Config{ServerURL: "http://h:9", RequestTimeout: 5 * time.Second}},
		{name: "bad timeout", args: []string{"cmd", "-t", "abc"}, expectPanic: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Args = tt.args
			cfg := &Config{}
			if tt.expectPanic {
				require.Panics(t, func() { parseFlags(cfg) })
				return
			}
			require.NotPanics(t, func() { parseFlags(cfg) })
			assert.Empty(t, cmp.Diff(tt.expected, cfg))
		})
	}
}

func TestParseJson_Errors(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{nope`), 0o600))

	os.Args = []string{"cmd", "-config", bad}
	assert.Panics(t, func() { parseJson(&Config{}) })

	os.Args = []string{"cmd", "-config", filepath.Join(dir, "missing.json")}
	assert.Panics(t, func() { parseJson(&Config{}) })
}
