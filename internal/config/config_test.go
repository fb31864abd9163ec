package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newViper() *viper.Viper {
	v := viper.New()
	SetDefaults(v)

	return v
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(newViper())
	require.NoError(t, err)

	assert.Equal(t, "https://en.wikipedia.org/w/api.php", cfg.Wiki.APIURL)
	assert.Equal(t, 200, cfg.Run.MaxEdits)
	assert.Equal(t, 10*time.Second, cfg.Run.Cooldown)
	assert.True(t, cfg.Run.DryRun)
	assert.Equal(t, 5*time.Second, cfg.Probe.Timeout)
	assert.Equal(t, "true", cfg.KillSwitch.Value)
	assert.False(t, cfg.KillSwitch.Enabled())
	assert.Equal(t, LogFormatText, cfg.Log.Format)
}

func TestLoad_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ampclean.yaml")
	content := `
wiki:
  api_url: https://test.wikipedia.org/w/api.php
killswitch:
  page: User:AmpBot/run
run:
  max_edits: 5
  cooldown: 2s
  dry_run: false
log:
  format: json
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	v := newViper()
	v.SetConfigFile(path)
	require.NoError(t, v.ReadInConfig())

	cfg, err := Load(v)
	require.NoError(t, err)

	assert.Equal(t, "https://test.wikipedia.org/w/api.php", cfg.Wiki.APIURL)
	assert.True(t, cfg.KillSwitch.Enabled())
	assert.Equal(t, 5, cfg.Run.MaxEdits)
	assert.Equal(t, 2*time.Second, cfg.Run.Cooldown)
	assert.False(t, cfg.Run.DryRun)
	assert.Equal(t, LogFormatJSON, cfg.Log.Format)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("AMPCLEAN_RUN_MAX_EDITS", "7")

	v := newViper()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.Run.MaxEdits)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value any
		want  string
	}{
		{name: "bad api url", key: "wiki.api_url", value: "not a url", want: "wiki"},
		{name: "negative max edits", key: "run.max_edits", value: -1, want: "run"},
		{name: "zero probe timeout", key: "probe.timeout", value: 0, want: "probe"},
		{name: "unknown log format", key: "log.format", value: "xml", want: "log"},
		{name: "empty user agent", key: "wiki.user_agent", value: "", want: "wiki"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := newViper()
			v.Set(tt.key, tt.value)

			_, err := Load(v)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
