// Package config holds the bot configuration and its validation rules.
package config

import (
	"fmt"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of environment variables overriding config keys,
// e.g. AMPCLEAN_RUN_MAX_EDITS.
const EnvPrefix = "AMPCLEAN"

// Log formats.
const (
	LogFormatText = "text"
	LogFormatJSON = "json"
)

// Config is the full bot configuration.
type Config struct {
	Wiki       WikiConfig       `mapstructure:"wiki"`
	KillSwitch KillSwitchConfig `mapstructure:"killswitch"`
	Run        RunConfig        `mapstructure:"run"`
	Probe      ProbeConfig      `mapstructure:"probe"`
	Log        LogConfig        `mapstructure:"log"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.Wiki.Validate(); err != nil {
		return fmt.Errorf("wiki: %w", err)
	}
	if err := c.Run.Validate(); err != nil {
		return fmt.Errorf("run: %w", err)
	}
	if err := c.Probe.Validate(); err != nil {
		return fmt.Errorf("probe: %w", err)
	}
	if err := c.Log.Validate(); err != nil {
		return fmt.Errorf("log: %w", err)
	}
	return nil
}

// WikiConfig describes the MediaWiki endpoint.
type WikiConfig struct {
	APIURL    string        `mapstructure:"api_url"`
	UserAgent string        `mapstructure:"user_agent"`
	Summary   string        `mapstructure:"summary"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

// Validate validates the wiki configuration.
func (c *WikiConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.APIURL, validation.Required, is.URL),
		validation.Field(&c.UserAgent, validation.Required),
		validation.Field(&c.Summary, validation.Required),
		validation.Field(&c.Timeout, validation.Required, validation.Min(time.Second)),
	)
}

// KillSwitchConfig names the on-wiki page polled before every article. An
// empty Page disables the check.
type KillSwitchConfig struct {
	Page  string `mapstructure:"page"`
	Value string `mapstructure:"value"`
}

// Enabled reports whether a kill switch page is configured.
func (c *KillSwitchConfig) Enabled() bool {
	return c.Page != ""
}

// RunConfig controls the article loop.
type RunConfig struct {
	LogDir   string        `mapstructure:"log_dir"`
	MaxEdits int           `mapstructure:"max_edits"`
	Cooldown time.Duration `mapstructure:"cooldown"`
	DryRun   bool          `mapstructure:"dry_run"`
}

// Validate validates the run configuration.
func (c *RunConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.LogDir, validation.Required),
		validation.Field(&c.MaxEdits, validation.Min(0)),
		validation.Field(&c.Cooldown, validation.Min(time.Duration(0))),
	)
}

// ProbeConfig controls liveness probes.
type ProbeConfig struct {
	UserAgent string        `mapstructure:"user_agent"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

// Validate validates the probe configuration.
func (c *ProbeConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Timeout, validation.Required, validation.Min(100*time.Millisecond)),
	)
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Validate validates the log configuration.
func (c *LogConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Level, validation.In("debug", "info", "warn", "error")),
		validation.Field(&c.Format, validation.In(LogFormatText, LogFormatJSON)),
	)
}

// SetDefaults registers default values on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("wiki.api_url", "https://en.wikipedia.org/w/api.php")
	v.SetDefault("wiki.user_agent", "ampclean/1.0 (AMP link cleanup bot)")
	v.SetDefault("wiki.summary", "removed AMP tracking from URLs")
	v.SetDefault("wiki.timeout", 30*time.Second)
	v.SetDefault("killswitch.page", "")
	v.SetDefault("killswitch.value", "true")
	v.SetDefault("run.log_dir", "logs")
	v.SetDefault("run.max_edits", 200)
	v.SetDefault("run.cooldown", 10*time.Second)
	v.SetDefault("run.dry_run", true)
	v.SetDefault("probe.user_agent", "")
	v.SetDefault("probe.timeout", 5*time.Second)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", LogFormatText)
}

// Load decodes and validates the configuration held by v.
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}
