// File: internal/config/config.go
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds the entire application configuration.
type Config struct {
	Logger   LoggerConfig             `mapstructure:"logger" yaml:"logger"`
	Browser  BrowserConfig            `mapstructure:"browser" yaml:"browser"`
	Network  NetworkConfig            `mapstructure:"network" yaml:"network"`
	Bot      BotConfig                `mapstructure:"bot" yaml:"bot"`
	Profiles map[string]ProfileConfig `mapstructure:"profiles" yaml:"profiles"`
}

// LoggerConfig configures the zap logger construction.
type LoggerConfig struct {
	Level       string `mapstructure:"level" yaml:"level"`
	Format      string `mapstructure:"format" yaml:"format"` // "console" or "json"
	ServiceName string `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int    `mapstructure:"max_size" yaml:"max_size"` // megabytes
	MaxBackups  int    `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int    `mapstructure:"max_age" yaml:"max_age"` // days
	Compress    bool   `mapstructure:"compress" yaml:"compress"`
	AddSource   bool   `mapstructure:"add_source" yaml:"add_source"`
}

// BrowserConfig configures the driver session.
type BrowserConfig struct {
	// Driver selects the session backend: "cdp" (real Chrome over the
	// DevTools protocol) or "lite" (the in-process HTML engine).
	Driver       string `mapstructure:"driver" yaml:"driver"`
	Headless     bool   `mapstructure:"headless" yaml:"headless"`
	BinaryPath   string `mapstructure:"binary_path" yaml:"binary_path"`
	UserDataDir  string `mapstructure:"user_data_dir" yaml:"user_data_dir"`
	NoSandbox    bool   `mapstructure:"no_sandbox" yaml:"no_sandbox"`
	WindowWidth  int    `mapstructure:"window_width" yaml:"window_width"`
	WindowHeight int    `mapstructure:"window_height" yaml:"window_height"`
}

// NetworkConfig configures navigation behavior.
type NetworkConfig struct {
	NavigationTimeout time.Duration `mapstructure:"navigation_timeout" yaml:"navigation_timeout"`
	PostLoadWait      time.Duration `mapstructure:"post_load_wait" yaml:"post_load_wait"`
	UserAgent         string        `mapstructure:"user_agent" yaml:"user_agent"`
}

// BotConfig configures the answer engine and pacing.
type BotConfig struct {
	// Delay window between discrete commits, in seconds.
	MinDelay float64 `mapstructure:"min_delay" yaml:"min_delay"`
	MaxDelay float64 `mapstructure:"max_delay" yaml:"max_delay"`
	// Active response profile name. Must exist among the built-in
	// profiles, the Profiles map, or the profiles file.
	Profile string `mapstructure:"profile" yaml:"profile"`
	// Optional JSON file with additional response profiles.
	ProfilesFile string `mapstructure:"profiles_file" yaml:"profiles_file"`
	// Hard ceiling on commits per minute, layered on top of the
	// randomized delays. Zero disables the throttle.
	ActionsPerMinute int `mapstructure:"actions_per_minute" yaml:"actions_per_minute"`
}

// ProfileConfig is the on-disk shape of a response profile.
type ProfileConfig struct {
	Description string   `mapstructure:"description" yaml:"description" json:"description"`
	Short       []string `mapstructure:"short" yaml:"short" json:"short"`
	Long        []string `mapstructure:"long" yaml:"long" json:"long"`
}

// SetDefaults registers default values on the given viper instance.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.service_name", "surveyor-cli")
	v.SetDefault("logger.max_size", 50)
	v.SetDefault("logger.max_backups", 3)
	v.SetDefault("logger.max_age", 14)

	v.SetDefault("browser.driver", "cdp")
	v.SetDefault("browser.headless", false)
	v.SetDefault("browser.no_sandbox", true)
	v.SetDefault("browser.window_width", 1200)
	v.SetDefault("browser.window_height", 900)

	v.SetDefault("network.navigation_timeout", 60*time.Second)
	v.SetDefault("network.post_load_wait", 1500*time.Millisecond)

	v.SetDefault("bot.min_delay", 1.0)
	v.SetDefault("bot.max_delay", 2.5)
	v.SetDefault("bot.profile", "Default")
	v.SetDefault("bot.actions_per_minute", 0)
}

// Validate rejects configurations the engine must never start with.
// Empty answer pools and inverted delay windows are configuration errors,
// surfaced here rather than mid-run.
func (c *Config) Validate() error {
	if c.Bot.MinDelay < 0 || c.Bot.MaxDelay < 0 {
		return fmt.Errorf("bot delays must be non-negative (min=%.2f max=%.2f)", c.Bot.MinDelay, c.Bot.MaxDelay)
	}
	if c.Bot.MinDelay > c.Bot.MaxDelay {
		return fmt.Errorf("bot.min_delay (%.2f) exceeds bot.max_delay (%.2f)", c.Bot.MinDelay, c.Bot.MaxDelay)
	}
	switch strings.ToLower(c.Browser.Driver) {
	case "", "cdp", "lite":
	default:
		return fmt.Errorf("unknown browser driver %q (expected \"cdp\" or \"lite\")", c.Browser.Driver)
	}
	for name, p := range c.Profiles {
		if len(p.Short) == 0 {
			return fmt.Errorf("profile %q has an empty short-answer pool", name)
		}
		if len(p.Long) == 0 {
			return fmt.Errorf("profile %q has an empty long-answer pool", name)
		}
	}
	return nil
}
