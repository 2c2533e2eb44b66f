package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/semmidev/yabu/internal/domain"
)

type Config struct {
	App     AppConfig      `mapstructure:"app"`
	Notify  NotifyConfig   `mapstructure:"notify"`
	Presets []PresetConfig `mapstructure:"presets"`
}

type AppConfig struct {
	Name          string `mapstructure:"name"`
	LogLevel      string `mapstructure:"log_level"`
	LogFile       string `mapstructure:"log_file"`
	LogMaxSize    int    `mapstructure:"log_max_size"`
	LogMaxBackups int    `mapstructure:"log_max_backups"`
	LogMaxAge     int    `mapstructure:"log_max_age"`
}

type NotifyConfig struct {
	Telegram TelegramConfig `mapstructure:"telegram"`
}

type TelegramConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	BotToken string `mapstructure:"bot_token"`
	ChatID   string `mapstructure:"chat_id"`
}

type PresetConfig struct {
	Name         string              `mapstructure:"name"`
	Schedule     string              `mapstructure:"schedule"`
	Force        bool                `mapstructure:"force"`
	Keep         bool                `mapstructure:"keep"`
	Targets      []string            `mapstructure:"targets"`
	Destinations []DestinationConfig `mapstructure:"destinations"`
}

type DestinationConfig struct {
	Path            string `mapstructure:"path"`
	TimestampFormat string `mapstructure:"timestamp_format"`
	NameSeparator   string `mapstructure:"name_separator"`
	RetentionCount  int    `mapstructure:"retention_count"`
	ArchiveFormat   string `mapstructure:"archive_format"`
}

func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.SetEnvPrefix("yabu")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("app.name", "yabu")
	v.SetDefault("app.log_level", "info")
	v.SetDefault("app.log_max_size", 100)
	v.SetDefault("app.log_max_backups", 3)
	v.SetDefault("app.log_max_age", 28)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	if len(c.Presets) == 0 {
		return fmt.Errorf("at least one preset is required")
	}

	seen := make(map[string]bool, len(c.Presets))
	for i, p := range c.Presets {
		if p.Name == "" {
			return fmt.Errorf("presets[%d]: name is required", i)
		}
		if seen[p.Name] {
			return fmt.Errorf("presets[%d]: duplicate preset name %q", i, p.Name)
		}
		seen[p.Name] = true

		if len(p.Targets) == 0 {
			return fmt.Errorf("preset %s: at least one target is required", p.Name)
		}
		if len(p.Destinations) == 0 {
			return fmt.Errorf("preset %s: at least one destination is required", p.Name)
		}
		for j, d := range p.Destinations {
			if d.Path == "" {
				return fmt.Errorf("preset %s: destinations[%d]: path is required", p.Name, j)
			}
		}
	}

	if c.Notify.Telegram.Enabled {
		if c.Notify.Telegram.BotToken == "" || c.Notify.Telegram.ChatID == "" {
			return fmt.Errorf("notify.telegram: bot_token and chat_id are required when enabled")
		}
	}

	return nil
}

// Preset returns the configuration entry named name.
func (c *Config) Preset(name string) (PresetConfig, error) {
	for _, p := range c.Presets {
		if p.Name == name {
			return p, nil
		}
	}
	return PresetConfig{}, fmt.Errorf("%w: %s", domain.ErrPresetNotFound, name)
}

// GetScheduledPresets returns the presets that carry a cron schedule.
func (c *Config) GetScheduledPresets() []PresetConfig {
	var scheduled []PresetConfig
	for _, p := range c.Presets {
		if p.Schedule != "" {
			scheduled = append(scheduled, p)
		}
	}
	return scheduled
}

// Build converts the entry into a domain Preset. Destination directories
// must exist.
func (p PresetConfig) Build() (*domain.Preset, error) {
	preset, err := domain.NewPreset(p.Name)
	if err != nil {
		return nil, err
	}

	for _, dc := range p.Destinations {
		dest, err := dc.Build()
		if err != nil {
			return nil, fmt.Errorf("preset %s: %w", p.Name, err)
		}
		if err := preset.AddDestination(dest); err != nil {
			return nil, fmt.Errorf("preset %s: %w", p.Name, err)
		}
	}

	for _, t := range p.Targets {
		abs, err := filepath.Abs(expandHome(t))
		if err != nil {
			return nil, fmt.Errorf("preset %s: resolve target %s: %w", p.Name, t, err)
		}
		if err := preset.AddTarget(abs); err != nil {
			return nil, fmt.Errorf("preset %s: %w", p.Name, err)
		}
	}

	return preset, nil
}

func (d DestinationConfig) Build() (domain.Destination, error) {
	var opts []domain.DestinationOption
	if d.TimestampFormat != "" {
		opts = append(opts, domain.WithTimestampFormat(d.TimestampFormat))
	}
	if d.NameSeparator != "" {
		opts = append(opts, domain.WithNameSeparator(d.NameSeparator))
	}
	if d.RetentionCount != 0 {
		opts = append(opts, domain.WithRetentionCount(d.RetentionCount))
	}
	if d.ArchiveFormat != "" {
		opts = append(opts, domain.WithArchiveFormat(d.ArchiveFormat))
	}
	return domain.NewDestination(expandHome(d.Path), opts...)
}
