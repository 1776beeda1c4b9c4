package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"

	"github.com/dkeye/watchparty/internal/domain"
)

type Config struct {
	Mode       string        `mapstructure:"mode"`
	Port       int           `mapstructure:"port"`
	StaticPath string        `mapstructure:"static_path"`
	ReadLimit  int64         `mapstructure:"read_limit"`
	PingPeriod time.Duration `mapstructure:"ping_period"`
	WriteWait  time.Duration `mapstructure:"write_wait"`
	SendBuffer int           `mapstructure:"send_buffer"`
	Secret     string        `mapstructure:"secret"`

	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`

	AllowedUsernames []string `mapstructure:"allowed_usernames"`
	MaxParticipants  int      `mapstructure:"max_participants"`
	AllowedOrigins   []string `mapstructure:"allowed_origins"`

	ICEServers []ICEServer `mapstructure:"ice_servers"`

	JoinRatePerMinute int    `mapstructure:"join_rate_per_minute"`
	JoinBurst         int    `mapstructure:"join_burst"`
	Backpressure      string `mapstructure:"backpressure"`
}

// PongWait is how long a silent connection is kept before it is dropped.
func (c *Config) PongWait() time.Duration { return c.PingPeriod * 10 / 9 }

func setDefaults(v *viper.Viper) {
	v.SetDefault("mode", "release")
	v.SetDefault("port", 3000)
	v.SetDefault("static_path", "./web")
	v.SetDefault("read_limit", 65536)
	v.SetDefault("ping_period", "54s")
	v.SetDefault("write_wait", "10s")
	v.SetDefault("send_buffer", 64)
	v.SetDefault("secret", "")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "console")
	v.SetDefault("allowed_usernames", []string{})
	v.SetDefault("max_participants", domain.DefaultMaxParticipants)
	v.SetDefault("allowed_origins", []string{"http://localhost:8081"})
	v.SetDefault("ice_servers", []map[string]any{
		{"urls": []string{"stun:stun.l.google.com:19302"}},
	})
	v.SetDefault("join_rate_per_minute", 0)
	v.SetDefault("join_burst", 0)
	v.SetDefault("backpressure", "drop")
}

// Load reads config/config.<CONFIG_ENV>.yaml (or CONFIG_FILE), then applies
// WATCHPARTY_* environment overrides and the plain PORT variable.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	fileName := os.Getenv("CONFIG_FILE")
	if fileName == "" {
		env := os.Getenv("CONFIG_ENV")
		if env == "" {
			env = "dev"
		}
		fileName = fmt.Sprintf("config/config.%s.yaml", env)
	}
	v.SetConfigFile(fileName)

	setDefaults(v)
	v.SetEnvPrefix("watchparty")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("port", "WATCHPARTY_PORT", "PORT")

	if err := v.ReadInConfig(); err != nil {
		log.Warn().Str("module", "config").Str("file", fileName).Msg("config file not found, using defaults")
	} else {
		log.Info().Str("module", "config").Str("file", fileName).Msg("loaded config")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	// Lists from the environment arrive as one comma separated string.
	cfg.AllowedUsernames = splitList(cfg.AllowedUsernames)
	cfg.AllowedOrigins = splitList(cfg.AllowedOrigins)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log.Info().Str("module", "config").Str("mode", cfg.Mode).Int("port", cfg.Port).Str("static", cfg.StaticPath).
		Int("allowed_usernames", len(cfg.AllowedUsernames)).Int("max_participants", cfg.MaxParticipants).Msg("config ready")
	return &cfg, nil
}

func splitList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if p := strings.TrimSpace(part); p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}

var (
	ErrInvalidPort     = errors.New("port must be within 1..65535")
	ErrInvalidCapacity = errors.New("max_participants must be positive")
)

func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("%w: %d", ErrInvalidPort, c.Port)
	}
	if c.MaxParticipants <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidCapacity, c.MaxParticipants)
	}
	if c.PingPeriod <= 0 {
		return fmt.Errorf("ping_period must be positive: %s", c.PingPeriod)
	}
	if c.SendBuffer <= 0 {
		return fmt.Errorf("send_buffer must be positive: %d", c.SendBuffer)
	}
	if c.JoinRatePerMinute < 0 || c.JoinBurst < 0 {
		return errors.New("join_rate_per_minute and join_burst must not be negative")
	}
	for _, o := range c.AllowedOrigins {
		if o != "*" && !strings.HasPrefix(o, "http://") && !strings.HasPrefix(o, "https://") {
			return fmt.Errorf("allowed_origins: %q must start with http:// or https://", o)
		}
	}
	switch c.Backpressure {
	case "drop", "close":
	default:
		return fmt.Errorf("backpressure must be drop or close, got %q", c.Backpressure)
	}
	for i, s := range c.ICEServers {
		if err := s.validate(); err != nil {
			return fmt.Errorf("ice_servers[%d]: %w", i, err)
		}
	}
	return nil
}
