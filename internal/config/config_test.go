package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "missing.yaml"))
	t.Setenv("PORT", "")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != 3000 {
		t.Fatalf("port=%d, want 3000", cfg.Port)
	}
	if cfg.MaxParticipants != 4 {
		t.Fatalf("max_participants=%d, want 4", cfg.MaxParticipants)
	}
	if cfg.PingPeriod != 54*time.Second {
		t.Fatalf("ping_period=%s", cfg.PingPeriod)
	}
	if len(cfg.AllowedOrigins) != 1 || cfg.AllowedOrigins[0] != "http://localhost:8081" {
		t.Fatalf("allowed_origins=%v", cfg.AllowedOrigins)
	}
	ice := cfg.WebRTCICEServers()
	if len(ice) != 1 || ice[0].URLs[0] != "stun:stun.l.google.com:19302" {
		t.Fatalf("ice=%+v", ice)
	}
	if cfg.JoinRatePerMinute != 0 {
		t.Fatalf("join_rate_per_minute=%d, want 0 (off)", cfg.JoinRatePerMinute)
	}
}

func TestLoadFileAndEnv(t *testing.T) {
	path := writeConfig(t, `
port: 4000
max_participants: 2
allowed_usernames: [Ann, bob]
ice_servers:
  - urls: ["stun:stun.example.org:3478"]
  - urls: ["turn:turn.example.org:3478"]
    username: u
    credential: p
`)
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("PORT", "5050")
	t.Setenv("WATCHPARTY_ALLOWED_ORIGINS", "https://a.example, https://b.example")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != 5050 {
		t.Fatalf("PORT env should win, got %d", cfg.Port)
	}
	if cfg.MaxParticipants != 2 {
		t.Fatalf("max_participants=%d", cfg.MaxParticipants)
	}
	if len(cfg.AllowedUsernames) != 2 || cfg.AllowedUsernames[0] != "Ann" {
		t.Fatalf("allowed_usernames=%v", cfg.AllowedUsernames)
	}
	if len(cfg.AllowedOrigins) != 2 || cfg.AllowedOrigins[1] != "https://b.example" {
		t.Fatalf("allowed_origins=%v", cfg.AllowedOrigins)
	}
	ice := cfg.WebRTCICEServers()
	if len(ice) != 2 || ice[1].Username != "u" || ice[1].Credential != "p" {
		t.Fatalf("ice=%+v", ice)
	}
}

func TestValidate(t *testing.T) {
	base := func() Config {
		return Config{Port: 3000, MaxParticipants: 4, PingPeriod: time.Second, SendBuffer: 1, Backpressure: "drop"}
	}
	if err := (&Config{Port: 0, MaxParticipants: 4}).Validate(); !errors.Is(err, ErrInvalidPort) {
		t.Fatalf("err=%v, want ErrInvalidPort", err)
	}

	cases := map[string]func(*Config){
		"capacity":     func(c *Config) { c.MaxParticipants = 0 },
		"ping":         func(c *Config) { c.PingPeriod = 0 },
		"buffer":       func(c *Config) { c.SendBuffer = 0 },
		"backpressure": func(c *Config) { c.Backpressure = "kick" },
		"ice scheme":   func(c *Config) { c.ICEServers = []ICEServer{{URLs: []string{"http://x"}}} },
		"ice no urls":  func(c *Config) { c.ICEServers = []ICEServer{{}} },
		"turn no cred": func(c *Config) { c.ICEServers = []ICEServer{{URLs: []string{"turn:x:3478"}}} },
	}
	for name, mutate := range cases {
		c := base()
		mutate(&c)
		if err := c.Validate(); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
	c := base()
	if err := c.Validate(); err != nil {
		t.Fatalf("base config invalid: %v", err)
	}
}

func TestValidateOrigins(t *testing.T) {
	c := Config{Port: 3000, MaxParticipants: 4, PingPeriod: time.Second, SendBuffer: 1, Backpressure: "drop",
		AllowedOrigins: []string{"localhost:8081"}}
	if err := c.Validate(); err == nil {
		t.Fatalf("expected error for origin without scheme")
	}
	c.AllowedOrigins = []string{"http://localhost:8081", "*"}
	if err := c.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}
