// Package config holds the runtime configuration. Everything that used to be
// process-wide state (mock-vs-real transport, API credentials) lives here and
// is passed into constructors explicitly.
package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

type LinkCfg struct {
	Transport    string `yaml:"transport"` // "mock" | "serial"
	Port         string `yaml:"port"`      // empty = auto-discover
	Baud         int    `yaml:"baud"`
	AckTimeoutMs int    `yaml:"ack_timeout_ms"`
	MockAckMs    int    `yaml:"mock_ack_ms"`
}

type APICfg struct {
	BaseURL     string `yaml:"base_url"`
	KeyEnv      string `yaml:"key_env"` // env var holding the key, never the key itself
	Model       string `yaml:"model"`
	TimeoutMs   int    `yaml:"timeout_ms"`
	MaxAttempts int    `yaml:"max_attempts"`
}

type PlaybackCfg struct {
	FrameDelayMs int  `yaml:"frame_delay_ms"`
	AutoPlay     bool `yaml:"auto_play"`
}

type Config struct {
	Link        LinkCfg     `yaml:"link"`
	API         APICfg      `yaml:"api"`
	Playback    PlaybackCfg `yaml:"playback"`
	PatternsDir string      `yaml:"patterns_dir"`
	Addr        string      `yaml:"addr"`
}

// Default is the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Link: LinkCfg{
			Transport:    "mock",
			Baud:         9600,
			AckTimeoutMs: 5000,
			MockAckMs:    500,
		},
		API: APICfg{
			KeyEnv:      "GLHF_API_KEY",
			TimeoutMs:   30000,
			MaxAttempts: 3,
		},
		Playback: PlaybackCfg{
			FrameDelayMs: 100,
			AutoPlay:     true,
		},
		PatternsDir: "saved_patterns",
		Addr:        ":8080",
	}
}

func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	c := Default()
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, err
	}
	return c, nil
}

func Save(path string, c *Config) error {
	b, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}
