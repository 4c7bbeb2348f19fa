// Package commands provides the CLI command implementations.
package commands

import (
	"os"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/coreman2200/matrixctl/internal/config"
	"github.com/coreman2200/matrixctl/internal/display"
	"github.com/coreman2200/matrixctl/internal/gen"
	"github.com/coreman2200/matrixctl/internal/link"
)

var (
	cfgPath string
	// Verbose enables debug logging; read by main's pre-run.
	Verbose bool
)

// Register attaches all subcommands and persistent flags to the root.
func Register(root *cobra.Command) {
	root.PersistentFlags().StringVar(&cfgPath, "config", "config.yaml", "path to config.yaml")
	root.PersistentFlags().BoolVarP(&Verbose, "verbose", "v", false, "debug logging")
	root.AddCommand(GenerateCmd, OptimizeCmd, SendCmd, PlayCmd, ListCmd, ServeCmd)
}

// loadConfig reads the config file, falling back to defaults (flags stay
// usable without one).
func loadConfig() *config.Config {
	c, err := config.Load(cfgPath)
	if err != nil {
		log.Warn().Err(err).Str("path", cfgPath).Msg("config load failed; using defaults")
		return config.Default()
	}
	return c
}

// openLink builds the device link per the configured transport. A serial
// open failure falls back to the simulated device with a warning, so the
// tool stays usable off-hardware.
func openLink(cfg *config.Config, sink display.Driver) (*link.Link, error) {
	var stream link.Stream
	if cfg.Link.Transport == "serial" {
		s, err := link.OpenSerial(cfg.Link.Port, cfg.Link.Baud)
		if err != nil {
			log.Warn().Err(err).Str("port", cfg.Link.Port).Msg("serial open failed; falling back to mock device")
		} else {
			stream = s
		}
	}
	if stream == nil {
		stream = link.NewMockStream(time.Duration(cfg.Link.MockAckMs) * time.Millisecond)
	}
	return link.New(stream, sink, time.Duration(cfg.Link.AckTimeoutMs)*time.Millisecond, log.With().Str("component", "link").Logger())
}

func newPipeline(cfg *config.Config) (*gen.Pipeline, error) {
	client, err := gen.NewClient(gen.ClientConfig{
		BaseURL:   cfg.API.BaseURL,
		APIKey:    os.Getenv(cfg.API.KeyEnv),
		Model:     cfg.API.Model,
		TimeoutMs: cfg.API.TimeoutMs,
	})
	if err != nil {
		return nil, err
	}
	return gen.New(client, gen.Config{MaxAttempts: cfg.API.MaxAttempts}, log.With().Str("component", "gen").Logger())
}

func frameDelay(cfg *config.Config) time.Duration {
	return time.Duration(cfg.Playback.FrameDelayMs) * time.Millisecond
}
