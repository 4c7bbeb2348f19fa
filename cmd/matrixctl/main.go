// Package main provides the CLI entry point for matrixctl.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/coreman2200/matrixctl/cmd/matrixctl/commands"
)

var version = "1.0.0"

var rootCmd = &cobra.Command{
	Use:   "matrixctl",
	Short: "AI-assisted controller for a serial-attached 8x8 LED matrix",
	Long: `matrixctl turns free-text descriptions into 8x8 LED patterns and
animations, transmits them to a matrix device over a serial link, and
previews them locally.

Generation talks to an OpenAI-compatible completion service with bounded
retries and a deterministic fallback, so there is always something to show.`,
	Version: version,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		zerolog.TimeFieldFormat = time.RFC3339
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.Kitchen})
		if commands.Verbose {
			zerolog.SetGlobalLevel(zerolog.DebugLevel)
		} else {
			zerolog.SetGlobalLevel(zerolog.InfoLevel)
		}
	},
}

func main() {
	commands.Register(rootCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
