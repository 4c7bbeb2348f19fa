package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/coreman2200/matrixctl/internal/display"
	"github.com/coreman2200/matrixctl/internal/pattern"
	"github.com/coreman2200/matrixctl/internal/play"
	"github.com/coreman2200/matrixctl/internal/store"
)

var playCycles int

var PlayCmd = &cobra.Command{
	Use:   "play <file.json>",
	Short: "Loop a saved animation locally",
	Args:  cobra.ExactArgs(1),
	RunE:  runPlay,
}

func init() {
	PlayCmd.Flags().IntVar(&playCycles, "cycles", 0, "stop after this many passes (0 loops until interrupted)")
}

func runPlay(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	pl, err := store.Load(args[0])
	if err != nil {
		return err
	}

	var frames pattern.Animation
	switch pl.Type {
	case store.TypeAnimation:
		frames, err = pl.ToAnimation()
		if err != nil {
			return err
		}
	case store.TypeSingle:
		pat, err := pl.ToPattern()
		if err != nil {
			return err
		}
		fmt.Print(pat.Render())
		return nil
	}

	sched := play.New(
		display.NewHeadless(log.With().Str("component", "display").Logger()),
		frameDelay(cfg),
		log.With().Str("component", "play").Logger(),
	)
	if err := sched.Start(frames); err != nil {
		return err
	}
	defer sched.Stop()

	if playCycles > 0 {
		time.Sleep(frameDelay(cfg) * time.Duration(len(frames)*playCycles))
		return nil
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	log.Info().Msg("playback interrupted")
	return nil
}
