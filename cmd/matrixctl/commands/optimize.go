package commands

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/coreman2200/matrixctl/internal/gen"
	"github.com/coreman2200/matrixctl/internal/store"
)

var (
	optSave   string
	optNoSend bool
)

var OptimizeCmd = &cobra.Command{
	Use:   "optimize <file.json>",
	Short: "Ask the model to improve a saved pattern or animation",
	Args:  cobra.ExactArgs(1),
	RunE:  runOptimize,
}

func init() {
	OptimizeCmd.Flags().StringVar(&optSave, "save", "", "save the improved result under this name")
	OptimizeCmd.Flags().BoolVar(&optNoSend, "no-send", false, "skip device transmission")
}

func runOptimize(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	pipeline, err := newPipeline(cfg)
	if err != nil {
		return err
	}
	pl, err := store.Load(args[0])
	if err != nil {
		return err
	}

	var out gen.Outcome
	switch pl.Type {
	case store.TypeSingle:
		pat, err := pl.ToPattern()
		if err != nil {
			return err
		}
		out = pipeline.Optimize(cmd.Context(), pat)
	case store.TypeAnimation:
		frames, err := pl.ToAnimation()
		if err != nil {
			return err
		}
		out = pipeline.OptimizeAnimation(cmd.Context(), frames)
	}
	if out.Unchanged {
		log.Info().Msg("no improvement suggested; keeping the original")
		return nil
	}

	if pl.Type == store.TypeSingle {
		fmt.Print(out.Pattern.Render())
		pl = store.SinglePayload(out.Pattern)
	} else {
		log.Info().Int("frames", len(out.Animation)).Msg("animation optimized")
		pl = store.AnimationPayload(out.Animation)
	}

	if optSave != "" {
		path, err := store.Save(cfg.PatternsDir, optSave, pl)
		if err != nil {
			return err
		}
		log.Info().Str("path", path).Msg("saved")
	}
	if optNoSend {
		return nil
	}
	l, err := openLink(cfg, nil)
	if err != nil {
		return err
	}
	defer l.Close()
	res, err := sendPayload(l, pl)
	if err != nil {
		return err
	}
	reportAck(res)
	return nil
}
