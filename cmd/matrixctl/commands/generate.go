package commands

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/coreman2200/matrixctl/internal/config"
	"github.com/coreman2200/matrixctl/internal/display"
	"github.com/coreman2200/matrixctl/internal/gen"
	"github.com/coreman2200/matrixctl/internal/link"
	"github.com/coreman2200/matrixctl/internal/pattern"
	"github.com/coreman2200/matrixctl/internal/play"
	"github.com/coreman2200/matrixctl/internal/store"
)

var (
	genAnimate bool
	genFrames  int
	genSave    string
	genNoSend  bool
	genRefine  bool
	genMood    string
)

// moodPresets mirror the selectable moods of the desktop frontend.
var moodPresets = []string{"calm", "excited", "sad", "happy", "angry", "romantic", "mysterious"}

var GenerateCmd = &cobra.Command{
	Use:   "generate [description...]",
	Short: "Generate a pattern or animation from a description and send it",
	Args:  cobra.ArbitraryArgs,
	RunE:  runGenerate,
}

func init() {
	GenerateCmd.Flags().BoolVarP(&genAnimate, "animate", "a", false, "generate an animation instead of a single pattern")
	GenerateCmd.Flags().IntVarP(&genFrames, "frames", "n", gen.DefaultFrameCount, "animation frame count")
	GenerateCmd.Flags().StringVar(&genSave, "save", "", "save the result under this name")
	GenerateCmd.Flags().BoolVar(&genNoSend, "no-send", false, "skip device transmission")
	GenerateCmd.Flags().BoolVar(&genRefine, "refine", false, "run the evaluate/refine loop on the result")
	GenerateCmd.Flags().StringVar(&genMood, "mood", "", "generate for a preset mood instead of a description")
}

// describeRequest resolves the generation description from the positional
// words or the mood preset; the preset wins when both are given.
func describeRequest(args []string) (string, error) {
	if genMood != "" {
		m := strings.ToLower(genMood)
		if !slices.Contains(moodPresets, m) {
			return "", fmt.Errorf("unknown mood %q (presets: %s)", genMood, strings.Join(moodPresets, ", "))
		}
		return m, nil
	}
	if desc := strings.Join(args, " "); desc != "" {
		return desc, nil
	}
	return "", errors.New("a description or --mood is required")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	desc, err := describeRequest(args)
	if err != nil {
		return err
	}
	cfg := loadConfig()
	pipeline, err := newPipeline(cfg)
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	out := pipeline.Generate(ctx, gen.Request{Description: desc, Animate: genAnimate, FrameCount: genFrames})
	if out.FallbackUsed {
		log.Warn().Msg("generation failed, showing the default pattern")
	}

	if !genAnimate {
		return handleSingle(ctx, cfg, pipeline, desc, out)
	}
	return handleAnimation(cfg, out.Animation)
}

func handleSingle(ctx context.Context, cfg *config.Config, pipeline *gen.Pipeline, desc string, out gen.Outcome) error {
	pat := out.Pattern
	fmt.Print(pat.Render())
	if pat.IsSymmetric() {
		log.Info().Msg("the pattern is symmetric")
	} else {
		log.Info().Msg("the pattern lacks symmetry")
	}

	if genRefine && !out.FallbackUsed {
		pat = refineLoop(ctx, pipeline, desc, pat)
		fmt.Print(pat.Render())
	}

	if genSave != "" {
		path, err := store.Save(cfg.PatternsDir, genSave, store.SinglePayload(pat))
		if err != nil {
			log.Error().Err(err).Msg("save failed")
		} else {
			log.Info().Str("path", path).Msg("saved")
		}
	}
	if genNoSend {
		return nil
	}
	l, err := openLink(cfg, display.NewHeadless(log.With().Str("component", "preview").Logger()))
	if err != nil {
		return err
	}
	defer l.Close()
	res, err := l.SendFrame(pat)
	if err != nil {
		return err
	}
	reportAck(res)
	return nil
}

func handleAnimation(cfg *config.Config, frames pattern.Animation) error {
	log.Info().Int("frames", len(frames)).Msg("animation generated")

	if genSave != "" {
		path, err := store.Save(cfg.PatternsDir, genSave, store.AnimationPayload(frames))
		if err != nil {
			log.Error().Err(err).Msg("save failed")
		} else {
			log.Info().Str("path", path).Msg("saved")
		}
	}
	if !genNoSend {
		l, err := openLink(cfg, nil)
		if err != nil {
			return err
		}
		defer l.Close()
		res, err := l.SendAnimation(frames)
		if err != nil {
			return err
		}
		reportAck(res)
	}
	if cfg.Playback.AutoPlay {
		previewCycle(cfg, frames)
	}
	return nil
}

// refineLoop drives bounded evaluate/refine rounds until the score target is
// met or refinement stops changing the pattern.
func refineLoop(ctx context.Context, pipeline *gen.Pipeline, desc string, pat pattern.Pattern) pattern.Pattern {
	for i := 0; i < pipeline.MaxRefinements(); i++ {
		score, feedback, err := pipeline.Evaluate(ctx, desc, pattern.Animation{pat})
		if err != nil {
			log.Warn().Err(err).Msg("evaluation failed")
			return pat
		}
		log.Info().Int("score", score).Str("feedback", feedback).Msg("evaluated")
		if score >= pipeline.ScoreTarget() {
			return pat
		}
		next, changed := pipeline.Refine(ctx, pat, feedback)
		if !changed {
			log.Info().Msg("refinement made no further changes")
			return pat
		}
		pat = next
	}
	log.Info().Msg("max refinement rounds reached")
	return pat
}

// previewCycle plays one full pass of the animation locally.
func previewCycle(cfg *config.Config, frames pattern.Animation) {
	sched := play.New(display.NewHeadless(log.With().Str("component", "preview").Logger()), frameDelay(cfg), log.With().Str("component", "play").Logger())
	if err := sched.Start(frames); err != nil {
		log.Warn().Err(err).Msg("preview failed to start")
		return
	}
	time.Sleep(frameDelay(cfg) * time.Duration(len(frames)))
	sched.Stop()
	for sched.Running() {
		time.Sleep(time.Millisecond)
	}
}

func reportAck(res link.AckResult) {
	switch res.Status {
	case link.Acknowledged:
		log.Info().Str("line", res.Line).Msg("device acknowledged")
	case link.TimedOut:
		log.Warn().Dur("waited", res.Elapsed).Msg("no acknowledgment from device; it may or may not have applied the pattern")
	case link.TransportFailed:
		log.Error().Msg("transport failure, nothing was sent")
	}
}
