package gen

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/coreman2200/matrixctl/internal/pattern"
)

// Retry and refinement bounds.
const (
	DefaultMaxAttempts    = 3
	DefaultFrameCount     = 5
	DefaultMaxRefinements = 3
	DefaultScoreTarget    = 9
)

var ErrNilCompleter = errors.New("pipeline requires a completion client")

// Config bounds the pipeline's loops.
type Config struct {
	MaxAttempts    int // completion attempts per frame
	FrameCount     int // default animation length
	MaxRefinements int // evaluate/refine round limit
	ScoreTarget    int // evaluation score that ends refinement
}

func (c *Config) fillDefaults() {
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = DefaultMaxAttempts
	}
	if c.FrameCount <= 0 {
		c.FrameCount = DefaultFrameCount
	}
	if c.MaxRefinements <= 0 {
		c.MaxRefinements = DefaultMaxRefinements
	}
	if c.ScoreTarget <= 0 {
		c.ScoreTarget = DefaultScoreTarget
	}
}

// Request is one generation order. Constructed per user action, consumed once.
type Request struct {
	Description string
	Animate     bool
	FrameCount  int
}

// Outcome is the pipeline's result. Expected failures never surface as
// errors: when the retry budget is exhausted the fallback shape is
// substituted and FallbackUsed is set, so the caller can tell "AI failed,
// showing default" apart from "nothing produced".
type Outcome struct {
	Pattern      pattern.Pattern
	Animation    pattern.Animation
	FallbackUsed bool
	Unchanged    bool
	RequestID    string
}

type Pipeline struct {
	client Completer
	cfg    Config
	log    zerolog.Logger
}

func New(client Completer, cfg Config, log zerolog.Logger) (*Pipeline, error) {
	if client == nil {
		return nil, ErrNilCompleter
	}
	cfg.fillDefaults()
	return &Pipeline{client: client, cfg: cfg, log: log}, nil
}

// Generate produces a single pattern or a complete animation. Animations are
// all-or-nothing: if any frame exhausts its retry budget the whole attempt is
// abandoned for the fallback animation — partial animations are never
// surfaced.
func (p *Pipeline) Generate(ctx context.Context, req Request) Outcome {
	id := uuid.NewString()
	log := p.log.With().Str("request_id", id).Str("op", "generate").Logger()

	if !req.Animate {
		if pat, ok := p.completeOne(ctx, log, systemGenerate, userGenerate(req.Description)); ok {
			return Outcome{Pattern: pat, RequestID: id}
		}
		log.Warn().Msg("all attempts failed, using fallback pattern")
		return Outcome{Pattern: pattern.Fallback(), FallbackUsed: true, RequestID: id}
	}

	count := req.FrameCount
	if count <= 0 {
		count = p.cfg.FrameCount
	}
	frames := make(pattern.Animation, 0, count)
	for i := 0; i < count; i++ {
		flog := log.With().Int("frame", i+1).Logger()
		pat, ok := p.completeOne(ctx, flog, systemGenerate, userGenerateFrame(req.Description, i+1, count))
		if !ok {
			log.Warn().Int("frame", i+1).Msg("frame exhausted its retries, using fallback animation")
			return Outcome{Animation: pattern.FallbackAnimation(count), FallbackUsed: true, RequestID: id}
		}
		frames = append(frames, pat)
	}
	return Outcome{Animation: frames, RequestID: id}
}

// Optimize asks for a simplify/symmetrize rewrite of a single pattern under
// the same retry/validate/fallback rules. A rewrite identical to the input is
// signalled as Unchanged, not as a failure.
func (p *Pipeline) Optimize(ctx context.Context, in pattern.Pattern) Outcome {
	id := uuid.NewString()
	log := p.log.With().Str("request_id", id).Str("op", "optimize").Logger()

	out, ok := p.completeOne(ctx, log, systemOptimize, userOptimize(in))
	if !ok {
		log.Warn().Msg("all attempts failed, using fallback pattern")
		return Outcome{Pattern: pattern.Fallback(), FallbackUsed: true, RequestID: id}
	}
	if out.Equal(in) {
		return Outcome{Pattern: in.Clone(), Unchanged: true, RequestID: id}
	}
	return Outcome{Pattern: out, RequestID: id}
}

// OptimizeAnimation rewrites every frame; the animation is replaced
// wholesale. Any frame exhausting its retries falls back to the fallback
// animation of equal length.
func (p *Pipeline) OptimizeAnimation(ctx context.Context, in pattern.Animation) Outcome {
	id := uuid.NewString()
	log := p.log.With().Str("request_id", id).Str("op", "optimize").Logger()

	out := make(pattern.Animation, 0, len(in))
	for i, frame := range in {
		flog := log.With().Int("frame", i+1).Logger()
		opt, ok := p.completeOne(ctx, flog, systemOptimize, userOptimizeFrame(frame, i+1))
		if !ok {
			log.Warn().Int("frame", i+1).Msg("frame exhausted its retries, using fallback animation")
			return Outcome{Animation: pattern.FallbackAnimation(len(in)), FallbackUsed: true, RequestID: id}
		}
		out = append(out, opt)
	}
	if out.Equal(in) {
		return Outcome{Animation: in.Clone(), Unchanged: true, RequestID: id}
	}
	return Outcome{Animation: out, RequestID: id}
}

// Evaluate asks the service to score a result against its description.
// An unparseable verdict is an error for the caller to log; it is not
// retried.
func (p *Pipeline) Evaluate(ctx context.Context, desc string, frames pattern.Animation) (int, string, error) {
	rendered := make([]string, len(frames))
	for i, f := range frames {
		rendered[i] = f.Render()
	}
	reply, err := p.client.Complete(ctx, systemEvaluate, userEvaluate(desc, strings.Join(rendered, "\n--- Next Frame ---\n")))
	if err != nil {
		return 0, "", err
	}
	score, ok := ParseScore(reply)
	if !ok {
		return 0, "", errors.New("could not parse evaluation score")
	}
	feedback := reply
	if _, rest, found := strings.Cut(reply, "\n"); found {
		feedback = strings.TrimSpace(rest)
	}
	return score, feedback, nil
}

// Refine performs one rewrite pass from evaluation feedback. An invalid reply
// keeps the original: the second return reports whether the pattern changed.
func (p *Pipeline) Refine(ctx context.Context, in pattern.Pattern, feedback string) (pattern.Pattern, bool) {
	log := p.log.With().Str("op", "refine").Logger()
	out, ok := p.completeOne(ctx, log, systemGenerate, userRefine(in, feedback))
	if !ok || out.Equal(in) {
		return in.Clone(), false
	}
	return out, true
}

// MaxRefinements exposes the configured refinement bound to the caller that
// drives the evaluate/refine loop.
func (p *Pipeline) MaxRefinements() int { return p.cfg.MaxRefinements }

// ScoreTarget is the evaluation score at which refinement stops.
func (p *Pipeline) ScoreTarget() int { return p.cfg.ScoreTarget }

// completeOne runs the bounded attempt loop for one frame. Service errors and
// malformed replies are logged, counted against the budget and never
// propagated.
func (p *Pipeline) completeOne(ctx context.Context, log zerolog.Logger, system, user string) (pattern.Pattern, bool) {
	for attempt := 1; attempt <= p.cfg.MaxAttempts; attempt++ {
		reply, err := p.client.Complete(ctx, system, user)
		if err != nil {
			log.Warn().Err(err).Int("attempt", attempt).Msg("completion failed")
			continue
		}
		pat, err := ParseReply(reply)
		if err != nil {
			log.Warn().Err(err).Int("attempt", attempt).Str("reply", snippet(reply)).Msg("reply rejected")
			continue
		}
		log.Info().Int("attempt", attempt).Str("reply", snippet(reply)).Msg("pattern parsed")
		return pat, true
	}
	return nil, false
}
