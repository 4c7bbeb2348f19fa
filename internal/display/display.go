// Package display abstracts the preview surface frames are emitted to.
package display

import (
	"github.com/rs/zerolog"

	"github.com/coreman2200/matrixctl/internal/pattern"
)

// Driver abstracts a frame output sink.
type Driver interface {
	// Show pushes one frame to the surface.
	Show(p pattern.Pattern) error
	// Close releases resources.
	Close() error
}

// Headless logs a compact summary of each frame, useful for headless runs
// and tests.
type Headless struct {
	Count int
	log   zerolog.Logger
}

func NewHeadless(log zerolog.Logger) *Headless {
	return &Headless{log: log}
}

func (d *Headless) Show(p pattern.Pattern) error {
	d.Count++
	d.log.Debug().Int("frame", d.Count).Int("lit", p.Lit()).Msg("frame")
	return nil
}

func (d *Headless) Close() error { return nil }

// Tee fans one frame out to several sinks. A failing sink does not stop the
// others; the first error is returned.
type Tee []Driver

func (t Tee) Show(p pattern.Pattern) error {
	var first error
	for _, d := range t {
		if err := d.Show(p); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func (t Tee) Close() error {
	var first error
	for _, d := range t {
		if err := d.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
