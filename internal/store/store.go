// Package store reads and writes the persisted pattern payloads: standalone
// JSON documents of a single pattern or an animation.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/coreman2200/matrixctl/internal/pattern"
)

const (
	TypeSingle    = "single"
	TypeAnimation = "animation"
)

var (
	ErrBadPayload = errors.New("payload does not match a known shape")

	filenameRe = regexp.MustCompile(`[\\/*?:"<>|]`)
)

// Payload is the on-disk document shape.
type Payload struct {
	Type     string  `json:"type"`
	Pattern  []int   `json:"pattern,omitempty"`
	Patterns [][]int `json:"patterns,omitempty"`
}

// SinglePayload wraps one pattern for persistence.
func SinglePayload(p pattern.Pattern) Payload {
	return Payload{Type: TypeSingle, Pattern: toInts(p)}
}

// AnimationPayload wraps an animation for persistence.
func AnimationPayload(a pattern.Animation) Payload {
	rows := make([][]int, len(a))
	for i, f := range a {
		rows[i] = toInts(f)
	}
	return Payload{Type: TypeAnimation, Patterns: rows}
}

// Validate checks the document against the two accepted shapes.
func (pl Payload) Validate() error {
	switch pl.Type {
	case TypeSingle:
		return checkRows(pl.Pattern)
	case TypeAnimation:
		if len(pl.Patterns) == 0 {
			return fmt.Errorf("%w: animation with no frames", ErrBadPayload)
		}
		for i, rows := range pl.Patterns {
			if err := checkRows(rows); err != nil {
				return fmt.Errorf("frame %d: %w", i+1, err)
			}
		}
		return nil
	default:
		return fmt.Errorf("%w: type %q", ErrBadPayload, pl.Type)
	}
}

// ToPattern converts a validated single payload.
func (pl Payload) ToPattern() (pattern.Pattern, error) {
	if pl.Type != TypeSingle {
		return nil, fmt.Errorf("%w: not a single pattern", ErrBadPayload)
	}
	if err := pl.Validate(); err != nil {
		return nil, err
	}
	return toBytes(pl.Pattern), nil
}

// ToAnimation converts a validated animation payload.
func (pl Payload) ToAnimation() (pattern.Animation, error) {
	if pl.Type != TypeAnimation {
		return nil, fmt.Errorf("%w: not an animation", ErrBadPayload)
	}
	if err := pl.Validate(); err != nil {
		return nil, err
	}
	a := make(pattern.Animation, len(pl.Patterns))
	for i, rows := range pl.Patterns {
		a[i] = toBytes(rows)
	}
	return a, nil
}

// CleanName strips characters that are unsafe in filenames.
func CleanName(name string) string {
	return strings.TrimSpace(filenameRe.ReplaceAllString(name, ""))
}

// Save writes the payload under dir. An empty name yields a timestamped one.
// Overwrite policy is the caller's; Save replaces silently.
func Save(dir, name string, pl Payload) (string, error) {
	if err := pl.Validate(); err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	if name = CleanName(name); name == "" {
		name = fmt.Sprintf("%s_%d", pl.Type, time.Now().Unix())
	}
	if !strings.HasSuffix(name, ".json") {
		name += ".json"
	}
	path := filepath.Join(dir, name)
	b, err := json.MarshalIndent(pl, "", "    ")
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return "", err
	}
	return path, nil
}

// Load reads and validates one payload document.
func Load(path string) (Payload, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Payload{}, err
	}
	var pl Payload
	if err := json.Unmarshal(b, &pl); err != nil {
		return Payload{}, fmt.Errorf("%s: %w", path, err)
	}
	if err := pl.Validate(); err != nil {
		return Payload{}, fmt.Errorf("%s: %w", path, err)
	}
	return pl, nil
}

// List splits the saved documents in dir by type. Unreadable documents are
// skipped.
func List(dir string) (singles, animations []string, err error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, nil
		}
		return nil, nil, err
	}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		pl, err := Load(filepath.Join(dir, e.Name()))
		if err != nil {
			continue
		}
		switch pl.Type {
		case TypeSingle:
			singles = append(singles, e.Name())
		case TypeAnimation:
			animations = append(animations, e.Name())
		}
	}
	return singles, animations, nil
}

func checkRows(rows []int) error {
	if len(rows) != pattern.Size {
		return fmt.Errorf("%w: %d rows", ErrBadPayload, len(rows))
	}
	for _, v := range rows {
		if v < 0 || v > 255 {
			return fmt.Errorf("%w: row value %d", ErrBadPayload, v)
		}
	}
	return nil
}

func toInts(p pattern.Pattern) []int {
	out := make([]int, len(p))
	for i, b := range p {
		out[i] = int(b)
	}
	return out
}

func toBytes(rows []int) pattern.Pattern {
	p := make(pattern.Pattern, len(rows))
	for i, v := range rows {
		p[i] = byte(v)
	}
	return p
}
