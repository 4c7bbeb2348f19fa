// Package pattern holds the row-encoded bitmap representation of an 8x8 LED
// matrix frame and the pure conversions on it: bit grids, symmetry checks,
// mirroring and the deterministic fallback shape.
package pattern

import (
	"errors"
	"strings"
)

// Size is the edge length of the matrix, in LEDs.
const Size = 8

// Pattern is one frame: exactly Size row bytes, MSB = leftmost LED.
type Pattern []byte

// Animation is an ordered, non-empty sequence of frames.
type Animation []Pattern

var (
	ErrBadLength = errors.New("pattern must have exactly 8 row bytes")
	ErrNoFrames  = errors.New("animation has no frames")
)

// Validate reports whether p has the fixed frame shape.
func (p Pattern) Validate() error {
	if len(p) != Size {
		return ErrBadLength
	}
	return nil
}

// Clone returns an independent copy. Patterns are replaced wholesale, never
// mutated in place, so every edit operation starts from a clone.
func (p Pattern) Clone() Pattern {
	out := make(Pattern, len(p))
	copy(out, p)
	return out
}

// Equal reports value equality of two frames.
func (p Pattern) Equal(o Pattern) bool {
	if len(p) != len(o) {
		return false
	}
	for i := range p {
		if p[i] != o[i] {
			return false
		}
	}
	return true
}

// Bits expands the row bytes into a row-major boolean grid.
func (p Pattern) Bits() [Size][Size]bool {
	var g [Size][Size]bool
	for r := 0; r < Size && r < len(p); r++ {
		for c := 0; c < Size; c++ {
			g[r][c] = p[r]>>(Size-1-c)&1 == 1
		}
	}
	return g
}

// IsSymmetric reports whether both axis symmetries hold simultaneously:
// every row is a bit-palindrome and the row sequence equals its own reverse.
func (p Pattern) IsSymmetric() bool {
	for i, row := range p {
		if reverseByte(row) != row {
			return false
		}
		if p[len(p)-1-i] != row {
			return false
		}
	}
	return true
}

// MirrorHorizontal reverses each row's bits independently.
func (p Pattern) MirrorHorizontal() Pattern {
	out := make(Pattern, len(p))
	for i, row := range p {
		out[i] = reverseByte(row)
	}
	return out
}

// MirrorVertical reverses the row order.
func (p Pattern) MirrorVertical() Pattern {
	out := make(Pattern, len(p))
	for i, row := range p {
		out[len(p)-1-i] = row
	}
	return out
}

// Lit counts the number of lit LEDs in the frame.
func (p Pattern) Lit() int {
	n := 0
	for _, row := range p {
		for b := row; b != 0; b &= b - 1 {
			n++
		}
	}
	return n
}

// Render draws the frame as text, one row per line, lit LEDs as blocks.
func (p Pattern) Render() string {
	var sb strings.Builder
	for _, row := range p {
		for c := 0; c < Size; c++ {
			if row>>(Size-1-c)&1 == 1 {
				sb.WriteRune('█')
			} else {
				sb.WriteRune('•')
			}
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

// Fallback is the fixed diagonal cross substituted whenever generation cannot
// produce a valid result, so the system always has a displayable frame.
func Fallback() Pattern {
	p := make(Pattern, Size)
	for i := 0; i < Size; i++ {
		p[i] = 1<<(Size-1-i) | 1<<i
	}
	return p
}

// FallbackAnimation repeats the fallback frame n times.
func FallbackAnimation(n int) Animation {
	if n < 1 {
		n = 1
	}
	a := make(Animation, n)
	for i := range a {
		a[i] = Fallback()
	}
	return a
}

// Validate checks every frame and the non-empty invariant. The device frame
// limit is enforced at the wire layer, not here.
func (a Animation) Validate() error {
	if len(a) == 0 {
		return ErrNoFrames
	}
	for _, f := range a {
		if err := f.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Clone deep-copies all frames.
func (a Animation) Clone() Animation {
	out := make(Animation, len(a))
	for i, f := range a {
		out[i] = f.Clone()
	}
	return out
}

// Equal reports frame-by-frame value equality.
func (a Animation) Equal(o Animation) bool {
	if len(a) != len(o) {
		return false
	}
	for i := range a {
		if !a[i].Equal(o[i]) {
			return false
		}
	}
	return true
}

// MirrorHorizontal mirrors every frame left-to-right.
func (a Animation) MirrorHorizontal() Animation {
	out := make(Animation, len(a))
	for i, f := range a {
		out[i] = f.MirrorHorizontal()
	}
	return out
}

// MirrorVertical reverses the frame order.
func (a Animation) MirrorVertical() Animation {
	out := make(Animation, len(a))
	for i, f := range a {
		out[len(a)-1-i] = f.Clone()
	}
	return out
}

func reverseByte(b byte) byte {
	b = b>>4 | b<<4
	b = b>>2&0x33 | b<<2&0xCC
	b = b>>1&0x55 | b<<1&0xAA
	return b
}
