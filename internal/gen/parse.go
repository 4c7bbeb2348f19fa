package gen

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/coreman2200/matrixctl/internal/pattern"
)

// ErrParse marks a malformed service reply. It is consumed by the retry
// loop, never propagated to the caller.
var ErrParse = errors.New("reply does not contain a valid pattern")

var (
	binaryRowRe = regexp.MustCompile(`B[01]{8}`)
	digitRunRe  = regexp.MustCompile(`\d+`)
	scoreRe     = regexp.MustCompile(`Score:\s*(\d+)/10`)
)

// ParseReply extracts one frame from a free-form reply. Two formats are
// accepted: eight B-prefixed binary rows, or eight integers in [0,255] taken
// from the maximal digit runs in the text. Fewer than eight values, or any
// value out of range, is a parse failure — never a short frame.
func ParseReply(raw string) (pattern.Pattern, error) {
	if rows := binaryRowRe.FindAllString(strings.ReplaceAll(raw, ",", ""), -1); len(rows) >= pattern.Size {
		p := make(pattern.Pattern, 0, pattern.Size)
		for _, row := range rows[:pattern.Size] {
			v, err := strconv.ParseUint(row[1:], 2, 8)
			if err != nil {
				return nil, fmt.Errorf("%w: binary row %q", ErrParse, row)
			}
			p = append(p, byte(v))
		}
		return p, nil
	}

	runs := digitRunRe.FindAllString(raw, -1)
	if len(runs) < pattern.Size {
		return nil, fmt.Errorf("%w: found %d of %d numbers", ErrParse, len(runs), pattern.Size)
	}
	p := make(pattern.Pattern, 0, pattern.Size)
	for _, run := range runs[:pattern.Size] {
		v, err := strconv.Atoi(run)
		if err != nil || v < 0 || v > 255 {
			return nil, fmt.Errorf("%w: value %q out of range", ErrParse, run)
		}
		p = append(p, byte(v))
	}
	return p, nil
}

// ParseScore extracts a "Score: N/10" verdict from an evaluation reply.
func ParseScore(raw string) (int, bool) {
	m := scoreRe.FindStringSubmatch(raw)
	if m == nil {
		return 0, false
	}
	score, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return score, true
}

// snippet trims a raw reply for log lines.
func snippet(raw string) string {
	raw = strings.ReplaceAll(strings.TrimSpace(raw), "\n", " ")
	if len(raw) > 120 {
		return raw[:120] + "…"
	}
	return raw
}
