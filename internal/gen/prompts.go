package gen

import (
	"fmt"
	"strings"

	"github.com/coreman2200/matrixctl/internal/pattern"
)

// Prompt texts for the completion service. The output contract they state is
// what ParseReply enforces.

const systemGenerate = "Generate a visually meaningful 8x8 LED pattern. " +
	"Output 8 integers (0-255) separated by commas, no extra text."

const systemOptimize = "Optimize the given pattern or animation for symmetry and simplicity. " +
	"Output 8 integers (0-255) per frame, separated by commas, no extra text."

const systemEvaluate = "You judge 8x8 LED patterns against a description. " +
	"Reply with 'Score: N/10' on the first line, then one short line of feedback."

func userGenerate(desc string) string {
	return fmt.Sprintf("Description: '%s'. Generate pattern.", desc)
}

func userGenerateFrame(desc string, frame, total int) string {
	return fmt.Sprintf("Description: '%s' (Frame %d of %d). Generate frame.", desc, frame, total)
}

func userOptimize(p pattern.Pattern) string {
	return fmt.Sprintf("Original: %s. Optimize.", joinRows(p))
}

func userOptimizeFrame(p pattern.Pattern, frame int) string {
	return fmt.Sprintf("Original frame %d: %s. Optimize.", frame, joinRows(p))
}

func userEvaluate(desc, rendered string) string {
	return fmt.Sprintf("Description: '%s'.\nPattern:\n%s", desc, rendered)
}

func userRefine(p pattern.Pattern, feedback string) string {
	return fmt.Sprintf("Current pattern: %s. Feedback: %s. Generate an improved pattern.", joinRows(p), feedback)
}

func joinRows(p pattern.Pattern) string {
	rows := make([]string, len(p))
	for i, b := range p {
		rows[i] = fmt.Sprintf("%d", b)
	}
	return strings.Join(rows, ",")
}
