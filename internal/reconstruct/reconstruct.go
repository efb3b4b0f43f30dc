// Package reconstruct regenerates a styled paragraph sequence by splicing
// generated bullet lines into the list-styled paragraphs of a source document.
//
// Only bullet content moves. Headings, body text and every other non-list
// paragraph are copied from the source verbatim, and non-bullet lines in the
// generated text are ignored. The output always has exactly one paragraph per
// source paragraph, in source order.
package reconstruct

import (
	"strings"

	"resumeforge/internal/types"
)

// bulletMarkers are the line prefixes that mark a generated line as a bullet.
// The marker is matched after trimming and removed whole.
var bulletMarkers = []string{"- ", "• "}

// Result is a reconstructed paragraph sequence plus substitution counters.
type Result struct {
	Paragraphs []types.Paragraph

	// Substituted counts list paragraphs whose text came from a bullet.
	Substituted int
	// Unfilled counts list paragraphs that kept their source text because
	// the bullets ran out.
	Unfilled int
	// Dropped counts bullets left over after every list paragraph was filled.
	Dropped int
}

// Stats converts the counters into the shared report shape.
func (r Result) Stats() types.ReconstructionStats {
	return types.ReconstructionStats{
		Paragraphs:  len(r.Paragraphs),
		Substituted: r.Substituted,
		Unfilled:    r.Unfilled,
		Dropped:     r.Dropped,
	}
}

// Reconstruct returns source with the text of its list-styled paragraphs
// replaced, in order, by the bullets found in replacement.
func Reconstruct(source []types.Paragraph, replacement string) []types.Paragraph {
	return Apply(source, replacement).Paragraphs
}

// Apply is Reconstruct with counters.
func Apply(source []types.Paragraph, replacement string) Result {
	queue := ExtractBullets(replacement)
	out := make([]types.Paragraph, 0, len(source))

	var res Result
	for _, p := range source {
		if !IsListStyle(p.Style) {
			out = append(out, p)
			continue
		}
		if len(queue) == 0 {
			res.Unfilled++
			out = append(out, p)
			continue
		}
		out = append(out, types.Paragraph{Style: p.Style, Text: queue[0]})
		queue = queue[1:]
		res.Substituted++
	}

	res.Paragraphs = out
	res.Dropped = len(queue)
	return res
}

// ExtractBullets returns the bullet texts of replacement in order, with the
// marker stripped. Lines without a recognized marker are skipped.
func ExtractBullets(replacement string) []string {
	var bullets []string
	for _, line := range strings.Split(replacement, "\n") {
		if text, ok := bulletText(line); ok {
			bullets = append(bullets, text)
		}
	}
	return bullets
}

func bulletText(line string) (string, bool) {
	trimmed := strings.TrimSpace(line)
	for _, marker := range bulletMarkers {
		if rest, ok := strings.CutPrefix(trimmed, marker); ok {
			return rest, true
		}
	}
	return "", false
}

// IsListStyle reports whether a paragraph style names a list item, that is,
// whether it starts with "list" in any letter case.
func IsListStyle(style string) bool {
	return strings.HasPrefix(strings.ToLower(style), "list")
}
