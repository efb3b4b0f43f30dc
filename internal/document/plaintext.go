package document

import (
	"strings"
	"unicode"

	"resumeforge/internal/types"
)

const (
	headingStyle = "Heading1"
	bulletStyle  = "ListBullet"
)

// sectionKeywords mark a line as a section heading wherever they appear.
var sectionKeywords = []string{"EXPERIENCE", "EDUCATION", "SKILLS", "SUMMARY", "OBJECTIVE", "CONTACT"}

// plainBulletPrefixes are the glyphs that turn a plain-text line into a list item.
var plainBulletPrefixes = []string{"•", "-", "*"}

// TextParagraphs lays out free-form generated text as styled paragraphs.
// Sections are separated by blank lines and every non-empty line becomes a
// paragraph. Upper-case lines and lines naming a resume section become
// headings; lines starting with a bullet glyph become list items with the
// glyph removed.
func TextParagraphs(text string) []types.Paragraph {
	var out []types.Paragraph

	text = strings.ReplaceAll(text, "\r\n", "\n")
	for _, section := range strings.Split(text, "\n\n") {
		for _, line := range strings.Split(section, "\n") {
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			out = append(out, classifyLine(line))
		}
	}
	return out
}

// RenderText renders generated text with the TextParagraphs layout.
func RenderText(text string) ([]byte, error) {
	return Render(TextParagraphs(text))
}

func classifyLine(line string) types.Paragraph {
	if isHeadingLine(line) {
		return types.Paragraph{Style: headingStyle, Text: line}
	}
	for _, prefix := range plainBulletPrefixes {
		if rest, ok := strings.CutPrefix(line, prefix); ok {
			return types.Paragraph{Style: bulletStyle, Text: strings.TrimSpace(rest)}
		}
	}
	return types.Paragraph{Style: DefaultStyle, Text: line}
}

func isHeadingLine(line string) bool {
	if isUpper(line) {
		return true
	}
	upper := strings.ToUpper(line)
	for _, kw := range sectionKeywords {
		if strings.Contains(upper, kw) {
			return true
		}
	}
	return false
}

// isUpper reports whether line has at least one cased letter and no lower-case ones.
func isUpper(line string) bool {
	cased := false
	for _, r := range line {
		if unicode.IsLower(r) {
			return false
		}
		if unicode.IsUpper(r) {
			cased = true
		}
	}
	return cased
}
