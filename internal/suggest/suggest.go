// Package suggest compares the vocabulary of a resume against a job
// description and reports which job keywords the resume is missing.
package suggest

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"

	"resumeforge/internal/types"
)

const (
	DefaultTopN      = 25
	DefaultMinLength = 3
)

// Options tunes keyword extraction. Zero values fall back to the defaults.
type Options struct {
	TopN      int
	MinLength int
}

var (
	whitespace = regexp.MustCompile(`\s+`)
	// + and # survive so that c++ and c# stay distinct keywords
	disallowed = regexp.MustCompile(`[^a-z0-9+# ]+`)
)

var stopwords = toSet(`a about above after again against all also am an and any are as at be because been
before being below between both but by can could did do does doing down during each etc few for from
further get had has have having he her here hers him his how i if in into is it its itself just least
like may me might more most must my no nor not now of off on once only or other our ours out over own
per please plus same she should so some such than that the their theirs them then there these they this
those through to too under until up upon us very via was we well were what when where which while who
whom why will with within without would yet you your yours able across ability etc using use used work
working role team teams join years year experience strong including include includes new looking
responsibilities requirements required preferred skills candidate ideal company`)

func toSet(words string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, w := range strings.Fields(words) {
		set[w] = struct{}{}
	}
	return set
}

// Analyze returns the keyword report for resumeText against jobText.
// The result depends only on its inputs.
func Analyze(resumeText, jobText string, opts Options) types.SuggestionReport {
	if opts.TopN <= 0 {
		opts.TopN = DefaultTopN
	}
	if opts.MinLength <= 0 {
		opts.MinLength = DefaultMinLength
	}

	keywords := rankKeywords(tokenize(jobText, opts.MinLength), opts.TopN)

	resumeWords := make(map[string]struct{})
	for _, tok := range tokenize(resumeText, opts.MinLength) {
		resumeWords[tok] = struct{}{}
	}

	report := types.SuggestionReport{
		Keywords:    keywords,
		Matched:     []string{},
		Missing:     []string{},
		Suggestions: []string{},
	}
	for _, kw := range keywords {
		if _, ok := resumeWords[kw]; ok {
			report.Matched = append(report.Matched, kw)
		} else {
			report.Missing = append(report.Missing, kw)
		}
	}

	if len(keywords) > 0 {
		score := float64(len(report.Matched)) / float64(len(keywords)) * 100
		report.Score = math.Round(score*10) / 10
	}
	report.Suggestions = suggestions(report.Missing)
	return report
}

// tokenize lowercases text, strips punctuation and drops stopwords and
// tokens shorter than minLength
func tokenize(text string, minLength int) []string {
	text = strings.ToLower(text)
	text = whitespace.ReplaceAllString(text, " ")
	text = disallowed.ReplaceAllString(text, "")

	var tokens []string
	for _, tok := range strings.Fields(text) {
		if len(tok) < minLength {
			continue
		}
		if _, stop := stopwords[tok]; stop {
			continue
		}
		tokens = append(tokens, tok)
	}
	return tokens
}

// rankKeywords orders tokens by frequency, ties alphabetically, and keeps topN
func rankKeywords(tokens []string, topN int) []string {
	counts := make(map[string]int)
	for _, tok := range tokens {
		counts[tok]++
	}

	keywords := make([]string, 0, len(counts))
	for tok := range counts {
		keywords = append(keywords, tok)
	}
	sort.Slice(keywords, func(i, j int) bool {
		if counts[keywords[i]] != counts[keywords[j]] {
			return counts[keywords[i]] > counts[keywords[j]]
		}
		return keywords[i] < keywords[j]
	})

	if len(keywords) > topN {
		keywords = keywords[:topN]
	}
	return keywords
}

func suggestions(missing []string) []string {
	out := make([]string, 0, len(missing))
	for _, kw := range missing {
		out = append(out, fmt.Sprintf("Add %q to a bullet or your skills section if it reflects your experience", kw))
	}
	return out
}
