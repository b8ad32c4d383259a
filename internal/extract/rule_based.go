// Package extract implements the rule-based L1 extractor: the engine's
// default, pluggable strategy for turning raw L0 bytes into mentions and a
// free-preview summary (spec §4.M, §3 Mention/L1Summary).
package extract

import (
	"sort"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/nodalync/engine/internal/manifest"
	"github.com/nodalync/engine/internal/primitives"
)

// defaultMinSentenceLength and defaultMaxEntities match the reference
// extractor's own MVP defaults.
const (
	defaultMinSentenceLength = 10
	defaultMaxEntities       = 10
)

// RuleBasedExtractor classifies sentences by keyword heuristics and
// extracts capitalized-word entity spans, with no ML dependency. It is the
// engine's default ops.Extractor implementation.
type RuleBasedExtractor struct {
	MinSentenceLength int
	MaxEntities       int
}

// NewRuleBasedExtractor returns an extractor with the reference defaults.
func NewRuleBasedExtractor() *RuleBasedExtractor {
	return &RuleBasedExtractor{MinSentenceLength: defaultMinSentenceLength, MaxEntities: defaultMaxEntities}
}

// Extract turns data into an L1 summary plus its mentions. Non-UTF-8
// content (binary) yields an empty mention set rather than an error, the
// same degrade-gracefully rule the reference extractor applies.
func (r *RuleBasedExtractor) Extract(hash primitives.Hash, data []byte, at primitives.Timestamp) (manifest.L1Summary, []manifest.Mention, error) {
	if len(data) > 0 && !utf8.Valid(data) {
		return manifest.L1Summary{SourceL0Hash: hash}, nil, nil
	}

	minLen := r.MinSentenceLength
	if minLen == 0 {
		minLen = defaultMinSentenceLength
	}
	maxEnt := r.MaxEntities
	if maxEnt == 0 {
		maxEnt = defaultMaxEntities
	}

	clean := stripMarkdown(string(data))
	sentences := splitSentences(clean)

	var mentions []manifest.Mention
	for _, s := range sentences {
		if len(s.text) < minLen {
			continue
		}
		classification := classifySentence(s.text)
		entities := extractEntities(s.text, maxEnt)

		idInput := s.text + ":" + strconv.Itoa(s.paragraph)
		id := primitives.ContentHash([]byte(idInput))
		quote := truncate(s.text, manifest.MaxQuoteLen)

		mentions = append(mentions, manifest.Mention{
			ID:          id,
			ContentText: truncate(s.text, manifest.MaxMentionTextLen),
			SourceLocation: manifest.SourceLocation{
				LocationType: "paragraph",
				Reference:    strconv.Itoa(s.paragraph),
				Quote:        &quote,
			},
			Classification: classification,
			Confidence:     manifest.Explicit,
			Entities:       entities,
		})
	}

	summary := buildSummary(hash, mentions)
	return summary, mentions, nil
}


// buildSummary rolls the first few mentions and their entities into a free
// preview (spec §3 L1Summary): capped mention list, deduplicated entity
// topics, and a short joined-sentence summary string.
func buildSummary(hash primitives.Hash, mentions []manifest.Mention) manifest.L1Summary {
	preview := mentions
	if len(preview) > manifest.MaxPreviewMentions {
		preview = preview[:manifest.MaxPreviewMentions]
	}

	topicCount := make(map[string]int)
	var topicOrder []string
	for _, m := range mentions {
		for _, e := range m.Entities {
			if _, ok := topicCount[e]; !ok {
				topicOrder = append(topicOrder, e)
			}
			topicCount[e]++
		}
	}
	sort.SliceStable(topicOrder, func(i, j int) bool { return topicCount[topicOrder[i]] > topicCount[topicOrder[j]] })
	if len(topicOrder) > manifest.MaxPrimaryTopics {
		topicOrder = topicOrder[:manifest.MaxPrimaryTopics]
	}

	var b strings.Builder
	for i, m := range preview {
		if i > 0 {
			b.WriteString(" ")
		}
		b.WriteString(m.ContentText)
	}

	return manifest.L1Summary{
		SourceL0Hash:    hash,
		TotalMentions:   len(mentions),
		PreviewMentions: preview,
		PrimaryTopics:   topicOrder,
		Summary:         truncate(b.String(), manifest.MaxSummaryLen),
	}
}

type sentence struct {
	paragraph int
	text      string
}

// splitSentences breaks text into paragraph-numbered sentences on ".", "!",
// "?", treating blank lines as paragraph breaks.
func splitSentences(text string) []sentence {
	var out []sentence
	var current strings.Builder
	paragraph := 1

	flush := func() {
		if current.Len() > 0 {
			out = append(out, sentence{paragraph: paragraph, text: current.String()})
			current.Reset()
		}
	}

	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			flush()
			paragraph++
			continue
		}
		for _, piece := range splitOnTerminators(trimmed) {
			if piece == "" {
				continue
			}
			if current.Len() > 0 {
				current.WriteString(" ")
			}
			current.WriteString(piece)
			if endsInTerminator(piece) {
				flush()
			}
		}
	}
	flush()
	return out
}

func endsInTerminator(s string) bool {
	if s == "" {
		return false
	}
	last := s[len(s)-1]
	return last == '.' || last == '!' || last == '?'
}

// splitOnTerminators splits text on sentence terminators while keeping the
// terminator attached to the preceding piece.
func splitOnTerminators(text string) []string {
	var out []string
	var current strings.Builder
	for _, r := range text {
		current.WriteRune(r)
		if r == '.' || r == '!' || r == '?' {
			out = append(out, strings.TrimSpace(current.String()))
			current.Reset()
		}
	}
	if strings.TrimSpace(current.String()) != "" {
		out = append(out, strings.TrimSpace(current.String()))
	}
	return out
}

// classifySentence applies the reference extractor's keyword heuristics,
// checked in order: result, claim, observation, definition, quoted
// attribution (treated as observation), statistic, defaulting to claim.
func classifySentence(s string) manifest.MentionClassification {
	lower := strings.ToLower(s)

	switch {
	case strings.Contains(lower, "we found"), strings.Contains(lower, "results show"), strings.Contains(lower, "data indicates"):
		return manifest.Result
	case strings.Contains(lower, "claim"), strings.Contains(lower, "argue"), strings.Contains(lower, "assert"), strings.Contains(lower, "believe"):
		return manifest.Claim
	case strings.Contains(lower, "observed"), strings.Contains(lower, "measured"), strings.Contains(lower, "recorded"), strings.Contains(lower, "noted"):
		return manifest.Observation
	case strings.Contains(lower, "define"), strings.Contains(lower, "definition"), strings.Contains(lower, "is a"), strings.Contains(lower, "refers to"):
		return manifest.Definition
	case strings.Contains(lower, "said"), strings.Contains(lower, "stated"), strings.Contains(lower, "according to"):
		return manifest.Observation
	case strings.Contains(lower, "statistic"), strings.Contains(lower, "percent"), strings.Contains(lower, "%"), hasDigit(lower):
		return manifest.Statistic
	default:
		return manifest.Claim
	}
}

func hasDigit(s string) bool {
	for _, r := range s {
		if unicode.IsDigit(r) {
			return true
		}
	}
	return false
}

// extractEntities collects capitalized-word spans, skipping a stop list of
// common capitalized words (sentence-initial "The", pronouns, auxiliaries,
// conjunctions), deduplicates, sorts, and caps the result at max.
func extractEntities(s string, max int) []string {
	var entities []string
	var current strings.Builder

	flush := func() {
		if current.Len() > 1 {
			entities = append(entities, current.String())
		}
		current.Reset()
	}

	for _, word := range strings.Fields(s) {
		clean := strings.TrimFunc(word, func(r rune) bool { return !unicode.IsLetter(r) && !unicode.IsDigit(r) })
		if clean == "" {
			continue
		}
		first := rune(clean[0])
		if unicode.IsUpper(first) && !isCommonWord(clean) {
			if current.Len() > 0 {
				current.WriteString(" ")
			}
			current.WriteString(clean)
		} else {
			flush()
		}
	}
	flush()

	sort.Strings(entities)
	entities = dedup(entities)
	if len(entities) > max {
		entities = entities[:max]
	}
	return entities
}

func dedup(in []string) []string {
	out := in[:0]
	var last string
	for i, s := range in {
		if i == 0 || s != last {
			out = append(out, s)
			last = s
		}
	}
	return out
}

var commonWords = map[string]struct{}{
	"The": {}, "A": {}, "An": {}, "This": {}, "That": {}, "These": {}, "Those": {},
	"I": {}, "We": {}, "You": {}, "He": {}, "She": {}, "It": {}, "They": {},
	"Is": {}, "Are": {}, "Was": {}, "Were": {}, "Be": {}, "Been": {}, "Being": {},
	"Have": {}, "Has": {}, "Had": {}, "Do": {}, "Does": {}, "Did": {},
	"If": {}, "When": {}, "Where": {}, "Why": {}, "How": {}, "What": {}, "Which": {},
	"And": {}, "Or": {}, "But": {}, "So": {}, "Yet": {}, "For": {}, "Nor": {},
	"In": {}, "On": {}, "At": {}, "To": {}, "From": {}, "With": {}, "By": {},
	"However": {}, "Therefore": {}, "Moreover": {}, "Furthermore": {},
}

func isCommonWord(word string) bool {
	_, ok := commonWords[word]
	return ok
}

// truncate shortens s to at most max bytes, appending "..." when cut.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	if max <= 3 {
		return s[:max]
	}
	return s[:max-3] + "..."
}

// stripMarkdown removes heading markers, blockquote markers, bold/inline-
// code markers, and link syntax, matching the reference extractor's
// cleanup pass ahead of sentence splitting.
func stripMarkdown(text string) string {
	var b strings.Builder
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		clean := trimmed
		switch {
		case strings.HasPrefix(trimmed, "#"):
			clean = strings.TrimSpace(strings.TrimLeft(trimmed, "#"))
		case strings.HasPrefix(trimmed, ">"):
			clean = strings.TrimSpace(strings.TrimLeft(trimmed, ">"))
		}
		clean = strings.ReplaceAll(clean, "**", "")
		clean = strings.ReplaceAll(clean, "__", "")
		clean = strings.ReplaceAll(clean, "`", "")
		clean = stripLinkSyntax(clean)
		b.WriteString(clean)
		b.WriteString("\n")
	}
	return b.String()
}

// stripLinkSyntax converts markdown links "[text](url)" to just "text",
// leaving bracketed text that isn't followed by a parenthesized target
// untouched.
func stripLinkSyntax(text string) string {
	var b strings.Builder
	runes := []rune(text)
	i := 0
	for i < len(runes) {
		if runes[i] != '[' {
			b.WriteRune(runes[i])
			i++
			continue
		}
		j := i + 1
		var linkText strings.Builder
		foundClose := false
		for ; j < len(runes); j++ {
			if runes[j] == ']' {
				foundClose = true
				break
			}
			linkText.WriteRune(runes[j])
		}
		if foundClose && j+1 < len(runes) && runes[j+1] == '(' {
			k := j + 2
			for ; k < len(runes); k++ {
				if runes[k] == ')' {
					break
				}
			}
			b.WriteString(linkText.String())
			i = k + 1
		} else {
			b.WriteRune('[')
			b.WriteString(linkText.String())
			if foundClose {
				b.WriteRune(']')
			}
			i = j + 1
		}
	}
	return b.String()
}

