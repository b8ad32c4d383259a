package extract

import (
	"strings"
	"testing"

	"github.com/nodalync/engine/internal/manifest"
	"github.com/nodalync/engine/internal/primitives"
	"github.com/stretchr/testify/require"
)

func TestExtractSimpleText(t *testing.T) {
	e := NewRuleBasedExtractor()
	hash := primitives.ContentHash([]byte("doc"))
	data := []byte("This is a test sentence. It contains some facts. Results show improvement.")

	_, mentions, err := e.Extract(hash, data, 1000)
	require.NoError(t, err)
	require.NotEmpty(t, mentions)

	var found bool
	for _, m := range mentions {
		if strings.Contains(m.ContentText, "Results show") {
			found = true
		}
	}
	require.True(t, found)
}

func TestExtractBinaryContentYieldsNoMentions(t *testing.T) {
	e := NewRuleBasedExtractor()
	hash := primitives.ContentHash([]byte("bin"))
	data := []byte{0xFF, 0xFE, 0x00, 0x01}

	summary, mentions, err := e.Extract(hash, data, 1000)
	require.NoError(t, err)
	require.Empty(t, mentions)
	require.Equal(t, 0, summary.TotalMentions)
}

func TestClassifySentence(t *testing.T) {
	require.Equal(t, manifest.Result, classifySentence("We found that the system works."))
	require.Equal(t, manifest.Claim, classifySentence("They argue that this is correct."))
	require.Equal(t, manifest.Observation, classifySentence("We observed significant changes."))
	require.Equal(t, manifest.Definition, classifySentence("A protocol is a set of rules."))
	require.Equal(t, manifest.Statistic, classifySentence("The statistic shows 75% improvement."))
}

func TestExtractEntities(t *testing.T) {
	entities := extractEntities("Apple and Microsoft announced partnerships with OpenAI.", defaultMaxEntities)
	require.Contains(t, entities, "Apple")
	require.Contains(t, entities, "Microsoft")
	require.Contains(t, entities, "OpenAI")
}

func TestSplitSentences(t *testing.T) {
	sentences := splitSentences("First sentence. Second sentence! Third sentence?")
	require.Len(t, sentences, 3)
	require.Contains(t, sentences[0].text, "First")
	require.Contains(t, sentences[1].text, "Second")
	require.Contains(t, sentences[2].text, "Third")
}

func TestTruncate(t *testing.T) {
	require.Equal(t, "short", truncate("short", 10))
	require.Equal(t, "a very ...", truncate("a very long string", 10))
}

func TestStripMarkdownHeadings(t *testing.T) {
	require.Equal(t, "Heading", strings.TrimSpace(stripMarkdown("# Heading")))
	require.Equal(t, "Sub Heading", strings.TrimSpace(stripMarkdown("## Sub Heading")))
}

func TestStripMarkdownBold(t *testing.T) {
	require.Equal(t, "bold text", strings.TrimSpace(stripMarkdown("**bold** text")))
	require.Equal(t, "also bold", strings.TrimSpace(stripMarkdown("__also bold__")))
}

func TestStripMarkdownBlockquote(t *testing.T) {
	require.Equal(t, "quoted text", strings.TrimSpace(stripMarkdown("> quoted text")))
}

func TestStripMarkdownLinks(t *testing.T) {
	require.Equal(t, "link text", strings.TrimSpace(stripMarkdown("[link text](http://example.com)")))
}

func TestStripMarkdownBackticks(t *testing.T) {
	require.Equal(t, "code", strings.TrimSpace(stripMarkdown("`code`")))
}

func TestStripLinkSyntaxNotALink(t *testing.T) {
	require.Equal(t, "[not a link]", stripLinkSyntax("[not a link]"))
}

func TestExtractStripsMarkdown(t *testing.T) {
	e := NewRuleBasedExtractor()
	hash := primitives.ContentHash([]byte("doc2"))
	data := []byte("# The Impact of Technology\n\nResults show **significant** improvement to the whole system.")

	_, mentions, err := e.Extract(hash, data, 1000)
	require.NoError(t, err)
	for _, m := range mentions {
		require.NotContains(t, m.ContentText, "#")
		require.NotContains(t, m.ContentText, "**")
	}
}

func TestExtractMinSentenceLengthFiltersShortSentences(t *testing.T) {
	e := NewRuleBasedExtractor()
	hash := primitives.ContentHash([]byte("doc3"))
	_, mentions, err := e.Extract(hash, []byte("Ok."), 1000)
	require.NoError(t, err)
	require.Empty(t, mentions)
}
