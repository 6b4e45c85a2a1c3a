package ai

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseHighlights_WellFormed(t *testing.T) {
	reply := `Here are the moments:

**Alice** - *12 Aug 2023*
"I love you more than pizza"
💕 A playful declaration of love

**Bob** - *14 Aug 2023*
"I promise I'll always be there"
✨ A heartfelt promise
`
	got := ParseHighlights(reply)
	require.Len(t, got, 2)

	assert.Equal(t, "Alice", got[0].Sender)
	assert.Equal(t, "12 Aug 2023", got[0].Date)
	assert.Equal(t, "I love you more than pizza", got[0].Text)
	assert.Equal(t, "💕 A playful declaration of love", got[0].Explanation)

	assert.Equal(t, "Bob", got[1].Sender)
	assert.Equal(t, "I promise I'll always be there", got[1].Text)
	assert.Equal(t, "✨ A heartfelt promise", got[1].Explanation)
}

func TestParseHighlights_DefaultsAndFallbackText(t *testing.T) {
	reply := "```\n**Alice** - *sometime*\n'you make every day better'\n```"
	got := ParseHighlights(reply)
	require.Len(t, got, 1)
	assert.Equal(t, "you make every day better", got[0].Text)
	assert.Equal(t, defaultExplanation, got[0].Explanation)
	assert.Equal(t, "sometime", got[0].Date)
}

func TestParseHighlights_SmartQuotes(t *testing.T) {
	got := ParseHighlights("**Bob** - *1 Jan*\n“good morning sunshine”")
	require.Len(t, got, 1)
	assert.Equal(t, "good morning sunshine", got[0].Text)
}

func TestParseHighlights_DropsIncompleteRecords(t *testing.T) {
	reply := `"orphan quote before any header"
**Alice** - *12 Aug*
💕 explanation but no text
**Bob** - *13 Aug*
"kept"`
	got := ParseHighlights(reply)
	require.Len(t, got, 1)
	assert.Equal(t, "Bob", got[0].Sender)
	assert.Equal(t, "kept", got[0].Text)
}

func TestParseHighlights_TruncatesText(t *testing.T) {
	long := strings.Repeat("x", 400)
	got := ParseHighlights("**Alice** - *today*\n\"" + long + "\"")
	require.Len(t, got, 1)
	assert.Len(t, got[0].Text, maxHighlightText)
}

func TestParseHighlights_Unparseable(t *testing.T) {
	assert.Empty(t, ParseHighlights(""))
	assert.Empty(t, ParseHighlights("I could not find any special moments in this chat. Sorry!"))
}
