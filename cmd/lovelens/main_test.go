package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/liao/love-lens/internal/analysis"
)

func TestPrintReport(t *testing.T) {
	svc := analysis.NewService(analysis.DefaultOptions(), nil, nil)
	r := svc.Analyze("12/08/23, 10:15 pm - Alice: I love you ❤️\n12/08/23, 10:16 pm - Bob: miss you too")

	var buf bytes.Buffer
	printReport(&buf, r, analysis.HighlightResult{
		Highlights: r.Highlights,
		Source:     analysis.SourceLocal,
		Notice:     "AI analysis failed. Using local analysis instead.",
	})

	out := buf.String()
	assert.Contains(t, out, "Messages: 2  Participants: 2")
	assert.Contains(t, out, "Alice: 1 messages")
	assert.Contains(t, out, "1 emoji")
	assert.Contains(t, out, "Highlights (local):")
	assert.Contains(t, out, "AI analysis failed. Using local analysis instead.")
	assert.Contains(t, out, "[8/12/2023 10:15 PM] Alice: I love you ❤️")
}
