package stream

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func feedAll(t *testing.T, e Extractor, acc string, lines []string) (string, []string) {
	t.Helper()
	var updates []string
	for _, line := range lines {
		acc = e.Feed(acc, line, func(text string) {
			updates = append(updates, text)
		})
	}
	return acc, updates
}

func TestStrandsExtractorStreamingTurn(t *testing.T) {
	e := NewStrandsExtractor(nil)

	acc, updates := feedAll(t, e, "", []string{
		`data: {"event":{"messageStart":{"role":"assistant"}}}`,
		`data: {"event":{"contentBlockDelta":{"delta":{"text":"Hi"}}}}`,
		`data: {"event":{"contentBlockDelta":{"delta":{"text":" there"}}}}`,
		`data: {"event":{"contentBlockStop":{}}}`,
		`data: {"event":{"messageStop":{"stopReason":"end_turn"}}}`,
	})

	// No leading break: the accumulator was empty at messageStart.
	assert.Equal(t, "Hi there", acc)
	assert.Equal(t, []string{"Hi", "Hi there"}, updates)
}

func TestStrandsExtractorMidTurnBoundary(t *testing.T) {
	e := NewStrandsExtractor(nil)

	acc, updates := feedAll(t, e, "Hello", []string{
		`data: {"event":{"messageStart":{"role":"assistant"}}}`,
	})

	assert.Equal(t, "Hello\n\n", acc)
	assert.Equal(t, []string{"Hello\n\n"}, updates)
}

func TestStrandsExtractorNoOpEvents(t *testing.T) {
	tests := []struct {
		name string
		line string
	}{
		{name: "content block stop", line: `data: {"event":{"contentBlockStop":{"index":0}}}`},
		{name: "message stop", line: `data: {"event":{"messageStop":{"stopReason":"end_turn"}}}`},
		{name: "metadata", line: `data: {"event":{"metadata":{"usage":{"inputTokens":12}}}}`},
		{name: "empty delta text", line: `data: {"event":{"contentBlockDelta":{"delta":{"text":""}}}}`},
		{name: "unknown event variant", line: `data: {"event":{"somethingNew":{}}}`},
		{name: "no event field", line: `data: {"status":"ok"}`},
		{name: "malformed json", line: `data: {not valid json`},
		{name: "not a data line", line: `event: ping`},
		{name: "blank line", line: ``},
	}

	e := NewStrandsExtractor(nil)
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			acc := e.Feed("before", tc.line, func(string) {
				t.Fatal("callback must not fire for a no-op event")
			})
			assert.Equal(t, "before", acc)
		})
	}
}

func TestStrandsExtractorAppendOnly(t *testing.T) {
	e := NewStrandsExtractor(nil)

	lines := []string{
		`data: {"event":{"messageStart":{"role":"assistant"}}}`,
		`data: {"event":{"contentBlockDelta":{"delta":{"text":"first"}}}}`,
		`data: {"event":{"messageStop":{"stopReason":"end_turn"}}}`,
		`data: {"event":{"messageStart":{"role":"assistant"}}}`,
		`data: {"event":{"contentBlockDelta":{"delta":{"text":"second"}}}}`,
	}

	acc := ""
	prev := ""
	for _, line := range lines {
		acc = e.Feed(acc, line, nil)
		require.True(t, len(acc) >= len(prev), "accumulator shrank")
		require.Equal(t, prev, acc[:len(prev)], "existing text was rewritten")
		prev = acc
	}
	assert.Equal(t, "first\n\nsecond", acc)
}
