package stream

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLangGraphExtractorAssistantChunks(t *testing.T) {
	e := NewLangGraphExtractor(nil)

	acc, updates := feedAll(t, e, "", []string{
		`data: {"type":"AIMessageChunk","content":[{"type":"text","text":"Hi","index":0}]}`,
		`data: {"type":"AIMessageChunk","content":[{"type":"text","text":" there","index":0}]}`,
		`data: {"type":"ToolMessage","content":"result"}`,
	})

	assert.Equal(t, "Hi there", acc)
	assert.Equal(t, []string{"Hi", "Hi there"}, updates)
}

func TestLangGraphExtractorMessageBoundary(t *testing.T) {
	e := NewLangGraphExtractor(nil)

	// Empty content array with an empty accumulator: nothing to separate.
	acc := e.Feed("", `data: {"type":"AIMessageChunk","content":[]}`, func(string) {
		t.Fatal("callback must not fire when the accumulator is unchanged")
	})
	assert.Equal(t, "", acc)

	acc, updates := feedAll(t, e, "Hello", []string{
		`data: {"type":"AIMessageChunk","content":[]}`,
	})
	assert.Equal(t, "Hello\n\n", acc)
	assert.Equal(t, []string{"Hello\n\n"}, updates)
}

func TestLangGraphExtractorMixedBlocks(t *testing.T) {
	e := NewLangGraphExtractor(nil)

	// Tool-use blocks interleaved with text: only text blocks contribute,
	// in order.
	line := `data: {"type":"AIMessageChunk","content":[` +
		`{"type":"text","text":"a","index":0},` +
		`{"type":"tool_use","id":"t1","index":1},` +
		`{"type":"text","text":"b","index":2}]}`

	acc := e.Feed("", line, nil)
	assert.Equal(t, "ab", acc)
}

func TestLangGraphExtractorNoOpEvents(t *testing.T) {
	tests := []struct {
		name string
		line string
	}{
		{name: "tool message with string content", line: `data: {"type":"ToolMessage","content":"tool output"}`},
		{name: "assistant chunk with string content", line: `data: {"type":"AIMessageChunk","content":"not a sequence"}`},
		{name: "assistant chunk with null content", line: `data: {"type":"AIMessageChunk","content":null}`},
		{name: "assistant chunk with missing content", line: `data: {"type":"AIMessageChunk"}`},
		{name: "only tool blocks", line: `data: {"type":"AIMessageChunk","content":[{"type":"tool_use","id":"t1"}]}`},
		{name: "empty text blocks", line: `data: {"type":"AIMessageChunk","content":[{"type":"text","text":""}]}`},
		{name: "unknown message type", line: `data: {"type":"SystemMessage","content":[{"type":"text","text":"x"}]}`},
		{name: "malformed json", line: `data: {not valid json`},
		{name: "malformed block sequence", line: `data: {"type":"AIMessageChunk","content":[{"type":}]}`},
		{name: "not a data line", line: `: keepalive`},
	}

	e := NewLangGraphExtractor(nil)
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			acc := e.Feed("before", tc.line, func(string) {
				t.Fatal("callback must not fire for a no-op event")
			})
			assert.Equal(t, "before", acc)
		})
	}
}

func TestLangGraphExtractorIdempotentNoOps(t *testing.T) {
	e := NewLangGraphExtractor(nil)

	acc := e.Feed("", `data: {"type":"AIMessageChunk","content":[{"type":"text","text":"stable"}]}`, nil)
	for i := 0; i < 3; i++ {
		acc = e.Feed(acc, `data: {"type":"ToolMessage","content":"noise"}`, nil)
	}
	assert.Equal(t, "stable", acc)
}
