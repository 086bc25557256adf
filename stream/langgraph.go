package stream

import (
	"bytes"
	"encoding/json"
	"strings"

	"go.uber.org/zap"
)

// chunkTypeAssistant marks the LangGraph message type that carries
// incremental assistant output. Tool messages and other types carry no
// displayable text.
const chunkTypeAssistant = "AIMessageChunk"

// blockTypeText is the content block type holding text.
const blockTypeText = "text"

// langGraphEnvelope is a LangGraph streaming event. Content is either a
// block sequence (assistant chunks) or a plain string (tool results);
// only the sequence form is displayable.
type langGraphEnvelope struct {
	Type    string          `json:"type"`
	Content json.RawMessage `json:"content"`
}

type langGraphBlock struct {
	Type  string `json:"type"`
	Text  string `json:"text"`
	Index int    `json:"index"`
}

// LangGraphExtractor extracts displayable text from LangGraph runtime
// events.
type LangGraphExtractor struct {
	log *zap.Logger
}

// NewLangGraphExtractor creates a LangGraph extractor. A nil logger
// disables diagnostics.
func NewLangGraphExtractor(log *zap.Logger) *LangGraphExtractor {
	if log == nil {
		log = zap.NewNop()
	}
	return &LangGraphExtractor{log: log}
}

// Feed processes one raw SSE line and returns the updated accumulator.
// Only AIMessageChunk events with a content block sequence contribute: an
// empty sequence is a message boundary, text blocks append their text in
// order, and everything else is a no-op.
func (e *LangGraphExtractor) Feed(acc, line string, onUpdate UpdateFunc) string {
	payload, ok := ExtractData(line)
	if !ok {
		return acc
	}

	var env langGraphEnvelope
	if err := json.Unmarshal([]byte(payload), &env); err != nil {
		e.log.Debug("skipping malformed langgraph event", zap.Error(err))
		return acc
	}
	if env.Type != chunkTypeAssistant {
		return acc
	}

	// Content must be a sequence; a plain string (or null) is not one.
	trimmed := bytes.TrimSpace(env.Content)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return acc
	}
	var blocks []langGraphBlock
	if err := json.Unmarshal(trimmed, &blocks); err != nil {
		e.log.Debug("skipping malformed langgraph content", zap.Error(err))
		return acc
	}

	if len(blocks) == 0 {
		if acc == "" {
			return acc
		}
		acc += paragraphBreak
		if onUpdate != nil {
			onUpdate(acc)
		}
		return acc
	}

	var text strings.Builder
	for _, block := range blocks {
		if block.Type == blockTypeText {
			text.WriteString(block.Text)
		}
	}
	if text.Len() == 0 {
		return acc
	}

	acc += text.String()
	if onUpdate != nil {
		onUpdate(acc)
	}
	return acc
}
