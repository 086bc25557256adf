package stream

import (
	"encoding/json"

	"go.uber.org/zap"
)

// strandsEnvelope is the Bedrock Converse event envelope emitted by a
// Strands runtime. Exactly one of the inner variants is set per event;
// decoding checks them in display priority order and anything unset falls
// through to "unrecognized".
type strandsEnvelope struct {
	Event *strandsEvent `json:"event"`
}

type strandsEvent struct {
	MessageStart      *strandsMessageStart `json:"messageStart"`
	ContentBlockDelta *strandsBlockDelta   `json:"contentBlockDelta"`
	ContentBlockStop  json.RawMessage      `json:"contentBlockStop"`
	MessageStop       *strandsMessageStop  `json:"messageStop"`
	Metadata          json.RawMessage      `json:"metadata"`
}

type strandsMessageStart struct {
	Role string `json:"role"`
}

type strandsBlockDelta struct {
	Delta struct {
		Text string `json:"text"`
	} `json:"delta"`
}

type strandsMessageStop struct {
	StopReason string `json:"stopReason"`
}

// StrandsExtractor extracts displayable text from Strands runtime events.
type StrandsExtractor struct {
	log *zap.Logger
}

// NewStrandsExtractor creates a Strands extractor. A nil logger disables
// diagnostics.
func NewStrandsExtractor(log *zap.Logger) *StrandsExtractor {
	if log == nil {
		log = zap.NewNop()
	}
	return &StrandsExtractor{log: log}
}

// Feed processes one raw SSE line and returns the updated accumulator.
// A messageStart with text already accumulated inserts a paragraph break;
// a contentBlockDelta appends its text delta; contentBlockStop,
// messageStop, metadata, and unrecognized events are no-ops.
func (e *StrandsExtractor) Feed(acc, line string, onUpdate UpdateFunc) string {
	payload, ok := ExtractData(line)
	if !ok {
		return acc
	}

	var env strandsEnvelope
	if err := json.Unmarshal([]byte(payload), &env); err != nil {
		e.log.Debug("skipping malformed strands event", zap.Error(err))
		return acc
	}
	if env.Event == nil {
		return acc
	}

	switch {
	case env.Event.MessageStart != nil:
		if acc == "" {
			return acc
		}
		acc += paragraphBreak
	case env.Event.ContentBlockDelta != nil:
		text := env.Event.ContentBlockDelta.Delta.Text
		if text == "" {
			return acc
		}
		acc += text
	default:
		return acc
	}

	if onUpdate != nil {
		onUpdate(acc)
	}
	return acc
}
