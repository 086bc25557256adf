// Package stream reassembles streaming chat responses from the agent
// runtime. The runtime emits newline-delimited "data: <json>" frames in
// one of two wire formats, chosen by which agent framework the backend
// was deployed with; an Extractor turns those frames into a running
// concatenation of displayable text.
package stream

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// Framework names accepted by ForFramework. They match the
// AGENT_FRAMEWORK value the stack bakes into the frontend environment.
const (
	FrameworkStrands   = "strands"
	FrameworkLangGraph = "langgraph"
)

// paragraphBreak separates consecutive messages within one streaming turn.
const paragraphBreak = "\n\n"

// UpdateFunc receives the new accumulator value each time it changes.
type UpdateFunc func(text string)

// Extractor consumes one raw line from the response body and returns the
// updated accumulator. Implementations are pure: the accumulator is owned
// by the caller, no event ever removes or reorders text, and onUpdate is
// invoked at most once per line and only when the value changed.
// Malformed or unrecognized events leave the accumulator untouched.
type Extractor interface {
	Feed(acc, line string, onUpdate UpdateFunc) string
}

// ForFramework returns the extractor for the named agent framework. A nil
// logger disables diagnostics.
func ForFramework(framework string, log *zap.Logger) (Extractor, error) {
	switch strings.ToLower(strings.TrimSpace(framework)) {
	case FrameworkStrands:
		return NewStrandsExtractor(log), nil
	case FrameworkLangGraph:
		return NewLangGraphExtractor(log), nil
	default:
		return nil, fmt.Errorf("unknown agent framework %q (valid: %s, %s)", framework, FrameworkStrands, FrameworkLangGraph)
	}
}
