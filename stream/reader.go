package stream

import (
	"bufio"
	"context"
	"io"
)

// maxLineBytes bounds a single SSE frame. Agent responses arrive as many
// small deltas, but a single tool result can be large.
const maxLineBytes = 1024 * 1024

// Reader drains a streaming response body through an extractor. One
// Reader handles one streaming turn; the accumulator starts empty and is
// returned when the stream ends.
type Reader struct {
	extractor Extractor
}

// NewReader creates a reader for one streaming turn.
func NewReader(extractor Extractor) *Reader {
	return &Reader{extractor: extractor}
}

// Drain reads r line by line until EOF or context cancellation, feeding
// each line to the extractor and invoking onUpdate as text accumulates.
// It returns the final accumulator; on a transport error or cancellation
// the accumulator holds the last valid value.
func (rd *Reader) Drain(ctx context.Context, r io.Reader, onUpdate UpdateFunc) (string, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	acc := ""
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return acc, err
		}
		acc = rd.extractor.Feed(acc, scanner.Text(), onUpdate)
	}
	if err := scanner.Err(); err != nil {
		return acc, err
	}
	return acc, nil
}
