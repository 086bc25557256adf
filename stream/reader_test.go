package stream

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReaderDrainFullTurn(t *testing.T) {
	body := strings.Join([]string{
		`data: {"event":{"messageStart":{"role":"assistant"}}}`,
		`data: {"event":{"contentBlockDelta":{"delta":{"text":"Hi"}}}}`,
		``,
		`: keepalive`,
		`data: {"event":{"contentBlockDelta":{"delta":{"text":" there"}}}}`,
		`data: {"event":{"messageStop":{"stopReason":"end_turn"}}}`,
	}, "\n")

	rd := NewReader(NewStrandsExtractor(nil))
	var updates []string
	acc, err := rd.Drain(context.Background(), strings.NewReader(body), func(text string) {
		updates = append(updates, text)
	})
	require.NoError(t, err)

	assert.Equal(t, "Hi there", acc)
	assert.Equal(t, []string{"Hi", "Hi there"}, updates)
}

func TestReaderDrainMultiMessage(t *testing.T) {
	body := strings.Join([]string{
		`data: {"event":{"messageStart":{"role":"assistant"}}}`,
		`data: {"event":{"contentBlockDelta":{"delta":{"text":"first"}}}}`,
		`data: {"event":{"messageStop":{"stopReason":"tool_use"}}}`,
		`data: {"event":{"messageStart":{"role":"assistant"}}}`,
		`data: {"event":{"contentBlockDelta":{"delta":{"text":"second"}}}}`,
	}, "\n")

	rd := NewReader(NewStrandsExtractor(nil))
	acc, err := rd.Drain(context.Background(), strings.NewReader(body), nil)
	require.NoError(t, err)

	assert.Equal(t, "first\n\nsecond", acc)
}

func TestReaderDrainCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	body := strings.Join([]string{
		`data: {"event":{"contentBlockDelta":{"delta":{"text":"late"}}}}`,
	}, "\n")

	rd := NewReader(NewStrandsExtractor(nil))
	acc, err := rd.Drain(ctx, strings.NewReader(body), nil)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, "", acc)
}

func TestReaderDrainEmptyBody(t *testing.T) {
	rd := NewReader(NewLangGraphExtractor(nil))
	acc, err := rd.Drain(context.Background(), strings.NewReader(""), nil)
	require.NoError(t, err)
	assert.Equal(t, "", acc)
}
