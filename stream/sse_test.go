package stream

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractData(t *testing.T) {
	tests := []struct {
		name    string
		line    string
		want    string
		wantOK  bool
	}{
		{name: "payload line", line: `data: {"a":1}`, want: `{"a":1}`, wantOK: true},
		{name: "payload with trailing whitespace", line: "data: hello \t", want: "hello", wantOK: true},
		{name: "empty line", line: "", wantOK: false},
		{name: "whitespace only", line: "   \t", wantOK: false},
		{name: "keepalive with no payload", line: "data: ", wantOK: false},
		{name: "missing prefix", line: `{"a":1}`, wantOK: false},
		{name: "event field line", line: "event: message", wantOK: false},
		{name: "comment line", line: ": keepalive", wantOK: false},
		{name: "prefix without space", line: "data:{}", wantOK: false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := ExtractData(tc.line)
			assert.Equal(t, tc.wantOK, ok)
			assert.Equal(t, tc.want, got)
		})
	}
}
