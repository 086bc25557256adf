package stream

import "strings"

// dataPrefix marks an SSE payload line.
const dataPrefix = "data: "

// ExtractData returns the payload of an SSE data line. ok is false for
// blank lines, keepalives, and lines without the data prefix; malformed
// input is never an error, it simply produces no payload.
func ExtractData(line string) (payload string, ok bool) {
	if !strings.HasPrefix(line, dataPrefix) {
		return "", false
	}
	payload = strings.TrimSpace(strings.TrimPrefix(line, dataPrefix))
	if payload == "" {
		return "", false
	}
	return payload, true
}
