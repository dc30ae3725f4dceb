// Package sseutil provides shared SSE (Server-Sent Events) byte-level
// helpers used by the reframer and the API streaming handlers.
package sseutil

import (
	"bytes"

	"github.com/bytedance/sonic"
)

// Pre-allocated byte slices for zero-copy comparisons.
var (
	doneMarker = []byte("[DONE]")
	dataPrefix = []byte("data:")
)

// DataPrefix reports whether line is a data field line.
func DataPrefix(line []byte) bool {
	return bytes.HasPrefix(bytes.TrimSpace(line), dataPrefix)
}

// Payload returns the trimmed payload of a data field line, or nil when the
// line is not a data line.
func Payload(line []byte) []byte {
	trimmed := bytes.TrimSpace(line)
	if !bytes.HasPrefix(trimmed, dataPrefix) {
		return nil
	}
	return bytes.TrimSpace(trimmed[len(dataPrefix):])
}

// IsDone reports whether line carries the stream-completion sentinel,
// either bare or as a data payload.
func IsDone(line []byte) bool {
	trimmed := bytes.TrimSpace(line)
	if bytes.Equal(trimmed, doneMarker) {
		return true
	}
	if bytes.HasPrefix(trimmed, dataPrefix) {
		return bytes.Equal(bytes.TrimSpace(trimmed[len(dataPrefix):]), doneMarker)
	}
	return false
}

// ErrorEvent formats one in-band error event. This is the only failure mode
// visible inside an otherwise-successful stream; the payload shape matches
// the OpenAI-style error envelope.
func ErrorEvent(err error) []byte {
	msg := "stream error"
	if err != nil {
		msg = err.Error()
	}
	payload, _ := sonic.Marshal(map[string]any{
		"error": map[string]any{"message": msg, "type": "server_error"},
	})
	return Event(payload)
}

// Event frames payload as a data line terminated by the event separator.
func Event(payload []byte) []byte {
	out := make([]byte, 0, len(payload)+8)
	out = append(out, "data: "...)
	out = append(out, payload...)
	out = append(out, "\n\n"...)
	return out
}
