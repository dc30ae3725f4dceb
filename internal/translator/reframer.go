package translator

import (
	"bytes"
	"context"
	"errors"
	"io"

	"github.com/tidwall/gjson"

	"github.com/nvbach/llm-bridge/internal/sseutil"
)

// reframer re-segments a live SSE byte stream from the source protocol's
// encoding into the target protocol's encoding. The only state carried
// across reads is one incomplete-line buffer: bytes are appended, split on
// newline, and the final fragment (possibly incomplete) is retained for the
// next read. Complete lines are dispatched in arrival order — ordering
// within and across reads is the core correctness property.
//
// Backpressure is structural: output goes straight to w, so a slow consumer
// blocks the write, which delays the next upstream read. Nothing is
// buffered beyond the partial line.
type reframer struct {
	src     Adapter
	tgt     Adapter
	pending []byte
}

func newReframer(src, tgt Adapter) *reframer {
	return &reframer{src: src, tgt: tgt}
}

// run consumes in until EOF or failure, writing reframed events to w.
// Abnormal source termination is reported as one in-band error event
// followed by a clean close; the error return is reserved for write
// failures (consumer gone) and context cancellation, which must stop the
// upstream read immediately.
func (r *reframer) run(ctx context.Context, in io.Reader, w io.Writer) error {
	buf := make([]byte, 4096)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		n, readErr := in.Read(buf)
		if n > 0 {
			if err := r.feed(buf[:n], w); err != nil {
				return err
			}
		}
		if readErr != nil {
			if errors.Is(readErr, io.EOF) {
				return r.drain(w)
			}
			if err := ctx.Err(); err != nil {
				// Consumer is gone; nobody is left to see an error event.
				return err
			}
			// Abnormal termination: one synthetic error event, then done.
			_, werr := w.Write(sseutil.ErrorEvent(readErr))
			return werr
		}
	}
}

// feed appends data to the pending buffer and dispatches every complete line.
func (r *reframer) feed(data []byte, w io.Writer) error {
	r.pending = append(r.pending, data...)
	for {
		i := bytes.IndexByte(r.pending, '\n')
		if i < 0 {
			return nil
		}
		line := bytes.TrimSuffix(r.pending[:i], []byte("\r"))
		if err := r.processLine(line, w); err != nil {
			return err
		}
		r.pending = append(r.pending[:0], r.pending[i+1:]...)
	}
}

// drain flushes a non-empty residual buffer as a final line.
func (r *reframer) drain(w io.Writer) error {
	if len(r.pending) == 0 {
		return nil
	}
	line := bytes.TrimSuffix(r.pending, []byte("\r"))
	r.pending = nil
	return r.processLine(line, w)
}

// processLine implements the per-line dispatch:
//   - blank line: re-emitted unchanged (event separator)
//   - data line with empty or [DONE] payload: passed through unchanged,
//     followed by the event-terminating blank line
//   - data line with a parseable JSON payload: translated through the
//     chunk adapters and re-framed; a nil target event emits nothing
//   - data line that fails to parse: raw passthrough — one malformed event
//     never drops or fails the stream
//   - any other field line (event:, id:, retry:): passthrough, no separator
func (r *reframer) processLine(line []byte, w io.Writer) error {
	trimmed := bytes.TrimSpace(line)
	if len(trimmed) == 0 {
		_, err := w.Write([]byte("\n"))
		return err
	}

	if !sseutil.DataPrefix(trimmed) {
		return writeLine(w, line)
	}

	payload := sseutil.Payload(trimmed)
	if len(payload) == 0 || sseutil.IsDone(trimmed) {
		if err := writeLine(w, line); err != nil {
			return err
		}
		_, err := w.Write([]byte("\n"))
		return err
	}

	if !gjson.ValidBytes(payload) {
		return writeLine(w, line)
	}

	chunk, err := r.src.ChunkToIR(payload)
	if err != nil {
		return writeLine(w, line)
	}
	if chunk == nil {
		return nil
	}
	out, err := r.tgt.ChunkFromIR(chunk)
	if err != nil {
		return writeLine(w, line)
	}
	if out == nil {
		return nil
	}
	_, err = w.Write(sseutil.Event(out))
	return err
}

func writeLine(w io.Writer, line []byte) error {
	if _, err := w.Write(line); err != nil {
		return err
	}
	_, err := w.Write([]byte("\n"))
	return err
}
