// Package translator implements the cross-protocol message translator: the
// vendor-neutral IR, one adapter per supported protocol, the SSE reframer,
// and the orchestrator composing them. The translator is stateless between
// invocations; the only shared data are read-only tables passed in at
// construction.
package translator

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/nvbach/llm-bridge/internal/protocol"
)

// ErrUnsupportedProtocol is returned when a caller passes a protocol tag
// outside the supported set. No partial work is performed.
var ErrUnsupportedProtocol = errors.New("translator: unsupported protocol")

// Options carries the read-only configuration the orchestrator is built
// with. Aliases is the per-target model-identifier remap table:
// exact-string lookup, absent keys pass through unchanged.
type Options struct {
	Aliases map[protocol.Protocol]map[string]string
}

// Translator is the orchestrator. Safe for concurrent use: the adapter and
// alias tables are never mutated after construction.
type Translator struct {
	adapters map[protocol.Protocol]Adapter
	aliases  map[protocol.Protocol]map[string]string
}

// New constructs a Translator over the closed protocol set.
func New(opts Options) *Translator {
	return &Translator{
		adapters: newAdapterTable(),
		aliases:  opts.Aliases,
	}
}

func (t *Translator) adapter(p protocol.Protocol) (Adapter, error) {
	a, ok := t.adapters[p]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedProtocol, p)
	}
	return a, nil
}

// TranslateRequest converts a parsed request body from the source protocol
// to the target protocol: to_ir then from_ir, errors propagate unchanged.
// Model remapping is applied after from_ir, table-driven per target.
func (t *Translator) TranslateRequest(body []byte, source, target protocol.Protocol, opts RequestOptions) ([]byte, error) {
	src, err := t.adapter(source)
	if err != nil {
		return nil, err
	}
	tgt, err := t.adapter(target)
	if err != nil {
		return nil, err
	}
	req, err := src.RequestToIR(body)
	if err != nil {
		return nil, err
	}
	out, err := tgt.RequestFromIR(req, opts)
	if err != nil {
		return nil, err
	}
	return t.remapModel(out, target)
}

// TranslateResponse converts a completed (non-streaming) response body.
func (t *Translator) TranslateResponse(body []byte, source, target protocol.Protocol) ([]byte, error) {
	src, err := t.adapter(source)
	if err != nil {
		return nil, err
	}
	tgt, err := t.adapter(target)
	if err != nil {
		return nil, err
	}
	resp, err := src.ResponseToIR(body)
	if err != nil {
		return nil, err
	}
	return tgt.ResponseFromIR(resp)
}

// TranslateStream wires the reframer between src and a pipe and returns the
// read end immediately; translation runs incrementally as bytes arrive.
// The pipe gives structural backpressure: a slow consumer blocks the
// reframer's write, which delays the next upstream read. When the consumer
// closes the returned reader or ctx is cancelled, the upstream body is
// closed and the goroutine exits — nothing is retried.
func (t *Translator) TranslateStream(ctx context.Context, src io.ReadCloser, source, target protocol.Protocol) (io.ReadCloser, error) {
	from, err := t.adapter(source)
	if err != nil {
		return nil, err
	}
	to, err := t.adapter(target)
	if err != nil {
		return nil, err
	}

	pr, pw := io.Pipe()
	// A cancelled context must release both handles even while the
	// reframer is parked in a pipe write: failing the read end fails the
	// pending write, run returns, and the deferred Close runs.
	stop := context.AfterFunc(ctx, func() {
		pr.CloseWithError(context.Cause(ctx))
	})
	go func() {
		defer stop()
		defer src.Close()
		r := newReframer(from, to)
		pw.CloseWithError(r.run(ctx, src, pw))
	}()
	return pr, nil
}

// remapModel rewrites the model identifier in an emitted body through the
// target's alias table. Bodies without a model field (Gemini carries the
// model in the URL) pass through untouched.
func (t *Translator) remapModel(body []byte, target protocol.Protocol) ([]byte, error) {
	table := t.aliases[target]
	if len(table) == 0 {
		return body, nil
	}
	model := gjson.GetBytes(body, "model")
	if !model.Exists() {
		return body, nil
	}
	mapped, ok := table[model.String()]
	if !ok {
		return body, nil
	}
	return sjson.SetBytes(body, "model", mapped)
}
