package translator

import (
	"github.com/nvbach/llm-bridge/internal/protocol"
	"github.com/nvbach/llm-bridge/internal/translator/ir"
)

// RequestOptions carries the per-call context the routing layer supplies to
// request conversion: the target platform's max-token ceiling (0 = none)
// and whether the caller opted into prompt caching.
type RequestOptions struct {
	MaxTokensCeiling int
	PromptCaching    bool
}

// Adapter converts one protocol's wire payloads to and from the IR.
// Request/Response methods operate on whole JSON documents; Chunk methods
// operate on the JSON payload of a single SSE event. ChunkToIR returns a
// nil chunk for events that carry nothing translatable (heartbeats);
// ChunkFromIR returns nil bytes when the chunk has no encoding in the
// target protocol. The reframer emits nothing in either case.
type Adapter interface {
	Protocol() protocol.Protocol

	RequestToIR(body []byte) (*ir.ChatRequest, error)
	RequestFromIR(req *ir.ChatRequest, opts RequestOptions) ([]byte, error)

	ResponseToIR(body []byte) (*ir.ChatResponse, error)
	ResponseFromIR(resp *ir.ChatResponse) ([]byte, error)

	ChunkToIR(payload []byte) (*ir.StreamChunk, error)
	ChunkFromIR(chunk *ir.StreamChunk) ([]byte, error)
}

// newAdapterTable builds the closed dispatch table over the protocol enum.
// Construction covers every protocol.All() entry, so an unmapped protocol
// is impossible to reach at dispatch time.
func newAdapterTable() map[protocol.Protocol]Adapter {
	table := make(map[protocol.Protocol]Adapter, len(protocol.All()))
	for _, p := range protocol.All() {
		switch p.Family() {
		case protocol.FamilyAnthropic:
			table[p] = &anthropicAdapter{}
		case protocol.FamilyGemini:
			table[p] = &geminiAdapter{}
		default:
			table[p] = newOpenAIAdapter(p)
		}
	}
	return table
}
