package translator

import (
	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"github.com/tidwall/gjson"

	"github.com/nvbach/llm-bridge/internal/protocol"
	"github.com/nvbach/llm-bridge/internal/translator/ir"
)

// Anthropic SSE event types the chunk adapter understands. Everything else
// (message_start, ping, content_block_start/stop, ...) is a no-op chunk.
const (
	anthropicEventContentDelta = "content_block_delta"
	anthropicEventMessageStop  = "message_stop"
)

// anthropicAdapter converts the Messages API wire shape. Its request shape
// carries `system` as a first-class top-level field.
//
// System hoisting: from_ir emits IR system as the top-level field; when IR
// system is unset, the first system-role message is promoted to the
// top-level field and removed from the emitted sequence (extract-and-strip,
// first occurrence only).
type anthropicAdapter struct{}

func (a *anthropicAdapter) Protocol() protocol.Protocol { return protocol.Anthropic }

func (a *anthropicAdapter) RequestToIR(body []byte) (*ir.ChatRequest, error) {
	parsed := gjson.ParseBytes(body)
	req := &ir.ChatRequest{
		Model:       parsed.Get("model").String(),
		Messages:    parseMessages(parsed.Get("messages")),
		System:      parsed.Get("system").String(),
		MaxTokens:   ir.DefaultMaxTokens,
		Temperature: ir.DefaultTemperature,
		Stream:      parsed.Get("stream").Bool(),
	}
	if v := parsed.Get("max_tokens"); v.Exists() {
		req.MaxTokens = int(v.Int())
	}
	if v := parsed.Get("temperature"); v.Exists() {
		req.Temperature = v.Float()
	}
	return req, nil
}

func (a *anthropicAdapter) RequestFromIR(req *ir.ChatRequest, opts RequestOptions) ([]byte, error) {
	system := req.System
	msgs := req.Messages
	if system == "" {
		for i, m := range msgs {
			if m.Role == ir.RoleSystem {
				system = m.Text()
				msgs = append(append([]ir.Message{}, msgs[:i]...), msgs[i+1:]...)
				break
			}
		}
	}
	msgs = applyCacheControl(msgs, req.Model, opts.PromptCaching)

	maxTokens := req.MaxTokens
	if opts.MaxTokensCeiling > 0 && maxTokens > opts.MaxTokensCeiling {
		maxTokens = opts.MaxTokensCeiling
	}

	root := map[string]any{
		"model":       req.Model,
		"messages":    buildMessages(msgs, func(m ir.Message) bool { return m.Role == ir.RoleSystem }),
		"max_tokens":  maxTokens,
		"temperature": req.Temperature,
		"stream":      req.Stream,
	}
	if system != "" {
		root["system"] = system
	}
	return sonic.Marshal(root)
}

func (a *anthropicAdapter) ResponseToIR(body []byte) (*ir.ChatResponse, error) {
	parsed := gjson.ParseBytes(body)

	// Single choice; the body text is the first content block's text.
	// Default finish_reason in this direction is "stop" — note the
	// asymmetry with ResponseFromIR, which defaults to "end_turn".
	finish := parsed.Get("stop_reason").String()
	if finish == "" {
		finish = "stop"
	}

	prompt := int(parsed.Get("usage.input_tokens").Int())
	completion := int(parsed.Get("usage.output_tokens").Int())
	usage := ir.Usage{}
	if parsed.Get("usage").Exists() {
		usage = ir.Usage{
			PromptTokens:     prompt,
			CompletionTokens: completion,
			TotalTokens:      prompt + completion,
		}
	}

	return &ir.ChatResponse{
		ID:    parsed.Get("id").String(),
		Model: parsed.Get("model").String(),
		Choices: []ir.Choice{{
			Index: 0,
			Message: ir.Message{
				Role:    ir.RoleAssistant,
				Content: parsed.Get("content.0.text").String(),
			},
			FinishReason: finish,
		}},
		Usage: usage,
	}, nil
}

func (a *anthropicAdapter) ResponseFromIR(resp *ir.ChatResponse) ([]byte, error) {
	id := resp.ID
	if id == "" {
		id = "msg_" + uuid.NewString()
	}
	text := ""
	stopReason := "end_turn"
	if len(resp.Choices) > 0 {
		text = resp.Choices[0].Message.Text()
		if fr := resp.Choices[0].FinishReason; fr != "" {
			stopReason = fr
		}
	}
	return sonic.Marshal(map[string]any{
		"id":          id,
		"type":        "message",
		"role":        string(ir.RoleAssistant),
		"model":       resp.Model,
		"content":     []any{map[string]any{"type": "text", "text": text}},
		"stop_reason": stopReason,
		"usage": map[string]any{
			"input_tokens":  resp.Usage.PromptTokens,
			"output_tokens": resp.Usage.CompletionTokens,
		},
	})
}

func (a *anthropicAdapter) ChunkToIR(payload []byte) (*ir.StreamChunk, error) {
	parsed := gjson.ParseBytes(payload)
	switch parsed.Get("type").String() {
	case anthropicEventContentDelta:
		return &ir.StreamChunk{Choices: []ir.ChunkChoice{{
			Index: 0,
			Delta: ir.Delta{Content: ir.Str(parsed.Get("delta.text").String())},
		}}}, nil
	case anthropicEventMessageStop:
		return &ir.StreamChunk{Choices: []ir.ChunkChoice{{Index: 0, FinishReason: "stop"}}}, nil
	}
	// Any other event type (message_start, ping, content_block_start, ...)
	// carries nothing translatable: nil chunk, no event emitted.
	return nil, nil
}

// ChunkFromIR emits a content_block_delta for content-carrying chunks and a
// message_stop for finish-only chunks. Chunks with neither produce no event.
func (a *anthropicAdapter) ChunkFromIR(chunk *ir.StreamChunk) ([]byte, error) {
	if len(chunk.Choices) == 0 {
		return nil, nil
	}
	c := chunk.Choices[0]
	if c.Delta.Content != nil {
		return sonic.Marshal(map[string]any{
			"type":  anthropicEventContentDelta,
			"index": 0,
			"delta": map[string]any{"type": "text_delta", "text": *c.Delta.Content},
		})
	}
	if c.FinishReason != "" {
		return sonic.Marshal(map[string]any{"type": anthropicEventMessageStop})
	}
	return nil, nil
}
