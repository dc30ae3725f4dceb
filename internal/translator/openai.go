package translator

import (
	"github.com/bytedance/sonic"
	"github.com/tidwall/gjson"

	"github.com/nvbach/llm-bridge/internal/protocol"
	"github.com/nvbach/llm-bridge/internal/translator/ir"
)

// openAIAdapter covers the three protocols that share the Chat Completions
// wire shape: openai, groq and openrouter. The shape is the IR's reference
// shape, so both response directions are near-identity. The variants differ
// only in request post-processing: groq gets the platform max-token ceiling
// from RequestOptions, openrouter additionally handles cache-control
// directives for Claude-family models.
//
// System hoisting: an IR system field is re-emitted as a leading
// system-role message, since the wire shape has no top-level system field.
type openAIAdapter struct {
	proto        protocol.Protocol
	cacheControl bool
}

func newOpenAIAdapter(p protocol.Protocol) *openAIAdapter {
	return &openAIAdapter{proto: p, cacheControl: p == protocol.OpenRouter}
}

func (a *openAIAdapter) Protocol() protocol.Protocol { return a.proto }

func (a *openAIAdapter) RequestToIR(body []byte) (*ir.ChatRequest, error) {
	parsed := gjson.ParseBytes(body)
	req := &ir.ChatRequest{
		Model:       parsed.Get("model").String(),
		Messages:    parseMessages(parsed.Get("messages")),
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

func (a *openAIAdapter) RequestFromIR(req *ir.ChatRequest, opts RequestOptions) ([]byte, error) {
	msgs := req.Messages
	if a.cacheControl {
		msgs = applyCacheControl(msgs, req.Model, opts.PromptCaching)
	}

	out := make([]any, 0, len(msgs)+1)
	if req.System != "" {
		out = append(out, map[string]any{"role": string(ir.RoleSystem), "content": req.System})
	}
	for _, m := range buildMessages(msgs, nil) {
		out = append(out, m)
	}

	maxTokens := req.MaxTokens
	if opts.MaxTokensCeiling > 0 && maxTokens > opts.MaxTokensCeiling {
		maxTokens = opts.MaxTokensCeiling
	}

	return sonic.Marshal(map[string]any{
		"model":       req.Model,
		"messages":    out,
		"max_tokens":  maxTokens,
		"temperature": req.Temperature,
		"stream":      req.Stream,
	})
}

func (a *openAIAdapter) ResponseToIR(body []byte) (*ir.ChatResponse, error) {
	parsed := gjson.ParseBytes(body)
	resp := &ir.ChatResponse{
		ID:    parsed.Get("id").String(),
		Model: parsed.Get("model").String(),
		Usage: ir.Usage{
			PromptTokens:     int(parsed.Get("usage.prompt_tokens").Int()),
			CompletionTokens: int(parsed.Get("usage.completion_tokens").Int()),
			TotalTokens:      int(parsed.Get("usage.total_tokens").Int()),
		},
	}
	for _, item := range parsed.Get("choices").Array() {
		choice := ir.Choice{
			Index:        int(item.Get("index").Int()),
			FinishReason: item.Get("finish_reason").String(),
			Message:      ir.Message{Role: ir.Role(item.Get("message.role").String())},
		}
		content := item.Get("message.content")
		if content.IsArray() {
			choice.Message.Parts = parseContentParts(content)
		} else {
			choice.Message.Content = content.String()
		}
		resp.Choices = append(resp.Choices, choice)
	}
	return resp, nil
}

func (a *openAIAdapter) ResponseFromIR(resp *ir.ChatResponse) ([]byte, error) {
	choices := make([]any, 0, len(resp.Choices))
	for _, c := range resp.Choices {
		choices = append(choices, map[string]any{
			"index":         c.Index,
			"message":       buildMessage(c.Message),
			"finish_reason": c.FinishReason,
		})
	}
	return sonic.Marshal(map[string]any{
		"id":      resp.ID,
		"object":  "chat.completion",
		"model":   resp.Model,
		"choices": choices,
		"usage": map[string]any{
			"prompt_tokens":     resp.Usage.PromptTokens,
			"completion_tokens": resp.Usage.CompletionTokens,
			"total_tokens":      resp.Usage.TotalTokens,
		},
	})
}

func (a *openAIAdapter) ChunkToIR(payload []byte) (*ir.StreamChunk, error) {
	parsed := gjson.ParseBytes(payload)
	chunk := &ir.StreamChunk{
		ID:    parsed.Get("id").String(),
		Model: parsed.Get("model").String(),
	}
	for _, item := range parsed.Get("choices").Array() {
		cc := ir.ChunkChoice{
			Index:        int(item.Get("index").Int()),
			FinishReason: item.Get("finish_reason").String(),
		}
		if role := item.Get("delta.role"); role.Exists() {
			cc.Delta.Role = ir.Role(role.String())
		}
		if content := item.Get("delta.content"); content.Exists() && content.Type != gjson.Null {
			cc.Delta.Content = ir.Str(content.String())
		}
		chunk.Choices = append(chunk.Choices, cc)
	}
	return chunk, nil
}

// ChunkFromIR re-emits every chunk, including empty-choice ones: the wire
// shape is the IR shape, so identity is the terminal-event policy here.
// The [DONE] sentinel never reaches the adapter; the reframer passes it
// through verbatim.
func (a *openAIAdapter) ChunkFromIR(chunk *ir.StreamChunk) ([]byte, error) {
	choices := make([]any, 0, len(chunk.Choices))
	for _, c := range chunk.Choices {
		delta := map[string]any{}
		if c.Delta.Role != "" {
			delta["role"] = string(c.Delta.Role)
		}
		if c.Delta.Content != nil {
			delta["content"] = *c.Delta.Content
		}
		choice := map[string]any{"index": c.Index, "delta": delta}
		if c.FinishReason != "" {
			choice["finish_reason"] = c.FinishReason
		} else {
			choice["finish_reason"] = nil
		}
		choices = append(choices, choice)
	}
	return sonic.Marshal(map[string]any{
		"id":      chunk.ID,
		"object":  "chat.completion.chunk",
		"model":   chunk.Model,
		"choices": choices,
	})
}
