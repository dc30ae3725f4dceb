package translator

import (
	"strconv"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/tidwall/gjson"

	"github.com/nvbach/llm-bridge/internal/protocol"
	"github.com/nvbach/llm-bridge/internal/translator/ir"
)

// defaultGeminiModel is used when a Gemini request names no model (the
// model normally rides in the URL, not the body).
const defaultGeminiModel = "gemini-2.0-flash"

// geminiAdapter converts the generateContent wire shape. Messages map to
// contents entries of {role: user|model, parts: [{text}]}; the assistant
// role is spelled "model". Usage is never populated in either direction —
// the protocol does not report it and counts are never estimated.
//
// System hoisting: from_ir emits IR system as systemInstruction; when IR
// system is unset, the first system-role message is promoted instead
// (extract-and-strip, mirroring the Anthropic adapter).
type geminiAdapter struct{}

func (a *geminiAdapter) Protocol() protocol.Protocol { return protocol.Gemini }

func (a *geminiAdapter) RequestToIR(body []byte) (*ir.ChatRequest, error) {
	parsed := gjson.ParseBytes(body)
	req := &ir.ChatRequest{
		Model:       defaultGeminiModel,
		System:      joinParts(parsed.Get("systemInstruction.parts")),
		MaxTokens:   ir.DefaultMaxTokens,
		Temperature: ir.DefaultTemperature,
	}
	if v := parsed.Get("model"); v.Exists() && v.String() != "" {
		req.Model = v.String()
	}
	if v := parsed.Get("generationConfig.maxOutputTokens"); v.Exists() {
		req.MaxTokens = int(v.Int())
	}
	if v := parsed.Get("generationConfig.temperature"); v.Exists() {
		req.Temperature = v.Float()
	}
	for _, item := range parsed.Get("contents").Array() {
		role := ir.RoleUser
		if item.Get("role").String() == "model" {
			role = ir.RoleAssistant
		}
		// Parts collapse to a single text blob, empty-string join.
		req.Messages = append(req.Messages, ir.Message{
			Role:    role,
			Content: joinParts(item.Get("parts")),
		})
	}
	return req, nil
}

func (a *geminiAdapter) RequestFromIR(req *ir.ChatRequest, opts RequestOptions) ([]byte, error) {
	system := req.System
	contents := make([]any, 0, len(req.Messages))
	for _, m := range req.Messages {
		if m.Role == ir.RoleSystem {
			if system == "" {
				system = m.Text()
			}
			continue
		}
		role := "user"
		if m.Role == ir.RoleAssistant {
			role = "model"
		}
		contents = append(contents, map[string]any{
			"role":  role,
			"parts": []any{map[string]any{"text": m.Text()}},
		})
	}

	maxTokens := req.MaxTokens
	if opts.MaxTokensCeiling > 0 && maxTokens > opts.MaxTokensCeiling {
		maxTokens = opts.MaxTokensCeiling
	}

	root := map[string]any{
		"contents": contents,
		"generationConfig": map[string]any{
			"maxOutputTokens": maxTokens,
			"temperature":     req.Temperature,
		},
	}
	if system != "" {
		root["systemInstruction"] = map[string]any{
			"parts": []any{map[string]any{"text": system}},
		}
	}
	return sonic.Marshal(root)
}

func (a *geminiAdapter) ResponseToIR(body []byte) (*ir.ChatResponse, error) {
	parsed := gjson.ParseBytes(body)
	resp := &ir.ChatResponse{
		// Gemini responses carry no id; synthesize a distinguishable one.
		ID:    "chatcmpl-" + strconv.FormatInt(time.Now().UnixNano(), 10),
		Model: defaultGeminiModel,
	}
	if v := parsed.Get("modelVersion"); v.Exists() && v.String() != "" {
		resp.Model = v.String()
	}
	candidate := parsed.Get("candidates.0")
	if candidate.Exists() {
		resp.Choices = []ir.Choice{{
			Index: 0,
			Message: ir.Message{
				Role:    ir.RoleAssistant,
				Content: joinParts(candidate.Get("content.parts")),
			},
			FinishReason: strings.ToLower(candidate.Get("finishReason").String()),
		}}
	}
	return resp, nil
}

func (a *geminiAdapter) ResponseFromIR(resp *ir.ChatResponse) ([]byte, error) {
	text := ""
	finish := "STOP"
	if len(resp.Choices) > 0 {
		text = resp.Choices[0].Message.Text()
		if fr := resp.Choices[0].FinishReason; fr != "" {
			finish = strings.ToUpper(fr)
		}
	}
	return sonic.Marshal(map[string]any{
		"candidates": []any{map[string]any{
			"index": 0,
			"content": map[string]any{
				"role":  "model",
				"parts": []any{map[string]any{"text": text}},
			},
			"finishReason": finish,
		}},
	})
}

func (a *geminiAdapter) ChunkToIR(payload []byte) (*ir.StreamChunk, error) {
	parsed := gjson.ParseBytes(payload)
	chunk := &ir.StreamChunk{Model: parsed.Get("modelVersion").String()}
	candidate := parsed.Get("candidates.0")
	if !candidate.Exists() {
		return chunk, nil
	}
	cc := ir.ChunkChoice{Index: 0}
	if content := candidate.Get("content.parts"); content.Exists() {
		cc.Delta.Content = ir.Str(joinParts(content))
	}
	if fr := candidate.Get("finishReason"); fr.Exists() && fr.String() != "" {
		cc.FinishReason = strings.ToLower(fr.String())
	}
	chunk.Choices = []ir.ChunkChoice{cc}
	return chunk, nil
}

// ChunkFromIR mirrors the response direction on a single candidate. Chunks
// with neither content nor a finish reason produce no event.
func (a *geminiAdapter) ChunkFromIR(chunk *ir.StreamChunk) ([]byte, error) {
	if len(chunk.Choices) == 0 {
		return nil, nil
	}
	c := chunk.Choices[0]
	if c.Delta.Content == nil && c.FinishReason == "" {
		return nil, nil
	}
	candidate := map[string]any{"index": 0}
	if c.Delta.Content != nil {
		candidate["content"] = map[string]any{
			"role":  "model",
			"parts": []any{map[string]any{"text": *c.Delta.Content}},
		}
	}
	if c.FinishReason != "" {
		candidate["finishReason"] = strings.ToUpper(c.FinishReason)
	}
	return sonic.Marshal(map[string]any{"candidates": []any{candidate}})
}

// joinParts concatenates parts[].text with no separator.
func joinParts(parts gjson.Result) string {
	var b strings.Builder
	for _, p := range parts.Array() {
		b.WriteString(p.Get("text").String())
	}
	return b.String()
}
