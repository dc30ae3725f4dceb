package translator

import (
	"testing"

	"github.com/tidwall/gjson"

	"github.com/nvbach/llm-bridge/internal/protocol"
	"github.com/nvbach/llm-bridge/internal/translator/ir"
)

func TestAnthropicChunkToIR(t *testing.T) {
	a := &anthropicAdapter{}

	chunk, err := a.ChunkToIR([]byte(`{"type":"content_block_delta","index":0,"delta":{"type":"text_delta","text":"He"}}`))
	if err != nil {
		t.Fatalf("ChunkToIR failed: %v", err)
	}
	if chunk.Choices[0].Delta.Content == nil || *chunk.Choices[0].Delta.Content != "He" {
		t.Errorf("delta content = %v, want He", chunk.Choices[0].Delta.Content)
	}
	if chunk.Choices[0].FinishReason != "" {
		t.Error("content delta must not carry a finish reason")
	}

	chunk, _ = a.ChunkToIR([]byte(`{"type":"message_stop"}`))
	if chunk.Choices[0].FinishReason != "stop" {
		t.Errorf("finish_reason = %q, want stop", chunk.Choices[0].FinishReason)
	}
	if chunk.Choices[0].Delta.Content != nil {
		t.Error("message_stop delta must be empty")
	}

	chunk, _ = a.ChunkToIR([]byte(`{"type":"ping"}`))
	if chunk != nil {
		t.Error("heartbeat events must yield a nil chunk")
	}
}

func TestAnthropicChunkFromIR(t *testing.T) {
	a := &anthropicAdapter{}

	out, err := a.ChunkFromIR(&ir.StreamChunk{Choices: []ir.ChunkChoice{{
		Delta: ir.Delta{Content: ir.Str("hey")},
	}}})
	if err != nil {
		t.Fatalf("ChunkFromIR failed: %v", err)
	}
	if got := gjson.GetBytes(out, "type").String(); got != "content_block_delta" {
		t.Errorf("type = %q, want content_block_delta", got)
	}
	if got := gjson.GetBytes(out, "delta.text").String(); got != "hey" {
		t.Errorf("delta.text = %q, want hey", got)
	}

	out, _ = a.ChunkFromIR(&ir.StreamChunk{Choices: []ir.ChunkChoice{{FinishReason: "stop"}}})
	if got := gjson.GetBytes(out, "type").String(); got != "message_stop" {
		t.Errorf("type = %q, want message_stop", got)
	}

	// Neither content nor finish: nothing to emit.
	out, _ = a.ChunkFromIR(&ir.StreamChunk{Choices: []ir.ChunkChoice{{}}})
	if out != nil {
		t.Error("empty chunk must produce no event")
	}
}

func TestOpenAIChunkContentAbsence(t *testing.T) {
	a := newOpenAIAdapter(protocol.OpenAI)

	// Empty string content is a real delta, distinct from no content.
	chunk, err := a.ChunkToIR([]byte(`{"id":"c","choices":[{"index":0,"delta":{"content":""}}]}`))
	if err != nil {
		t.Fatalf("ChunkToIR failed: %v", err)
	}
	if chunk.Choices[0].Delta.Content == nil {
		t.Fatal("empty-string content must survive as present")
	}

	chunk, _ = a.ChunkToIR([]byte(`{"id":"c","choices":[{"index":0,"delta":{},"finish_reason":"stop"}]}`))
	if chunk.Choices[0].Delta.Content != nil {
		t.Error("absent content must stay absent")
	}

	out, _ := a.ChunkFromIR(chunk)
	if gjson.GetBytes(out, "choices.0.delta.content").Exists() {
		t.Error("absent content must not be re-emitted")
	}
	if got := gjson.GetBytes(out, "choices.0.finish_reason").String(); got != "stop" {
		t.Errorf("finish_reason = %q, want stop", got)
	}
}

func TestGeminiChunkSymmetry(t *testing.T) {
	a := &geminiAdapter{}

	chunk, err := a.ChunkToIR([]byte(`{"candidates":[{"content":{"role":"model","parts":[{"text":"bit"}]},"finishReason":"MAX_TOKENS"}]}`))
	if err != nil {
		t.Fatalf("ChunkToIR failed: %v", err)
	}
	if *chunk.Choices[0].Delta.Content != "bit" {
		t.Errorf("content = %q, want bit", *chunk.Choices[0].Delta.Content)
	}
	if chunk.Choices[0].FinishReason != "max_tokens" {
		t.Errorf("finish_reason = %q, want lower-cased max_tokens", chunk.Choices[0].FinishReason)
	}

	out, err := a.ChunkFromIR(chunk)
	if err != nil {
		t.Fatalf("ChunkFromIR failed: %v", err)
	}
	if got := gjson.GetBytes(out, "candidates.0.content.parts.0.text").String(); got != "bit" {
		t.Errorf("text = %q, want bit", got)
	}
	if got := gjson.GetBytes(out, "candidates.0.finishReason").String(); got != "MAX_TOKENS" {
		t.Errorf("finishReason = %q, want upper-cased MAX_TOKENS", got)
	}
}
