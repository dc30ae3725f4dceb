package translator

import (
	"strings"

	"github.com/nvbach/llm-bridge/internal/translator/ir"
)

// Cache-control handling for Anthropic/OpenRouter-shaped targets. The
// directive is advisory metadata for the backend's prompt cache; the
// translator only strips and reinserts it, never interprets it.
//
// Policy: every outgoing message is stripped of cache_control first (many
// backends reject the field). The directive is then reinserted on the last
// user message's final text part, and only when the caller opted in AND the
// target model is in the Claude family.

var ephemeralCacheControl = map[string]any{"type": "ephemeral"}

// claudeFamily reports whether a model identifier belongs to the
// Anthropic/Claude family. Case-insensitive substring match.
func claudeFamily(model string) bool {
	m := strings.ToLower(model)
	return strings.Contains(m, "claude") || strings.Contains(m, "anthropic")
}

// stripCacheControl returns a copy of msgs with every cache_control
// annotation removed. Input slices are never mutated; messages without
// annotations are shared as-is.
func stripCacheControl(msgs []ir.Message) []ir.Message {
	out := make([]ir.Message, len(msgs))
	for i, msg := range msgs {
		out[i] = msg
		if !msg.IsParts() {
			continue
		}
		dirty := false
		for _, p := range msg.Parts {
			if p.CacheControl != nil {
				dirty = true
				break
			}
		}
		if !dirty {
			continue
		}
		parts := make([]ir.ContentPart, len(msg.Parts))
		for j, p := range msg.Parts {
			p.CacheControl = nil
			parts[j] = p
		}
		out[i].Parts = parts
	}
	return out
}

// applyCacheControl strips all cache_control annotations and, when the
// opt-in signal is set and the model is Claude-family, marks the last user
// message's final text part as ephemeral. String-content messages are
// converted to a one-part array so the annotation has somewhere to live.
func applyCacheControl(msgs []ir.Message, model string, optIn bool) []ir.Message {
	out := stripCacheControl(msgs)
	if !optIn || !claudeFamily(model) {
		return out
	}
	for i := len(out) - 1; i >= 0; i-- {
		if out[i].Role != ir.RoleUser {
			continue
		}
		out[i] = markEphemeral(out[i])
		break
	}
	return out
}

func markEphemeral(msg ir.Message) ir.Message {
	if !msg.IsParts() {
		msg.Parts = []ir.ContentPart{{
			Type:         "text",
			Text:         msg.Content,
			CacheControl: ephemeralCacheControl,
		}}
		msg.Content = ""
		return msg
	}
	parts := make([]ir.ContentPart, len(msg.Parts))
	copy(parts, msg.Parts)
	for i := len(parts) - 1; i >= 0; i-- {
		if parts[i].Type == "text" {
			parts[i].CacheControl = ephemeralCacheControl
			break
		}
	}
	msg.Parts = parts
	return msg
}
