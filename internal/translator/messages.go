package translator

import (
	"github.com/tidwall/gjson"

	"github.com/nvbach/llm-bridge/internal/translator/ir"
)

// parseMessages decodes an OpenAI/Anthropic-shaped messages array. Both
// protocols use the same message envelope: a role plus either a plain
// string content or an ordered array of typed content parts.
func parseMessages(arr gjson.Result) []ir.Message {
	if !arr.IsArray() {
		return nil
	}
	items := arr.Array()
	msgs := make([]ir.Message, 0, len(items))
	for _, item := range items {
		msg := ir.Message{Role: ir.Role(item.Get("role").String())}
		content := item.Get("content")
		if content.IsArray() {
			msg.Parts = parseContentParts(content)
		} else {
			msg.Content = content.String()
		}
		msgs = append(msgs, msg)
	}
	return msgs
}

// parseContentParts decodes a content-part array. Text parts keep their
// text; every other part type keeps its raw fields in Extra so unknown
// vendor parts survive the round trip untouched. A cache_control
// annotation is lifted out of the raw fields in either case.
func parseContentParts(arr gjson.Result) []ir.ContentPart {
	items := arr.Array()
	parts := make([]ir.ContentPart, 0, len(items))
	for _, item := range items {
		part := ir.ContentPart{Type: item.Get("type").String()}
		if cc := item.Get("cache_control"); cc.Exists() {
			if m, ok := cc.Value().(map[string]any); ok {
				part.CacheControl = m
			}
		}
		if part.Type == "text" {
			part.Text = item.Get("text").String()
		} else {
			extra := map[string]any{}
			item.ForEach(func(key, value gjson.Result) bool {
				k := key.String()
				if k != "type" && k != "cache_control" {
					extra[k] = value.Value()
				}
				return true
			})
			part.Extra = extra
		}
		parts = append(parts, part)
	}
	return parts
}

// buildMessage encodes one IR message back into the shared OpenAI/Anthropic
// envelope. String-content messages stay string-content; part-form messages
// keep their part order and vendor fields.
func buildMessage(msg ir.Message) map[string]any {
	out := map[string]any{"role": string(msg.Role)}
	if !msg.IsParts() {
		out["content"] = msg.Content
		return out
	}
	parts := make([]any, 0, len(msg.Parts))
	for _, p := range msg.Parts {
		parts = append(parts, buildContentPart(p))
	}
	out["content"] = parts
	return out
}

func buildContentPart(p ir.ContentPart) map[string]any {
	part := map[string]any{"type": p.Type}
	if p.Type == "text" {
		part["text"] = p.Text
	} else {
		for k, v := range p.Extra {
			part[k] = v
		}
	}
	if p.CacheControl != nil {
		part["cache_control"] = p.CacheControl
	}
	return part
}

// buildMessages encodes a message slice, skipping roles the caller filters.
func buildMessages(msgs []ir.Message, skip func(ir.Message) bool) []any {
	out := make([]any, 0, len(msgs))
	for _, m := range msgs {
		if skip != nil && skip(m) {
			continue
		}
		out = append(out, buildMessage(m))
	}
	return out
}
