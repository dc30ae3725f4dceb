// Package ir defines the vendor-neutral intermediate representation every
// protocol adapter converts through. The shapes here mirror the OpenAI
// Chat Completions schema, which is the reference wire shape; other
// protocols map onto them lossily in documented ways.
package ir

// Role is the author of a chat message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Default generation parameters applied when a source request omits them.
const (
	DefaultMaxTokens   = 2048
	DefaultTemperature = 0.7
)

// ContentPart is one element of a multi-part message body. Text parts carry
// Text; any other vendor-specific part keeps its raw fields in Extra so it
// round-trips untouched. CacheControl is the advisory prompt-caching
// directive some protocols attach to a part; the translator strips and
// reinserts it but never interprets it.
type ContentPart struct {
	Type         string
	Text         string
	CacheControl map[string]any
	Extra        map[string]any
}

// Message is one chat turn. Content and Parts are mutually exclusive
// encodings of the body: Parts == nil means plain string content (empty
// string allowed), otherwise Parts holds the ordered content-part sequence.
type Message struct {
	Role    Role
	Content string
	Parts   []ContentPart
}

// IsParts reports whether the message body is the content-part form.
func (m Message) IsParts() bool { return m.Parts != nil }

// Text flattens the message body to plain text. Parts are joined with an
// empty separator, matching the Gemini request mapping.
func (m Message) Text() string {
	if m.Parts == nil {
		return m.Content
	}
	var out string
	for _, p := range m.Parts {
		if p.Type == "text" {
			out += p.Text
		}
	}
	return out
}

// ChatRequest is the IR of a chat-completion request.
type ChatRequest struct {
	Model       string
	Messages    []Message
	MaxTokens   int
	Temperature float64
	Stream      bool
	System      string
}

// Usage reports token accounting exactly as the source protocol did.
// Protocols that report none leave all three fields zero; counts are never
// estimated. Invariant: TotalTokens == PromptTokens + CompletionTokens
// whenever the source reported usage.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// Choice is one completed alternative in a response.
type Choice struct {
	Index        int
	Message      Message
	FinishReason string
}

// ChatResponse is the IR of a completed (non-streaming) response.
type ChatResponse struct {
	ID      string
	Model   string
	Choices []Choice
	Usage   Usage
}

// Delta carries the incremental message fields of one stream event.
// Content is a pointer so an absent content delta (finish-only chunks)
// is distinguishable from an empty-string one.
type Delta struct {
	Role    Role
	Content *string
}

// ChunkChoice is one choice slot of a stream chunk.
type ChunkChoice struct {
	Index        int
	Delta        Delta
	FinishReason string
}

// StreamChunk is the IR of a single streaming event, not a whole message.
// A chunk with no choices models a heartbeat or other event that carries
// nothing translatable; target adapters decide whether to emit it.
type StreamChunk struct {
	ID      string
	Model   string
	Choices []ChunkChoice
}

// Str returns a pointer to s, for optional Delta fields.
func Str(s string) *string { return &s }
