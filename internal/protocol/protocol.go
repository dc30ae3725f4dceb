// Package protocol defines the closed set of chat-completion wire protocols
// the gateway can translate between. Adding a protocol means adding a
// constant here and an adapter in internal/translator; the IR never changes.
package protocol

import (
	"fmt"
	"strings"
)

// Protocol identifies one vendor's JSON wire schema.
type Protocol string

const (
	// OpenAI is the Chat Completions wire shape.
	OpenAI Protocol = "openai"

	// OpenRouter shares the OpenAI wire shape but carries cache-control
	// directives through to Anthropic-family models.
	OpenRouter Protocol = "openrouter"

	// Groq shares the OpenAI wire shape with a platform max-token ceiling.
	Groq Protocol = "groq"

	// Anthropic is the Messages API wire shape.
	Anthropic Protocol = "anthropic"

	// Gemini is the generateContent wire shape.
	Gemini Protocol = "gemini"
)

// Family groups protocols that share a wire shape.
type Family string

const (
	FamilyOpenAI    Family = "openai"
	FamilyAnthropic Family = "anthropic"
	FamilyGemini    Family = "gemini"
)

// All lists every supported protocol. Adapter tables are built over this
// slice so a missing adapter is caught at construction, not at dispatch.
func All() []Protocol {
	return []Protocol{OpenAI, OpenRouter, Groq, Anthropic, Gemini}
}

// Parse validates a protocol tag. Tags arrive from routing configuration
// and request paths; unknown tags are rejected before any translation work.
func Parse(s string) (Protocol, error) {
	switch p := Protocol(strings.ToLower(strings.TrimSpace(s))); p {
	case OpenAI, OpenRouter, Groq, Anthropic, Gemini:
		return p, nil
	default:
		return "", fmt.Errorf("protocol: unsupported tag %q", s)
	}
}

// Family returns the wire-shape family of p.
func (p Protocol) Family() Family {
	switch p {
	case Anthropic:
		return FamilyAnthropic
	case Gemini:
		return FamilyGemini
	default:
		return FamilyOpenAI
	}
}

func (p Protocol) String() string { return string(p) }
