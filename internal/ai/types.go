package ai

import (
	"context"

	"sitesmith/internal/keys"
)

// Message roles understood by the provider.
const (
	RoleUser  = "user"
	RoleModel = "model"
)

// Message is one role-tagged entry in a provider conversation.
type Message struct {
	Role    string
	Content string
}

// CallRequest describes a single provider invocation. The zero values for
// Temperature and MaxTokens select the client defaults.
type CallRequest struct {
	Messages    []Message
	Image       string // optional base64 data-URI, attached to the first user message
	Temperature float32
	MaxTokens   int
	ForceJSON   bool // ask the provider for a structured JSON response
}

// UserMessage builds a single-message request body for the common case.
func UserMessage(text string) []Message {
	return []Message{{Role: RoleUser, Content: text}}
}

// Client performs one network call against the generative-AI endpoint with
// the supplied credential. Implementations classify every failure into a
// *ProviderError and never retry; retrying belongs to the Invoker.
type Client interface {
	Call(ctx context.Context, req CallRequest, cred keys.Credential) (string, error)
}
