package llm

import "context"

type Message struct {
	Role    string
	Content string
}

type Response struct {
	Content          string
	Model            string
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// Client is one completion backend. session is an opaque per-chat key;
// the default vendor endpoint is stateless per call and keyed only by it,
// while context-capable providers ignore session and read messages, the
// budget-windowed conversation tail.
type Client interface {
	Generate(ctx context.Context, session string, messages []Message) (Response, error)
}
