package assistant

import "context"

// Message roles for the ordered prompt sent to the model gateway.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one role-tagged text turn in a model prompt.
type Message struct {
	Role    string
	Content string
}

// Gateway abstracts the hosted large-language-model API. Implementations
// return the assistant's reply text for the full ordered message sequence.
type Gateway interface {
	Generate(ctx context.Context, messages []Message) (string, error)
}
