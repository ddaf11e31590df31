package anthropic

import (
	"strings"

	"mpersona-be/pkg/llm"
)

// Turn markers of the text completions API.
const (
	HumanPrompt = "\n\nHuman:"
	AIPrompt    = "\n\nAssistant:"
)

// FlattenPrompt renders the ordered messages as one alternating prompt string.
// A leading system message is emitted bare, later system messages are voiced as the
// assistant, every other role as the human. The prompt always ends on an assistant turn.
func FlattenPrompt(messages []llm.Message) string {
	var prompt strings.Builder
	for i, msg := range messages {
		switch {
		case msg.Role == llm.RoleSystem && i == 0:
		case msg.Role == llm.RoleSystem:
			prompt.WriteString(AIPrompt)
		default:
			prompt.WriteString(HumanPrompt)
		}
		prompt.WriteString(msg.Content)
	}
	prompt.WriteString(AIPrompt)
	return prompt.String()
}
