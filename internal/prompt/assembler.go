package prompt

import (
	"strings"

	"github.com/aurora-chat/aurora/internal/models"
)

// Build linearizes the whole transcript into a single prompt: the system
// instruction, a blank line, one "User: "/"Assistant: " line per message in
// order, and a trailing "Assistant:" marker with no newline so the model
// continues from there. No truncation or windowing; the full history is
// replayed every turn.
func Build(systemPrompt string, history []models.Message) string {
	var b strings.Builder
	b.WriteString(systemPrompt)
	b.WriteString("\n\n")
	for _, msg := range history {
		if msg.Role == models.RoleAssistant {
			b.WriteString("Assistant: ")
		} else {
			b.WriteString("User: ")
		}
		b.WriteString(msg.Content)
		b.WriteString("\n")
	}
	b.WriteString("Assistant:")
	return b.String()
}
