package prompt

import (
	"errors"
	"fmt"
	"strings"

	"github.com/crudai-app/backend/internal/models"
)

// ContextWindow is how many recent messages feed the conversation context.
const ContextWindow = 10

var (
	// ErrNoMessages means the chat has no messages to respond to.
	ErrNoMessages = errors.New("no messages to respond to")
	// ErrNoUserMessage means the window holds only assistant messages.
	ErrNoUserMessage = errors.New("no user message found")
)

// ChatContext is the assembled generation input: the full system prompt, and
// the most recent user message as the active prompt.
type ChatContext struct {
	Transcript   string
	Prompt       string
	SystemPrompt string
}

// BuildChatContext turns the recent-message window (newest first, as loaded
// from storage) into a chronological role-tagged transcript and selects the
// most recent user-authored message as the prompt to answer.
func BuildChatContext(recent []models.Message, displayName string) (*ChatContext, error) {
	if len(recent) == 0 {
		return nil, ErrNoMessages
	}

	lines := make([]string, 0, len(recent))
	for i := len(recent) - 1; i >= 0; i-- { // oldest first for proper context
		msg := recent[i]
		role := "assistant"
		if msg.IsFromUser {
			role = "user"
		}
		lines = append(lines, fmt.Sprintf("%s: %s", role, msg.Content))
	}
	transcript := strings.Join(lines, "\n")

	var lastUserMessage *models.Message
	for i := range recent {
		if recent[i].IsFromUser {
			lastUserMessage = &recent[i]
			break
		}
	}
	if lastUserMessage == nil {
		return nil, ErrNoUserMessage
	}

	if displayName == "" {
		displayName = "User"
	}
	system := fmt.Sprintf(`Du bist ein hilfreicher AI-Assistent für %s.
Antworte auf Deutsch und sei freundlich und hilfreich.
Hier ist der bisherige Gesprächsverlauf:
%s

Antworte nun auf die letzte Nachricht des Nutzers.`, displayName, transcript)

	return &ChatContext{
		Transcript:   transcript,
		Prompt:       lastUserMessage.Content,
		SystemPrompt: system,
	}, nil
}
