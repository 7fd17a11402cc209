package chat

import (
	"sync"

	"github.com/aurora-chat/aurora/internal/models"
)

// Conversation is the in-memory mirror of one session's transcript. It is
// hydrated from the store once and then kept append-consistent: every
// mutation here follows a successful durable append. The mutex serializes
// turns within the session; distinct sessions never contend.
type Conversation struct {
	sessionID string

	mu       sync.Mutex
	messages []models.Message
}

func NewConversation(sessionID string, history []models.Message) *Conversation {
	msgs := make([]models.Message, len(history))
	copy(msgs, history)
	return &Conversation{sessionID: sessionID, messages: msgs}
}

func (c *Conversation) SessionID() string { return c.sessionID }

// Messages returns a snapshot of the transcript in insertion order.
func (c *Conversation) Messages() []models.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]models.Message, len(c.messages))
	copy(out, c.messages)
	return out
}

func (c *Conversation) append(msg models.Message) {
	c.messages = append(c.messages, msg)
}

func (c *Conversation) reset() {
	c.messages = c.messages[:0]
}
