package chat

import (
	"context"
	"strings"
	"sync"

	"github.com/aurora-chat/aurora/internal/db"
	"github.com/aurora-chat/aurora/internal/llm"
	"github.com/aurora-chat/aurora/internal/models"
	"github.com/aurora-chat/aurora/internal/nickname"
	"github.com/aurora-chat/aurora/internal/prompt"
	"go.uber.org/zap"
)

// Service runs one conversation turn at a time: persist the user message,
// route it (nickname override or remote completion), persist the reply.
type Service struct {
	store        *db.Store
	completer    llm.Completer
	nicknames    *nickname.Table
	systemPrompt string
	logger       *zap.Logger

	mu    sync.Mutex
	convs map[string]*Conversation
}

func NewService(store *db.Store, completer llm.Completer, nicknames *nickname.Table, systemPrompt string, logger *zap.Logger) *Service {
	return &Service{
		store:        store,
		completer:    completer,
		nicknames:    nicknames,
		systemPrompt: systemPrompt,
		logger:       logger,
		convs:        make(map[string]*Conversation),
	}
}

// Conversation returns the mirror for sessionID, hydrating it from the store
// on first sight. The same handle is returned for the session's lifetime.
func (s *Service) Conversation(sessionID string) (*Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if conv, ok := s.convs[sessionID]; ok {
		return conv, nil
	}

	history, err := s.store.LoadHistory(sessionID)
	if err != nil {
		return nil, err
	}
	conv := NewConversation(sessionID, history)
	s.convs[sessionID] = conv
	return conv, nil
}

// HandleUserMessage processes one incoming message through persist-user,
// route, persist-assistant. Empty or whitespace-only input is ignored with no
// state change. Remote failures become sentinel reply text and the turn still
// completes; only a storage failure aborts, after the user message may
// already be durably recorded.
func (s *Service) HandleUserMessage(ctx context.Context, conv *Conversation, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	conv.mu.Lock()
	defer conv.mu.Unlock()

	userMsg, err := s.store.AppendMessage(conv.sessionID, models.RoleUser, text)
	if err != nil {
		return err
	}
	conv.append(*userMsg)

	reply := s.route(ctx, conv, text)

	assistantMsg, err := s.store.AppendMessage(conv.sessionID, models.RoleAssistant, reply)
	if err != nil {
		return err
	}
	conv.append(*assistantMsg)
	return nil
}

// route decides the reply for the just-persisted user message. The nickname
// table is consulted first and short-circuits the remote call.
func (s *Service) route(ctx context.Context, conv *Conversation, text string) string {
	if canned, ok := s.nicknames.Match(text); ok {
		s.logger.Debug("nickname override matched", zap.String("session", conv.sessionID))
		return canned
	}

	p := prompt.Build(s.systemPrompt, conv.messages)
	if tokens, err := prompt.TokenCount(p); err == nil {
		s.logger.Debug("assembled prompt",
			zap.String("session", conv.sessionID),
			zap.Int("messages", len(conv.messages)),
			zap.Int("tokens", tokens))
	}

	reply, err := s.completer.Complete(ctx, p)
	if err != nil {
		s.logger.Warn("completion failed, storing sentinel reply",
			zap.String("session", conv.sessionID),
			zap.Error(err))
		return llm.SentinelReply(err)
	}
	return reply
}

// Clear deletes the session's durable messages and empties the mirror.
// Clearing an already-empty conversation is a no-op success.
func (s *Service) Clear(conv *Conversation) error {
	conv.mu.Lock()
	defer conv.mu.Unlock()

	if err := s.store.ClearHistory(conv.sessionID); err != nil {
		return err
	}
	conv.reset()
	return nil
}
