package chat

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aurora-chat/aurora/internal/db"
	"github.com/aurora-chat/aurora/internal/llm"
	"github.com/aurora-chat/aurora/internal/models"
	"github.com/aurora-chat/aurora/internal/nickname"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testSystemPrompt = "You are a helpful assistant."

type fakeCompleter struct {
	reply     string
	err       error
	callCount int
	prompts   []string
}

func (f *fakeCompleter) Complete(_ context.Context, prompt string) (string, error) {
	f.callCount++
	f.prompts = append(f.prompts, prompt)
	return f.reply, f.err
}

func newTestService(t *testing.T, completer llm.Completer) (*Service, *db.Store) {
	t.Helper()
	store, err := db.New(filepath.Join(t.TempDir(), "chat.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	svc := NewService(store, completer, nickname.DefaultTable(), testSystemPrompt, zap.NewNop())
	return svc, store
}

func TestHandleUserMessage_Turn(t *testing.T) {
	completer := &fakeCompleter{reply: "Hi there"}
	svc, store := newTestService(t, completer)

	conv, err := svc.Conversation("s1")
	require.NoError(t, err)
	require.NoError(t, svc.HandleUserMessage(context.Background(), conv, "Hello"))

	// Mirror and store agree after the turn.
	msgs := conv.Messages()
	require.Len(t, msgs, 2)
	require.Equal(t, models.RoleUser, msgs[0].Role)
	require.Equal(t, "Hello", msgs[0].Content)
	require.Equal(t, models.RoleAssistant, msgs[1].Role)
	require.Equal(t, "Hi there", msgs[1].Content)

	history, err := store.LoadHistory("s1")
	require.NoError(t, err)
	require.Equal(t, msgs, history)
	require.Equal(t, 1, completer.callCount)
}

func TestHandleUserMessage_PromptIncludesFullHistory(t *testing.T) {
	completer := &fakeCompleter{reply: "fine"}
	svc, _ := newTestService(t, completer)

	conv, err := svc.Conversation("s1")
	require.NoError(t, err)
	require.NoError(t, svc.HandleUserMessage(context.Background(), conv, "Hello"))
	require.NoError(t, svc.HandleUserMessage(context.Background(), conv, "How are you?"))

	require.Len(t, completer.prompts, 2)
	second := completer.prompts[1]
	require.True(t, strings.HasPrefix(second, testSystemPrompt+"\n\n"))
	require.Contains(t, second, "User: Hello\n")
	require.Contains(t, second, "Assistant: fine\n")
	require.Contains(t, second, "User: How are you?\n")
	require.True(t, strings.HasSuffix(second, "Assistant:"))
}

func TestHandleUserMessage_EmptyInputIsIgnored(t *testing.T) {
	completer := &fakeCompleter{reply: "unused"}
	svc, store := newTestService(t, completer)

	conv, err := svc.Conversation("s1")
	require.NoError(t, err)
	require.NoError(t, svc.HandleUserMessage(context.Background(), conv, ""))
	require.NoError(t, svc.HandleUserMessage(context.Background(), conv, "   \n\t"))

	require.Empty(t, conv.Messages())
	history, err := store.LoadHistory("s1")
	require.NoError(t, err)
	require.Empty(t, history)
	require.Zero(t, completer.callCount)
}

func TestHandleUserMessage_NicknameBypassesCompleter(t *testing.T) {
	completer := &fakeCompleter{reply: "unused"}
	svc, store := newTestService(t, completer)

	conv, err := svc.Conversation("s1")
	require.NoError(t, err)
	require.NoError(t, svc.HandleUserMessage(context.Background(), conv, "hey Nilu!"))

	require.Zero(t, completer.callCount)
	history, err := store.LoadHistory("s1")
	require.NoError(t, err)
	require.Len(t, history, 2)
	require.Equal(t, "Aree bade Bhaiya! Kaisan baa😎", history[1].Content)
}

func TestHandleUserMessage_RemoteFailureBecomesSentinel(t *testing.T) {
	completer := &fakeCompleter{err: &llm.RemoteCallError{StatusCode: 503, Body: "down"}}
	svc, store := newTestService(t, completer)

	conv, err := svc.Conversation("s1")
	require.NoError(t, err)
	require.NoError(t, svc.HandleUserMessage(context.Background(), conv, "Hello"))

	history, err := store.LoadHistory("s1")
	require.NoError(t, err)
	require.Len(t, history, 2)
	require.Equal(t, models.RoleAssistant, history[1].Role)
	require.Contains(t, history[1].Content, "❌ LLM Error 503")
	require.Contains(t, history[1].Content, "down")

	// The sentinel is an ordinary assistant turn and gets replayed into the
	// next prompt.
	require.NoError(t, svc.HandleUserMessage(context.Background(), conv, "try again"))
	require.Contains(t, completer.prompts[1], "Assistant: ❌ LLM Error 503: down\n")
}

// slowCompleter holds each call open briefly and records how many calls
// overlapped, to observe whether turns interleave.
type slowCompleter struct {
	mu        sync.Mutex
	active    int
	maxActive int
}

func (s *slowCompleter) Complete(_ context.Context, _ string) (string, error) {
	s.mu.Lock()
	s.active++
	if s.active > s.maxActive {
		s.maxActive = s.active
	}
	s.mu.Unlock()

	time.Sleep(30 * time.Millisecond)

	s.mu.Lock()
	s.active--
	s.mu.Unlock()
	return "done", nil
}

func TestHandleUserMessage_TurnsSerializeWithinConversation(t *testing.T) {
	completer := &slowCompleter{}
	svc, store := newTestService(t, completer)

	conv, err := svc.Conversation("s1")
	require.NoError(t, err)

	const turns = 4
	errs := make(chan error, turns)
	var wg sync.WaitGroup
	for i := 0; i < turns; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs <- svc.HandleUserMessage(context.Background(), conv, fmt.Sprintf("message %d", i))
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	require.Equal(t, 1, completer.maxActive)

	// Each turn appended its user/assistant pair atomically; mirror and
	// store agree.
	msgs := conv.Messages()
	require.Len(t, msgs, 2*turns)
	for i, msg := range msgs {
		if i%2 == 0 {
			require.Equal(t, models.RoleUser, msg.Role)
		} else {
			require.Equal(t, models.RoleAssistant, msg.Role)
		}
		if i > 0 {
			require.Greater(t, msg.ID, msgs[i-1].ID)
		}
	}

	history, err := store.LoadHistory("s1")
	require.NoError(t, err)
	require.Equal(t, msgs, history)
}

func TestConversation_HydratesAndCaches(t *testing.T) {
	completer := &fakeCompleter{reply: "Hi there"}
	svc, store := newTestService(t, completer)

	_, err := store.AppendMessage("s1", models.RoleUser, "earlier")
	require.NoError(t, err)
	_, err = store.AppendMessage("s1", models.RoleAssistant, "noted")
	require.NoError(t, err)

	conv, err := svc.Conversation("s1")
	require.NoError(t, err)
	require.Len(t, conv.Messages(), 2)

	again, err := svc.Conversation("s1")
	require.NoError(t, err)
	require.Same(t, conv, again)
}

func TestClear_IsIdempotent(t *testing.T) {
	completer := &fakeCompleter{reply: "Hi there"}
	svc, store := newTestService(t, completer)

	conv, err := svc.Conversation("s1")
	require.NoError(t, err)
	require.NoError(t, svc.HandleUserMessage(context.Background(), conv, "Hello"))

	require.NoError(t, svc.Clear(conv))
	require.NoError(t, svc.Clear(conv))

	require.Empty(t, conv.Messages())
	history, err := store.LoadHistory("s1")
	require.NoError(t, err)
	require.Empty(t, history)
}
