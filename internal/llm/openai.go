package llm

import (
	"context"
	"time"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// OpenAIClient is the openai-compatible backend, for deployments that expose
// a chat endpoint (ollama, vllm, ...) instead of the invoke protocol.
type OpenAIClient struct {
	llm     llms.LLM
	timeout time.Duration
}

func NewOpenAIClient(baseURL, token, model string, timeout time.Duration) (*OpenAIClient, error) {
	llm, err := openai.New(
		openai.WithToken(token),
		openai.WithBaseURL(baseURL),
		openai.WithModel(model),
	)
	if err != nil {
		return nil, err
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &OpenAIClient{llm: llm, timeout: timeout}, nil
}

// Complete waits at most the configured timeout; an exceeded bound is
// abandoned and surfaces as a transport failure.
func (c *OpenAIClient) Complete(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	completion, err := llms.GenerateFromSinglePrompt(ctx, c.llm, prompt)
	if err != nil {
		return "", &RemoteCallError{Err: err}
	}
	return completion, nil
}
