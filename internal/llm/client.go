package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Completer produces a reply for an assembled prompt. A non-nil error is
// always a *RemoteCallError.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// NoResponseKey is returned as a successful reply when the endpoint answers
// 2xx but none of the known reply fields is present.
const NoResponseKey = "⚠️ No response key found."

// replyFields is the order in which reply-carrying fields are tried; the
// first present non-empty string wins.
var replyFields = []string{"response", "output", "message"}

// Client speaks the invoke protocol: one POST per prompt with the text nested
// under an input object, reply extracted from an alternately-named field.
type Client struct {
	endpoint   string
	httpClient *http.Client
	logger     *zap.Logger
}

func NewClient(endpoint string, timeout time.Duration, logger *zap.Logger) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		endpoint:   endpoint,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

type invokeRequest struct {
	Input invokeInput `json:"input"`
}

type invokeInput struct {
	Prompt string `json:"prompt"`
}

// Complete sends the prompt and extracts the reply. Non-2xx statuses and
// transport failures come back as *RemoteCallError; a parseable 2xx without
// any known reply field degrades to the NoResponseKey sentinel instead of
// failing.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(invokeRequest{Input: invokeInput{Prompt: prompt}})
	if err != nil {
		return "", &RemoteCallError{Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", &RemoteCallError{Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &RemoteCallError{Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &RemoteCallError{Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &RemoteCallError{StatusCode: resp.StatusCode, Body: string(raw)}
	}

	var data map[string]any
	if err := json.Unmarshal(raw, &data); err != nil {
		return "", &RemoteCallError{Err: err}
	}

	for _, field := range replyFields {
		if reply, ok := data[field].(string); ok && reply != "" {
			return reply, nil
		}
	}

	c.logger.Warn("completion response carried no reply field",
		zap.String("endpoint", c.endpoint),
		zap.Int("status", resp.StatusCode))
	return NoResponseKey, nil
}
