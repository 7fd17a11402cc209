package llm

import "fmt"

// RemoteCallError is any failure to obtain a completion: a non-2xx answer
// from the endpoint (StatusCode and Body set) or a transport/timeout failure
// (Err set). It never escapes a turn; SentinelReply converts it to display
// text at the boundary.
type RemoteCallError struct {
	StatusCode int
	Body       string
	Err        error
}

func (e *RemoteCallError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("remote call: %v", e.Err)
	}
	return fmt.Sprintf("remote call: status %d: %s", e.StatusCode, e.Body)
}

func (e *RemoteCallError) Unwrap() error { return e.Err }

// SentinelReply maps a completion failure to the string stored and shown in
// place of a genuine reply. The prefix lets users tell errors apart from
// model output.
func SentinelReply(err error) string {
	if rce, ok := err.(*RemoteCallError); ok && rce.Err == nil {
		return fmt.Sprintf("❌ LLM Error %d: %s", rce.StatusCode, rce.Body)
	}
	return fmt.Sprintf("❌ Exception occurred: %v", err)
}
