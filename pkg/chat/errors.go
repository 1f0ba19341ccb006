package chat

import (
	"errors"
	"fmt"
)

// ErrTimeout marks a request that hit its deadline before settling. It is
// distinguishable from a generic transport failure.
var ErrTimeout = errors.New("request deadline exceeded")

// ErrEmptyReply marks an HTTP-successful response that carried no usable
// reply text (including a malformed body).
var ErrEmptyReply = errors.New("no reply in response")

// StatusError is an HTTP response with a non-success status. Message holds
// server-provided display text when the body carried any, else a fallback
// derived from the status code.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("chat API returned status %d: %s", e.Code, e.Message)
}
