package transport

import (
	"errors"
	"fmt"
	"net/http"
)

// Response is what a completed call resolves with. Data holds the decoded
// JSON body (nil for an empty body).
type Response struct {
	Status  int
	Data    any
	Headers http.Header
}

// Error is the rejection value of a failed call. Status carries the HTTP
// status for server-reported failures and stays zero when the request never
// completed. Aborted marks a rejection caused by Call.Abort; the binding
// layer suppresses those instead of surfacing them.
type Error struct {
	Status  int
	Message string
	Cause   error
	Aborted bool
}

func (e *Error) Error() string {
	switch {
	case e.Aborted:
		return "transport: request aborted"
	case e.Status != 0:
		return fmt.Sprintf("transport: %s (status %d)", e.Message, e.Status)
	case e.Cause != nil:
		return fmt.Sprintf("transport: %s: %v", e.Message, e.Cause)
	default:
		return "transport: " + e.Message
	}
}

func (e *Error) Unwrap() error { return e.Cause }

// IsAborted reports whether err is a rejection caused by a deliberate
// abort.
func IsAborted(err error) bool {
	var te *Error
	return errors.As(err, &te) && te.Aborted
}
