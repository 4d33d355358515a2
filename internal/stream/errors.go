package stream

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrUnauthenticated is returned without any request when no credential
	// is available.
	ErrUnauthenticated = errors.New("no authentication token available")
	// ErrEmptyPayload is returned when the endpoint answers with no audio.
	ErrEmptyPayload = errors.New("audio payload is empty")
	// ErrPayloadTooLarge is returned when the payload exceeds the client limit.
	ErrPayloadTooLarge = errors.New("audio payload too large")
)

// RemoteError is a non-2xx answer from the streaming endpoint.
type RemoteError struct {
	Status int
	Body   string
}

func (e *RemoteError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("streaming service returned %d %s", e.Status, http.StatusText(e.Status))
	}
	return fmt.Sprintf("streaming service returned %d %s: %s", e.Status, http.StatusText(e.Status), e.Body)
}

// IsNotFound reports whether err is a 404 from the streaming endpoint.
func IsNotFound(err error) bool {
	var re *RemoteError
	return errors.As(err, &re) && re.Status == http.StatusNotFound
}
