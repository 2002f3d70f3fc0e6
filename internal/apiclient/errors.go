package apiclient

import (
	"errors"
	"fmt"
)

var (
	// ErrUnauthenticated is returned when an authenticated call has no session token.
	ErrUnauthenticated = errors.New("User is not authenticated.")
	// ErrSessionExpired is returned for 401 and 403 responses.
	ErrSessionExpired = errors.New("Your session expired. Please log in and try again.")
	// ErrNoBaseURL is returned when the API origin is not configured.
	ErrNoBaseURL = errors.New("API URL is not defined. Set API_URL.")
)

// APIError is a 400 response carrying {"error": "..."} from the API.
type APIError struct {
	Message string
}

func (e *APIError) Error() string {
	return e.Message
}

// StatusError is any other non-success status.
type StatusError struct {
	Context string
	Status  int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s. Status %d.", e.Context, e.Status)
}

// IsSessionError reports whether err means the user must log in again.
func IsSessionError(err error) bool {
	return errors.Is(err, ErrSessionExpired) || errors.Is(err, ErrUnauthenticated)
}
