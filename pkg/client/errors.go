package client

import (
	"fmt"
	"net/http"

	"github.com/pkg/errors"
)

// ErrReauthenticate is returned when the server rejects the session. The
// stored session has already been cleared; the caller should send the user
// to the login page.
var ErrReauthenticate = errors.New("Session expired, please log in again.")

// ErrNetwork is matched by every transport failure.
var ErrNetwork = errors.New("Network error, please try again.")

// Error is a non-2xx API response. Message is the server's message verbatim.
type Error struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *Error) Error() string {
	return e.Message
}

// IsStatus reports whether err is an API error with the given status code.
func IsStatus(err error, status int) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.StatusCode == status
}

func IsNotFound(err error) bool {
	return IsStatus(err, http.StatusNotFound)
}

func IsConflict(err error) bool {
	return IsStatus(err, http.StatusConflict)
}

type networkError struct {
	cause error
}

func (e *networkError) Error() string {
	return ErrNetwork.Error()
}

func (e *networkError) Is(target error) bool {
	return target == ErrNetwork
}

func (e *networkError) Unwrap() error {
	return e.cause
}

func (e *networkError) Format(s fmt.State, verb rune) {
	if verb == 'v' && s.Flag('+') {
		fmt.Fprintf(s, "%s: %+v", ErrNetwork.Error(), e.cause)
		return
	}
	fmt.Fprint(s, e.Error())
}
