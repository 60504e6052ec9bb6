package errors

import "fmt"

// ErrorCode represents an Attune error code.
type ErrorCode string

const (
	ErrInvalidRequest    ErrorCode = "INVALID_REQUEST"    // 400
	ErrUnknownTheme      ErrorCode = "UNKNOWN_THEME"      // 400
	ErrNotFound          ErrorCode = "NOT_FOUND"          // 404
	ErrInvalidTransition ErrorCode = "INVALID_TRANSITION" // 409
	ErrRelayFailed       ErrorCode = "RELAY_FAILED"       // 502
	ErrInternal          ErrorCode = "INTERNAL"           // 500
)

// AttuneError represents a structured error with code, status, and details.
type AttuneError struct {
	Code    ErrorCode
	Status  int
	Message string
	Details map[string]any
}

// Error implements the error interface.
func (e *AttuneError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewInvalidRequest creates a 400 error for invalid request parameters.
func NewInvalidRequest(msg string) *AttuneError {
	return &AttuneError{
		Code:    ErrInvalidRequest,
		Status:  400,
		Message: msg,
	}
}

// NewUnknownTheme creates a 400 error for a theme id outside calm|focused|vibrant.
func NewUnknownTheme(value string) *AttuneError {
	return &AttuneError{
		Code:    ErrUnknownTheme,
		Status:  400,
		Message: fmt.Sprintf("unknown theme %q (want calm, focused or vibrant)", value),
		Details: map[string]any{"theme": value},
	}
}

// NewNotFound creates a 404 error for when a visitor profile cannot be found.
func NewNotFound(profileID string) *AttuneError {
	return &AttuneError{
		Code:    ErrNotFound,
		Status:  404,
		Message: fmt.Sprintf("profile not found: %s", profileID),
		Details: map[string]any{"profile_id": profileID},
	}
}

// NewInvalidTransition creates a 409 error for an onboarding action the
// current step does not permit. The controller state is unchanged.
func NewInvalidTransition(action, step string) *AttuneError {
	return &AttuneError{
		Code:    ErrInvalidTransition,
		Status:  409,
		Message: fmt.Sprintf("cannot %s from step %s", action, step),
		Details: map[string]any{"action": action, "step": step},
	}
}

// NewRelayFailed creates a 502 error when the email provider rejects a message.
func NewRelayFailed(status int, msg string) *AttuneError {
	return &AttuneError{
		Code:    ErrRelayFailed,
		Status:  502,
		Message: fmt.Sprintf("failed to send email: %s", msg),
		Details: map[string]any{"provider_status": status},
	}
}

// NewInternal creates a 500 error for unexpected internal errors.
func NewInternal(err error) *AttuneError {
	msg := "internal error"
	if err != nil {
		msg = err.Error()
	}
	return &AttuneError{
		Code:    ErrInternal,
		Status:  500,
		Message: msg,
	}
}

// Is checks if an error is an AttuneError with the given code.
func Is(err error, code ErrorCode) bool {
	if aErr, ok := err.(*AttuneError); ok {
		return aErr.Code == code
	}
	return false
}
