package gateway

import "errors"

// Kind classifies a gateway failure. Every error that crosses the gateway
// boundary carries exactly one kind; callers branch on it instead of
// inspecting transport details.
type Kind int

const (
	// KindValidation means a required local input was missing. No request
	// was issued.
	KindValidation Kind = iota

	// KindAuth means the credential precondition failed before the call,
	// or an authenticated endpoint answered 401/403.
	KindAuth

	// KindTransport means the request never produced an HTTP response.
	KindTransport

	// KindServer means a non-2xx response with a structured or fallback
	// message.
	KindServer
)

// connectivityMessage is the generic message used for every transport
// failure, matching what the console shows users.
const connectivityMessage = "Network error. Please check your connection."

// missingCredentialMessage is surfaced when an authenticated call is
// attempted with no stored token.
const missingCredentialMessage = "Admin token not found. Please login again."

// Error is the single error type returned by gateway calls.
type Error struct {
	Kind       Kind
	Message    string
	Endpoint   string
	StatusCode int // zero unless an HTTP response was received
}

func (e *Error) Error() string { return e.Message }

// NewValidationError reports a missing or invalid local input.
func NewValidationError(message string) *Error {
	return &Error{Kind: KindValidation, Message: message}
}

func authError(endpoint, message string, status int) *Error {
	return &Error{Kind: KindAuth, Message: message, Endpoint: endpoint, StatusCode: status}
}

func transportError(endpoint string) *Error {
	return &Error{Kind: KindTransport, Message: connectivityMessage, Endpoint: endpoint}
}

func serverError(endpoint, message string, status int) *Error {
	return &Error{Kind: KindServer, Message: message, Endpoint: endpoint, StatusCode: status}
}

// Message extracts the human-readable string for any error coming out of
// the gateway or a store action. Non-gateway errors pass through their
// Error() text.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var gerr *Error
	if errors.As(err, &gerr) {
		return gerr.Message
	}
	return err.Error()
}

// IsAuth reports whether err is an authentication failure, either the
// missing-credential precondition or a 401/403 from the API.
func IsAuth(err error) bool {
	var gerr *Error
	return errors.As(err, &gerr) && gerr.Kind == KindAuth
}

// IsValidation reports whether err is a local validation failure.
func IsValidation(err error) bool {
	var gerr *Error
	return errors.As(err, &gerr) && gerr.Kind == KindValidation
}
