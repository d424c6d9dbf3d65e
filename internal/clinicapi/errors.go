package clinicapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a failure into the category the booking workflow reacts to.
type Kind string

const (
	// KindValidation covers local precondition failures and server-rejected payloads.
	KindValidation Kind = "validation"
	// KindAuth covers missing or rejected credentials; callers must re-authenticate.
	KindAuth Kind = "auth"
	// KindNotFound covers references to doctors or records that no longer exist.
	KindNotFound Kind = "not_found"
	// KindConflict covers slots claimed between availability query and booking.
	KindConflict Kind = "conflict"
	// KindServer covers non-2xx responses with a parseable message payload.
	KindServer Kind = "server"
	// KindNetwork covers transport failures and unparseable non-2xx responses.
	KindNetwork Kind = "network"
)

// Error is the normalized form of every failure this client surfaces. All
// server responses pass through one decoding boundary so the ad-hoc payload
// shapes of the backend never leak to callers.
type Error struct {
	Kind       Kind
	Message    string
	StatusCode int
	cause      error
}

func (e *Error) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("clinicapi: %s (status %d): %s", e.Kind, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("clinicapi: %s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// IsKind reports whether err carries a clinicapi Error of the given kind.
func IsKind(err error, kind Kind) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Kind == kind
}

func IsValidation(err error) bool { return IsKind(err, KindValidation) }
func IsAuth(err error) bool       { return IsKind(err, KindAuth) }
func IsNotFound(err error) bool   { return IsKind(err, KindNotFound) }
func IsConflict(err error) bool   { return IsKind(err, KindConflict) }
func IsNetwork(err error) bool    { return IsKind(err, KindNetwork) }

// UserMessage returns the server-provided detail when present, otherwise a
// generic notice suitable for display.
func UserMessage(err error) string {
	var apiErr *Error
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return "Something went wrong. Please try again."
}

// NewValidationError builds a local validation failure. Callers use it for
// preconditions enforced before any network call.
func NewValidationError(message string) *Error {
	return &Error{Kind: KindValidation, Message: message}
}

func newAuthError(message string, cause error) *Error {
	return &Error{Kind: KindAuth, Message: message, cause: cause}
}

func newNetworkError(cause error) *Error {
	return &Error{Kind: KindNetwork, Message: "request failed", cause: cause}
}

// decodeError maps a non-2xx response onto the taxonomy. The backend is not
// consistent about error shapes: sometimes {"message": ...}, sometimes
// {"detail": ...}, sometimes an unparseable body. Anything unparseable keeps
// the status-derived kind with a generic message.
func decodeError(status int, body []byte) *Error {
	var kind Kind
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		kind = KindAuth
	case status == http.StatusNotFound:
		kind = KindNotFound
	case status == http.StatusConflict:
		kind = KindConflict
	case status >= 400 && status < 500:
		kind = KindValidation
	case status >= 500:
		kind = KindServer
	default:
		kind = KindNetwork
	}

	var payload struct {
		Message string `json:"message"`
		Detail  string `json:"detail"`
	}
	message := ""
	if err := json.Unmarshal(body, &payload); err == nil {
		if payload.Message != "" {
			message = payload.Message
		} else {
			message = payload.Detail
		}
	}

	return &Error{Kind: kind, Message: message, StatusCode: status}
}
