package services

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrNotFound covers both missing records and records owned by someone else.
var ErrNotFound = errors.New("not found")

// ValidationError is returned for malformed or disallowed input. Message is
// safe to show to the caller.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func invalid(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// AuthError is returned for bad credentials and for any token that does not
// resolve to a live session. Message is generic; Reason is for logs only.
type AuthError struct {
	Message string
	Reason  string
}

func (e *AuthError) Error() string {
	if e.Reason == "" {
		return e.Message
	}
	return e.Message + ": " + e.Reason
}

const (
	AuthReasonMissingToken = "missing_token"
	AuthReasonInvalidToken = "invalid_token"
	AuthReasonUnknownUser  = "unknown_user"
	AuthReasonRevoked      = "revoked"
)

var ErrUnableToLogin = &AuthError{Message: "Unable to login"}

func unauthenticated(reason string) *AuthError {
	return &AuthError{Message: "Please authenticate", Reason: reason}
}

// CheckAllowedFields fails when keys contains anything outside allowed.
func CheckAllowedFields(keys []string, allowed ...string) error {
	permitted := make(map[string]struct{}, len(allowed))
	for _, a := range allowed {
		permitted[a] = struct{}{}
	}

	var rejected []string
	for _, k := range keys {
		if _, ok := permitted[k]; !ok {
			rejected = append(rejected, k)
		}
	}
	if len(rejected) == 0 {
		return nil
	}

	sort.Strings(rejected)
	return &ValidationError{
		Field:   rejected[0],
		Message: "Invalid updates: " + strings.Join(rejected, ", "),
	}
}
