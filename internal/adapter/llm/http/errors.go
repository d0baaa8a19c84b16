package http

import (
	"fmt"
	"strings"
)

// ErrorType represents the category of a provider call failure.
type ErrorType int

const (
	ErrTypeRateLimit ErrorType = iota
	ErrTypeTimeout
	ErrTypeAuthentication
	ErrTypeInvalidRequest
	ErrTypeServer
	ErrTypeNetwork
	ErrTypeUnknown
)

// String returns the category label used for logging and metric tagging.
func (e ErrorType) String() string {
	switch e {
	case ErrTypeRateLimit:
		return "rate_limit"
	case ErrTypeTimeout:
		return "timeout"
	case ErrTypeAuthentication:
		return "auth_error"
	case ErrTypeInvalidRequest:
		return "invalid_request"
	case ErrTypeServer:
		return "server_error"
	case ErrTypeNetwork:
		return "network_error"
	default:
		return "unknown_error"
	}
}

// Error represents a provider API error with additional context.
type Error struct {
	Type       ErrorType
	Message    string
	StatusCode int
	Retryable  bool
	Provider   string
}

// Error implements the error interface. Status code and message are always
// surfaced so the retry layer can classify on the rendered string.
func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s: %s (status: %d)", e.Provider, e.Type.String(), e.Message, e.StatusCode)
}

// Is implements error equality checking for errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Type == t.Type
}

// IsRetryable returns true if the error is retryable.
func (e *Error) IsRetryable() bool {
	return e.Retryable
}

// FromStatus maps an HTTP status code and vendor message to a typed error.
// 529 is Anthropic's overloaded status and lands in the 5xx branch.
func FromStatus(provider string, statusCode int, message string) *Error {
	e := &Error{
		Message:    message,
		StatusCode: statusCode,
		Provider:   provider,
	}
	switch {
	case statusCode == 429:
		e.Type = ErrTypeRateLimit
		e.Retryable = true
	case statusCode == 401 || statusCode == 403:
		e.Type = ErrTypeAuthentication
	case statusCode == 408:
		e.Type = ErrTypeTimeout
		e.Retryable = true
	case statusCode >= 400 && statusCode < 500:
		e.Type = ErrTypeInvalidRequest
	case statusCode >= 500:
		e.Type = ErrTypeServer
		e.Retryable = true
	default:
		e.Type = ErrTypeUnknown
	}
	return e
}

// Classification rules, checked in priority order. Rate-limit and timeout
// patterns precede the generic 4xx/5xx patterns so that a message containing
// both "429" and "server" still classifies as rate_limit.
var classifyRules = []struct {
	category ErrorType
	patterns []string
}{
	{ErrTypeRateLimit, []string{"rate limit", "rate_limit", "429", "too many requests", "quota"}},
	{ErrTypeTimeout, []string{"timeout", "timed out", "deadline exceeded"}},
	{ErrTypeAuthentication, []string{"401", "403", "unauthorized", "forbidden", "api key", "auth"}},
	{ErrTypeInvalidRequest, []string{"400", "404", "invalid request", "invalid_request", "bad request", "not found"}},
	{ErrTypeServer, []string{"500", "502", "503", "529", "server error", "server_error", "internal error", "overloaded", "unavailable"}},
	{ErrTypeNetwork, []string{"network", "connection", "refused", "reset", "no such host", "broken pipe", "eof"}},
}

// ClassifyMessage buckets an error message into one of the seven failure
// categories by case-insensitive substring matching. Total and deterministic:
// any input maps to exactly one category.
func ClassifyMessage(message string) ErrorType {
	lower := strings.ToLower(message)
	for _, rule := range classifyRules {
		for _, p := range rule.patterns {
			if strings.Contains(lower, p) {
				return rule.category
			}
		}
	}
	return ErrTypeUnknown
}

// Classify buckets an error into a failure category by its rendered message.
func Classify(err error) ErrorType {
	if err == nil {
		return ErrTypeUnknown
	}
	return ClassifyMessage(err.Error())
}
