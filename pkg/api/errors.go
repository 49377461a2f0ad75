package api

import (
	"errors"
	"fmt"
	"time"
)

// Common errors returned by the client.
var (
	// ErrRetryExhausted is returned when all retry attempts are exhausted.
	ErrRetryExhausted = errors.New("retry attempts exhausted")

	// ErrContextCancelled is returned when the context is cancelled during retry.
	ErrContextCancelled = errors.New("context cancelled")
)

// ErrorClass represents a classification of request failures.
type ErrorClass string

const (
	// ErrorClassClient represents 4xx responses and malformed/unexpected
	// API output. Not retried.
	ErrorClassClient ErrorClass = "client"

	// ErrorClassServer represents 5xx responses and retryable API error
	// codes such as maxlag and readonly.
	ErrorClassServer ErrorClass = "server"

	// ErrorClassRateLimit represents 429 responses and the ratelimited
	// API error code.
	ErrorClassRateLimit ErrorClass = "rate_limit"

	// ErrorClassNetwork represents network/timeout errors.
	ErrorClassNetwork ErrorClass = "network"
)

// Error is a classified Action API failure. StatusCode is the HTTP status
// (200 for errors reported inside the response body). Code and Info carry
// the MediaWiki error object when present.
type Error struct {
	StatusCode int
	ErrorClass ErrorClass
	Code       string
	Info       string
	RetryAfter time.Duration
	Err        error
}

// Error implements the error interface.
func (e *Error) Error() string {
	var s string
	if e.Code != "" {
		s = fmt.Sprintf("wiki API %s error (status %d): %s: %s",
			e.ErrorClass, e.StatusCode, e.Code, e.Info)
	} else {
		s = fmt.Sprintf("wiki API %s error (status %d): %s",
			e.ErrorClass, e.StatusCode, e.Info)
	}
	if e.Err != nil {
		s = fmt.Sprintf("%s: %v", s, e.Err)
	}
	return s
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *Error) Unwrap() error {
	return e.Err
}

// shouldRetry determines if an error should be retried based on its classification.
func shouldRetry(errorClass ErrorClass) bool {
	switch errorClass {
	case ErrorClassClient:
		// 4xx and malformed responses are not retried
		return false
	case ErrorClassServer:
		return true
	case ErrorClassRateLimit:
		return true
	case ErrorClassNetwork:
		return true
	default:
		return false
	}
}

// classifyStatus maps an HTTP status code to an error class.
func classifyStatus(statusCode int) ErrorClass {
	switch {
	case statusCode == 429:
		return ErrorClassRateLimit
	case statusCode >= 400 && statusCode < 500:
		return ErrorClassClient
	case statusCode >= 500:
		return ErrorClassServer
	default:
		return ""
	}
}

// classifyCode maps a MediaWiki API error code to an error class. The API
// reports transient server conditions with 200 responses, so retryability
// hinges on the code, not the status.
func classifyCode(code string) ErrorClass {
	switch code {
	case "maxlag", "readonly":
		return ErrorClassServer
	case "ratelimited":
		return ErrorClassRateLimit
	default:
		return ErrorClassClient
	}
}
