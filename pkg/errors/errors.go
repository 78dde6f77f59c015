package errors

import (
	stderrors "errors"
	"fmt"
	"time"
)

// ErrorType represents the type of error
type ErrorType string

const (
	// ErrorTypeConfiguration represents configuration errors (unknown spider, bad options)
	ErrorTypeConfiguration ErrorType = "configuration"
	// ErrorTypeNetwork represents fetch and transport errors
	ErrorTypeNetwork ErrorType = "network"
	// ErrorTypeParsing represents HTML parsing errors
	ErrorTypeParsing ErrorType = "parsing"
	// ErrorTypeRateLimit represents rate limiting errors
	ErrorTypeRateLimit ErrorType = "rate_limit"
	// ErrorTypeProxy represents proxy allocation errors
	ErrorTypeProxy ErrorType = "proxy"
	// ErrorTypeValidation represents item validation errors
	ErrorTypeValidation ErrorType = "validation"
	// ErrorTypePersistence represents catalog store errors
	ErrorTypePersistence ErrorType = "persistence"
)

// ScraperError represents a scraper-specific error
type ScraperError struct {
	Type    ErrorType
	Spider  string
	Message string
	Err     error
	Time    time.Time
}

// Error implements the error interface
func (e *ScraperError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %s - %v", e.Type, e.Spider, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Type, e.Spider, e.Message)
}

// Unwrap returns the underlying error
func (e *ScraperError) Unwrap() error {
	return e.Err
}

// IsRetryable returns true if the error is worth another job attempt
func (e *ScraperError) IsRetryable() bool {
	switch e.Type {
	case ErrorTypeNetwork:
		return true
	case ErrorTypePersistence:
		return true
	case ErrorTypeConfiguration:
		return false
	case ErrorTypeRateLimit:
		return false
	default:
		return false
	}
}

// New creates a new ScraperError
func New(errType ErrorType, spider, message string, err error) *ScraperError {
	return &ScraperError{
		Type:    errType,
		Spider:  spider,
		Message: message,
		Err:     err,
		Time:    time.Now(),
	}
}

// NewConfiguration creates a new configuration error
func NewConfiguration(message string, err error) *ScraperError {
	return New(ErrorTypeConfiguration, "", message, err)
}

// NewNetwork creates a new network error
func NewNetwork(spider, message string, err error) *ScraperError {
	return New(ErrorTypeNetwork, spider, message, err)
}

// NewParsing creates a new parsing error
func NewParsing(spider, message string, err error) *ScraperError {
	return New(ErrorTypeParsing, spider, message, err)
}

// NewRateLimit creates a new rate limit error
func NewRateLimit(spider string, duration time.Duration) *ScraperError {
	message := fmt.Sprintf("rate limited for %v", duration)
	return New(ErrorTypeRateLimit, spider, message, nil)
}

// NewProxy creates a new proxy error
func NewProxy(message string, err error) *ScraperError {
	return New(ErrorTypeProxy, "", message, err)
}

// NewValidation creates a new validation error
func NewValidation(spider, message string) *ScraperError {
	return New(ErrorTypeValidation, spider, message, nil)
}

// NewPersistence creates a new persistence error
func NewPersistence(message string, err error) *ScraperError {
	return New(ErrorTypePersistence, "", message, err)
}

// IsType reports whether err is a ScraperError of the given type
func IsType(err error, errType ErrorType) bool {
	var se *ScraperError
	if stderrors.As(err, &se) {
		return se.Type == errType
	}
	return false
}

// IsConfiguration reports whether err is a configuration error.
// Configuration errors are surfaced to API callers as 400s and never retried.
func IsConfiguration(err error) bool {
	return IsType(err, ErrorTypeConfiguration)
}
