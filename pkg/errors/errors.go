package errors

import (
	"errors"
	"fmt"
	"time"
)

// ErrorType represents the type of error
type ErrorType string

const (
	// ErrorTypeNetwork represents network-related errors
	ErrorTypeNetwork ErrorType = "network"
	// ErrorTypeParsing represents HTML/JSON parsing errors
	ErrorTypeParsing ErrorType = "parsing"
	// ErrorTypeRateLimit represents rate limiting errors
	ErrorTypeRateLimit ErrorType = "rate_limit"
	// ErrorTypeCache represents cache-related errors
	ErrorTypeCache ErrorType = "cache"
	// ErrorTypeSink represents sink write errors
	ErrorTypeSink ErrorType = "sink"
	// ErrorTypeValidation represents validation errors
	ErrorTypeValidation ErrorType = "validation"
	// ErrorTypeConfiguration represents configuration errors
	ErrorTypeConfiguration ErrorType = "configuration"
)

// CrawlError represents a discovery-engine error tagged with its storefront
type CrawlError struct {
	Type       ErrorType
	Storefront string
	Message    string
	Err        error
	Time       time.Time
}

// Error implements the error interface
func (e *CrawlError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %s - %v", e.Type, e.Storefront, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Type, e.Storefront, e.Message)
}

// Unwrap returns the underlying error
func (e *CrawlError) Unwrap() error {
	return e.Err
}

// IsRetryable returns true if the error is retryable
func (e *CrawlError) IsRetryable() bool {
	return e.Type == ErrorTypeNetwork
}

// New creates a new CrawlError
func New(errType ErrorType, storefront, message string, err error) *CrawlError {
	return &CrawlError{
		Type:       errType,
		Storefront: storefront,
		Message:    message,
		Err:        err,
		Time:       time.Now(),
	}
}

// NewNetwork creates a new network error
func NewNetwork(storefront, message string, err error) *CrawlError {
	return New(ErrorTypeNetwork, storefront, message, err)
}

// NewParsing creates a new parsing error
func NewParsing(storefront, message string, err error) *CrawlError {
	return New(ErrorTypeParsing, storefront, message, err)
}

// NewRateLimit creates a new rate limit error
func NewRateLimit(storefront string, duration time.Duration) *CrawlError {
	message := fmt.Sprintf("rate limited for %v", duration)
	return New(ErrorTypeRateLimit, storefront, message, nil)
}

// NewCache creates a new cache error
func NewCache(storefront, message string, err error) *CrawlError {
	return New(ErrorTypeCache, storefront, message, err)
}

// NewSink creates a new sink error
func NewSink(message string, err error) *CrawlError {
	return New(ErrorTypeSink, "", message, err)
}

// NewValidation creates a new validation error
func NewValidation(storefront, message string) *CrawlError {
	return New(ErrorTypeValidation, storefront, message, nil)
}

// NewConfiguration creates a new configuration error
func NewConfiguration(message string, err error) *CrawlError {
	return New(ErrorTypeConfiguration, "", message, err)
}

// GetType returns the error type of a CrawlError anywhere in err's chain,
// or ErrorTypeNetwork for unknown errors.
func GetType(err error) ErrorType {
	var ce *CrawlError
	if errors.As(err, &ce) {
		return ce.Type
	}
	return ErrorTypeNetwork
}
