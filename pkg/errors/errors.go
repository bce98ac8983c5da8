package errors

import (
	"fmt"
	"time"
)

// ErrorType represents the type of error
type ErrorType string

const (
	// ErrorTypeFetch represents page fetch and browser driver errors
	ErrorTypeFetch ErrorType = "fetch"
	// ErrorTypeParsing represents markup parsing errors
	ErrorTypeParsing ErrorType = "parsing"
	// ErrorTypeExtraction represents errors while reading a single candidate element
	ErrorTypeExtraction ErrorType = "extraction"
	// ErrorTypeRateLimit represents fetches refused by the block cache
	ErrorTypeRateLimit ErrorType = "rate_limit"
	// ErrorTypeStorage represents storage errors
	ErrorTypeStorage ErrorType = "storage"
	// ErrorTypePublisher represents publisher-related errors
	ErrorTypePublisher ErrorType = "publisher"
	// ErrorTypeConfiguration represents configuration errors
	ErrorTypeConfiguration ErrorType = "configuration"
)

// ScrapeError represents an error raised somewhere in the scrape pipeline
type ScrapeError struct {
	Type    ErrorType
	Source  string
	Message string
	Err     error
	Time    time.Time
}

// Error implements the error interface
func (e *ScrapeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %s - %v", e.Type, e.Source, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Type, e.Source, e.Message)
}

// Unwrap returns the underlying error
func (e *ScrapeError) Unwrap() error {
	return e.Err
}

// New creates a new ScrapeError
func New(errType ErrorType, source, message string, err error) *ScrapeError {
	return &ScrapeError{
		Type:    errType,
		Source:  source,
		Message: message,
		Err:     err,
		Time:    time.Now(),
	}
}

// NewFetch creates a new fetch error
func NewFetch(source, message string, err error) *ScrapeError {
	return New(ErrorTypeFetch, source, message, err)
}

// NewParsing creates a new parsing error
func NewParsing(source, message string, err error) *ScrapeError {
	return New(ErrorTypeParsing, source, message, err)
}

// NewExtraction creates a new extraction error
func NewExtraction(source, message string, err error) *ScrapeError {
	return New(ErrorTypeExtraction, source, message, err)
}

// NewRateLimit creates a new rate limit error
func NewRateLimit(source string, duration time.Duration) *ScrapeError {
	message := fmt.Sprintf("fetch blocked for %v", duration)
	return New(ErrorTypeRateLimit, source, message, nil)
}

// NewStorage creates a new storage error
func NewStorage(source, message string, err error) *ScrapeError {
	return New(ErrorTypeStorage, source, message, err)
}

// NewPublisher creates a new publisher error
func NewPublisher(source, message string, err error) *ScrapeError {
	return New(ErrorTypePublisher, source, message, err)
}

// NewConfiguration creates a new configuration error
func NewConfiguration(message string, err error) *ScrapeError {
	return New(ErrorTypeConfiguration, "", message, err)
}

// Is reports whether err is a ScrapeError of the given type
func Is(err error, errType ErrorType) bool {
	for err != nil {
		if se, ok := err.(*ScrapeError); ok && se.Type == errType {
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}
