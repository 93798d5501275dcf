package domain

import (
	"errors"
	"fmt"
)

var (
	ErrRateLimited           = errors.New("rate limited")
	ErrInvalidInput          = errors.New("invalid input")
	ErrInvalidURL            = errors.New("invalid arxiv url")
	ErrUnauthorized          = errors.New("unauthorized")
	ErrPaperNotFound         = errors.New("paper not found")
	ErrUpstreamFetch         = errors.New("upstream fetch failure")
	ErrPayloadTooLarge       = errors.New("payload too large")
	ErrInsufficientContent   = errors.New("insufficient content")
	ErrUpstreamAI            = errors.New("upstream ai failure")
	ErrEmptyUpstreamResponse = errors.New("empty upstream response")
	ErrInvalidResponseFormat = errors.New("invalid response format")
	ErrMissingRequiredField  = errors.New("missing required field")
	ErrTemporary             = errors.New("temporary failure")
)

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}
