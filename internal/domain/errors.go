package domain

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrStore signals an interaction or preference store I/O failure.
	ErrStore = errors.New("store error")
	// ErrConversion signals a preference-to-query conversion (embedding) failure.
	ErrConversion = errors.New("conversion error")
	// ErrSearch signals a vector index failure.
	ErrSearch = errors.New("search error")
	// ErrTimeout signals an external call exceeding its deadline.
	ErrTimeout = errors.New("timeout")
	// ErrProfileNotFound signals a missing preference profile.
	ErrProfileNotFound = errors.New("profile not found")
	// ErrInvalidAction signals an interaction with an unknown action.
	ErrInvalidAction = errors.New("invalid interaction action")
	// ErrEmbeddingQuotaExceeded signals an exhausted embedding token budget.
	ErrEmbeddingQuotaExceeded = errors.New("embedding quota exceeded")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
)

// StoreErr wraps err as a store failure with the operation name and user for context.
func StoreErr(op, userID string, err error) error {
	if userID == "" {
		return fmt.Errorf("%s: %w: %w", op, ErrStore, err)
	}
	return fmt.Errorf("%s user %s: %w: %w", op, userID, ErrStore, err)
}

// SearchErr wraps err as a vector index failure with the operation name.
func SearchErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrSearch, err)
}

// ConversionErr wraps err as a query conversion failure.
func ConversionErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrConversion, err)
}

// TimeoutOr marks context deadline errors as ErrTimeout so callers can
// distinguish a slow collaborator from a failed one. Other errors pass through.
func TimeoutOr(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", ErrTimeout, err)
	}
	return err
}
