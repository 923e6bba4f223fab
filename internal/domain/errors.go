package domain

import (
	"errors"
)

var (
	// ErrInvalidInput signals a request that cannot be processed as given.
	ErrInvalidInput = errors.New("invalid input")
	// ErrNotFound signals a missing resource.
	ErrNotFound = errors.New("not found")

	// ErrRateLimited signals a rate limit hit.
	ErrRateLimited = errors.New("rate limited")
	// ErrEmbeddingQuotaExceeded signals an exhausted embedding budget.
	ErrEmbeddingQuotaExceeded = errors.New("embedding quota exceeded")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")

	// ErrQueryFailed signals a failed warehouse query job.
	ErrQueryFailed = errors.New("query failed")
	// ErrStorageUnavailable signals that a persistence backend is not configured or reachable.
	ErrStorageUnavailable = errors.New("storage unavailable")
)
