package apperr

import (
	"errors"
	"fmt"
)

// Sentinel errors for the pipeline. Callers classify failures with
// errors.Is and the transport layer maps them onto status codes.
var (
	// ErrStoreUnavailable means the vector collection backing a session is
	// unreachable. Fatal to the current request and never retried
	// automatically.
	ErrStoreUnavailable = errors.New("vector store unavailable")

	// ErrUnsupportedFormat means no extractor accepts the uploaded file's
	// detected format. Scoped to one document within a batch.
	ErrUnsupportedFormat = errors.New("unsupported document format")

	// ErrExtractionFailed means an extractor accepted the format but could
	// not produce text. Scoped to one document within a batch.
	ErrExtractionFailed = errors.New("text extraction failed")

	// ErrServiceUnavailable means the completion or embedding service
	// could not be reached. Retryable.
	ErrServiceUnavailable = errors.New("completion service unavailable")

	// ErrRateLimited means the completion or embedding service rejected
	// the call for quota reasons. Retryable.
	ErrRateLimited = errors.New("completion service rate limited")

	// ErrSessionNotFound means no live session exists for the given id.
	ErrSessionNotFound = errors.New("session not found")
)

// Retryable reports whether err is a transient upstream failure worth
// another attempt under the configured retry policy.
func Retryable(err error) bool {
	return errors.Is(err, ErrServiceUnavailable) || errors.Is(err, ErrRateLimited)
}

// StoreUnavailable wraps a backing-store error into ErrStoreUnavailable,
// keeping the cause in the chain.
func StoreUnavailable(err error) error {
	return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
}

// ExtractionFailed wraps a per-document extraction error, tagging it with
// the file it came from.
func ExtractionFailed(fileName string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrExtractionFailed, fileName, err)
}
