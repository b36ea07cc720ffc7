package pipeline

import "errors"

// Sentinel errors for the pipeline package.
var (
	// ErrConfiguration marks a pre-flight options problem. It is
	// returned before any stage runs; stage failures never use it.
	ErrConfiguration = errors.New("invalid pipeline options")

	// ErrContentProcessing wraps content stage failures.
	ErrContentProcessing = errors.New("content processing failed")

	// ErrLocationExtraction wraps place extraction stage failures.
	ErrLocationExtraction = errors.New("location extraction failed")

	// ErrPublish wraps failures to reach the destination store.
	ErrPublish = errors.New("publish failed")
)
