package config

import "errors"

// Configuration validation errors.
// These errors are returned by Config.Validate() and provide specific
// information about what is wrong with the configuration.
//
// Design decision: We use package-level sentinel errors rather than
// creating new error instances in Validate(). This allows callers to use
// errors.Is() for programmatic error handling while still providing
// human-readable messages.
var (
	// ErrNoTarget is returned when "storefront render" gets no file or URL.
	ErrNoTarget = errors.New("no target specified: provide a file path or URL")

	// ErrInvalidTimeout is returned when the timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidBatchSize is returned when the batch size is not positive.
	ErrInvalidBatchSize = errors.New("invalid batch size: must be positive")

	// ErrConflictingReportFormats is returned when both --json and --markdown
	// are specified. Only one output format can be used at a time.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")

	// ErrInvalidMaxBodySize is returned when the max body size is negative.
	// Use 0 to keep the default limit.
	ErrInvalidMaxBodySize = errors.New("invalid max body size: must be non-negative")

	// ErrInvalidPageSize is returned when the index page size is not
	// positive. A zero page size would never advance the index offset.
	ErrInvalidPageSize = errors.New("invalid index page size: must be positive")

	// ErrInvalidViewport is returned when the viewport width is not positive.
	ErrInvalidViewport = errors.New("invalid viewport: must be positive")

	// ErrInvalidDelay is returned when the delayed phase delay is negative.
	ErrInvalidDelay = errors.New("invalid delay: must be non-negative")
)
