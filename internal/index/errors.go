package index

import "errors"

var (
	// ErrInvalidPage is returned when the content service answers with a
	// page whose limit, offset or total is negative.
	ErrInvalidPage = errors.New("invalid index page")

	// ErrEmptyName is returned when an index name is empty.
	ErrEmptyName = errors.New("index name is empty")
)
