package database

import "errors"

// ErrNotFound is returned when the database file, an index snapshot or a
// render report does not exist.
//
// Design decision: lookups return a wrapped sentinel instead of a nil
// record so callers cannot mistake "absent" for "empty".
var ErrNotFound = errors.New("not found")
