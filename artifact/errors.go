package artifact

import "errors"

// ErrNotFound is returned when no artifact exists for the given
// conversation, name and version.
var ErrNotFound = errors.New("artifact not found")
