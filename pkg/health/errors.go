package health

import "errors"

// ErrCheckTimeout marks a check that did not answer before the deadline.
var ErrCheckTimeout = errors.New("health: check timeout")
