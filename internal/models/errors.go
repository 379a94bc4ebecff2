package models

import "errors"

// ErrInvalidSelection reports a choice that does not name anything known: an
// unrecognised role at routing time, an unknown employee name on assignment,
// or a filter value that is no longer among the facet values.
var ErrInvalidSelection = errors.New("invalid selection")
