package models

import "errors"

// ErrNotFound is returned when an entity does not exist or is not owned by
// the acting user. The two cases are deliberately indistinguishable.
var ErrNotFound = errors.New("not found")

// ErrDuplicate is returned when an insert violates a uniqueness constraint,
// e.g. two concurrent first requests provisioning the same identity.
var ErrDuplicate = errors.New("duplicate record")
