// Package org models the warehouse organization subdomain: buildings and
// the storage facilities inside them. Plain CRUD, no lifecycle orchestration.
package org

import "errors"

var (
	// ErrInvalidArgument rejects malformed input values.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrNotFound marks a missing building, facility or section.
	ErrNotFound = errors.New("not found")

	// ErrConflict marks duplicate identities or section codes.
	ErrConflict = errors.New("conflict")
)
