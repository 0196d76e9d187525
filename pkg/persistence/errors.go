// Package persistence holds errors shared by store implementations.
package persistence

import "errors"

var (
	// ErrNotFound is returned when no record matches the requested id.
	ErrNotFound = errors.New("record not found")

	// ErrAlreadyExists is returned when inserting a record whose id is taken.
	ErrAlreadyExists = errors.New("record already exists")

	// ErrConcurrencyConflict is returned when a conditional write finds a
	// version other than the one it was conditioned on.
	ErrConcurrencyConflict = errors.New("concurrency conflict")
)
