package repository

import "errors"

var (
	// ErrNotFound indicates the referenced document does not exist.
	ErrNotFound = errors.New("not found")
	// ErrValidation indicates a required ID or field was blank.
	ErrValidation = errors.New("validation failed")
	// ErrDuplicateAssignment indicates the word is already assigned to the
	// student.
	ErrDuplicateAssignment = errors.New("word already assigned to student")
)
