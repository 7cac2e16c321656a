package departmentrepo

import "errors"

var (
	// ErrNotFound indicates the requested department or course does not exist.
	ErrNotFound = errors.New("department not found")

	// ErrCourseNotFound indicates the requested course does not exist.
	ErrCourseNotFound = errors.New("course not found")

	// ErrAlreadyExists indicates a department or course with the same unique
	// name/slug already exists.
	ErrAlreadyExists = errors.New("department already exists")
)
