package contentrepo

import "errors"

var (
	// ErrNotFound indicates the requested record does not exist.
	ErrNotFound = errors.New("content record not found")

	// ErrSlugTaken indicates a project with the same slug already exists.
	ErrSlugTaken = errors.New("slug already taken")
)
