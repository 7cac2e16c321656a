package memberrepo

import "errors"

var (
	// ErrNotFound indicates the requested member does not exist.
	ErrNotFound = errors.New("member not found")

	// ErrRegNumberTaken indicates a member already exists with the provided
	// registration number.
	ErrRegNumberTaken = errors.New("registration number already taken")

	// ErrEmailTaken indicates a member already exists with the provided email.
	ErrEmailTaken = errors.New("email already taken")

	// ErrAlreadyExists indicates a member already exists with the provided ID.
	ErrAlreadyExists = errors.New("member already exists")
)
