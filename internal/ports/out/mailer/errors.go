package mailer

import "errors"

var (
	// ErrNotConfigured indicates the mail transport is missing required
	// settings (host/user) and refused to attempt transmission.
	ErrNotConfigured = errors.New("mail transport not configured")
)
