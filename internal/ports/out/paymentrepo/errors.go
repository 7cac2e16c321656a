package paymentrepo

import "errors"

var (
	// ErrNotFound indicates the requested payment does not exist.
	ErrNotFound = errors.New("payment not found")

	// ErrTransactionIDTaken indicates a payment already carries the provider
	// transaction ID.
	ErrTransactionIDTaken = errors.New("transaction id already recorded")
)
