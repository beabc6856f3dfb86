package domain

import "errors"

var (
	// ErrInternalServerError will throw if any the Internal Server Error happen
	ErrInternalServerError = errors.New("Internal Server Error")
	// ErrNotFound will throw if the requested item is not exists
	ErrNotFound = errors.New("Your requested Item is not found")
	// ErrBadParamInput will throw if the given request-body or params is not valid
	ErrBadParamInput = errors.New("Given Param is not valid")

	// ErrUnauthorized will throw if the sender fails an owner or ownership check
	ErrUnauthorized = errors.New("Unauthorized")
	// ErrExpired will throw if a bid/ask expiration has passed at time of use,
	// or a supplied expiration is already in the past
	ErrExpired = errors.New("Cannot set approval that is already expired")
	// ErrUnfunded will throw if a transaction carries no funds or not enough of them
	ErrUnfunded = errors.New("Transaction has to be properly funded")
	// ErrUnknownAddress will throw if a referenced bid or bidder does not exist
	ErrUnknownAddress = errors.New("Address is unknown in tx")
	// ErrUnknownAsk will throw if the ask's stored owner no longer owns the token
	ErrUnknownAsk = errors.New("Ask is no longer the owner of token")
	// ErrCannotMigrate will throw on a version-tag mismatch during migration
	ErrCannotMigrate = errors.New("Cannot migrate from different contract type")

	ErrInvalidNumberFormat = errors.New("invalid number format")
	ErrInvalidAddress      = errors.New("Invalid address")
)
