package apperror

import "errors"

// SetupValidationMessage is shown to the players when a series cannot start.
const SetupValidationMessage = "Please fill in player names and select a valid best-of value"

var (
	ErrInvalidSetup   = errors.New("invalid series setup")
	ErrUnknownStorage = errors.New("unknown storage type")
	ErrNotFound       = errors.New("not found")
)
