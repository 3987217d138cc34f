package spritz

import (
	"errors"
	"fmt"

	goerrors "github.com/agilira/go-errors"
)

// Sentinel errors, for use with errors.Is.
var (
	// ErrEmptyInput is returned when a key, IV, message, or other input is empty.
	ErrEmptyInput = errors.New("spritz: input cannot be empty")

	// ErrInvalidSize is returned when a requested output length is outside [1, MaxSize].
	ErrInvalidSize = errors.New("spritz: invalid output size")

	// ErrUninitialized is returned when the state of an uninitialized State is requested.
	ErrUninitialized = errors.New("spritz: state is not initialized")

	// ErrInvalidState is returned when decoding a State that is malformed or violates its invariants.
	ErrInvalidState = errors.New("spritz: invalid state")
)

// Error codes attached to returned errors.
const (
	ErrCodeEmptyInput    = "SPRITZ_EMPTY_INPUT"
	ErrCodeInvalidSize   = "SPRITZ_INVALID_SIZE"
	ErrCodeUninitialized = "SPRITZ_UNINITIALIZED"
	ErrCodeInvalidState  = "SPRITZ_INVALID_STATE"
)

// CheckNonEmpty returns an ErrEmptyInput error naming the argument if b is empty.
func CheckNonEmpty(name string, b []byte) error {
	if len(b) == 0 {
		return emptyInput(name)
	}
	return nil
}

// CheckSize returns an ErrInvalidSize error if n is not a valid hash or MAC length.
func CheckSize(n int) error {
	if n < 1 || n > MaxSize {
		richErr := goerrors.New(ErrCodeInvalidSize, fmt.Sprintf("output size must be between 1 and %d bytes (got %d)", MaxSize, n))
		return fmt.Errorf("%w: %w", ErrInvalidSize, richErr)
	}
	return nil
}

func emptyInput(name string) error {
	richErr := goerrors.New(ErrCodeEmptyInput, name+" cannot be empty")
	return fmt.Errorf("%w: %w", ErrEmptyInput, richErr)
}

func uninitialized() error {
	richErr := goerrors.New(ErrCodeUninitialized, "Init must be called before the state can be read")
	return fmt.Errorf("%w: %w", ErrUninitialized, richErr)
}

func invalidState(msg string) error {
	richErr := goerrors.New(ErrCodeInvalidState, msg)
	return fmt.Errorf("%w: %w", ErrInvalidState, richErr)
}
