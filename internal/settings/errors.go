package settings

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingConfig is matched by every MissingVariableError.
	ErrMissingConfig = errors.New("missing configuration")
	// ErrInvalidBindAddress is matched by every InvalidBindAddressError.
	ErrInvalidBindAddress = errors.New("invalid bind address")
	// ErrInvalidThreads is returned when thread bounds are negative or inverted.
	ErrInvalidThreads = errors.New("thread bounds must satisfy 0 <= min <= max with max > 0")
	// ErrInvalidWorkers is returned for a negative worker count.
	ErrInvalidWorkers = errors.New("workers must be a non-negative integer")
	// ErrUnknownEnvironment is matched by every UnknownEnvironmentError.
	ErrUnknownEnvironment = errors.New("unknown environment")
)

// MissingVariableError reports an environment variable that is unset or blank.
type MissingVariableError struct {
	Name string
}

func (e *MissingVariableError) Error() string {
	return fmt.Sprintf("environment variable %s is not set", e.Name)
}

func (e *MissingVariableError) Unwrap() error {
	return ErrMissingConfig
}

// InvalidBindAddressError reports a host/port pair the server could not bind.
type InvalidBindAddressError struct {
	Address string
	Reason  string
}

func (e *InvalidBindAddressError) Error() string {
	return fmt.Sprintf("invalid bind address %q: %s", e.Address, e.Reason)
}

func (e *InvalidBindAddressError) Unwrap() error {
	return ErrInvalidBindAddress
}

// UnknownEnvironmentError reports an unsupported environment mode.
type UnknownEnvironmentError struct {
	Value string
}

func (e *UnknownEnvironmentError) Error() string {
	return fmt.Sprintf("unknown environment %q (want production, development or test)", e.Value)
}

func (e *UnknownEnvironmentError) Unwrap() error {
	return ErrUnknownEnvironment
}
