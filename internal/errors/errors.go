package errors

import (
	"errors"
	"fmt"
)

// Common error types shared between the server and the sync client
var (
	// Authentication errors
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnauthorized       = errors.New("unauthorized access")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrNotAuthenticated   = errors.New("not authenticated")

	// Request errors
	ErrRateLimited  = errors.New("too many requests, please try again later")
	ErrInvalidData  = errors.New("invalid data format")
	ErrDataTooLarge = errors.New("data too large")
	ErrWeakCode     = errors.New("new code must be at least 4 characters long")

	// Store errors
	ErrNotFound = errors.New("not found")

	// General errors
	ErrInternal = errors.New("server error, please try again later")
	ErrOffline  = errors.New("client is offline")
)

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
