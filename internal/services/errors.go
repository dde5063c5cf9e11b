package services

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidEmail      = errors.New("input does not look like an email")
	ErrPermissionDenied  = errors.New("command is reserved for the administrator")
	ErrNotFound          = errors.New("participant not found")
	ErrNoParticipants    = errors.New("roster is empty")
	ErrInvalidCredential = errors.New("invalid credentials")
	ErrLoginDisabled     = errors.New("admin login is not configured")
)

// StorageError reports a failed store call. The operation it belongs to did
// not apply.
type StorageError struct {
	Op  string
	Key string
	Err error
}

func (e *StorageError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("storage %s %q: %v", e.Op, e.Key, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

func storageError(op, key string, err error) error {
	return &StorageError{Op: op, Key: key, Err: err}
}

// IsStorageError reports whether err came from the participant store.
func IsStorageError(err error) bool {
	var se *StorageError
	return errors.As(err, &se)
}
