package billing

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration means no webhook signing secret is configured.
	ErrConfiguration = errors.New("missing webhook signing secret")
	// ErrInvalidSignature means the signature header does not match the body.
	ErrInvalidSignature = errors.New("invalid signature")
	// ErrMalformedPayload means a correctly signed body could not be parsed.
	ErrMalformedPayload = errors.New("malformed payload")
	// ErrStorageUnavailable is matched by every StorageError.
	ErrStorageUnavailable = errors.New("storage unavailable")
	// ErrEventNotFound is returned when replaying an event id that was never logged.
	ErrEventNotFound = errors.New("webhook event not found")
)

// StorageError reports a failed event log or ledger write.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

func (e *StorageError) Is(target error) bool {
	return target == ErrStorageUnavailable
}

// IsVerificationError reports whether err should be answered as a client error.
func IsVerificationError(err error) bool {
	return errors.Is(err, ErrConfiguration) ||
		errors.Is(err, ErrInvalidSignature) ||
		errors.Is(err, ErrMalformedPayload)
}
