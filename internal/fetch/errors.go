package fetch

import (
	"errors"
	"fmt"
)

// integrityError signals a checksum mismatch on a downloaded artifact.
// The attempt is fatal but the caller may retry the download.
type integrityError struct {
	tierID string
	want   string
	got    string
}

func (e integrityError) Error() string {
	return fmt.Sprintf("artifact %s failed verification: want %s got %s", e.tierID, e.want, e.got)
}

// IsIntegrity reports whether err indicates a checksum mismatch.
func IsIntegrity(err error) bool {
	var e integrityError
	return errors.As(err, &e)
}

// networkError signals a download I/O failure (transport, status, disk).
type networkError struct {
	url   string
	cause error
}

func (e networkError) Error() string { return fmt.Sprintf("download %s: %v", e.url, e.cause) }
func (e networkError) Unwrap() error { return e.cause }

// IsNetwork reports whether err indicates a retryable download failure.
func IsNetwork(err error) bool {
	var e networkError
	return errors.As(err, &e)
}
