package reviewseed

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for common failure scenarios.
// These enable callers to distinguish error types using errors.Is().
//
// Example usage:
//
//	_, err := loader.Load(ctx, cfg)
//	if errors.Is(err, reviewseed.ErrBankNotFound) {
//	    // the bank was never seeded
//	}
var (
	// ErrInvalidConfig indicates the provided configuration is invalid.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrConnectionFailed indicates the database could not be reached.
	ErrConnectionFailed = errors.New("connection failed")

	// ErrBankNotFound indicates the bank name lookup returned no rows.
	ErrBankNotFound = errors.New("bank not found")

	// ErrInsertFailed indicates a review row could not be inserted.
	ErrInsertFailed = errors.New("insert failed")

	// ErrUnsupportedAuthMethod indicates the requested authentication method is not supported.
	ErrUnsupportedAuthMethod = errors.New("unsupported authentication method")

	// ErrInterrupted indicates a load stopped because its context was
	// cancelled or timed out. Nothing was committed.
	ErrInterrupted = errors.New("load interrupted")

	// ErrUnsupportedDriver indicates the requested database driver is not supported.
	ErrUnsupportedDriver = errors.New("unsupported database driver")
)

// InsertError reports the review that failed to insert and its position in
// the generated set. It matches ErrInsertFailed with errors.Is.
type InsertError struct {
	// Index is the zero-based position of the review in the generated slice.
	Index  int
	Review Review
	Err    error
}

func (e *InsertError) Error() string {
	msg := fmt.Sprintf("insert failed at row %d (%q)", e.Index+1, previewText(e.Review.Text))
	if code := e.SQLState(); code != "" {
		msg += " [" + code + "]"
	}
	return msg + ": " + e.Err.Error()
}

func (e *InsertError) Unwrap() error { return e.Err }

// previewText shortens text to MaxErrorPreviewLength characters.
// The cut never splits a multi-byte character.
func previewText(text string) string {
	n := 0
	for i := range text {
		if n == MaxErrorPreviewLength {
			return text[:i] + "..."
		}
		n++
	}
	return text
}

// Is reports ErrInsertFailed so callers need not type-assert.
func (e *InsertError) Is(target error) bool { return target == ErrInsertFailed }

// SQLState returns the driver's SQLSTATE code for the failure, or "" when the
// underlying error does not carry one.
func (e *InsertError) SQLState() string {
	var coded interface{ SQLState() string }
	if errors.As(e.Err, &coded) {
		return coded.SQLState()
	}
	return ""
}

// ExitCodeForError returns the appropriate exit code for an error.
// Returns ExitSuccess (0) for nil errors, semantic codes for known errors,
// and ExitGeneralError (1) for unclassified errors.
func ExitCodeForError(err error) int {
	if err == nil {
		return ExitSuccess
	}

	switch {
	case errors.Is(err, ErrInvalidConfig),
		errors.Is(err, ErrUnsupportedAuthMethod),
		errors.Is(err, ErrUnsupportedDriver):
		return ExitConfigError
	case errors.Is(err, ErrConnectionFailed):
		return ExitConnectionError
	case errors.Is(err, ErrBankNotFound):
		return ExitBankNotFound
	case errors.Is(err, ErrInterrupted):
		return ExitGeneralError
	case errors.Is(err, ErrInsertFailed):
		return ExitInsertFailed
	}

	errStr := err.Error()
	if isUsageError(errStr) {
		return ExitUsageError
	}
	if strings.Contains(errStr, "failed to connect") ||
		strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "no such host") {
		return ExitConnectionError
	}

	return ExitGeneralError
}

// isUsageError recognises cobra's argument and flag parsing messages.
func isUsageError(msg string) bool {
	for _, prefix := range []string{
		"unknown flag",
		"unknown shorthand flag",
		"unknown command",
		"accepts ",
		"required flag",
		"invalid argument",
		"flag needs an argument",
	} {
		if strings.HasPrefix(msg, prefix) {
			return true
		}
	}
	return false
}
