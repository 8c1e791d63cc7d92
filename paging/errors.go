package paging

import (
	"errors"
	"fmt"
)

// ErrorCode represents different types of simulator errors
type ErrorCode int

const (
	// Generic errors
	ErrCodeUnknown ErrorCode = iota
	ErrCodeInternal

	// Boundary errors
	ErrCodeInvalidInput
	ErrCodeInvalidFrameCount
	ErrCodeUnknownAlgorithm
	ErrCodeInvalidConfig
	ErrCodeInvalidWorkload

	// Engine errors
	ErrCodeInvariantViolation

	// Snapshot errors
	ErrCodeSnapshotCorrupted
	ErrCodeSnapshotNotFound
	ErrCodeStoreLocked
)

// SimError represents a simulator error with context
type SimError struct {
	Code    ErrorCode
	Message string
	Op      string // Operation that failed
	Err     error  // Underlying error (if any)
}

// Error implements the error interface
func (e *SimError) Error() string {
	if e.Op != "" {
		if e.Err != nil {
			return fmt.Sprintf("%s: %s: %v", e.Op, e.Message, e.Err)
		}
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error
func (e *SimError) Unwrap() error {
	return e.Err
}

// Is matches any *SimError carrying the same code
func (e *SimError) Is(target error) bool {
	if t, ok := target.(*SimError); ok {
		return e.Code == t.Code
	}
	return false
}

// NewSimError creates a new simulator error
func NewSimError(code ErrorCode, op, message string, err error) *SimError {
	return &SimError{
		Code:    code,
		Message: message,
		Op:      op,
		Err:     err,
	}
}

// Helper functions for common errors

func ErrInvalidProcessID(op string) *SimError {
	return NewSimError(ErrCodeInvalidInput, op, "process id must not be empty", nil)
}

func ErrInvalidPageNumber(op string, pageNumber int) *SimError {
	return NewSimError(
		ErrCodeInvalidInput,
		op,
		fmt.Sprintf("page number %d must be non-negative", pageNumber),
		nil,
	)
}

func ErrInvalidFrameCount(op string, frameCount int) *SimError {
	return NewSimError(
		ErrCodeInvalidFrameCount,
		op,
		fmt.Sprintf("frame count %d must be positive", frameCount),
		nil,
	)
}

func ErrUnknownAlgorithm(op, name string) *SimError {
	return NewSimError(
		ErrCodeUnknownAlgorithm,
		op,
		fmt.Sprintf("unknown replacement algorithm %q", name),
		nil,
	)
}

func ErrInvariant(op, detail string) *SimError {
	return NewSimError(ErrCodeInvariantViolation, op, detail, nil)
}

func ErrSnapshotCorrupted(op string, err error) *SimError {
	return NewSimError(ErrCodeSnapshotCorrupted, op, "snapshot is corrupted", err)
}

func ErrSnapshotNotFound(op, name string) *SimError {
	return NewSimError(
		ErrCodeSnapshotNotFound,
		op,
		fmt.Sprintf("snapshot %q not found", name),
		nil,
	)
}

// IsErrorCode checks if an error chain carries a specific error code
func IsErrorCode(err error, code ErrorCode) bool {
	var se *SimError
	if errors.As(err, &se) {
		return se.Code == code
	}
	return false
}

// GetErrorCode returns the error code from an error, or ErrCodeUnknown
func GetErrorCode(err error) ErrorCode {
	var se *SimError
	if errors.As(err, &se) {
		return se.Code
	}
	return ErrCodeUnknown
}
