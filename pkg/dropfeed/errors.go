package dropfeed

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Error types
var (
	// ErrUnauthorized indicates a missing or incorrect admin credential
	ErrUnauthorized = errors.New("unauthorized")

	// ErrValidation indicates a write request failed validation
	ErrValidation = errors.New("validation failed")

	// ErrInvalidCategory indicates an airdrop category outside the known set
	ErrInvalidCategory = errors.New("bad category")

	// ErrPostNotFound indicates an update targeted a post that does not exist
	ErrPostNotFound = errors.New("post not found")

	// ErrAirdropNotFound indicates an update targeted an airdrop that does not exist
	ErrAirdropNotFound = errors.New("airdrop not found")

	// ErrRepositoryNotConfigured indicates the service was built without a repository
	ErrRepositoryNotConfigured = errors.New("repository not configured")
)

// ValidationError carries the client-facing message of a rejected write.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// IsNotFound reports whether err is a not-found-on-update outcome.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrPostNotFound) || errors.Is(err, ErrAirdropNotFound)
}

// WriteError represents a failed write against a single item
type WriteError struct {
	Resource string
	ID       *uuid.UUID
	Op       string
	Err      error
}

func (e *WriteError) Error() string {
	if e.ID == nil {
		return fmt.Sprintf("%s operation %s failed: %v", e.Resource, e.Op, e.Err)
	}
	return fmt.Sprintf("%s operation %s failed for %s: %v", e.Resource, e.Op, *e.ID, e.Err)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}
