package errors

import (
	"errors"
	"fmt"
)

// Domain error types for business logic

var (
	// ErrNotFound indicates a resource was not found
	ErrNotFound = errors.New("resource not found")

	// ErrAlreadyExists indicates a resource already exists
	ErrAlreadyExists = errors.New("resource already exists")

	// ErrInvalidInput indicates invalid input parameters
	ErrInvalidInput = errors.New("invalid input")

	// ErrInternal indicates an internal error
	ErrInternal = errors.New("internal error")

	// ErrTimeout indicates an operation timeout
	ErrTimeout = errors.New("operation timeout")

	// ErrUnavailable indicates a service is unavailable
	ErrUnavailable = errors.New("service unavailable")
)

// Workflow-specific errors

var (
	// ErrConfiguration indicates bad or missing role definitions; surfaced
	// before any phase executes, the run never starts.
	ErrConfiguration = errors.New("invalid workflow configuration")

	// ErrPhaseFatal indicates a mandatory role, a sequential-phase role, or
	// a debate judge failed. Aborts the run.
	ErrPhaseFatal = errors.New("phase failed")

	// ErrRunCancelled indicates cooperative cancellation was honored at a
	// phase boundary.
	ErrRunCancelled = errors.New("analysis run cancelled")

	// ErrRunNotFound indicates an unknown analysis run ID
	ErrRunNotFound = errors.New("analysis run not found")
)

// Agent invocation errors

var (
	// ErrUpstreamCapability indicates the external LLM or tool call failed
	// (timeout, rate limit, malformed response). Retries are the capability's
	// concern, the orchestration core only propagates.
	ErrUpstreamCapability = errors.New("upstream capability failed")

	// ErrToolScopeViolation indicates a role attempted a tool outside its
	// configured allow-list
	ErrToolScopeViolation = errors.New("tool outside role allow-list")

	// ErrRateLimitExceeded indicates AI provider rate limit exceeded
	ErrRateLimitExceeded = errors.New("rate limit exceeded")
)

// ValidationError rejects a role-config save. Nothing is persisted; the
// caller corrects and resubmits. Slug and Index identify the offending entry,
// Rule names the check that failed.
type ValidationError struct {
	Slug  string
	Index int
	Rule  string
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	if e.Slug != "" {
		return fmt.Sprintf("validation failed: role %q (index %d): %s", e.Slug, e.Index, e.Rule)
	}
	return fmt.Sprintf("validation failed: role at index %d: %s", e.Index, e.Rule)
}

// NewValidationError creates a new validation error
func NewValidationError(slug string, index int, rule string) *ValidationError {
	return &ValidationError{Slug: slug, Index: index, Rule: rule}
}

// RoleError attributes a failure to one role in one phase so the terminal
// run status can name the identifying phase and role.
type RoleError struct {
	PhaseID int
	Slug    string
	Err     error
}

// Error implements the error interface
func (e *RoleError) Error() string {
	return fmt.Sprintf("phase %d: role %q: %v", e.PhaseID, e.Slug, e.Err)
}

// Unwrap returns the wrapped error
func (e *RoleError) Unwrap() error {
	return e.Err
}

// NewRoleError creates a new role error
func NewRoleError(phaseID int, slug string, err error) *RoleError {
	return &RoleError{PhaseID: phaseID, Slug: slug, Err: err}
}

// PhaseFatal marks a role failure as fatal for the whole run. The result
// matches ErrPhaseFatal via Is and *RoleError via As.
func PhaseFatal(phaseID int, slug string, err error) error {
	return fmt.Errorf("%w: %w", ErrPhaseFatal, NewRoleError(phaseID, slug, err))
}

// Helper functions

// Is checks if err is or wraps target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target type
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// Wrap wraps an error with context
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with formatted context
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

func New(message string) error {
	return errors.New(message)
}

func Newf(format string, args ...interface{}) error {
	return fmt.Errorf(format, args...)
}
