package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Common error types
var (
	// Profile store errors
	ErrDuplicateName   = errors.New("profile name already exists")
	ErrInvalidServer   = errors.New("invalid DNS server address")
	ErrProfileNotFound = errors.New("profile not found")
	ErrEmptyName       = errors.New("profile name must not be empty")
	ErrProtected       = errors.New("built-in profiles cannot be removed")
	ErrEmptyProfile    = errors.New("profile has no servers")

	// Apply errors
	ErrBusy             = errors.New("another apply is already in progress")
	ErrPermissionDenied = errors.New("permission denied")
	ErrApplyFailed      = errors.New("DNS configuration did not apply")
	ErrNoConnection     = errors.New("no active NetworkManager connection found")

	// Cache flush errors
	ErrFlushFailed = errors.New("failed to flush DNS caches")

	// Persistence errors
	ErrPersistenceFailed = errors.New("profile persistence failed")
)

// ProfileError represents a profile-related error
type ProfileError struct {
	Name string
	Err  error
}

func (e *ProfileError) Error() string {
	return fmt.Sprintf("profile '%s': %v", e.Name, e.Err)
}

func (e *ProfileError) Unwrap() error {
	return e.Err
}

// ApplyError reports a failed apply, identifying the attempted profile and
// the configuration that was restored (or kept) by the rollback.
type ApplyError struct {
	Attempted string
	Previous  string
	Err       error
}

func (e *ApplyError) Error() string {
	if e.Previous != "" {
		return fmt.Sprintf("apply '%s' failed, rolled back to '%s': %v", e.Attempted, e.Previous, e.Err)
	}
	return fmt.Sprintf("apply '%s' failed: %v", e.Attempted, e.Err)
}

func (e *ApplyError) Unwrap() error {
	return e.Err
}

// ValidationError reports a rejected server address before any I/O happens.
type ValidationError struct {
	Address string
	Reason  string
}

func (e *ValidationError) Error() string {
	reason := e.Reason
	if reason == "" {
		reason = "not an IPv4/IPv6 literal"
	}
	return fmt.Sprintf("%v: %q (%s)", ErrInvalidServer, e.Address, reason)
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidServer
}

// CommandError represents a failure of an external network-management command
type CommandError struct {
	Command []string
	Output  string
	Err     error
}

func (e *CommandError) Error() string {
	cmd := strings.Join(e.Command, " ")
	if e.Output != "" {
		return fmt.Sprintf("command '%s': %v: %s", cmd, e.Err, strings.TrimSpace(e.Output))
	}
	return fmt.Sprintf("command '%s': %v", cmd, e.Err)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}
