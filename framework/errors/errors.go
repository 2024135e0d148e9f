// Package errors defines the error taxonomy shared by every autowire package
// and re-exports the github.com/pkg/errors helpers used to attach context.
//
// Every typed error matches its sentinel through errors.Is:
//
//	_, err := c.Get("Missing")
//	errors.Is(err, errors.ErrNotFound) // true
package errors

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

var (
	ErrNotFound           = errors.New("autowire: not found")
	ErrConfiguration      = errors.New("autowire: invalid container configuration")
	ErrWiring             = errors.New("autowire: wiring failed")
	ErrCircularDependency = errors.New("autowire: circular dependency")
	ErrNotInstantiable    = errors.New("autowire: class is not instantiable")
	ErrUnknownClass       = errors.New("autowire: unknown class")
)

var (
	Wrap      = errors.Wrap
	Wrapf     = errors.Wrapf
	Errorf    = errors.Errorf
	New       = errors.New
	WithStack = errors.WithStack
	Cause     = errors.Cause
	Is        = errors.Is
	As        = errors.As
)

// ── NotFound ──────────────────────────────────────────────────────────────────

// NotFoundError is returned when an identifier is absent from a container.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s was not found in container", e.ID)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// NotFound builds a NotFoundError for id.
func NotFound(id string) error {
	return &NotFoundError{ID: id}
}

// IsNotFoundOf reports whether err is (or wraps) a NotFoundError for exactly id.
// A NotFound raised for some nested identifier does not count.
func IsNotFoundOf(err error, id string) bool {
	var nf *NotFoundError
	if !As(err, &nf) {
		return false
	}
	return nf.ID == id
}

// ── Configuration ─────────────────────────────────────────────────────────────

// ConfigurationError is a build-time error: the registered classes and
// parameters cannot form a valid container.
type ConfigurationError struct {
	Class     string
	Parameter string
	Reason    string
}

func (e *ConfigurationError) Error() string {
	switch {
	case e.Class != "" && e.Parameter != "":
		return fmt.Sprintf("failed to wire parameter %q of class %s: %s", e.Parameter, e.Class, e.Reason)
	case e.Class != "":
		return fmt.Sprintf("failed to configure class %s: %s", e.Class, e.Reason)
	default:
		return "invalid container configuration: " + e.Reason
	}
}

func (e *ConfigurationError) Is(target error) bool { return target == ErrConfiguration }

// ── Wiring ────────────────────────────────────────────────────────────────────

// WiringError is raised when a class-typed parameter cannot be satisfied while
// the owning identifier is being resolved.
type WiringError struct {
	ID        string
	Parameter string
	Err       error
}

func (e *WiringError) Error() string {
	if e.Parameter == "" {
		return fmt.Sprintf("failed to wire %s: %v", e.ID, e.Err)
	}
	return fmt.Sprintf("failed to wire parameter %q of %s: %v", e.Parameter, e.ID, e.Err)
}

func (e *WiringError) Unwrap() error { return e.Err }

func (e *WiringError) Is(target error) bool { return target == ErrWiring }

// ── Cycles ────────────────────────────────────────────────────────────────────

// CircularDependencyError carries the resolution chain that led back to an
// identifier already being resolved.
type CircularDependencyError struct {
	Chain []string
}

func (e *CircularDependencyError) Error() string {
	return "circular dependency detected: " + strings.Join(e.Chain, " -> ")
}

func (e *CircularDependencyError) Is(target error) bool { return target == ErrCircularDependency }
