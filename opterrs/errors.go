// Package opterrs declares the optimizer's error kinds, built with
// gopkg.in/src-d/go-errors.v1's Kind pattern — the same pattern
// dolthub/go-mysql-server's auth package uses for its own declared errors
// (ErrNotAuthorized, ErrNoPermission).
package opterrs

import errors "gopkg.in/src-d/go-errors.v1"

var (
	// RuleError wraps an error returned from a rule's OnMatch action; a
	// panic inside OnMatch is not recovered. Fatal to the session.
	RuleError = errors.NewKind("rule %q failed: %s")

	// NoPlanFound means the target subset has no feasible complete plan
	// at extraction time.
	NoPlanFound = errors.NewKind("no plan found for subset %v")

	// InfeasibleConversion means an enforcer could not materialize a
	// requested trait on some axis.
	InfeasibleConversion = errors.NewKind("cannot convert axis %q from %v to %v")

	// Cancelled means the driver stopped in response to a cooperative
	// cancellation request.
	Cancelled = errors.NewKind("optimization cancelled")

	// InvalidState reports a violated memo invariant; always fatal, used
	// in tests as an assertion failure.
	InvalidState = errors.NewKind("invalid optimizer state: %s")
)
