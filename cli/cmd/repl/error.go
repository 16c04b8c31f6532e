package repl

import "github.com/ardnew/bindc/pkg"

// Sentinel errors.
var (
	ErrOutOfBounds  = pkg.NewError("index out of range")
	ErrEditDeclined = pkg.NewError("decline edit")
	ErrNoSession    = pkg.NewError("no session")
	ErrFailed       = pkg.NewError("bindings failed")
)
