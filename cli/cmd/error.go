package cmd

import "github.com/ardnew/bindc/pkg"

var (
	ErrSession     = pkg.NewError("open session")
	ErrCheck       = pkg.NewError("bindings failed to compile")
	ErrEvaluate    = pkg.NewError("evaluate binding")
	ErrNoBindings  = pkg.NewError("no bindings given")
	ErrEncode      = pkg.NewError("encode result")
	ErrWriteConfig = pkg.NewError("write configuration file")
	ErrFileExists  = pkg.NewError("file exists (use --force to overwrite)")
)
