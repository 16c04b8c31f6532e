// Package pkg holds project metadata and the pieces shared by every other
// package: the structured [Error] type and the per-user directories.
package pkg

import (
	_ "embed"
	"strings"
)

//go:embed VERSION
var version string

// Version is the semantic version of the module embedded at build time.
var Version = strings.TrimSpace(version)

const (
	// Name is the command name. It appears in help text and default paths.
	Name = "bindc"
	// Description is a short summary of the project for help output.
	Description = "Binding expression compiler"
)

// AuthorInfo represents an individual author's name and email address.
type AuthorInfo struct {
	Name  string
	Email string
}

// Author lists the primary author(s) of the project.
var Author = []AuthorInfo{
	{"ardnew", "andrew@ardnew.com"},
}
