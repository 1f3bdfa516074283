// Package backend defines the pluggable code-generation capability and
// the registry that dispatches to named implementations (spec §4.G).
package backend

import "github.com/anthropics/dezzy/lir"

// Backend is the capability set every code-generation implementation
// must provide: a name and a generate function from LIR to source text.
type Backend interface {
	Name() string
	Generate(format *lir.Format) (*GeneratedCode, error)
}

// GeneratedFile is one emitted source file.
type GeneratedFile struct {
	Path    string
	Content string
}

// GeneratedCode is the ordered sequence of files one Generate call
// produces.
type GeneratedCode struct {
	Files []GeneratedFile
}
