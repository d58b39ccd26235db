package model

import (
	"fmt"

	"github.com/babydessy/mutest-rs/internal/model/ast"
	"github.com/babydessy/mutest-rs/internal/model/hir"
)

// DiagnosticLevel is the severity of a diagnostic.
type DiagnosticLevel string

// Diagnostic levels.
const (
	LevelWarning DiagnosticLevel = "warning"
	LevelNote    DiagnosticLevel = "note"
)

// Diagnostic is a recoverable problem found during analysis.
type Diagnostic struct {
	Level   DiagnosticLevel `yaml:"level"`
	Message string          `yaml:"message"`
	Def     hir.DefID       `yaml:"def,omitempty"`
	Span    ast.Span        `yaml:"span,omitempty"`
}

func (d Diagnostic) String() string {
	if d.Span.IsDummy() {
		return fmt.Sprintf("%s: %s", d.Level, d.Message)
	}

	return fmt.Sprintf("%s: %s\n  --> %s", d.Level, d.Message, d.Span)
}
