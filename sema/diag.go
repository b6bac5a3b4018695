// Package sema implements the nine front-end semantic phases run in order
// by the pass driver (spec §4.5): trans1, anal1, typify1, promo, trans2,
// fold, trans3, typify2, anal2. Each phase is a pass.Phase built from a
// table of handlers operating on the AST (C3) with the compile-time
// environment (C4).
package sema

import (
	"fmt"
	"go/scanner"
	gotoken "go/token"

	"github.com/poke-lang/poke/ast"
)

// Diagnostics accumulates compile-time errors and warnings for one phase
// run, reusing go/scanner's Error/ErrorList the way the teacher reuses it
// for its own hand-rolled language's diagnostics (lang/scanner/scanner.go:
// "Error = scanner.Error; ErrorList = scanner.ErrorList") rather than
// hand-rolling a position-sorted error list.
type Diagnostics struct {
	Errors   scanner.ErrorList
	Warnings scanner.ErrorList
}

func position(loc ast.Loc) gotoken.Position {
	return gotoken.Position{Filename: loc.File, Line: loc.Line, Column: loc.Col}
}

// Errorf records a compile-time diagnostic at n's source location (spec §7
// tier 2: "a diagnostic is reported with source location").
func (d *Diagnostics) Errorf(n ast.Node, format string, args ...any) {
	d.Errors.Add(position(n.Base().Loc), fmt.Sprintf(format, args...))
}

// Warnf records a warning at n's source location.
func (d *Diagnostics) Warnf(n ast.Node, format string, args ...any) {
	d.Warnings.Add(position(n.Base().Loc), fmt.Sprintf(format, args...))
}

// Count reports the number of errors recorded so far.
func (d *Diagnostics) Count() int { return len(d.Errors) }

// Err returns the accumulated errors sorted by position, or nil if there
// were none (spec §4.5 "each phase records its error count in its
// payload").
func (d *Diagnostics) Err() error {
	if len(d.Errors) == 0 {
		return nil
	}
	d.Errors.Sort()
	return d.Errors.Err()
}
