package pkl

import (
	"go/scanner"

	"github.com/poke-lang/poke/ast"
	"github.com/poke-lang/poke/cenv"
	"github.com/poke-lang/poke/codegen"
	"github.com/poke-lang/poke/pass"
	"github.com/poke-lang/poke/sema"
)

// Diagnostics collects the errors and warnings accumulated across an
// entire compile attempt (every phase run by one CompileBuffer/
// CompileFile/CompileStatement/CompileExpression call), in the order
// the phases ran.
type Diagnostics struct {
	Errors   scanner.ErrorList
	Warnings scanner.ErrorList
}

// Count reports the total number of errors recorded so far.
func (d *Diagnostics) Count() int { return len(d.Errors) }

// Err returns the accumulated errors sorted by position, or nil.
func (d *Diagnostics) Err() error {
	if len(d.Errors) == 0 {
		return nil
	}
	d.Errors.Sort()
	return d.Errors.Err()
}

func (d *Diagnostics) absorb(pd *sema.Diagnostics, errorOnWarning bool) {
	d.Errors = append(d.Errors, pd.Errors...)
	if errorOnWarning {
		d.Errors = append(d.Errors, pd.Warnings...)
	} else {
		d.Warnings = append(d.Warnings, pd.Warnings...)
	}
}

// runPipeline runs the nine front-end phases over prog in spec §4.5's
// fixed order, each against its own sema.Diagnostics so a warning
// promoted to an error in one phase never blames a later one's count.
// The pipeline aborts between phases if the phase just run produced any
// error (spec §7 tier 2) — pass.Do itself only aborts on its own
// internal error counter, which no sema phase increments, so enforcing
// the between-phase abort is this driver's job, not pass.Do's.
//
// env accumulates the declarations every phase's bindScopes call
// registers; reusing the same *cenv.Env across all nine phases is safe
// because every CompStmt/LambdaExpr frame a phase opens is popped again
// by the time that phase's traversal finishes, so env is back to the
// same frame depth at the start of every phase.
func runPipeline(d *Diagnostics, env *cenv.Env, prog *ast.Program, errorOnWarning bool) (*codegen.Program, error) {
	phases := []func(*sema.Diagnostics) *pass.Phase{
		func(pd *sema.Diagnostics) *pass.Phase { return sema.Trans1(pd, env) },
		func(pd *sema.Diagnostics) *pass.Phase { return sema.Anal1(pd) },
		func(pd *sema.Diagnostics) *pass.Phase { return sema.Typify1(pd, env) },
		func(pd *sema.Diagnostics) *pass.Phase { return sema.Promo(pd) },
		func(pd *sema.Diagnostics) *pass.Phase { return sema.Trans2(pd) },
		func(pd *sema.Diagnostics) *pass.Phase { return sema.Fold(pd) },
		func(pd *sema.Diagnostics) *pass.Phase { return sema.Trans3(pd) },
		func(pd *sema.Diagnostics) *pass.Phase { return sema.Typify2(pd) },
		func(pd *sema.Diagnostics) *pass.Phase { return sema.Anal2(pd) },
	}

	for _, mk := range phases {
		pd := &sema.Diagnostics{}
		phase := mk(pd)
		if err := pass.Do(prog, []*pass.Phase{phase}); err != nil {
			return nil, err
		}
		d.absorb(pd, errorOnWarning)
		if d.Count() > 0 {
			return nil, d.Err()
		}
	}

	return codegen.Compile(prog), nil
}
