// Package pkl is the compiler facade spec §6 calls the "compiler entry
// points": a Compiler wraps one VM and one live top-level environment,
// and offers compile_buffer/compile_statement/compile_expression/
// compile_file plus bootstrap and module-lookup support.
//
// There is no direct teacher equivalent to unify around — the teacher's
// own command-line tool calls its parser/resolver package functions one
// after another with no wrapping type — so Compiler's shape is original
// to this repo, built from internal/maincmd/{parse,resolve,tokenize}.go's
// pattern of "one function per pipeline stage" generalized into a single
// type that also owns the atomic env-swap-on-success behavior spec §5's
// "Shared-resource policy" requires.
package pkl

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/poke-lang/poke/ast"
	"github.com/poke-lang/poke/cenv"
	"github.com/poke-lang/poke/codegen"
	"github.com/poke-lang/poke/pvm"
)

// rtFiles are bootstrapped in order on every New (spec §6 "bootstraps it
// by compiling pkl-rt.pk then std.pk from rt_path").
var rtFiles = []string{"pkl-rt.pk", "std.pk"}

// Compiler is a compile-time environment plus the VM it targets. Every
// Compile* method duplicates env, compiles against the duplicate, and
// only replaces the live env with the duplicate once every phase and
// codegen succeed (spec §5 "a REPL compiling a new declaration works on
// a duplicated top-level frame and atomically replaces the live frame
// only after success").
type Compiler struct {
	vm     *pvm.VM
	env    *cenv.Env
	parser Parser

	loadPath       string
	errorOnWarning bool
	quiet          bool
	bootstrapped   bool
}

// New constructs a Compiler around vm and bootstraps it by compiling
// pkl-rt.pk then std.pk from rtPath (spec §6). parser supplies the AST
// for every subsequent Compile* call; rtPath's two bootstrap files are
// read from disk directly since they are always local files, never
// module-lookup targets.
func New(vm *pvm.VM, parser Parser, rtPath string) (*Compiler, error) {
	c := &Compiler{
		vm:     vm,
		env:    cenv.New(),
		parser: parser,
	}
	for _, name := range rtFiles {
		if err := c.CompileFile(filepath.Join(rtPath, name)); err != nil {
			return nil, fmt.Errorf("pkl: bootstrapping %s: %w", name, err)
		}
	}
	c.bootstrapped = true
	return c, nil
}

// GetEnv returns the compiler's live top-level environment.
func (c *Compiler) GetEnv() *cenv.Env { return c.env }

// GetVM returns the VM this compiler targets.
func (c *Compiler) GetVM() *pvm.VM { return c.vm }

// SetErrorOnWarning implements spec §7's "warnings are promoted to
// errors iff error_on_warning is set on the compiler".
func (c *Compiler) SetErrorOnWarning(v bool) { c.errorOnWarning = v }

// SetQuiet suppresses warning output from whatever reports diagnostics
// to the user (the facade itself never prints; Quiet is state a
// command-line collaborator reads back via IsQuiet).
func (c *Compiler) SetQuiet(v bool) { c.quiet = v }

// IsQuiet reports the current quiet setting.
func (c *Compiler) IsQuiet() bool { return c.quiet }

// Bootstrapped reports whether pkl-rt.pk and std.pk have successfully
// compiled (spec §6 "bootstrapped?").
func (c *Compiler) Bootstrapped() bool { return c.bootstrapped }

// SetLoadPath sets the colon-separated, %DATADIR%-templated module
// search path the runtime otherwise exposes as the string variable
// load_path (spec §6 "Module lookup").
func (c *Compiler) SetLoadPath(path string) { c.loadPath = path }

// compile parses src with fn, runs the nine-phase pipeline and codegen
// against a duplicate of c.env, and on success swaps the duplicate in as
// the live environment.
func (c *Compiler) compile(filename, src string, fn func(filename, src string) (*ast.Program, error)) (*codegen.Program, error) {
	prog, err := fn(filename, src)
	if err != nil {
		return nil, err
	}

	dup := c.env.DupTopLevel()
	d := &Diagnostics{}
	cp, err := runPipeline(d, dup, prog, c.errorOnWarning)
	if err != nil {
		return nil, err
	}
	c.env.Adopt(dup)
	return cp, nil
}

// CompileBuffer compiles src as a complete compilation unit (spec §6
// "compile_buffer(src)"), running it to completion and discarding its
// result.
func (c *Compiler) CompileBuffer(src string) error {
	cp, err := c.compile("<buffer>", src, c.parser.ParseFile)
	if err != nil {
		return err
	}
	_, err = c.vm.Run(cp)
	return err
}

// CompileStatement compiles and runs a single top-level statement,
// returning the value it produced, or pvm.Null if it produced none
// (spec §6 "compile_statement(src)→value?"). Unlike CompileBuffer, a
// trailing bare expression statement is treated as the statement's
// result rather than a discarded expression, matching the REPL-style
// value a single compiled statement is expected to yield.
func (c *Compiler) CompileStatement(src string) (pvm.Value, error) {
	cp, err := c.compile("<statement>", src, func(filename, src string) (*ast.Program, error) {
		prog, err := c.parser.ParseStatement(filename, src)
		if err != nil {
			return nil, err
		}
		yieldLastExpr(prog)
		return prog, nil
	})
	if err != nil {
		return pvm.Null, err
	}
	return c.vm.Run(cp)
}

// yieldLastExpr rewrites prog's trailing top-level expression statement,
// if any, into a ReturnStmt, so codegen leaves its value on the stack for
// the caller instead of popping and discarding it the way an ordinary
// expression statement does.
func yieldLastExpr(prog *ast.Program) {
	stmts := prog.Body.Stmts
	if len(stmts) == 0 {
		return
	}
	last := len(stmts) - 1
	es, ok := stmts[last].(*ast.ExprStmt)
	if !ok {
		return
	}
	stmts[last] = &ast.ReturnStmt{Value: es.Expr}
}

// CompileExpression compiles a single expression and returns its
// compiled program without running it (spec §6
// "compile_expression(src)→program").
func (c *Compiler) CompileExpression(src string) (*codegen.Program, error) {
	return c.compile("<expression>", src, c.parser.ParseExpression)
}

// CompileFile compiles the complete compilation unit at path (spec §6
// "compile_file(path)"), running it to completion.
func (c *Compiler) CompileFile(path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("pkl: %w", err)
	}
	cp, err := c.compile(path, string(b), c.parser.ParseFile)
	if err != nil {
		return err
	}
	_, err = c.vm.Run(cp)
	return err
}

// ResolveModule substitutes %DATADIR% in the load path, splits it on
// ':', and returns the first entry under which <module>.pk is readable
// (spec §6 "Module lookup"). dataDir is the expansion of %DATADIR%.
func (c *Compiler) ResolveModule(dataDir, module string) (string, error) {
	expanded := strings.ReplaceAll(c.loadPath, "%DATADIR%", dataDir)
	for _, dir := range strings.Split(expanded, ":") {
		if dir == "" {
			continue
		}
		candidate := filepath.Join(dir, module+".pk")
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("pkl: module %q not found on load path %q", module, c.loadPath)
}

// Load resolves module on the load path and compiles it as a file (spec
// §6 "a resolve_module / load pair").
func (c *Compiler) Load(dataDir, module string) error {
	path, err := c.ResolveModule(dataDir, module)
	if err != nil {
		return err
	}
	return c.CompileFile(path)
}
