package pkl_test

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/poke-lang/poke/ast"
	"github.com/poke-lang/poke/ios"
	"github.com/poke-lang/poke/pkl"
	"github.com/poke-lang/poke/pvm"
	"github.com/poke-lang/poke/token"
)

// stubParser stands in for the external grammar collaborator: it maps a
// source string directly to a pre-built AST, so these tests can exercise
// the facade's wiring without a real parser.
type stubParser struct {
	files map[string]*ast.Program
	stmts map[string]*ast.Program
	exprs map[string]*ast.Program
}

func (p *stubParser) ParseFile(_, src string) (*ast.Program, error) {
	prog, ok := p.files[src]
	if !ok {
		return nil, fmt.Errorf("stubParser: no file fixture for %q", src)
	}
	return prog, nil
}

func (p *stubParser) ParseStatement(_, src string) (*ast.Program, error) {
	prog, ok := p.stmts[src]
	if !ok {
		return nil, fmt.Errorf("stubParser: no statement fixture for %q", src)
	}
	return prog, nil
}

func (p *stubParser) ParseExpression(_, src string) (*ast.Program, error) {
	prog, ok := p.exprs[src]
	if !ok {
		return nil, fmt.Errorf("stubParser: no expression fixture for %q", src)
	}
	return prog, nil
}

func newTestVM() *pvm.VM { return pvm.New(ios.New()) }

// newBootstrapDir creates pkl-rt.pk and std.pk as empty files, and
// returns a stubParser pre-seeded to parse either's (empty) content into
// an empty program, so pkl.New's bootstrap step succeeds.
func newBootstrapDir(t *testing.T) (string, *stubParser) {
	t.Helper()
	dir := t.TempDir()
	for _, name := range []string{"pkl-rt.pk", "std.pk"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0o644))
	}
	return dir, &stubParser{files: map[string]*ast.Program{"": {Body: &ast.CompStmt{}}}}
}

func TestCompileStatementReturnsComputedValue(t *testing.T) {
	prog := &ast.Program{Body: &ast.CompStmt{Stmts: []ast.Stmt{
		&ast.ExprStmt{Expr: &ast.BinExpr{
			Op:    token.PLUS,
			Left:  &ast.IntegerLiteral{Value: 41, Signed: true},
			Right: &ast.IntegerLiteral{Value: 1, Signed: true},
		}},
	}}}

	dir, parser := newBootstrapDir(t)
	parser.stmts = map[string]*ast.Program{"41 + 1;": prog}

	vm := newTestVM()
	c, err := pkl.New(vm, parser, dir)
	require.NoError(t, err)
	require.True(t, c.Bootstrapped())

	v, err := c.CompileStatement("41 + 1;")
	require.NoError(t, err)
	n, ok := vm.Int64(v)
	require.True(t, ok)
	require.EqualValues(t, 42, n)
}

func TestCompileBufferRejectsUndeclaredIdentifier(t *testing.T) {
	prog := &ast.Program{Body: &ast.CompStmt{Stmts: []ast.Stmt{
		&ast.ExprStmt{Expr: &ast.VarRefExpr{Name: "nope"}},
	}}}

	dir, parser := newBootstrapDir(t)
	parser.files["nope();"] = prog

	vm := newTestVM()
	c, err := pkl.New(vm, parser, dir)
	require.NoError(t, err)

	err = c.CompileBuffer("nope();")
	require.Error(t, err)
}

func TestResolveModuleExpandsDataDirAndSearchesLoadPath(t *testing.T) {
	dir, parser := newBootstrapDir(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "foo.pk"), []byte("// empty"), 0o644))

	vm := newTestVM()
	c, err := pkl.New(vm, parser, dir)
	require.NoError(t, err)

	c.SetLoadPath("/does/not/exist:%DATADIR%")
	path, err := c.ResolveModule(dir, "foo")
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "foo.pk"), path)
}

func TestResolveModuleReportsNotFound(t *testing.T) {
	dir, parser := newBootstrapDir(t)
	vm := newTestVM()
	c, err := pkl.New(vm, parser, dir)
	require.NoError(t, err)

	c.SetLoadPath("%DATADIR%")
	_, err = c.ResolveModule(t.TempDir(), "nonexistent")
	require.Error(t, err)
}
