package pkl

import "github.com/poke-lang/poke/ast"

// Parser produces the AST shapes fixed by the language's syntax tree
// definitions from poke source text. The concrete grammar and its error
// recovery are an external collaborator the compiler never implements
// itself; Parser is the seam a real grammar plugs into, and is also what
// lets this package's own tests drive the pipeline from pre-built trees
// without one.
//
// Grounded on lang/parser/parser.go's ParseFile/ParseExpr split (the
// teacher's own parser produces its own lang/ast shapes the same way),
// generalized into an interface boundary since poke's concrete grammar
// is never implemented here.
type Parser interface {
	// ParseFile parses an entire compilation unit into a Program.
	ParseFile(filename, src string) (*ast.Program, error)
	// ParseStatement parses a single top-level statement, wrapping it in
	// a Program whose Body holds exactly that one statement.
	ParseStatement(filename, src string) (*ast.Program, error)
	// ParseExpression parses a single expression, wrapping it in a
	// Program whose Body is a single ExprStmt.
	ParseExpression(filename, src string) (*ast.Program, error)
}
