package pvm

import "fmt"

// ExceptionCode enumerates the fifteen codes the VM itself raises (spec
// §4.7); user code may raise a struct of declared type Exception with any
// other code (spec §7 tier 3).
type ExceptionCode int

//nolint:revive
const (
	EGeneric ExceptionCode = iota
	EDivByZero
	ENoIOS
	ENoReturn
	EOutOfBounds
	EMapBounds
	EEOF
	ENoMap
	EConversion
	EInvalidElement
	EConstraintViolation
	EGenericIO
	ESignal
	EInvalidIOFlags
	EInvalidArgument
)

var exceptionCodeNames = [...]string{
	EGeneric: "generic", EDivByZero: "div-by-zero", ENoIOS: "no-ios",
	ENoReturn: "no-return", EOutOfBounds: "out-of-bounds", EMapBounds: "map-bounds",
	EEOF: "eof", ENoMap: "no-map", EConversion: "conversion",
	EInvalidElement: "invalid-element", EConstraintViolation: "constraint-violation",
	EGenericIO: "generic-io", ESignal: "signal", EInvalidIOFlags: "invalid-io-flags",
	EInvalidArgument: "invalid-argument",
}

func (c ExceptionCode) String() string {
	if int(c) < len(exceptionCodeNames) && exceptionCodeNames[c] != "" {
		return exceptionCodeNames[c]
	}
	return fmt.Sprintf("exception(%d)", c)
}

// ExceptionBox is a first-class struct value of declared type Exception:
// a code, a message, and whatever other fields a user 'raise' expression
// populated (spec §7 tier 3).
type ExceptionBox struct {
	Code   ExceptionCode
	Msg    string
	Fields []StructFieldValue
}

func (b *ExceptionBox) typeName() string { return "Exception" }
func (b *ExceptionBox) str(*VM) string   { return fmt.Sprintf("Exception(%s, %q)", b.Code, b.Msg) }

func (vm *VM) NewException(code ExceptionCode, msg string, fields []StructFieldValue) Value {
	return vm.arena.alloc(&ExceptionBox{Code: code, Msg: msg, Fields: fields})
}

// newException is the convenience path the interpreter itself uses for
// the fifteen reserved codes (spec §4.7): it both boxes the value and
// wraps it in the raisedError carrier so a call site can return it
// directly as a Go error.
func (vm *VM) newException(code ExceptionCode, msg string) error {
	return &raisedError{Exn: vm.NewException(code, msg, nil)}
}

func (vm *VM) Exception(v Value) (*ExceptionBox, bool) {
	if v.Tag() != TagBoxed {
		return nil, false
	}
	b, ok := vm.arena.get(v).(*ExceptionBox)
	return b, ok
}

// raisedError is the Go-level carrier threading a raised exception
// through recursive exec calls, grounded on
// jcorbin-gothird/internal/panicerr's typed-error-carrying-payload idiom:
// it is not Go's own panic/recover that performs the unwind — exec's own
// loop does, rewinding its operand stack to the nearest try marker it
// owns and only returning a raisedError to its Go caller when none of
// its own markers can catch it (spec §4.7 "raise... unwinds both the
// frame stack and the operand stack down to the current try marker").
type raisedError struct {
	Exn Value
}

func (e *raisedError) Error() string {
	return fmt.Sprintf("uncaught exception (value %#x)", uint64(e.Exn))
}
