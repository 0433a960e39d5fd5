package ir

// Expr is the binding expression attached to a node.
// Implementations: *FuncDecl, *MacroDecl, *OpaqueDecl.
type Expr interface {
	exprNode()
}

// FuncDecl is the binding for a native function.
type FuncDecl struct {
	Name   string
	Params []Param
	Result TypeExpr
	Body   CallExpr
}

// Param is a positional function argument.
type Param struct {
	Name string
	Type TypeExpr
}

// Clone returns a copy of d whose parameter slice can be changed
// without touching d.
func (d *FuncDecl) Clone() *FuncDecl {
	c := *d
	c.Params = make([]Param, len(d.Params))
	copy(c.Params, d.Params)
	return &c
}

// CallExpr is the body of a function binding.
// Implementations: *NativeCall, *GuardedCall, *CheckedCall.
type CallExpr interface {
	callExpr()
}

// NativeCall is the underlying foreign call.
// GCSafe marks the call as safe to run while the target runtime's
// memory manager is paused or concurrent.
type NativeCall struct {
	Func   string
	GCSafe bool
}

// GuardedCall runs the zero-argument Hook as the first statement,
// then Inner.
type GuardedCall struct {
	Hook  string
	Inner CallExpr
}

// CheckedCall inspects the raw status returned by Inner and raises an
// error carrying the status code on failure.
type CheckedCall struct {
	Inner CallExpr
}

func (*FuncDecl) exprNode() {}
func (*MacroDecl) exprNode() {}
func (*OpaqueDecl) exprNode() {}
func (*NativeCall) callExpr() {}
func (*GuardedCall) callExpr() {}
func (*CheckedCall) callExpr() {}

// Native returns the innermost native call of c, or nil.
func Native(c CallExpr) *NativeCall {
	for c != nil {
		switch v := c.(type) {
		case *NativeCall:
			return v
		case *GuardedCall:
			c = v.Inner
		case *CheckedCall:
			c = v.Inner
		default:
			return nil
		}
	}
	return nil
}

// Guard returns the context hook of c, if any wrapper in the chain is a guard.
func Guard(c CallExpr) (string, bool) {
	for c != nil {
		switch v := c.(type) {
		case *GuardedCall:
			return v.Hook, true
		case *CheckedCall:
			c = v.Inner
		default:
			return "", false
		}
	}
	return "", false
}

// IsChecked reports whether c is wrapped in an error check.
func IsChecked(c CallExpr) bool {
	_, ok := c.(*CheckedCall)
	return ok
}

// MacroDecl is the binding for a preprocessor macro.
// Body is nil for macros without a replacement list.
type MacroDecl struct {
	Name   string
	FnLike bool
	Body   MacroBody
	Text   string // replacement list as written
}

// MacroBody is the classified right-hand side of an object-like macro.
// Implementations: *MacroIdent, *MacroCall, *MacroLiteral, *MacroOpaque.
type MacroBody interface {
	macroBody()
}

// MacroIdent is a direct rename: NEW = OLD.
type MacroIdent struct {
	Name string
}

// MacroCall is NEW = CALLEE(args...). Invoke marks a call emitted as a
// macro invocation instead of a function call.
type MacroCall struct {
	Callee string
	Args   []string
	Invoke bool
}

// MacroLiteral is a single constant token (number, string or char literal).
type MacroLiteral struct {
	Text string
}

// MacroOpaque is any replacement list that is not a simple assignment.
type MacroOpaque struct {
	Text string
}

func (*MacroIdent) macroBody() {}
func (*MacroCall) macroBody() {}
func (*MacroLiteral) macroBody() {}
func (*MacroOpaque) macroBody() {}

// OpaqueDecl is a declaration the rewriting passes do not inspect
// (typedefs and the like). Text is emitted as is.
type OpaqueDecl struct {
	Text string
}
