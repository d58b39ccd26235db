// Package ast defines the surface syntax tree that mutations are anchored to.
//
// Every node carries a program-unique NodeID, a source Span (including the
// macro expansion it originates from) and its attributes. Substitutions refer
// to nodes by NodeID only, so the tree itself is never modified.
package ast

import "fmt"

// NodeID identifies a syntax node within a program.
type NodeID uint32

// DummyNodeID is the identity of synthesized nodes that do not exist in source.
const DummyNodeID NodeID = 0

// ExpnID identifies the macro expansion a span was produced by.
type ExpnID uint32

// RootExpn marks spans that come straight from user-written source.
const RootExpn ExpnID = 0

// Pos is a 1-based line and column.
type Pos struct {
	Line int `yaml:"line"`
	Col  int `yaml:"col"`
}

// Span is a source range tagged with its expansion provenance.
type Span struct {
	File string `yaml:"file"`
	Lo   Pos    `yaml:"lo"`
	Hi   Pos    `yaml:"hi"`
	Expn ExpnID `yaml:"expn,omitempty"`
}

// IsDummy reports whether the span points at no source text at all.
func (s Span) IsDummy() bool {
	return s.File == "" && s.Lo == (Pos{}) && s.Hi == (Pos{})
}

// FromExpansion reports whether the span was produced by a macro expansion.
func (s Span) FromExpansion() bool {
	return s.Expn != RootExpn
}

// WithExpn returns a copy of the span attributed to the given expansion.
func (s Span) WithExpn(expn ExpnID) Span {
	s.Expn = expn
	return s
}

func (s Span) String() string {
	if s.IsDummy() {
		return "<dummy>"
	}

	return fmt.Sprintf("%s:%d:%d: %d:%d", s.File, s.Lo.Line, s.Lo.Col, s.Hi.Line, s.Hi.Col)
}

// Attribute names understood by the engine.
const (
	AttrTest    = "test"
	AttrCfgTest = "cfg(test)"
	AttrSkip    = "mutest::skip"
)

// Attrs is the list of attributes attached to a node.
type Attrs []string

// Has reports whether the attribute is present.
func (a Attrs) Has(name string) bool {
	for _, attr := range a {
		if attr == name {
			return true
		}
	}

	return false
}

// Meta holds what every node carries.
type Meta struct {
	ID    NodeID
	Span  Span
	Attrs Attrs
}

// NodeID implements Node.
func (m *Meta) NodeID() NodeID { return m.ID }

// NodeSpan implements Node.
func (m *Meta) NodeSpan() Span { return m.Span }

// NodeAttrs implements Node.
func (m *Meta) NodeAttrs() Attrs { return m.Attrs }

// Node is any syntax tree node.
type Node interface {
	NodeID() NodeID
	NodeSpan() Span
	NodeAttrs() Attrs
}

// Expr is an expression node.
type Expr interface {
	Node
	exprNode()
}

// Stmt is a statement node.
type Stmt interface {
	Node
	stmtNode()
}

// BinOp is a binary operator.
type BinOp string

// Binary operators.
const (
	OpAdd    BinOp = "+"
	OpSub    BinOp = "-"
	OpMul    BinOp = "*"
	OpDiv    BinOp = "/"
	OpRem    BinOp = "%"
	OpAnd    BinOp = "&&"
	OpOr     BinOp = "||"
	OpBitXor BinOp = "^"
	OpBitAnd BinOp = "&"
	OpBitOr  BinOp = "|"
	OpShl    BinOp = "<<"
	OpShr    BinOp = ">>"
	OpEq     BinOp = "=="
	OpLt     BinOp = "<"
	OpLe     BinOp = "<="
	OpNe     BinOp = "!="
	OpGe     BinOp = ">="
	OpGt     BinOp = ">"
)

// IsComparison reports whether the operator is a relational operator.
func (op BinOp) IsComparison() bool {
	switch op {
	case OpEq, OpLt, OpLe, OpNe, OpGe, OpGt:
		return true
	default:
		return false
	}
}

// Valid reports whether op is one of the known binary operators.
func (op BinOp) Valid() bool {
	switch op {
	case OpAdd, OpSub, OpMul, OpDiv, OpRem, OpAnd, OpOr, OpBitXor, OpBitAnd, OpBitOr, OpShl, OpShr:
		return true
	default:
		return op.IsComparison()
	}
}

// Trait returns the operator trait the operator dispatches to, or "" for
// comparison and short-circuit operators.
func (op BinOp) Trait() string {
	switch op {
	case OpAdd:
		return "Add"
	case OpSub:
		return "Sub"
	case OpMul:
		return "Mul"
	case OpDiv:
		return "Div"
	case OpRem:
		return "Rem"
	case OpBitAnd:
		return "BitAnd"
	case OpBitOr:
		return "BitOr"
	case OpBitXor:
		return "BitXor"
	case OpShl:
		return "Shl"
	case OpShr:
		return "Shr"
	default:
		return ""
	}
}

// UnOp is a unary operator.
type UnOp string

// Unary operators.
const (
	OpNeg   UnOp = "-"
	OpNot   UnOp = "!"
	OpDeref UnOp = "*"
)

// LitKind is the kind of a literal.
type LitKind string

// Literal kinds.
const (
	LitBool  LitKind = "bool"
	LitInt   LitKind = "int"
	LitFloat LitKind = "float"
	LitStr   LitKind = "str"
	LitChar  LitKind = "char"
)

type (
	// Lit is a literal value.
	Lit struct {
		Meta
		Kind  LitKind
		Value string
	}

	// Path is a (possibly qualified) name reference.
	Path struct {
		Meta
		Name string
	}

	// Paren is a parenthesized expression.
	Paren struct {
		Meta
		X Expr
	}

	// Unary is a unary operation.
	Unary struct {
		Meta
		Op UnOp
		X  Expr
	}

	// Binary is a binary operation.
	Binary struct {
		Meta
		Op   BinOp
		X, Y Expr
	}

	// Assign is `lhs = rhs`.
	Assign struct {
		Meta
		Lhs, Rhs Expr
	}

	// AssignOp is a compound assignment such as `lhs += rhs`.
	AssignOp struct {
		Meta
		Op       BinOp
		Lhs, Rhs Expr
	}

	// Call is a call of a function-valued expression.
	Call struct {
		Meta
		Fun  Expr
		Args []Expr
	}

	// MethodCall is `recv.method(args)`.
	MethodCall struct {
		Meta
		Recv   Expr
		Method string
		Args   []Expr
	}

	// Field is a field access.
	Field struct {
		Meta
		X    Expr
		Name string
	}

	// Index is `x[index]`.
	Index struct {
		Meta
		X, Index Expr
	}

	// Tuple is a tuple constructor.
	Tuple struct {
		Meta
		Elems []Expr
	}

	// Cast is `x as ty`.
	Cast struct {
		Meta
		X  Expr
		Ty string
	}

	// Ref is `&x` or `&mut x`.
	Ref struct {
		Meta
		Mutable bool
		X       Expr
	}

	// BlockExpr is a block used in expression position.
	BlockExpr struct {
		Meta
		Block *Block
	}

	// If is a conditional. Else is nil, an *If, or a *BlockExpr.
	If struct {
		Meta
		Cond Expr
		Then *Block
		Else Expr
	}

	// While is a conditional loop.
	While struct {
		Meta
		Cond Expr
		Body *Block
	}

	// Loop is an unconditional loop.
	Loop struct {
		Meta
		Body *Block
	}

	// Match is a pattern match over a scrutinee.
	Match struct {
		Meta
		Scrutinee Expr
		Arms      []*Arm
	}

	// Closure is an anonymous function expression.
	Closure struct {
		Meta
		Params []*Param
		Body   Expr
	}

	// Return is a return expression, X may be nil.
	Return struct {
		Meta
		X Expr
	}

	// Break is a break expression.
	Break struct {
		Meta
	}

	// Continue is a continue expression.
	Continue struct {
		Meta
	}

	// MacCall is an unexpanded macro invocation.
	MacCall struct {
		Meta
		Name string
	}
)

// Arm is a single match arm. Pat is kept as source text.
type Arm struct {
	Meta
	Pat   string
	Guard Expr
	Body  Expr
}

func (*Lit) exprNode()        {}
func (*Path) exprNode()       {}
func (*Paren) exprNode()      {}
func (*Unary) exprNode()      {}
func (*Binary) exprNode()     {}
func (*Assign) exprNode()     {}
func (*AssignOp) exprNode()   {}
func (*Call) exprNode()       {}
func (*MethodCall) exprNode() {}
func (*Field) exprNode()      {}
func (*Index) exprNode()      {}
func (*Tuple) exprNode()      {}
func (*Cast) exprNode()       {}
func (*Ref) exprNode()        {}
func (*BlockExpr) exprNode()  {}
func (*If) exprNode()         {}
func (*While) exprNode()      {}
func (*Loop) exprNode()       {}
func (*Match) exprNode()      {}
func (*Closure) exprNode()    {}
func (*Return) exprNode()     {}
func (*Break) exprNode()      {}
func (*Continue) exprNode()   {}
func (*MacCall) exprNode()    {}

type (
	// Local is a `let` binding. Init and Else are optional.
	Local struct {
		Meta
		Name    string
		Mutable bool
		Ty      string
		Init    Expr
		Else    *Block
	}

	// ExprStmt is an expression in statement position. Without Semi it is
	// the trailing expression of its block.
	ExprStmt struct {
		Meta
		X    Expr
		Semi bool
	}

	// ItemStmt is a nested item declaration.
	ItemStmt struct {
		Meta
		Name string
	}

	// Empty is a lone `;`.
	Empty struct {
		Meta
	}

	// MacCallStmt is a macro invocation in statement position.
	MacCallStmt struct {
		Meta
		Name string
	}
)

func (*Local) stmtNode()       {}
func (*ExprStmt) stmtNode()    {}
func (*ItemStmt) stmtNode()    {}
func (*Empty) stmtNode()       {}
func (*MacCallStmt) stmtNode() {}

// Block is a braced statement list.
type Block struct {
	Meta
	Stmts  []Stmt
	Unsafe bool
}

// Param is a function parameter.
type Param struct {
	Meta
	Name    string
	Mutable bool
	Ty      string
}

// Fn is a function-like definition with a body.
type Fn struct {
	Meta
	Name   string
	Params []*Param
	Ret    string
	Body   *Block
	Unsafe bool
	Const  bool
}
