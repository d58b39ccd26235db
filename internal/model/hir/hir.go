// Package hir defines the semantically resolved tree produced by lowering the
// syntax tree, together with definitions, instances and type tables.
//
// Compared to the syntax tree, parentheses are gone, `while` loops are
// desugared into `loop { if cond { .. } else { break } }`, conditions are
// wrapped in DropTemps, and blocks keep their trailing expression separately.
package hir

import "github.com/babydessy/mutest-rs/internal/model/ast"

// HirID identifies a resolved node within a program.
type HirID uint32

// Meta holds what every resolved node carries.
type Meta struct {
	ID   HirID
	Span ast.Span
}

// HirID implements Node.
func (m *Meta) HirID() HirID { return m.ID }

// NodeSpan implements Node.
func (m *Meta) NodeSpan() ast.Span { return m.Span }

// Node is any resolved node.
type Node interface {
	HirID() HirID
	NodeSpan() ast.Span
}

// Expr is a resolved expression.
type Expr interface {
	Node
	exprNode()
}

// Stmt is a resolved statement.
type Stmt interface {
	Node
	stmtNode()
}

// LoopSource records which surface construct a Loop was lowered from.
type LoopSource int

// Loop sources.
const (
	LoopPlain LoopSource = iota
	LoopWhile
)

type (
	// Lit is a literal value.
	Lit struct {
		Meta
		Kind  ast.LitKind
		Value string
	}

	// Path is a resolved name. Res is set when it names a definition.
	Path struct {
		Meta
		Name string
		Res  DefID
	}

	// Unary is a unary operation.
	Unary struct {
		Meta
		Op ast.UnOp
		X  Expr
	}

	// Binary is a binary operation.
	Binary struct {
		Meta
		Op   ast.BinOp
		X, Y Expr
	}

	// Assign is a plain assignment.
	Assign struct {
		Meta
		Lhs, Rhs Expr
	}

	// AssignOp is a compound assignment.
	AssignOp struct {
		Meta
		Op       ast.BinOp
		Lhs, Rhs Expr
	}

	// Call is a function call.
	Call struct {
		Meta
		Fun  Expr
		Args []Expr
	}

	// MethodCall is a method call.
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

	// Index is an index operation.
	Index struct {
		Meta
		X, Index Expr
	}

	// Tuple is a tuple constructor.
	Tuple struct {
		Meta
		Elems []Expr
	}

	// Cast is a type cast.
	Cast struct {
		Meta
		X  Expr
		Ty Ty
	}

	// Ref is a borrow.
	Ref struct {
		Meta
		Mutable bool
		X       Expr
	}

	// BlockExpr is a block in expression position.
	BlockExpr struct {
		Meta
		Block *Block
	}

	// If is a conditional. Else is nil, an *If, or a *BlockExpr.
	If struct {
		Meta
		Cond Expr
		Then *BlockExpr
		Else Expr
	}

	// Loop is a loop, possibly lowered from a while loop.
	Loop struct {
		Meta
		Body   *Block
		Source LoopSource
	}

	// Match is a pattern match.
	Match struct {
		Meta
		Scrutinee Expr
		Arms      []*Arm
	}

	// Closure is an anonymous function.
	Closure struct {
		Meta
		Params []*Param
		Body   Expr
	}

	// Return is a return expression.
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

	// DropTemps wraps a condition whose temporaries are dropped early.
	DropTemps struct {
		Meta
		X Expr
	}

	// Err stands in for an expression that failed to lower.
	Err struct {
		Meta
	}
)

// Arm is a match arm.
type Arm struct {
	Meta
	Pat   string
	Guard Expr
	Body  Expr
}

func (*Lit) exprNode()        {}
func (*Path) exprNode()       {}
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
func (*Loop) exprNode()       {}
func (*Match) exprNode()      {}
func (*Closure) exprNode()    {}
func (*Return) exprNode()     {}
func (*Break) exprNode()      {}
func (*Continue) exprNode()   {}
func (*DropTemps) exprNode()  {}
func (*Err) exprNode()        {}

type (
	// Local is a let binding.
	Local struct {
		Meta
		Name string
		Ty   Ty
		Init Expr
		Else *Block
	}

	// ExprStmt is an expression statement without a trailing semicolon.
	ExprStmt struct {
		Meta
		X Expr
	}

	// SemiStmt is an expression statement terminated by a semicolon.
	SemiStmt struct {
		Meta
		X Expr
	}

	// ItemStmt is a nested item.
	ItemStmt struct {
		Meta
	}
)

func (*Local) stmtNode()    {}
func (*ExprStmt) stmtNode() {}
func (*SemiStmt) stmtNode() {}
func (*ItemStmt) stmtNode() {}

// Block is a resolved block. The trailing expression is kept in Expr.
type Block struct {
	Meta
	Stmts  []Stmt
	Expr   Expr
	Unsafe bool
}

// Param is a resolved parameter.
type Param struct {
	Meta
	Name string
	Ty   Ty
}

// Fn is a resolved function body.
type Fn struct {
	Meta
	Def    DefID
	Params []*Param
	Ret    Ty
	Body   *Block
}

// TypeckResults maps resolved nodes to their inferred types.
type TypeckResults map[HirID]Ty

// NodeTy returns the type inferred for a node.
func (t TypeckResults) NodeTy(n Node) (Ty, bool) {
	if n == nil {
		return "", false
	}

	ty, ok := t[n.HirID()]

	return ty, ok
}
