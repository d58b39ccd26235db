package model

import (
	"fmt"

	"github.com/babydessy/mutest-rs/internal/model/ast"
)

// SubstLocKind is where a substitute goes relative to its anchor.
type SubstLocKind int

// Substitution location kinds.
const (
	InsertBefore SubstLocKind = iota
	InsertAfter
	Replace
)

func (k SubstLocKind) String() string {
	switch k {
	case InsertBefore:
		return "insert before"
	case InsertAfter:
		return "insert after"
	default:
		return "replace"
	}
}

// SubstLoc anchors a substitution to a syntax node.
type SubstLoc struct {
	Kind SubstLocKind
	Node ast.NodeID
}

// ConflictsWith reports whether both locations share an anchor, whatever
// their kinds.
func (l SubstLoc) ConflictsWith(other SubstLoc) bool {
	return l.Node == other.Node
}

// IsDummy reports whether the location is anchored to no real node.
func (l SubstLoc) IsDummy() bool {
	return l.Node == ast.DummyNodeID
}

func (l SubstLoc) String() string {
	return fmt.Sprintf("%s #%d", l.Kind, l.Node)
}

// SubstKind is the kind of payload a substitution carries.
type SubstKind int

// Substitution payload kinds.
const (
	SubstExpr SubstKind = iota
	SubstStmt
	SubstLocal
)

// LocalSubst is a replacement `let` binding. When Fallback is set the
// binding takes Init only while the mutation is active and Fallback
// otherwise.
type LocalSubst struct {
	Name     string
	Mutable  bool
	Ty       string
	Init     ast.Expr
	Fallback ast.Expr
}

// Subst is the payload of a substitution.
type Subst struct {
	Kind  SubstKind
	Expr  ast.Expr
	Stmt  ast.Stmt
	Local *LocalSubst
}

// ExprSubst wraps an expression payload.
func ExprSubst(e ast.Expr) Subst {
	return Subst{Kind: SubstExpr, Expr: e}
}

// StmtSubst wraps a statement payload.
func StmtSubst(s ast.Stmt) Subst {
	return Subst{Kind: SubstStmt, Stmt: s}
}

// LocalSubstOf wraps a local binding payload.
func LocalSubstOf(local LocalSubst) Subst {
	return Subst{Kind: SubstLocal, Local: &local}
}

// String renders the payload as source text.
func (s Subst) String() string {
	switch s.Kind {
	case SubstStmt:
		return ast.Sprint(s.Stmt)
	case SubstLocal:
		if s.Local == nil {
			return ""
		}

		local := &ast.Local{Name: s.Local.Name, Mutable: s.Local.Mutable, Ty: s.Local.Ty, Init: s.Local.Init}
		text := ast.Sprint(local)

		if s.Local.Fallback != nil {
			text += " /* else " + ast.Sprint(s.Local.Fallback) + " */"
		}

		return text
	default:
		return ast.Sprint(s.Expr)
	}
}

// SubstDef is a substitution bound to its location.
type SubstDef struct {
	Location   SubstLoc
	Substitute Subst
}

// NewSubstDef creates a SubstDef.
func NewSubstDef(location SubstLoc, substitute Subst) SubstDef {
	return SubstDef{Location: location, Substitute: substitute}
}
