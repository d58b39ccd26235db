package ast

import (
	"fmt"
	"strings"
)

// Sprint renders a node back to source-like text on a single line.
func Sprint(node Node) string {
	var p printer

	p.node(node)

	return p.String()
}

type printer struct {
	strings.Builder
}

//nolint:cyclop,gocyclo // one case per node kind
func (p *printer) node(node Node) {
	if isNil(node) {
		return
	}

	switch n := node.(type) {
	case *Fn:
		p.fn(n)
	case *Param:
		p.param(n)
	case *Block:
		p.block(n)
	case *Arm:
		p.arm(n)
	case Stmt:
		p.stmt(n)
	case Expr:
		p.expr(n)
	}
}

func (p *printer) fn(n *Fn) {
	if n.Const {
		p.WriteString("const ")
	}

	if n.Unsafe {
		p.WriteString("unsafe ")
	}

	fmt.Fprintf(p, "fn %s(", n.Name)

	for i, param := range n.Params {
		if i > 0 {
			p.WriteString(", ")
		}

		p.param(param)
	}

	p.WriteString(")")

	if n.Ret != "" {
		fmt.Fprintf(p, " -> %s", n.Ret)
	}

	p.WriteString(" ")
	p.block(n.Body)
}

func (p *printer) param(n *Param) {
	if n.Mutable {
		p.WriteString("mut ")
	}

	p.WriteString(n.Name)

	if n.Ty != "" {
		fmt.Fprintf(p, ": %s", n.Ty)
	}
}

func (p *printer) block(n *Block) {
	if n == nil {
		p.WriteString("{}")
		return
	}

	if n.Unsafe {
		p.WriteString("unsafe ")
	}

	if len(n.Stmts) == 0 {
		p.WriteString("{}")
		return
	}

	p.WriteString("{ ")

	for i, s := range n.Stmts {
		if i > 0 {
			p.WriteString(" ")
		}

		p.stmt(s)
	}

	p.WriteString(" }")
}

func (p *printer) arm(n *Arm) {
	p.WriteString(n.Pat)

	if n.Guard != nil {
		p.WriteString(" if ")
		p.expr(n.Guard)
	}

	p.WriteString(" => ")
	p.expr(n.Body)
}

func (p *printer) stmt(s Stmt) {
	switch n := s.(type) {
	case *Local:
		p.WriteString("let ")

		if n.Mutable {
			p.WriteString("mut ")
		}

		p.WriteString(n.Name)

		if n.Ty != "" {
			fmt.Fprintf(p, ": %s", n.Ty)
		}

		if n.Init != nil {
			p.WriteString(" = ")
			p.expr(n.Init)
		}

		if n.Else != nil {
			p.WriteString(" else ")
			p.block(n.Else)
		}

		p.WriteString(";")
	case *ExprStmt:
		p.expr(n.X)

		if n.Semi {
			p.WriteString(";")
		}
	case *ItemStmt:
		fmt.Fprintf(p, "fn %s { .. }", n.Name)
	case *Empty:
		p.WriteString(";")
	case *MacCallStmt:
		fmt.Fprintf(p, "%s!(..);", n.Name)
	}
}

//nolint:cyclop,gocyclo,funlen // one case per node kind
func (p *printer) expr(e Expr) {
	switch n := e.(type) {
	case nil:
		return
	case *Lit:
		switch n.Kind {
		case LitStr:
			fmt.Fprintf(p, "%q", n.Value)
		case LitChar:
			fmt.Fprintf(p, "'%s'", n.Value)
		default:
			p.WriteString(n.Value)
		}
	case *Path:
		p.WriteString(n.Name)
	case *Paren:
		p.WriteString("(")
		p.expr(n.X)
		p.WriteString(")")
	case *Unary:
		p.WriteString(string(n.Op))
		p.expr(n.X)
	case *Binary:
		p.expr(n.X)
		fmt.Fprintf(p, " %s ", n.Op)
		p.expr(n.Y)
	case *Assign:
		p.expr(n.Lhs)
		p.WriteString(" = ")
		p.expr(n.Rhs)
	case *AssignOp:
		p.expr(n.Lhs)
		fmt.Fprintf(p, " %s= ", n.Op)
		p.expr(n.Rhs)
	case *Call:
		p.expr(n.Fun)
		p.args(n.Args)
	case *MethodCall:
		p.expr(n.Recv)
		fmt.Fprintf(p, ".%s", n.Method)
		p.args(n.Args)
	case *Field:
		p.expr(n.X)
		fmt.Fprintf(p, ".%s", n.Name)
	case *Index:
		p.expr(n.X)
		p.WriteString("[")
		p.expr(n.Index)
		p.WriteString("]")
	case *Tuple:
		p.args(n.Elems)
	case *Cast:
		p.expr(n.X)
		fmt.Fprintf(p, " as %s", n.Ty)
	case *Ref:
		p.WriteString("&")

		if n.Mutable {
			p.WriteString("mut ")
		}

		p.expr(n.X)
	case *BlockExpr:
		p.block(n.Block)
	case *If:
		p.WriteString("if ")
		p.expr(n.Cond)
		p.WriteString(" ")
		p.block(n.Then)

		if n.Else != nil {
			p.WriteString(" else ")
			p.expr(n.Else)
		}
	case *While:
		p.WriteString("while ")
		p.expr(n.Cond)
		p.WriteString(" ")
		p.block(n.Body)
	case *Loop:
		p.WriteString("loop ")
		p.block(n.Body)
	case *Match:
		p.WriteString("match ")
		p.expr(n.Scrutinee)
		p.WriteString(" { ")

		for i, arm := range n.Arms {
			if i > 0 {
				p.WriteString(", ")
			}

			p.arm(arm)
		}

		p.WriteString(" }")
	case *Closure:
		p.WriteString("|")

		for i, param := range n.Params {
			if i > 0 {
				p.WriteString(", ")
			}

			p.param(param)
		}

		p.WriteString("| ")
		p.expr(n.Body)
	case *Return:
		p.WriteString("return")

		if n.X != nil {
			p.WriteString(" ")
			p.expr(n.X)
		}
	case *Break:
		p.WriteString("break")
	case *Continue:
		p.WriteString("continue")
	case *MacCall:
		fmt.Fprintf(p, "%s!(..)", n.Name)
	}
}

func (p *printer) args(args []Expr) {
	p.WriteString("(")

	for i, a := range args {
		if i > 0 {
			p.WriteString(", ")
		}

		p.expr(a)
	}

	p.WriteString(")")
}
