package operators

import (
	"fmt"

	m "github.com/babydessy/mutest-rs/internal/model"
	"github.com/babydessy/mutest-rs/internal/model/ast"
	"github.com/babydessy/mutest-rs/internal/model/hir"
)

// CallStmtDelete removes a call statement whose value is discarded and of
// unit type.
type CallStmtDelete struct{}

// Name implements model.Operator.
func (CallStmtDelete) Name() string {
	return "call_stmt_delete"
}

// TryApply implements model.Operator.
func (o CallStmtDelete) TryApply(mcx *m.MutCtxt) []m.Mutation {
	loc := mcx.Location
	if loc.Kind != m.LocFnBodyStmt || loc.Fn == nil {
		return nil
	}

	stmt, ok := loc.Ast.(*ast.ExprStmt)
	if !ok || !stmt.Semi {
		return nil
	}

	var callee string

	switch call := unparen(stmt.X).(type) {
	case *ast.Call:
		callee = ast.Sprint(call.Fun)
	case *ast.MethodCall:
		callee = call.Method
	default:
		return nil
	}

	semi, ok := loc.Hir.(*hir.SemiStmt)
	if !ok {
		return nil
	}

	if ty, ok := loc.Fn.Typeck.NodeTy(semi.X); !ok || ty != hir.UnitTy {
		return nil
	}

	return []m.Mutation{{
		Operator:    o.Name(),
		DisplayName: fmt.Sprintf("delete call to `%s`", callee),
		SpanLabel:   "delete call",
		Substs:      replace(stmt, m.StmtSubst(&ast.Empty{Meta: meta(mcx)})),
	}}
}

func unparen(e ast.Expr) ast.Expr {
	for {
		p, ok := e.(*ast.Paren)
		if !ok {
			return e
		}

		e = p.X
	}
}
