package adapter

import (
	m "github.com/babydessy/mutest-rs/internal/model"
	"github.com/babydessy/mutest-rs/internal/model/ast"
	"github.com/babydessy/mutest-rs/internal/model/hir"
)

// neverTy is the type of diverging expressions.
const neverTy hir.Ty = "!"

// lowerer turns one syntax body into its resolved form. It records the node
// correspondence, the inferred types and the call sites on the way.
type lowerer struct {
	next  *hir.HirID
	hints map[ast.NodeID]*nodeHint
	sigs  map[hir.DefID]*hir.Definition
	rets  map[hir.DefID]hir.Ty
	types *typeTable

	res    *m.BodyResolutions
	typeck hir.TypeckResults
	calls  []hir.CallSite

	scopes         []map[string]hir.Ty
	unsafeDepth    int
	enclosesUnsafe bool
}

func newLowerer(next *hir.HirID, hints map[ast.NodeID]*nodeHint, sigs map[hir.DefID]*hir.Definition, rets map[hir.DefID]hir.Ty, types *typeTable) *lowerer {
	return &lowerer{
		next:   next,
		hints:  hints,
		sigs:   sigs,
		rets:   rets,
		types:  types,
		res:    m.NewBodyResolutions(),
		typeck: make(hir.TypeckResults),
	}
}

func (l *lowerer) meta(span ast.Span) hir.Meta {
	*l.next++
	return hir.Meta{ID: *l.next, Span: span}
}

// record links a syntax node to its counterpart and stores the type, unless
// the description pins a different one.
func (l *lowerer) record(a ast.Node, h hir.Node, ty hir.Ty) {
	l.res.Insert(a.NodeID(), h)

	if hint, ok := l.hints[a.NodeID()]; ok && hint.ty != "" {
		ty = hint.ty
	}

	if ty != "" {
		l.typeck[h.HirID()] = ty
	}
}

func (l *lowerer) tyOf(h hir.Node) hir.Ty {
	ty, _ := l.typeck.NodeTy(h)
	return ty
}

func (l *lowerer) push() { l.scopes = append(l.scopes, make(map[string]hir.Ty)) }
func (l *lowerer) pop()  { l.scopes = l.scopes[:len(l.scopes)-1] }

func (l *lowerer) bind(name string, ty hir.Ty) {
	if name == "" || name == "_" {
		return
	}

	l.scopes[len(l.scopes)-1][name] = ty
}

func (l *lowerer) lookup(name string) hir.Ty {
	for i := len(l.scopes) - 1; i >= 0; i-- {
		if ty, ok := l.scopes[i][name]; ok {
			return ty
		}
	}

	return ""
}

func (l *lowerer) lowerFn(fn *ast.Fn, def hir.DefID) *hir.Fn {
	l.push()
	defer l.pop()

	out := &hir.Fn{Meta: l.meta(fn.Span), Def: def, Ret: hir.Ty(fn.Ret)}
	if out.Ret == "" {
		out.Ret = hir.UnitTy
	}

	for _, p := range fn.Params {
		hp := &hir.Param{Meta: l.meta(p.Span), Name: p.Name, Ty: hir.Ty(p.Ty)}
		l.record(p, hp, hp.Ty)
		l.bind(p.Name, l.tyOf(hp))
		out.Params = append(out.Params, hp)
	}

	out.Body = l.lowerBlock(fn.Body)
	l.record(fn, out, "")

	return out
}

func (l *lowerer) blockTy(b *hir.Block) hir.Ty {
	if b.Expr == nil {
		return hir.UnitTy
	}

	return l.tyOf(b.Expr)
}

func (l *lowerer) lowerBlock(b *ast.Block) *hir.Block {
	if b.Unsafe {
		l.unsafeDepth++
		l.enclosesUnsafe = true

		defer func() { l.unsafeDepth-- }()
	}

	l.push()
	defer l.pop()

	out := &hir.Block{Meta: l.meta(b.Span), Unsafe: b.Unsafe}

	for i, s := range b.Stmts {
		switch s := s.(type) {
		case *ast.Local:
			hl := &hir.Local{Meta: l.meta(s.Span), Name: s.Name, Ty: hir.Ty(s.Ty)}
			if s.Init != nil {
				hl.Init = l.lowerExpr(s.Init)
			}

			if s.Else != nil {
				hl.Else = l.lowerBlock(s.Else)
			}

			if hl.Ty == "" && hl.Init != nil {
				hl.Ty = l.tyOf(hl.Init)
			}

			l.record(s, hl, "")
			l.bind(s.Name, hl.Ty)
			out.Stmts = append(out.Stmts, hl)
		case *ast.ExprStmt:
			x := l.lowerExpr(s.X)

			switch {
			case s.Semi:
				hs := &hir.SemiStmt{Meta: l.meta(s.Span), X: x}
				l.record(s, hs, "")
				out.Stmts = append(out.Stmts, hs)
			case i == len(b.Stmts)-1:
				out.Expr = x
			default:
				hs := &hir.ExprStmt{Meta: l.meta(s.Span), X: x}
				l.record(s, hs, "")
				out.Stmts = append(out.Stmts, hs)
			}
		case *ast.ItemStmt:
			hs := &hir.ItemStmt{Meta: l.meta(s.Span)}
			l.record(s, hs, "")
			out.Stmts = append(out.Stmts, hs)
		}
		// Empty statements and statement macros leave nothing behind.
	}

	l.record(b, out, "")

	return out
}

func litTy(kind ast.LitKind) hir.Ty {
	switch kind {
	case ast.LitBool:
		return "bool"
	case ast.LitInt:
		return "i32"
	case ast.LitFloat:
		return "f64"
	case ast.LitChar:
		return "char"
	default:
		return "&str"
	}
}

func (l *lowerer) lowerExprs(exprs []ast.Expr) []hir.Expr {
	out := make([]hir.Expr, 0, len(exprs))
	for _, e := range exprs {
		out = append(out, l.lowerExpr(e))
	}

	return out
}

func (l *lowerer) dropTemps(cond hir.Expr) *hir.DropTemps {
	dt := &hir.DropTemps{Meta: l.meta(cond.NodeSpan()), X: cond}
	l.typeck[dt.ID] = "bool"

	return dt
}

//nolint:cyclop,gocyclo,funlen // one case per expression kind
func (l *lowerer) lowerExpr(e ast.Expr) hir.Expr {
	switch e := e.(type) {
	case *ast.Lit:
		out := &hir.Lit{Meta: l.meta(e.Span), Kind: e.Kind, Value: e.Value}
		l.record(e, out, litTy(e.Kind))

		return out
	case *ast.Path:
		out := &hir.Path{Meta: l.meta(e.Span), Name: e.Name}

		ty := l.lookup(e.Name)
		if ty == "" {
			if _, ok := l.sigs[hir.DefID(e.Name)]; ok {
				out.Res = hir.DefID(e.Name)
			}
		}

		l.record(e, out, ty)

		return out
	case *ast.Paren:
		inner := l.lowerExpr(e.X)
		l.res.Insert(e.ID, inner)

		return inner
	case *ast.Unary:
		x := l.lowerExpr(e.X)
		out := &hir.Unary{Meta: l.meta(e.Span), Op: e.Op, X: x}

		ty := l.tyOf(x)
		if e.Op == ast.OpDeref && len(ty) > 1 && ty[0] == '&' {
			ty = ty[1:]
		}

		if e.Op == ast.OpNot && ty == "" {
			ty = "bool"
		}

		l.record(e, out, ty)

		return out
	case *ast.Binary:
		x := l.lowerExpr(e.X)
		y := l.lowerExpr(e.Y)
		out := &hir.Binary{Meta: l.meta(e.Span), Op: e.Op, X: x, Y: y}
		l.record(e, out, l.binaryTy(e.Op, l.tyOf(x), l.tyOf(y)))

		return out
	case *ast.Assign:
		out := &hir.Assign{Meta: l.meta(e.Span), Lhs: l.lowerExpr(e.Lhs), Rhs: l.lowerExpr(e.Rhs)}
		l.record(e, out, hir.UnitTy)

		return out
	case *ast.AssignOp:
		out := &hir.AssignOp{Meta: l.meta(e.Span), Op: e.Op, Lhs: l.lowerExpr(e.Lhs), Rhs: l.lowerExpr(e.Rhs)}
		l.record(e, out, hir.UnitTy)

		return out
	case *ast.Call:
		return l.lowerCall(e)
	case *ast.MethodCall:
		return l.lowerMethodCall(e)
	case *ast.Field:
		out := &hir.Field{Meta: l.meta(e.Span), X: l.lowerExpr(e.X), Name: e.Name}
		l.record(e, out, "")

		return out
	case *ast.Index:
		out := &hir.Index{Meta: l.meta(e.Span), X: l.lowerExpr(e.X), Index: l.lowerExpr(e.Index)}
		l.record(e, out, "")

		return out
	case *ast.Tuple:
		out := &hir.Tuple{Meta: l.meta(e.Span), Elems: l.lowerExprs(e.Elems)}

		ty := hir.Ty("")
		if len(e.Elems) == 0 {
			ty = hir.UnitTy
		}

		l.record(e, out, ty)

		return out
	case *ast.Cast:
		out := &hir.Cast{Meta: l.meta(e.Span), X: l.lowerExpr(e.X), Ty: hir.Ty(e.Ty)}
		l.record(e, out, out.Ty)

		return out
	case *ast.Ref:
		x := l.lowerExpr(e.X)
		out := &hir.Ref{Meta: l.meta(e.Span), Mutable: e.Mutable, X: x}

		ty := hir.Ty("")
		if inner := l.tyOf(x); inner != "" {
			prefix := "&"
			if e.Mutable {
				prefix = "&mut "
			}

			ty = hir.Ty(prefix) + inner
		}

		l.record(e, out, ty)

		return out
	case *ast.BlockExpr:
		block := l.lowerBlock(e.Block)
		out := &hir.BlockExpr{Meta: l.meta(e.Span), Block: block}
		l.record(e, out, l.blockTy(block))

		return out
	case *ast.If:
		return l.lowerIf(e)
	case *ast.While:
		return l.lowerWhile(e)
	case *ast.Loop:
		out := &hir.Loop{Meta: l.meta(e.Span), Body: l.lowerBlock(e.Body), Source: hir.LoopPlain}
		l.record(e, out, hir.UnitTy)

		return out
	case *ast.Match:
		out := &hir.Match{Meta: l.meta(e.Span), Scrutinee: l.lowerExpr(e.Scrutinee)}

		for _, arm := range e.Arms {
			ha := &hir.Arm{Meta: l.meta(arm.Span), Pat: arm.Pat}
			if arm.Guard != nil {
				ha.Guard = l.lowerExpr(arm.Guard)
			}

			ha.Body = l.lowerExpr(arm.Body)
			l.record(arm, ha, "")
			out.Arms = append(out.Arms, ha)
		}

		ty := hir.UnitTy
		if len(out.Arms) > 0 {
			ty = l.tyOf(out.Arms[0].Body)
		}

		l.record(e, out, ty)

		return out
	case *ast.Closure:
		l.push()

		out := &hir.Closure{Meta: l.meta(e.Span)}
		for _, p := range e.Params {
			hp := &hir.Param{Meta: l.meta(p.Span), Name: p.Name, Ty: hir.Ty(p.Ty)}
			l.record(p, hp, hp.Ty)
			l.bind(p.Name, hp.Ty)
			out.Params = append(out.Params, hp)
		}

		out.Body = l.lowerExpr(e.Body)
		l.pop()
		l.record(e, out, "")

		return out
	case *ast.Return:
		out := &hir.Return{Meta: l.meta(e.Span)}
		if e.X != nil {
			out.X = l.lowerExpr(e.X)
		}

		l.record(e, out, neverTy)

		return out
	case *ast.Break:
		out := &hir.Break{Meta: l.meta(e.Span)}
		l.record(e, out, neverTy)

		return out
	case *ast.Continue:
		out := &hir.Continue{Meta: l.meta(e.Span)}
		l.record(e, out, neverTy)

		return out
	default:
		// Macro invocations are expanded away; nothing in the syntax tree
		// corresponds to what they produce.
		return &hir.Err{Meta: l.meta(e.NodeSpan())}
	}
}

func (l *lowerer) binaryTy(op ast.BinOp, lhs, rhs hir.Ty) hir.Ty {
	if op.IsComparison() || op == ast.OpAnd || op == ast.OpOr {
		return "bool"
	}

	if trait := op.Trait(); trait != "" && lhs != "" {
		if out, ok := l.types.AssocType(lhs, trait, []hir.Ty{rhs}, "Output"); ok {
			return out
		}
	}

	return lhs
}

func (l *lowerer) callSite(id ast.NodeID, span ast.Span, inst hir.Instance) {
	site := hir.CallSite{Callee: inst, Span: span, InUnsafeBlock: l.unsafeDepth > 0}

	if hint, ok := l.hints[id]; ok {
		site.Dynamic = hint.dynamic
	}

	l.calls = append(l.calls, site)
}

func (l *lowerer) calleeOf(id ast.NodeID) (hir.DefID, []hir.Ty) {
	hint, ok := l.hints[id]
	if !ok {
		return "", nil
	}

	return hint.def, hint.generics
}

func (l *lowerer) retTy(def hir.DefID) hir.Ty {
	if ty, ok := l.rets[def]; ok && ty != "" {
		return ty
	}

	return hir.UnitTy
}

func (l *lowerer) lowerCall(e *ast.Call) hir.Expr {
	def, generics := l.calleeOf(e.ID)

	fun := l.lowerExpr(e.Fun)
	if path, ok := fun.(*hir.Path); ok && def != "" {
		path.Res = def
	}

	out := &hir.Call{Meta: l.meta(e.Span), Fun: fun, Args: l.lowerExprs(e.Args)}

	if def == "" {
		if path, ok := fun.(*hir.Path); ok {
			def = path.Res
		}
	}

	if def != "" {
		l.callSite(e.ID, e.Span, hir.Instance{Def: def, Args: generics})
	}

	l.record(e, out, l.retTy(def))

	return out
}

func (l *lowerer) lowerMethodCall(e *ast.MethodCall) hir.Expr {
	def, generics := l.calleeOf(e.ID)

	recv := l.lowerExpr(e.Recv)
	out := &hir.MethodCall{Meta: l.meta(e.Span), Recv: recv, Method: e.Method, Args: l.lowerExprs(e.Args)}

	if def != "" {
		// Trait methods take Self as their first generic argument.
		if sig, ok := l.sigs[def]; ok && sig.Kind == hir.DefTraitMethod && len(generics) == 0 {
			if self := l.tyOf(recv); self != "" {
				generics = []hir.Ty{self}
			}
		}

		l.callSite(e.ID, e.Span, hir.Instance{Def: def, Args: generics})
	}

	l.record(e, out, l.retTy(def))

	return out
}

func (l *lowerer) lowerIf(e *ast.If) hir.Expr {
	cond := l.dropTemps(l.lowerExpr(e.Cond))

	thenBlock := l.lowerBlock(e.Then)
	then := &hir.BlockExpr{Meta: l.meta(e.Then.Span), Block: thenBlock}
	l.typeck[then.ID] = l.blockTy(thenBlock)

	out := &hir.If{Meta: l.meta(e.Span), Cond: cond, Then: then}

	ty := hir.UnitTy
	if e.Else != nil {
		out.Else = l.lowerExpr(e.Else)
		ty = l.tyOf(then)
	}

	l.record(e, out, ty)

	return out
}

// lowerWhile desugars `while c { b }` into `loop { if c { b } else { break } }`.
func (l *lowerer) lowerWhile(e *ast.While) hir.Expr {
	cond := l.dropTemps(l.lowerExpr(e.Cond))

	body := l.lowerBlock(e.Body)
	then := &hir.BlockExpr{Meta: l.meta(e.Body.Span), Block: body}

	brk := &hir.Break{Meta: l.meta(e.Span)}
	els := &hir.BlockExpr{Meta: l.meta(e.Span), Block: &hir.Block{Meta: l.meta(e.Span), Expr: brk}}

	ifx := &hir.If{Meta: l.meta(e.Span), Cond: cond, Then: then, Else: els}
	out := &hir.Loop{
		Meta:   l.meta(e.Span),
		Body:   &hir.Block{Meta: l.meta(e.Span), Expr: ifx},
		Source: hir.LoopWhile,
	}

	l.record(e, out, hir.UnitTy)

	return out
}
