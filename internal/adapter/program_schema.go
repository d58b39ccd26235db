package adapter

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/babydessy/mutest-rs/internal/model/ast"
	"github.com/babydessy/mutest-rs/internal/model/hir"
)

// programSpec is the YAML program description.
type programSpec struct {
	Name     string         `yaml:"name"`
	File     string         `yaml:"file"`
	Defs     []defSpec      `yaml:"defs"`
	Impls    []implSpec     `yaml:"impls"`
	Dispatch []dispatchSpec `yaml:"dispatch"`
}

type defSpec struct {
	ID       string      `yaml:"id"`
	Name     string      `yaml:"name"`
	Kind     string      `yaml:"kind"`
	Attrs    []string    `yaml:"attrs"`
	Unsafe   bool        `yaml:"unsafe"`
	Const    bool        `yaml:"const"`
	Extern   bool        `yaml:"extern"`
	InTest   bool        `yaml:"in_test"`
	Generics []string    `yaml:"generics"`
	Trait    string      `yaml:"trait"`
	Params   []paramSpec `yaml:"params"`
	Ret      string      `yaml:"ret"`
	Body     yaml.Node   `yaml:"body"`
}

type paramSpec struct {
	Name  string   `yaml:"name"`
	Ty    string   `yaml:"ty"`
	Mut   bool     `yaml:"mut"`
	Attrs []string `yaml:"attrs"`
}

type implSpec struct {
	Ty    string            `yaml:"ty"`
	Trait string            `yaml:"trait"`
	Args  []string          `yaml:"args"`
	Assoc map[string]string `yaml:"assoc"`
}

type dispatchSpec struct {
	Method string `yaml:"method"`
	Self   string `yaml:"self"`
	Impl   string `yaml:"impl"`
}

// decodeProgram decodes the document and returns the yaml nodes of every
// definition alongside, so spans can point back into the description.
func decodeProgram(data []byte) (*programSpec, []*yaml.Node, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, nil, fmt.Errorf("failed to parse program description: %w", err)
	}

	if root.Kind != yaml.DocumentNode || len(root.Content) == 0 {
		return nil, nil, fmt.Errorf("empty program description")
	}

	doc := root.Content[0]

	var spec programSpec
	if err := doc.Decode(&spec); err != nil {
		return nil, nil, fmt.Errorf("failed to decode program description: %w", err)
	}

	var defNodes []*yaml.Node

	if fields, err := fieldsOf(doc); err == nil {
		if defs, ok := fields["defs"]; ok {
			defNodes = defs.Content
		}
	}

	if len(defNodes) != len(spec.Defs) {
		return nil, nil, fmt.Errorf("malformed defs list")
	}

	return &spec, defNodes, nil
}

// nodeHint carries facts from the description that the syntax tree has no
// room for; lowering turns them into types and call sites.
type nodeHint struct {
	ty       hir.Ty
	def      hir.DefID
	generics []hir.Ty
	dynamic  bool
}

type bodyParser struct {
	file  string
	next  *ast.NodeID
	hints map[ast.NodeID]*nodeHint
}

func newBodyParser(file string, next *ast.NodeID) *bodyParser {
	return &bodyParser{file: file, next: next, hints: make(map[ast.NodeID]*nodeHint)}
}

type fieldMap map[string]*yaml.Node

func fieldsOf(n *yaml.Node) (fieldMap, error) {
	if n == nil || n.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("expected mapping")
	}

	out := make(fieldMap, len(n.Content)/2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		out[n.Content[i].Value] = n.Content[i+1]
	}

	return out, nil
}

func (p *bodyParser) errorf(n *yaml.Node, format string, args ...any) error {
	return fmt.Errorf("%s:%d:%d: %s", p.file, n.Line, n.Column, fmt.Sprintf(format, args...))
}

func (p *bodyParser) span(n *yaml.Node) ast.Span {
	pos := ast.Pos{Line: n.Line, Col: n.Column}
	return ast.Span{File: p.file, Lo: pos, Hi: pos}
}

func (p *bodyParser) newMeta(n *yaml.Node) ast.Meta {
	*p.next++
	return ast.Meta{ID: *p.next, Span: p.span(n)}
}

func (p *bodyParser) hint(id ast.NodeID) *nodeHint {
	h, ok := p.hints[id]
	if !ok {
		h = &nodeHint{}
		p.hints[id] = h
	}

	return h
}

// applyCommon handles the keys any node mapping may carry.
func (p *bodyParser) applyCommon(meta *ast.Meta, f fieldMap) error {
	if n, ok := f["attrs"]; ok {
		var attrs []string
		if err := n.Decode(&attrs); err != nil {
			return p.errorf(n, "attrs: %v", err)
		}

		meta.Attrs = attrs
	}

	if n, ok := f["expn"]; ok {
		var expn uint32
		if err := n.Decode(&expn); err != nil {
			return p.errorf(n, "expn: %v", err)
		}

		meta.Span = meta.Span.WithExpn(ast.ExpnID(expn))
	}

	if n, ok := f["synthetic"]; ok && n.Value == "true" {
		meta.Span = ast.Span{}
	}

	if n, ok := f["ty"]; ok {
		p.hint(meta.ID).ty = hir.Ty(n.Value)
	}

	return nil
}

var exprKinds = map[string]bool{
	"lit": true, "path": true, "paren": true, "unary": true, "binary": true,
	"assign": true, "assign_op": true, "call": true, "method_call": true,
	"field": true, "index": true, "tuple": true, "cast": true, "ref": true,
	"block": true, "unsafe": true, "if": true, "while": true, "loop": true,
	"match": true, "closure": true, "return": true, "break": true,
	"continue": true, "macro": true,
}

func primaryKey(n *yaml.Node, kinds map[string]bool) (string, *yaml.Node) {
	for i := 0; i+1 < len(n.Content); i += 2 {
		if kinds[n.Content[i].Value] {
			return n.Content[i].Value, n.Content[i+1]
		}
	}

	return "", nil
}

func isNull(n *yaml.Node) bool {
	return n == nil || (n.Kind == yaml.ScalarNode && n.Tag == "!!null")
}

func (p *bodyParser) optExpr(f fieldMap, key string) (ast.Expr, error) {
	n, ok := f[key]
	if !ok || isNull(n) {
		return nil, nil
	}

	return p.expr(n)
}

func (p *bodyParser) reqExpr(parent *yaml.Node, f fieldMap, key string) (ast.Expr, error) {
	e, err := p.optExpr(f, key)
	if err != nil {
		return nil, err
	}

	if e == nil {
		return nil, p.errorf(parent, "missing %q", key)
	}

	return e, nil
}

func (p *bodyParser) exprList(n *yaml.Node) ([]ast.Expr, error) {
	if isNull(n) {
		return nil, nil
	}

	if n.Kind != yaml.SequenceNode {
		return nil, p.errorf(n, "expected a list of expressions")
	}

	out := make([]ast.Expr, 0, len(n.Content))

	for _, item := range n.Content {
		e, err := p.expr(item)
		if err != nil {
			return nil, err
		}

		out = append(out, e)
	}

	return out, nil
}

func (p *bodyParser) scalarExpr(n *yaml.Node) ast.Expr {
	meta := p.newMeta(n)

	switch n.Tag {
	case "!!bool":
		return &ast.Lit{Meta: meta, Kind: ast.LitBool, Value: n.Value}
	case "!!int":
		return &ast.Lit{Meta: meta, Kind: ast.LitInt, Value: n.Value}
	case "!!float":
		return &ast.Lit{Meta: meta, Kind: ast.LitFloat, Value: n.Value}
	default:
		return &ast.Path{Meta: meta, Name: n.Value}
	}
}

func (p *bodyParser) expr(n *yaml.Node) (ast.Expr, error) {
	if isNull(n) {
		return nil, nil
	}

	switch n.Kind {
	case yaml.ScalarNode:
		return p.scalarExpr(n), nil
	case yaml.SequenceNode:
		block, err := p.block(n)
		if err != nil {
			return nil, err
		}

		return &ast.BlockExpr{Meta: p.newMeta(n), Block: block}, nil
	case yaml.MappingNode:
	default:
		return nil, p.errorf(n, "expected expression")
	}

	f, _ := fieldsOf(n)

	kind, val := primaryKey(n, exprKinds)
	if kind == "" {
		return nil, p.errorf(n, "unknown expression kind")
	}

	meta := p.newMeta(n)
	if err := p.applyCommon(&meta, f); err != nil {
		return nil, err
	}

	return p.exprOfKind(kind, n, val, f, meta)
}

//nolint:cyclop,gocyclo,funlen // one case per expression kind
func (p *bodyParser) exprOfKind(kind string, n, val *yaml.Node, f fieldMap, meta ast.Meta) (ast.Expr, error) {
	switch kind {
	case "lit":
		lit := &ast.Lit{Meta: meta, Value: val.Value, Kind: litKindOf(val)}
		if k, ok := f["kind"]; ok {
			lit.Kind = ast.LitKind(k.Value)
		}

		return lit, nil
	case "path":
		return &ast.Path{Meta: meta, Name: val.Value}, nil
	case "paren":
		x, err := p.expr(val)
		if err != nil {
			return nil, err
		}

		return &ast.Paren{Meta: meta, X: x}, nil
	case "unary":
		x, err := p.reqExpr(n, f, "x")
		if err != nil {
			return nil, err
		}

		return &ast.Unary{Meta: meta, Op: ast.UnOp(val.Value), X: x}, nil
	case "binary", "assign_op":
		op := ast.BinOp(val.Value)
		if !op.Valid() {
			return nil, p.errorf(val, "unknown binary operator %q", val.Value)
		}

		lhs, err := p.reqExpr(n, f, "lhs")
		if err != nil {
			return nil, err
		}

		rhs, err := p.reqExpr(n, f, "rhs")
		if err != nil {
			return nil, err
		}

		if kind == "assign_op" {
			return &ast.AssignOp{Meta: meta, Op: op, Lhs: lhs, Rhs: rhs}, nil
		}

		return &ast.Binary{Meta: meta, Op: op, X: lhs, Y: rhs}, nil
	case "assign":
		lhs, err := p.expr(val)
		if err != nil {
			return nil, err
		}

		rhs, err := p.reqExpr(n, f, "rhs")
		if err != nil {
			return nil, err
		}

		return &ast.Assign{Meta: meta, Lhs: lhs, Rhs: rhs}, nil
	case "call", "method_call":
		return p.call(kind, n, val, f, meta)
	case "field":
		x, err := p.reqExpr(n, f, "x")
		if err != nil {
			return nil, err
		}

		return &ast.Field{Meta: meta, X: x, Name: val.Value}, nil
	case "index":
		x, err := p.expr(val)
		if err != nil {
			return nil, err
		}

		at, err := p.reqExpr(n, f, "at")
		if err != nil {
			return nil, err
		}

		return &ast.Index{Meta: meta, X: x, Index: at}, nil
	case "tuple":
		elems, err := p.exprList(val)
		if err != nil {
			return nil, err
		}

		return &ast.Tuple{Meta: meta, Elems: elems}, nil
	case "cast":
		x, err := p.reqExpr(n, f, "x")
		if err != nil {
			return nil, err
		}

		return &ast.Cast{Meta: meta, X: x, Ty: val.Value}, nil
	case "ref":
		x, err := p.expr(val)
		if err != nil {
			return nil, err
		}

		mutable := false
		if m, ok := f["mut"]; ok {
			mutable = m.Value == "true"
		}

		return &ast.Ref{Meta: meta, Mutable: mutable, X: x}, nil
	case "block", "unsafe":
		block, err := p.block(val)
		if err != nil {
			return nil, err
		}

		if kind == "unsafe" {
			block.Unsafe = true
		}

		return &ast.BlockExpr{Meta: meta, Block: block}, nil
	case "if":
		return p.ifExpr(n, val, f, meta)
	case "while":
		cond, err := p.expr(val)
		if err != nil {
			return nil, err
		}

		body, err := p.block(f["body"])
		if err != nil {
			return nil, err
		}

		return &ast.While{Meta: meta, Cond: cond, Body: body}, nil
	case "loop":
		body, err := p.block(val)
		if err != nil {
			return nil, err
		}

		return &ast.Loop{Meta: meta, Body: body}, nil
	case "match":
		return p.match(n, val, f, meta)
	case "closure":
		params, err := p.params(val)
		if err != nil {
			return nil, err
		}

		body, err := p.reqExpr(n, f, "body")
		if err != nil {
			return nil, err
		}

		return &ast.Closure{Meta: meta, Params: params, Body: body}, nil
	case "return":
		x, err := p.expr(val)
		if err != nil {
			return nil, err
		}

		return &ast.Return{Meta: meta, X: x}, nil
	case "break":
		return &ast.Break{Meta: meta}, nil
	case "continue":
		return &ast.Continue{Meta: meta}, nil
	default:
		return &ast.MacCall{Meta: meta, Name: val.Value}, nil
	}
}

func litKindOf(n *yaml.Node) ast.LitKind {
	switch n.Tag {
	case "!!bool":
		return ast.LitBool
	case "!!int":
		return ast.LitInt
	case "!!float":
		return ast.LitFloat
	default:
		return ast.LitStr
	}
}

func (p *bodyParser) call(kind string, n, val *yaml.Node, f fieldMap, meta ast.Meta) (ast.Expr, error) {
	args, err := p.exprList(f["args"])
	if err != nil {
		return nil, err
	}

	h := p.hint(meta.ID)

	if g, ok := f["generics"]; ok {
		var generics []string
		if err := g.Decode(&generics); err != nil {
			return nil, p.errorf(g, "generics: %v", err)
		}

		for _, ty := range generics {
			h.generics = append(h.generics, hir.Ty(ty))
		}
	}

	if d, ok := f["dynamic"]; ok {
		h.dynamic = d.Value == "true"
	}

	if kind == "call" {
		h.def = hir.DefID(val.Value)
		fun := &ast.Path{Meta: p.newMeta(val), Name: val.Value}

		return &ast.Call{Meta: meta, Fun: fun, Args: args}, nil
	}

	recv, err := p.reqExpr(n, f, "recv")
	if err != nil {
		return nil, err
	}

	if d, ok := f["def"]; ok {
		h.def = hir.DefID(d.Value)
	}

	return &ast.MethodCall{Meta: meta, Recv: recv, Method: val.Value, Args: args}, nil
}

func (p *bodyParser) ifExpr(n, val *yaml.Node, f fieldMap, meta ast.Meta) (ast.Expr, error) {
	cond, err := p.expr(val)
	if err != nil {
		return nil, err
	}

	then, err := p.block(f["then"])
	if err != nil {
		return nil, err
	}

	out := &ast.If{Meta: meta, Cond: cond, Then: then}

	if elseNode, ok := f["else"]; ok && !isNull(elseNode) {
		els, err := p.expr(elseNode)
		if err != nil {
			return nil, err
		}

		switch els.(type) {
		case *ast.If, *ast.BlockExpr:
		default:
			return nil, p.errorf(elseNode, "else branch must be a block or an if")
		}

		out.Else = els
	}

	if cond == nil {
		return nil, p.errorf(n, "if without condition")
	}

	return out, nil
}

func (p *bodyParser) match(n, val *yaml.Node, f fieldMap, meta ast.Meta) (ast.Expr, error) {
	scrutinee, err := p.expr(val)
	if err != nil {
		return nil, err
	}

	out := &ast.Match{Meta: meta, Scrutinee: scrutinee}

	arms, ok := f["arms"]
	if !ok || arms.Kind != yaml.SequenceNode {
		return nil, p.errorf(n, "match without arms")
	}

	for _, armNode := range arms.Content {
		af, err := fieldsOf(armNode)
		if err != nil {
			return nil, p.errorf(armNode, "match arm: %v", err)
		}

		arm := &ast.Arm{Meta: p.newMeta(armNode)}
		if err := p.applyCommon(&arm.Meta, af); err != nil {
			return nil, err
		}

		if pat, ok := af["pat"]; ok {
			arm.Pat = pat.Value
		}

		if arm.Guard, err = p.optExpr(af, "guard"); err != nil {
			return nil, err
		}

		if arm.Body, err = p.reqExpr(armNode, af, "body"); err != nil {
			return nil, err
		}

		out.Arms = append(out.Arms, arm)
	}

	return out, nil
}

func (p *bodyParser) params(n *yaml.Node) ([]*ast.Param, error) {
	if isNull(n) {
		return nil, nil
	}

	if n.Kind != yaml.SequenceNode {
		return nil, p.errorf(n, "expected a list of parameters")
	}

	out := make([]*ast.Param, 0, len(n.Content))

	for _, item := range n.Content {
		param := &ast.Param{Meta: p.newMeta(item)}

		if item.Kind == yaml.ScalarNode {
			param.Name = item.Value
			out = append(out, param)

			continue
		}

		var spec paramSpec
		if err := item.Decode(&spec); err != nil {
			return nil, p.errorf(item, "param: %v", err)
		}

		param.Name, param.Ty, param.Mutable, param.Attrs = spec.Name, spec.Ty, spec.Mut, spec.Attrs
		out = append(out, param)
	}

	return out, nil
}

func (p *bodyParser) block(n *yaml.Node) (*ast.Block, error) {
	if isNull(n) || n.Kind == 0 {
		return nil, fmt.Errorf("%s: missing block", p.file)
	}

	block := &ast.Block{Meta: p.newMeta(n)}
	stmts := n

	if n.Kind == yaml.MappingNode {
		f, _ := fieldsOf(n)
		if err := p.applyCommon(&block.Meta, f); err != nil {
			return nil, err
		}

		if u, ok := f["unsafe"]; ok {
			block.Unsafe = u.Value == "true"
		}

		stmts = f["stmts"]
		if isNull(stmts) {
			return block, nil
		}
	}

	if stmts.Kind != yaml.SequenceNode {
		return nil, p.errorf(stmts, "expected a list of statements")
	}

	for _, item := range stmts.Content {
		stmt, err := p.stmt(item)
		if err != nil {
			return nil, err
		}

		block.Stmts = append(block.Stmts, stmt)
	}

	return block, nil
}

var stmtKinds = map[string]bool{"let": true, "expr": true, "tail": true, "item": true, "empty": true, "macro": true}

func (p *bodyParser) stmt(n *yaml.Node) (ast.Stmt, error) {
	f, err := fieldsOf(n)
	if err != nil {
		return nil, p.errorf(n, "statement: %v", err)
	}

	kind, val := primaryKey(n, stmtKinds)
	if kind == "" {
		return nil, p.errorf(n, "unknown statement kind, expected one of %s", strings.Join([]string{"let", "expr", "tail", "item", "empty", "macro"}, ", "))
	}

	meta := p.newMeta(n)
	if err := p.applyCommon(&meta, f); err != nil {
		return nil, err
	}

	switch kind {
	case "let":
		local := &ast.Local{Meta: meta, Name: val.Value}

		if m, ok := f["mut"]; ok {
			local.Mutable = m.Value == "true"
		}

		if ty, ok := f["ty"]; ok {
			local.Ty = ty.Value
		}

		if local.Init, err = p.optExpr(f, "init"); err != nil {
			return nil, err
		}

		if els, ok := f["else"]; ok && !isNull(els) {
			if local.Else, err = p.block(els); err != nil {
				return nil, err
			}
		}

		return local, nil
	case "expr", "tail":
		x, err := p.expr(val)
		if err != nil {
			return nil, err
		}

		if x == nil {
			return nil, p.errorf(n, "empty expression statement")
		}

		return &ast.ExprStmt{Meta: meta, X: x, Semi: kind == "expr"}, nil
	case "item":
		return &ast.ItemStmt{Meta: meta, Name: val.Value}, nil
	case "empty":
		return &ast.Empty{Meta: meta}, nil
	default:
		return &ast.MacCallStmt{Meta: meta, Name: val.Value}, nil
	}
}
