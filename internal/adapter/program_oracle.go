package adapter

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"gopkg.in/yaml.v3"

	m "github.com/babydessy/mutest-rs/internal/model"
	"github.com/babydessy/mutest-rs/internal/model/ast"
	"github.com/babydessy/mutest-rs/internal/model/hir"
)

type dispatchKey struct {
	method hir.DefID
	self   hir.Ty
}

// programOracle serves a fully lowered program description.
type programOracle struct {
	*typeTable

	defs     map[hir.DefID]*hir.Definition
	bodies   map[hir.DefID]*m.LoweredFn
	callees  map[hir.DefID][]hir.CallSite
	dispatch map[dispatchKey]hir.DefID
	tests    []hir.Test
}

// NewProgramOracle parses a YAML program description and lowers every body
// it contains. The file name is used in spans unless the description names
// its own source file.
func NewProgramOracle(file string, data []byte) (Oracle, *m.Program, error) {
	desc, nodes, err := decodeProgram(data)
	if err != nil {
		return nil, nil, err
	}

	source := file
	if desc.File != "" {
		source = desc.File
	}

	o := &programOracle{
		typeTable: newTypeTable(),
		defs:      make(map[hir.DefID]*hir.Definition, len(desc.Defs)),
		bodies:    make(map[hir.DefID]*m.LoweredFn),
		callees:   make(map[hir.DefID][]hir.CallSite),
		dispatch:  make(map[dispatchKey]hir.DefID),
	}

	for _, impl := range desc.Impls {
		args := make([]hir.Ty, 0, len(impl.Args))
		for _, a := range impl.Args {
			args = append(args, hir.Ty(a))
		}

		assoc := make(map[string]hir.Ty, len(impl.Assoc))
		for k, v := range impl.Assoc {
			assoc[k] = hir.Ty(v)
		}

		o.add(hir.Ty(impl.Ty), impl.Trait, args, assoc)
	}

	var nextNode ast.NodeID

	parser := newBodyParser(source, &nextNode)
	rets := make(map[hir.DefID]hir.Ty, len(desc.Defs))

	for i := range desc.Defs {
		d := &desc.Defs[i]

		def, err := definitionOf(d, parser.span(nodes[i]))
		if err != nil {
			return nil, nil, parser.errorf(nodes[i], "%v", err)
		}

		if _, dup := o.defs[def.ID]; dup {
			return nil, nil, parser.errorf(nodes[i], "duplicate definition %q", def.ID)
		}

		o.defs[def.ID] = def
		rets[def.ID] = hir.Ty(d.Ret)
	}

	for _, ds := range desc.Dispatch {
		if _, ok := o.defs[hir.DefID(ds.Impl)]; !ok {
			return nil, nil, fmt.Errorf("dispatch of %s for %s: %w: %s", ds.Method, ds.Self, ErrUnknownDefinition, ds.Impl)
		}

		o.dispatch[dispatchKey{method: hir.DefID(ds.Method), self: hir.Ty(ds.Self)}] = hir.DefID(ds.Impl)
	}

	var nextHir hir.HirID

	for i := range desc.Defs {
		d := &desc.Defs[i]

		def := o.defs[hir.DefID(d.ID)]
		if !def.HasBody {
			continue
		}

		fn, err := parser.fn(nodes[i], d)
		if err != nil {
			return nil, nil, err
		}

		l := newLowerer(&nextHir, parser.hints, o.defs, rets, o.typeTable)
		hfn := l.lowerFn(fn, def.ID)

		def.EnclosesUnsafe = l.enclosesUnsafe
		o.callees[def.ID] = l.calls
		o.bodies[def.ID] = &m.LoweredFn{
			Def:         def,
			Ast:         fn,
			Hir:         hfn,
			Typeck:      l.typeck,
			Resolutions: l.res,
		}

		if def.IsTest {
			o.tests = append(o.tests, hir.Test{ID: hir.TestID(def.ID), Def: def.ID})
		}
	}

	sort.Slice(o.tests, func(i, j int) bool { return o.tests[i].ID < o.tests[j].ID })

	program := &m.Program{
		Path:  m.Path(file),
		Name:  desc.Name,
		Tests: len(o.tests),
		Defs:  len(o.defs),
	}

	return o, program, nil
}

func definitionOf(d *defSpec, span ast.Span) (*hir.Definition, error) {
	if d.ID == "" {
		return nil, fmt.Errorf("definition without id")
	}

	kind := hir.DefKind(d.Kind)
	if kind == "" {
		kind = hir.DefFn
	}

	switch kind {
	case hir.DefFn, hir.DefMethod, hir.DefTraitMethod, hir.DefConstFn, hir.DefConst, hir.DefStatic, hir.DefClosure:
	default:
		return nil, fmt.Errorf("unknown definition kind %q", d.Kind)
	}

	attrs := ast.Attrs(d.Attrs)

	name := d.Name
	if name == "" {
		name = lastSegment(d.ID)
	}

	return &hir.Definition{
		ID:       hir.DefID(d.ID),
		Name:     name,
		Kind:     kind,
		Span:     span,
		Local:    !d.Extern,
		HasBody:  !d.Extern && !isNull(&d.Body) && d.Body.Kind != 0,
		Unsafe:   d.Unsafe,
		Const:    d.Const || kind == hir.DefConst || kind == hir.DefConstFn || kind == hir.DefStatic,
		IsTest:   attrs.Has(ast.AttrTest),
		InTest:   d.InTest,
		TestOnly: attrs.Has(ast.AttrCfgTest),
		Skip:     attrs.Has(ast.AttrSkip),
		Generics: d.Generics,
		Trait:    d.Trait,
	}, nil
}

func lastSegment(id string) string {
	for i := len(id) - 1; i > 0; i-- {
		if id[i] == ':' && id[i-1] == ':' {
			return id[i+1:]
		}
	}

	return id
}

// fn builds the syntax tree of a definition with a body.
func (p *bodyParser) fn(n *yaml.Node, d *defSpec) (*ast.Fn, error) {
	f, err := fieldsOf(n)
	if err != nil {
		return nil, p.errorf(n, "definition: %v", err)
	}

	fn := &ast.Fn{
		Meta:   p.newMeta(n),
		Name:   d.Name,
		Ret:    d.Ret,
		Unsafe: d.Unsafe,
		Const:  d.Const,
	}
	fn.Attrs = d.Attrs

	if fn.Params, err = p.params(f["params"]); err != nil {
		return nil, err
	}

	if fn.Body, err = p.block(f["body"]); err != nil {
		return nil, err
	}

	return fn, nil
}

func (o *programOracle) Tests(ctx context.Context) ([]hir.Test, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := make([]hir.Test, len(o.tests))
	copy(out, o.tests)

	return out, nil
}

func (o *programOracle) Definition(ctx context.Context, id hir.DefID) (*hir.Definition, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	def, ok := o.defs[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownDefinition, id)
	}

	return def, nil
}

func (o *programOracle) Callees(ctx context.Context, inst hir.Instance) ([]hir.CallSite, error) {
	def, err := o.Definition(ctx, inst.Def)
	if err != nil {
		return nil, err
	}

	if !def.HasBody {
		return nil, fmt.Errorf("%w: %s", ErrNoBody, inst.Def)
	}

	calls := o.callees[inst.Def]
	out := make([]hir.CallSite, len(calls))
	copy(out, calls)

	return out, nil
}

func (o *programOracle) Resolve(ctx context.Context, inst hir.Instance) (hir.Instance, error) {
	def, err := o.Definition(ctx, inst.Def)
	if err != nil {
		return hir.Instance{}, err
	}

	if def.Kind != hir.DefTraitMethod {
		return inst, nil
	}

	if len(inst.Args) == 0 {
		return hir.Instance{}, fmt.Errorf("%w: %s has no Self type", ErrUnresolvable, inst)
	}

	impl, ok := o.dispatch[dispatchKey{method: inst.Def, self: inst.Args[0]}]
	if !ok {
		return hir.Instance{}, fmt.Errorf("%w: no impl of %s for %s", ErrUnresolvable, inst.Def, inst.Args[0])
	}

	return hir.Instance{Def: impl, Args: inst.Args[1:]}, nil
}

func (o *programOracle) Body(ctx context.Context, id hir.DefID) (*m.LoweredFn, error) {
	def, err := o.Definition(ctx, id)
	if err != nil {
		return nil, err
	}

	body, ok := o.bodies[def.ID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoBody, id)
	}

	return body, nil
}

type yamlProgramLoader struct {
	fs FSAdapter
}

// NewProgramLoader returns a loader for YAML program descriptions.
func NewProgramLoader(fs FSAdapter) ProgramLoader {
	return &yamlProgramLoader{fs: fs}
}

func (l *yamlProgramLoader) Load(ctx context.Context, path m.Path) (Oracle, *m.Program, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	data, err := l.fs.ReadFile(path)
	if err != nil {
		slog.Error("failed to read program description", "path", path, "error", err)
		return nil, nil, fmt.Errorf("read %s: %w", path, err)
	}

	oracle, program, err := NewProgramOracle(string(path), data)
	if err != nil {
		slog.Error("failed to load program description", "path", path, "error", err)
		return nil, nil, fmt.Errorf("load %s: %w", path, err)
	}

	if hash, err := l.fs.HashFile(path); err == nil {
		program.Hash = hash
	}

	slog.Debug("program loaded", "path", path, "defs", program.Defs, "tests", program.Tests)

	return oracle, program, nil
}
