package hir

import (
	"strings"
	"unicode"

	"github.com/babydessy/mutest-rs/internal/model/ast"
)

// DefID is the stable path of a definition, e.g. `crate::math::add`.
type DefID string

// Ty is a type rendered as text, e.g. `i32` or `Vec<T>`.
type Ty string

// UnitTy is the type of expressions that produce no value.
const UnitTy Ty = "()"

// DefKind classifies definitions.
type DefKind string

// Definition kinds.
const (
	DefFn          DefKind = "fn"
	DefMethod      DefKind = "method"
	DefTraitMethod DefKind = "trait_method"
	DefConstFn     DefKind = "const_fn"
	DefConst       DefKind = "const"
	DefStatic      DefKind = "static"
	DefClosure     DefKind = "closure"
)

// Definition is what the resolver knows about a definition without its body.
type Definition struct {
	ID   DefID
	Name string
	Kind DefKind
	Span ast.Span

	// Local is false for definitions from other crates.
	Local bool
	// HasBody is false for bodiless declarations, externs and intrinsics.
	HasBody bool
	// Unsafe is set for definitions declared `unsafe`.
	Unsafe bool
	// EnclosesUnsafe is set when the body contains an unsafe block.
	EnclosesUnsafe bool
	// Const is set for definitions evaluated at compile time.
	Const bool

	IsTest   bool
	InTest   bool
	TestOnly bool
	Skip     bool

	// Generics lists generic parameter names in declaration order.
	Generics []string
	// Trait is the trait a trait method belongs to.
	Trait string
}

// IsConstContext reports whether the body is evaluated at compile time.
func (d *Definition) IsConstContext() bool {
	return d.Const || d.Kind == DefConst || d.Kind == DefConstFn || d.Kind == DefStatic
}

// Instance is a definition together with its generic arguments.
type Instance struct {
	Def  DefID
	Args []Ty
}

// String renders the instance as `def<arg, ..>`.
func (i Instance) String() string {
	if len(i.Args) == 0 {
		return string(i.Def)
	}

	args := make([]string, 0, len(i.Args))
	for _, a := range i.Args {
		args = append(args, string(a))
	}

	return string(i.Def) + "<" + strings.Join(args, ", ") + ">"
}

// Instantiate substitutes the caller's generic parameters inside the
// callee's generic arguments. Substitution is per identifier, so with
// `T = i32` the argument `Vec<T>` becomes `Vec<i32>`, while `Tx` is untouched.
func Instantiate(callee Instance, params []string, args []Ty) Instance {
	if len(callee.Args) == 0 || len(params) == 0 {
		return callee
	}

	subst := make(map[string]string, len(params))

	for i, p := range params {
		if i < len(args) {
			subst[p] = string(args[i])
		}
	}

	out := Instance{Def: callee.Def, Args: make([]Ty, 0, len(callee.Args))}
	for _, a := range callee.Args {
		out.Args = append(out.Args, Ty(substIdents(string(a), subst)))
	}

	return out
}

func substIdents(s string, subst map[string]string) string {
	var b strings.Builder

	isIdent := func(r rune) bool { return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) }

	runes := []rune(s)
	for i := 0; i < len(runes); {
		if !isIdent(runes[i]) {
			b.WriteRune(runes[i])
			i++

			continue
		}

		j := i
		for j < len(runes) && isIdent(runes[j]) {
			j++
		}

		word := string(runes[i:j])
		if repl, ok := subst[word]; ok {
			b.WriteString(repl)
		} else {
			b.WriteString(word)
		}

		i = j
	}

	return b.String()
}

// CallSite is a single call found in a definition body.
type CallSite struct {
	Callee Instance
	Span   ast.Span
	// InUnsafeBlock is set when the call is textually inside an unsafe block.
	InUnsafeBlock bool
	// Dynamic is set for calls through trait objects or function pointers.
	Dynamic bool
}

// TestID identifies a test entry point.
type TestID string

// Test is a test entry point.
type Test struct {
	ID  TestID
	Def DefID
}
