package adapter

import (
	"context"
	"errors"

	m "github.com/babydessy/mutest-rs/internal/model"
	"github.com/babydessy/mutest-rs/internal/model/hir"
)

var (
	// ErrUnknownDefinition is returned for definition ids the oracle does not know.
	ErrUnknownDefinition = errors.New("unknown definition")
	// ErrUnresolvable is returned when a call target cannot be resolved statically.
	ErrUnresolvable = errors.New("unresolvable call target")
	// ErrNoBody is returned when a definition has no inspectable body.
	ErrNoBody = errors.New("definition has no body")
)

// Oracle is the read-only view of the compiler front end the analysis runs on.
type Oracle interface {
	m.TypeContext

	// Tests returns every test entry point, sorted by id.
	Tests(ctx context.Context) ([]hir.Test, error)

	// Definition returns what is known about a definition.
	Definition(ctx context.Context, id hir.DefID) (*hir.Definition, error)

	// Callees returns the call sites in the body of the instance. Generic
	// arguments of the callees may still name the generic parameters of the
	// instance's definition.
	Callees(ctx context.Context, inst hir.Instance) ([]hir.CallSite, error)

	// Resolve maps a trait method instance to the implementing definition
	// for its Self type. Other instances are returned unchanged.
	Resolve(ctx context.Context, inst hir.Instance) (hir.Instance, error)

	// Body returns the body of a definition in both representations along
	// with their node correspondence.
	Body(ctx context.Context, id hir.DefID) (*m.LoweredFn, error)
}

// ProgramLoader loads a program and exposes it as an Oracle.
type ProgramLoader interface {
	Load(ctx context.Context, path m.Path) (Oracle, *m.Program, error)
}
