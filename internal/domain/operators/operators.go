// Package operators provides the mutation operators tried at every location.
package operators

import (
	"fmt"
	"sort"
	"strings"

	m "github.com/babydessy/mutest-rs/internal/model"
	"github.com/babydessy/mutest-rs/internal/model/ast"
)

// All returns every built-in operator in registration order.
func All() []m.Operator {
	ops := make([]m.Operator, 0, len(opSwaps)+4)
	for _, op := range opSwaps {
		ops = append(ops, op)
	}

	return append(ops,
		RelationalOpInvert{},
		BoolLitFlip{},
		CallStmtDelete{},
		LocalInitDefault{},
	)
}

// Names returns the names of every built-in operator, sorted.
func Names() []string {
	names := make([]string, 0)
	for _, op := range All() {
		names = append(names, op.Name())
	}

	sort.Strings(names)

	return names
}

// ByName returns the operators with the given names, in registration order.
// No names selects every operator.
func ByName(names ...string) ([]m.Operator, error) {
	if len(names) == 0 {
		return All(), nil
	}

	wanted := make(map[string]bool, len(names))
	for _, name := range names {
		wanted[strings.TrimSpace(name)] = true
	}

	var ops []m.Operator

	for _, op := range All() {
		if wanted[op.Name()] {
			ops = append(ops, op)
			delete(wanted, op.Name())
		}
	}

	if len(wanted) > 0 {
		unknown := make([]string, 0, len(wanted))
		for name := range wanted {
			unknown = append(unknown, name)
		}

		sort.Strings(unknown)

		return nil, fmt.Errorf("unknown mutation operators: %s (available: %s)",
			strings.Join(unknown, ", "), strings.Join(Names(), ", "))
	}

	return ops, nil
}

// meta is the node header of synthesized nodes.
func meta(mcx *m.MutCtxt) ast.Meta {
	return ast.Meta{ID: ast.DummyNodeID, Span: mcx.DefSite}
}

func replace(node ast.Node, substitute m.Subst) []m.SubstDef {
	return []m.SubstDef{m.NewSubstDef(m.SubstLoc{Kind: m.Replace, Node: node.NodeID()}, substitute)}
}
