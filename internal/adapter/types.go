package adapter

import (
	"strings"

	"github.com/babydessy/mutest-rs/internal/model/hir"
)

type implKey struct {
	ty    hir.Ty
	trait string
	args  string
}

// typeTable answers trait queries from the impls of the program plus the
// operator impls every primitive type has.
type typeTable struct {
	impls map[implKey]map[string]hir.Ty
}

var (
	intTypes   = []hir.Ty{"i8", "i16", "i32", "i64", "i128", "isize", "u8", "u16", "u32", "u64", "u128", "usize"}
	floatTypes = []hir.Ty{"f32", "f64"}

	arithTraits = []string{"Add", "Sub", "Mul", "Div", "Rem"}
	bitTraits   = []string{"BitAnd", "BitOr", "BitXor"}
	shiftTraits = []string{"Shl", "Shr"}
)

func newTypeTable() *typeTable {
	t := &typeTable{impls: make(map[implKey]map[string]hir.Ty)}

	numeric := append(append([]hir.Ty{}, intTypes...), floatTypes...)

	for _, ty := range numeric {
		t.addOps(ty, arithTraits)
		t.addMarkers(ty, "Default", "PartialEq", "PartialOrd", "Copy")
		t.add(ty, "Neg", nil, map[string]hir.Ty{"Output": ty})
	}

	for _, ty := range intTypes {
		t.addOps(ty, bitTraits)
		t.addOps(ty, shiftTraits)
		t.add(ty, "Not", nil, map[string]hir.Ty{"Output": ty})
	}

	t.addOps("bool", bitTraits)
	t.add("bool", "Not", nil, map[string]hir.Ty{"Output": "bool"})
	t.addMarkers("bool", "Default", "PartialEq", "PartialOrd", "Copy")
	t.addMarkers("char", "Default", "PartialEq", "PartialOrd", "Copy")
	t.addMarkers("String", "Default", "PartialEq", "PartialOrd")
	t.addMarkers("()", "Default", "PartialEq", "PartialOrd", "Copy")

	return t
}

// addOps registers `ty: Op<ty, Output = ty>` and `ty: OpAssign<ty>`.
func (t *typeTable) addOps(ty hir.Ty, traits []string) {
	for _, trait := range traits {
		t.add(ty, trait, []hir.Ty{ty}, map[string]hir.Ty{"Output": ty})
		t.add(ty, trait+"Assign", []hir.Ty{ty}, nil)
	}
}

func (t *typeTable) addMarkers(ty hir.Ty, traits ...string) {
	for _, trait := range traits {
		t.add(ty, trait, nil, nil)
	}
}

func (t *typeTable) add(ty hir.Ty, trait string, args []hir.Ty, assoc map[string]hir.Ty) {
	key := implKey{ty: ty, trait: trait, args: joinTys(args)}

	entry, ok := t.impls[key]
	if !ok {
		entry = make(map[string]hir.Ty)
		t.impls[key] = entry
	}

	for name, assocTy := range assoc {
		entry[name] = assocTy
	}
}

// ImplementsTrait implements model.TypeContext.
func (t *typeTable) ImplementsTrait(ty hir.Ty, trait string, args ...hir.Ty) bool {
	_, ok := t.impls[implKey{ty: ty, trait: trait, args: joinTys(args)}]
	return ok
}

// AssocType implements model.TypeContext.
func (t *typeTable) AssocType(ty hir.Ty, trait string, args []hir.Ty, name string) (hir.Ty, bool) {
	entry, ok := t.impls[implKey{ty: ty, trait: trait, args: joinTys(args)}]
	if !ok {
		return "", false
	}

	assocTy, ok := entry[name]

	return assocTy, ok
}

func joinTys(tys []hir.Ty) string {
	parts := make([]string, 0, len(tys))
	for _, ty := range tys {
		parts = append(parts, string(ty))
	}

	return strings.Join(parts, ",")
}
