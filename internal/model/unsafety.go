package model

import (
	"fmt"
	"strings"
)

// UnsafeSource tells where unsafety comes from.
type UnsafeSource int

const (
	// EnclosingUnsafe means the code contains an unsafe block.
	EnclosingUnsafe UnsafeSource = iota
	// Unsafe means the code is declared unsafe or runs inside an unsafe block.
	Unsafe
)

func (s UnsafeSource) String() string {
	if s == Unsafe {
		return "unsafe"
	}

	return "enclosing unsafe"
}

// UnsafetyKind is the first axis of Unsafety.
type UnsafetyKind int

// Unsafety kinds, in increasing severity.
const (
	UnsafetyNone UnsafetyKind = iota
	UnsafetyTainted
	UnsafetyUnsafe
)

// Unsafety classifies a target or a mutation. Values are totally ordered:
// None < Tainted(EnclosingUnsafe) < Tainted(Unsafe) < Unsafe(EnclosingUnsafe) < Unsafe(Unsafe).
type Unsafety struct {
	Kind   UnsafetyKind
	Source UnsafeSource
}

// SafeUnsafety is the None value.
var SafeUnsafety = Unsafety{Kind: UnsafetyNone}

// Tainted returns Tainted(source).
func Tainted(source UnsafeSource) Unsafety {
	return Unsafety{Kind: UnsafetyTainted, Source: source}
}

// UnsafeOf returns Unsafe(source).
func UnsafeOf(source UnsafeSource) Unsafety {
	return Unsafety{Kind: UnsafetyUnsafe, Source: source}
}

// TaintedBy returns Tainted(*source), or None for a nil source.
func TaintedBy(source *UnsafeSource) Unsafety {
	if source == nil {
		return SafeUnsafety
	}

	return Tainted(*source)
}

// Rank returns the position of u in the total order, starting at 0 for None.
func (u Unsafety) Rank() int {
	if u.Kind == UnsafetyNone {
		return 0
	}

	return 1 + int(u.Kind-UnsafetyTainted)*2 + int(u.Source)
}

// Less reports whether u is strictly less severe than other.
func (u Unsafety) Less(other Unsafety) bool {
	return u.Rank() < other.Rank()
}

// Max returns the more severe of u and other.
func (u Unsafety) Max(other Unsafety) Unsafety {
	if u.Less(other) {
		return other
	}

	return u
}

// IsNone reports whether no unsafe code is involved.
func (u Unsafety) IsNone() bool {
	return u.Kind == UnsafetyNone
}

func (u Unsafety) String() string {
	switch u.Kind {
	case UnsafetyTainted:
		return fmt.Sprintf("tainted (%s)", u.Source)
	case UnsafetyUnsafe:
		return u.Source.String()
	default:
		return "safe"
	}
}

// IsUnsafe reports whether code of this unsafety is isolated under
// targeting. Code around unsafe blocks is trusted only by the enclosing
// policies; everything else above None is always isolated.
func (u Unsafety) IsUnsafe(targeting UnsafeTargeting) bool {
	switch {
	case u.IsNone():
		return false
	case u.Source == EnclosingUnsafe && targeting.Mode == TargetOnlyEnclosing:
		return false
	default:
		return true
	}
}

// MaxUnsafeSource returns the more severe of two optional sources.
func MaxUnsafeSource(a, b *UnsafeSource) *UnsafeSource {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	case *b > *a:
		return b
	default:
		return a
	}
}

// UnsafeTargetingMode is the first axis of UnsafeTargeting.
type UnsafeTargetingMode int

// Unsafe targeting modes.
const (
	TargetSafeOnly UnsafeTargetingMode = iota
	TargetOnlyEnclosing
	TargetAll
)

// UnsafeTargeting controls which unsafety levels are eligible for mutation.
// InsideUnsafe only matters for TargetOnlyEnclosing.
type UnsafeTargeting struct {
	Mode         UnsafeTargetingMode
	InsideUnsafe bool
}

// Named unsafe targeting policies.
var (
	UnsafeTargetingNone            = UnsafeTargeting{Mode: TargetSafeOnly}
	UnsafeTargetingEnclosing       = UnsafeTargeting{Mode: TargetOnlyEnclosing}
	UnsafeTargetingEnclosingUnsafe = UnsafeTargeting{Mode: TargetOnlyEnclosing, InsideUnsafe: true}
	UnsafeTargetingAll             = UnsafeTargeting{Mode: TargetAll}
)

// ParseUnsafeTargeting parses none, enclosing, enclosing-unsafe or all.
func ParseUnsafeTargeting(value string) (UnsafeTargeting, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "none", "safe":
		return UnsafeTargetingNone, nil
	case "", "enclosing":
		return UnsafeTargetingEnclosing, nil
	case "enclosing-unsafe":
		return UnsafeTargetingEnclosingUnsafe, nil
	case "all":
		return UnsafeTargetingAll, nil
	}

	return UnsafeTargeting{}, fmt.Errorf("unknown unsafe targeting %q", value)
}

func (t UnsafeTargeting) String() string {
	switch t.Mode {
	case TargetAll:
		return "all"
	case TargetOnlyEnclosing:
		if t.InsideUnsafe {
			return "enclosing-unsafe"
		}

		return "enclosing"
	default:
		return "none"
	}
}

// Permits reports whether a target with the given unsafety may be mutated.
// Only All admits definitions that are themselves declared unsafe.
func (t UnsafeTargeting) Permits(u Unsafety) bool {
	switch t.Mode {
	case TargetAll:
		return true
	case TargetOnlyEnclosing:
		return u.Less(UnsafeOf(Unsafe))
	default:
		return u.IsNone()
	}
}

// PermitsInsideUnsafe reports whether code inside unsafe blocks may be mutated.
func (t UnsafeTargeting) PermitsInsideUnsafe() bool {
	return t.Mode == TargetAll || (t.Mode == TargetOnlyEnclosing && t.InsideUnsafe)
}
