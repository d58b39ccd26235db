package model

import "time"

// Timings holds the duration of each analysis phase.
type Timings struct {
	Targets   time.Duration `yaml:"targets"`
	Mutations time.Duration `yaml:"mutations"`
	Conflicts time.Duration `yaml:"conflicts"`
	Batching  time.Duration `yaml:"batching"`
	Total     time.Duration `yaml:"total"`
}

// ReportOptions records the options a report was produced with.
type ReportOptions struct {
	CallGraphDepth  int    `yaml:"call_graph_depth"`
	MutationDepth   int    `yaml:"mutation_depth"`
	UnsafeTargeting string `yaml:"unsafe_targeting"`
	Algorithm       string `yaml:"algorithm"`
	MaxMutations    int    `yaml:"max_mutations"`
	Seed            int64  `yaml:"seed"`
}

// TargetRecord is the persisted form of a Target.
type TargetRecord struct {
	Def      string   `yaml:"def"`
	Name     string   `yaml:"name"`
	Unsafety string   `yaml:"unsafety"`
	Distance int      `yaml:"distance"`
	Tests    []string `yaml:"tests"`
}

// MutationRecord is the persisted form of a Mut.
type MutationRecord struct {
	ID          uint32   `yaml:"id"`
	Target      string   `yaml:"target"`
	Operator    string   `yaml:"operator"`
	DisplayName string   `yaml:"display_name"`
	Location    string   `yaml:"location"`
	Safety      string   `yaml:"safety"`
	Original    string   `yaml:"original"`
	Substitute  string   `yaml:"substitute"`
	Tests       []string `yaml:"tests"`
}

// MutantRecord is the persisted form of a Mutant.
type MutantRecord struct {
	ID        uint32
	Unsafe    bool
	Mutations []uint32

	// Undetected is shown when no test detects the mutant.
	Undetected string
}

// Report is the persisted summary of an analysis run.
type Report struct {
	RunID       string           `yaml:"run_id"`
	Program     Path             `yaml:"program"`
	CreatedAt   time.Time        `yaml:"created_at"`
	Options     ReportOptions    `yaml:"options"`
	Timings     Timings          `yaml:"timings"`
	Targets     []TargetRecord   `yaml:"targets"`
	Mutations   []MutationRecord `yaml:"mutations"`
	Mutants     int              `yaml:"mutants"`
	Conflicts   int              `yaml:"conflicts"`
	Diagnostics []Diagnostic     `yaml:"diagnostics,omitempty"`
}
