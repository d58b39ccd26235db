package adapter

import (
	"context"
	"fmt"
	"log/slog"

	"gopkg.in/yaml.v3"

	m "github.com/babydessy/mutest-rs/internal/model"
	"github.com/babydessy/mutest-rs/pkg"
)

// Report file names inside the output directory.
const (
	SummaryFile = "summary.yaml"
	MutantsFile = "mutants.spill"
)

// ReportStore persists analysis reports.
type ReportStore interface {
	// Save writes the summary and the mutant list into dir.
	Save(ctx context.Context, dir m.Path, report *m.Report, mutants []m.MutantRecord) error

	// LoadSummary reads the summary stored in dir.
	LoadSummary(ctx context.Context, dir m.Path) (*m.Report, error)

	// LoadMutants opens the mutant list stored in dir. The caller closes it.
	LoadMutants(ctx context.Context, dir m.Path) (pkg.FileSpill[m.MutantRecord], error)
}

type reportStore struct {
	fs FSAdapter
}

// NewReportStore constructs a ReportStore on top of the given filesystem.
func NewReportStore(fs FSAdapter) ReportStore {
	return &reportStore{fs: fs}
}

func (s *reportStore) Save(ctx context.Context, dir m.Path, report *m.Report, mutants []m.MutantRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := s.fs.MkdirAll(dir); err != nil {
		slog.Error("failed to create report directory", "path", dir, "error", err)
		return fmt.Errorf("create report directory: %w", err)
	}

	data, err := yaml.Marshal(report)
	if err != nil {
		slog.Error("failed to marshal report", "error", err)
		return fmt.Errorf("marshal report: %w", err)
	}

	summaryPath := s.fs.JoinPath(string(dir), SummaryFile)
	if err := s.fs.WriteFile(summaryPath, data, 0o600); err != nil {
		slog.Error("failed to write report", "path", summaryPath, "error", err)
		return fmt.Errorf("write report: %w", err)
	}

	mutantsPath := s.fs.JoinPath(string(dir), MutantsFile)

	spill, err := pkg.CreateFileSpill[m.MutantRecord](string(mutantsPath))
	if err != nil {
		return fmt.Errorf("create mutant list: %w", err)
	}

	if err := spill.AppendBatch(mutants); err != nil {
		_ = spill.Close()
		return fmt.Errorf("write mutant list: %w", err)
	}

	if err := spill.Close(); err != nil {
		return fmt.Errorf("close mutant list: %w", err)
	}

	slog.Info("report saved", "path", dir, "mutations", len(report.Mutations), "mutants", len(mutants))

	return nil
}

func (s *reportStore) LoadSummary(ctx context.Context, dir m.Path) (*m.Report, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	summaryPath := s.fs.JoinPath(string(dir), SummaryFile)

	data, err := s.fs.ReadFile(summaryPath)
	if err != nil {
		slog.Error("failed to read report", "path", summaryPath, "error", err)
		return nil, fmt.Errorf("read report: %w", err)
	}

	var report m.Report
	if err := yaml.Unmarshal(data, &report); err != nil {
		slog.Error("failed to parse report", "path", summaryPath, "error", err)
		return nil, fmt.Errorf("parse report: %w", err)
	}

	return &report, nil
}

func (s *reportStore) LoadMutants(ctx context.Context, dir m.Path) (pkg.FileSpill[m.MutantRecord], error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	mutantsPath := s.fs.JoinPath(string(dir), MutantsFile)

	spill, err := pkg.OpenFileSpill[m.MutantRecord](string(mutantsPath))
	if err != nil {
		return nil, fmt.Errorf("open mutant list: %w", err)
	}

	return spill, nil
}
