package domain

import (
	"fmt"
	"log/slog"
	"sync"

	m "github.com/babydessy/mutest-rs/internal/model"
	"github.com/babydessy/mutest-rs/internal/model/ast"
	"github.com/babydessy/mutest-rs/internal/model/hir"
)

// diagnostics collects recoverable problems and mirrors them to the log.
type diagnostics struct {
	mu    sync.Mutex
	items []m.Diagnostic
}

func (d *diagnostics) warn(def hir.DefID, span ast.Span, format string, args ...any) {
	d.add(m.LevelWarning, def, span, fmt.Sprintf(format, args...))
}

func (d *diagnostics) note(def hir.DefID, span ast.Span, format string, args ...any) {
	d.add(m.LevelNote, def, span, fmt.Sprintf(format, args...))
}

func (d *diagnostics) add(level m.DiagnosticLevel, def hir.DefID, span ast.Span, msg string) {
	if level == m.LevelWarning {
		slog.Warn(msg, "def", def, "span", span.String())
	} else {
		slog.Debug(msg, "def", def, "span", span.String())
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	d.items = append(d.items, m.Diagnostic{Level: level, Message: msg, Def: def, Span: span})
}

func (d *diagnostics) list() []m.Diagnostic {
	d.mu.Lock()
	defer d.mu.Unlock()

	out := make([]m.Diagnostic, len(d.items))
	copy(out, d.items)

	return out
}
