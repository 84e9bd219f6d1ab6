package ledger

import (
	"context"
	"fmt"
	"slices"
	"sync"
)

// Memory is an in-process Store. It backs tests and dry runs.
type Memory struct {
	mu     sync.Mutex
	header []string
	rows   [][]any

	// WriteErr, when set, makes every append fail with it wrapped in ErrWrite.
	WriteErr error
}

var (
	_ Store          = (*Memory)(nil)
	_ AtomicAppender = (*Memory)(nil)
)

// NewMemory returns an empty store.
func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) EnsureHeader(_ context.Context, columns []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if slices.Equal(m.header, columns) {
		return nil
	}
	m.header = slices.Clone(columns)
	return nil
}

func (m *Memory) ListIdentifiers(context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, 0, len(m.rows))
	for _, row := range m.rows {
		ids = append(ids, identifierOf(row))
	}
	return ids, nil
}

func (m *Memory) AppendRecord(_ context.Context, fields []any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.appendLocked(fields)
}

func (m *Memory) CheckAndAppend(_ context.Context, identifier string, fields []any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, row := range m.rows {
		if identifierOf(row) == identifier {
			return ErrDuplicateIdentifier
		}
	}
	return m.appendLocked(fields)
}

func (m *Memory) appendLocked(fields []any) error {
	if m.WriteErr != nil {
		return fmt.Errorf("%w: %w", ErrWrite, m.WriteErr)
	}
	m.rows = append(m.rows, slices.Clone(fields))
	return nil
}

// Header returns a copy of the current header row.
func (m *Memory) Header() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.header)
}

// Rows returns a copy of the appended rows.
func (m *Memory) Rows() [][]any {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([][]any, len(m.rows))
	for i, row := range m.rows {
		out[i] = slices.Clone(row)
	}
	return out
}

func identifierOf(row []any) string {
	if len(row) == 0 {
		return ""
	}
	return fmt.Sprint(row[0])
}
