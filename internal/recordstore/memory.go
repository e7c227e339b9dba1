package recordstore

import (
	"context"
	"fmt"
	"sync"
)

// Memory is an in-memory Store used by tests and dry runs.
type Memory struct {
	mu    sync.Mutex
	grids map[string][][]string
	flags map[string]map[int]string
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		grids: make(map[string][][]string),
		flags: make(map[string]map[int]string),
	}
}

// Seed replaces a collection's grid wholesale. Test helper.
func (m *Memory) Seed(collection string, grid [][]string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := make([][]string, len(grid))
	for i, row := range grid {
		copied[i] = append([]string(nil), row...)
	}
	m.grids[collection] = copied
}

// Flags returns the notes recorded against a collection's rows. Test helper.
func (m *Memory) Flags(collection string) map[int]string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[int]string, len(m.flags[collection]))
	for row, note := range m.flags[collection] {
		out[row] = note
	}
	return out
}

func (m *Memory) ReadAll(_ context.Context, collection string) ([][]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	grid, ok := m.grids[collection]
	if !ok {
		return nil, fmt.Errorf("collection %q does not exist", collection)
	}
	copied := make([][]string, len(grid))
	for i, row := range grid {
		copied[i] = append([]string(nil), row...)
	}
	return copied, nil
}

func (m *Memory) Append(_ context.Context, collection string, row []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.grids[collection]; !ok {
		return fmt.Errorf("collection %q does not exist", collection)
	}
	m.grids[collection] = append(m.grids[collection], append([]string(nil), row...))
	return nil
}

func (m *Memory) DeleteRow(_ context.Context, collection string, row int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	grid, ok := m.grids[collection]
	if !ok {
		return fmt.Errorf("collection %q does not exist", collection)
	}
	if row < 1 || row > len(grid) {
		return fmt.Errorf("row %d out of range for collection %q", row, collection)
	}
	m.grids[collection] = append(grid[:row-1], grid[row:]...)

	// Flags stay attached to their rows as positions shift up.
	if flags := m.flags[collection]; flags != nil {
		delete(flags, row)
		shifted := make(map[int]string, len(flags))
		for r, note := range flags {
			if r > row {
				shifted[r-1] = note
			} else {
				shifted[r] = note
			}
		}
		m.flags[collection] = shifted
	}
	return nil
}

func (m *Memory) UpdateCell(_ context.Context, collection string, row, col int, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	grid, ok := m.grids[collection]
	if !ok {
		return fmt.Errorf("collection %q does not exist", collection)
	}
	if row < 1 || row > len(grid) {
		return fmt.Errorf("row %d out of range for collection %q", row, collection)
	}
	cells := grid[row-1]
	if col < 1 {
		return fmt.Errorf("column %d out of range", col)
	}
	for len(cells) < col {
		cells = append(cells, "")
	}
	cells[col-1] = value
	grid[row-1] = cells
	return nil
}

func (m *Memory) FlagRow(_ context.Context, collection string, row int, note string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.grids[collection]; !ok {
		return fmt.Errorf("collection %q does not exist", collection)
	}
	if m.flags[collection] == nil {
		m.flags[collection] = make(map[int]string)
	}
	m.flags[collection][row] = note
	return nil
}

func (m *Memory) EnsureCollection(_ context.Context, collection string, headers []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.grids[collection]; ok {
		return nil
	}
	m.grids[collection] = [][]string{append([]string(nil), headers...)}
	return nil
}

var _ Store = (*Memory)(nil)
