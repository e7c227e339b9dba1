// Package recordstore abstracts the tabular store that holds pending,
// history, and template collections. A collection is a 2-D grid whose first
// row names the columns; rows are addressed by 1-based position.
package recordstore

import "context"

// Store is the grid-level contract the pipeline depends on. Implementations
// must keep row positions dense: deleting row n shifts every later row up
// by one.
type Store interface {
	// ReadAll returns the full grid for a collection, header row first.
	ReadAll(ctx context.Context, collection string) ([][]string, error)

	// Append adds a row at the end of a collection.
	Append(ctx context.Context, collection string, row []string) error

	// DeleteRow removes the row at the given 1-based position.
	DeleteRow(ctx context.Context, collection string, row int) error

	// UpdateCell writes a single cell at (row, col), both 1-based.
	UpdateCell(ctx context.Context, collection string, row, col int, value string) error

	// FlagRow visibly marks a row for operator attention, with a note
	// explaining why. Flagging never alters cell values.
	FlagRow(ctx context.Context, collection string, row int, note string) error

	// EnsureCollection creates a collection with the given header row if it
	// does not exist yet. Idempotent: an existing collection is untouched.
	EnsureCollection(ctx context.Context, collection string, headers []string) error
}
