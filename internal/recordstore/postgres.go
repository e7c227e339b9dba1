package recordstore

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"regexp"
	"time"

	"github.com/lib/pq"
)

// identPattern restricts collection names to safe SQL identifiers, since
// each collection maps to its own table.
var identPattern = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// Postgres is a Store backed by PostgreSQL. Each collection is a table of
// positional rows whose cells are stored as a text array, so arbitrary
// operator-added columns survive round trips without schema changes.
type Postgres struct {
	conn *sql.DB
}

// NewPostgres opens and pings a PostgreSQL connection with the given DSN.
func NewPostgres(dsn string) (*Postgres, error) {
	conn, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	slog.Info("Successfully connected to PostgreSQL record store")
	return &Postgres{conn: conn}, nil
}

// NewPostgresWithConn wraps an existing connection. Used by tests.
func NewPostgresWithConn(conn *sql.DB) *Postgres {
	return &Postgres{conn: conn}
}

// Close closes the database connection.
func (p *Postgres) Close() error {
	if p.conn != nil {
		slog.Info("Closing record store connection")
		return p.conn.Close()
	}
	return nil
}

func checkCollection(collection string) error {
	if !identPattern.MatchString(collection) {
		return fmt.Errorf("invalid collection name: %q", collection)
	}
	return nil
}

func (p *Postgres) ReadAll(ctx context.Context, collection string) ([][]string, error) {
	if err := checkCollection(collection); err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`SELECT cells FROM %s ORDER BY pos ASC`, collection)
	rows, err := p.conn.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to read collection %s: %w", collection, err)
	}
	defer rows.Close()

	var grid [][]string
	for rows.Next() {
		var cells []string
		if err := rows.Scan(pq.Array(&cells)); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		grid = append(grid, cells)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating collection %s: %w", collection, err)
	}
	return grid, nil
}

func (p *Postgres) Append(ctx context.Context, collection string, row []string) error {
	if err := checkCollection(collection); err != nil {
		return err
	}

	query := fmt.Sprintf(
		`INSERT INTO %s (pos, cells) SELECT COALESCE(MAX(pos), 0) + 1, $1 FROM %s`,
		collection, collection,
	)
	if _, err := p.conn.ExecContext(ctx, query, pq.Array(row)); err != nil {
		return fmt.Errorf("failed to append to collection %s: %w", collection, err)
	}
	return nil
}

// DeleteRow removes a row and closes the position gap in one transaction,
// so positions stay dense for the next read.
func (p *Postgres) DeleteRow(ctx context.Context, collection string, row int) error {
	if err := checkCollection(collection); err != nil {
		return err
	}

	tx, err := p.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	del := fmt.Sprintf(`DELETE FROM %s WHERE pos = $1`, collection)
	result, err := tx.ExecContext(ctx, del, row)
	if err != nil {
		return fmt.Errorf("failed to delete row %d from %s: %w", row, collection, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("row %d not found in collection %s", row, collection)
	}

	shift := fmt.Sprintf(`UPDATE %s SET pos = pos - 1 WHERE pos > $1`, collection)
	if _, err := tx.ExecContext(ctx, shift, row); err != nil {
		return fmt.Errorf("failed to reindex collection %s: %w", collection, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit delete: %w", err)
	}
	return nil
}

func (p *Postgres) UpdateCell(ctx context.Context, collection string, row, col int, value string) error {
	if err := checkCollection(collection); err != nil {
		return err
	}
	if col < 1 {
		return fmt.Errorf("column %d out of range", col)
	}

	query := fmt.Sprintf(`UPDATE %s SET cells[$2] = $3 WHERE pos = $1`, collection)
	result, err := p.conn.ExecContext(ctx, query, row, col, value)
	if err != nil {
		return fmt.Errorf("failed to update cell (%d, %d) in %s: %w", row, col, collection, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("row %d not found in collection %s", row, collection)
	}
	return nil
}

func (p *Postgres) FlagRow(ctx context.Context, collection string, row int, note string) error {
	if err := checkCollection(collection); err != nil {
		return err
	}

	query := fmt.Sprintf(`UPDATE %s SET flag = $2 WHERE pos = $1`, collection)
	result, err := p.conn.ExecContext(ctx, query, row, note)
	if err != nil {
		return fmt.Errorf("failed to flag row %d in %s: %w", row, collection, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("row %d not found in collection %s", row, collection)
	}
	return nil
}

// EnsureCollection creates the collection table and its header row when
// missing. Safe to run on every start.
func (p *Postgres) EnsureCollection(ctx context.Context, collection string, headers []string) error {
	if err := checkCollection(collection); err != nil {
		return err
	}

	create := fmt.Sprintf(
		`CREATE TABLE IF NOT EXISTS %s (pos INTEGER NOT NULL, cells TEXT[] NOT NULL, flag TEXT)`,
		collection,
	)
	if _, err := p.conn.ExecContext(ctx, create); err != nil {
		return fmt.Errorf("failed to create collection %s: %w", collection, err)
	}

	seed := fmt.Sprintf(
		`INSERT INTO %s (pos, cells) SELECT 1, $1 WHERE NOT EXISTS (SELECT 1 FROM %s)`,
		collection, collection,
	)
	if _, err := p.conn.ExecContext(ctx, seed, pq.Array(headers)); err != nil {
		return fmt.Errorf("failed to seed header row for %s: %w", collection, err)
	}

	slog.Debug("Ensured collection exists", "collection", collection)
	return nil
}

var _ Store = (*Postgres)(nil)
