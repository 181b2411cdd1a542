// Package tablestore keeps extracted table cells in a DuckDB file so
// clients can query rows without re-reading the JSON artifact. The
// store is volatile like the registry: one database per process run.
package tablestore

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"sync"

	_ "github.com/marcboeker/go-duckdb"
	"github.com/pdf2tables/backend/internal/models"
)

// Store is a DuckDB-backed cell store.
type Store struct {
	db *sql.DB
	mu sync.Mutex
}

// Open creates the store database inside the given directory.
func Open(dir string) (*Store, error) {
	return OpenAtPath(filepath.Join(dir, "tables.duckdb"))
}

// OpenAtPath creates the store at a specific path; an empty path opens
// an in-memory database.
func OpenAtPath(dbPath string) (*Store, error) {
	db, err := sql.Open("duckdb", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening duckdb: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS cells (
			request_id VARCHAR NOT NULL,
			slug       VARCHAR NOT NULL,
			page       INTEGER NOT NULL,
			tbl_order  INTEGER NOT NULL,
			flavor     VARCHAR NOT NULL,
			row_idx    INTEGER NOT NULL,
			col_idx    INTEGER NOT NULL,
			cell       VARCHAR
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating cells table: %w", err)
	}
	return &Store{db: db}, nil
}

// InsertTables stores all cells of the extracted tables for one file.
func (s *Store) InsertTables(ctx context.Context, requestID, slug string, tables []models.Table) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin insert: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO cells (request_id, slug, page, tbl_order, flavor, row_idx, col_idx, cell)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, table := range tables {
		for rowIdx, row := range table.Data {
			for colIdx, cell := range row {
				if _, err := stmt.ExecContext(ctx, requestID, slug, table.Page, table.Order, table.Flavor, rowIdx, colIdx, cell); err != nil {
					tx.Rollback()
					return fmt.Errorf("insert cell: %w", err)
				}
			}
		}
	}
	return tx.Commit()
}

// Tables reconstructs the stored tables for one file, without HTML.
func (s *Store) Tables(ctx context.Context, requestID, slug string) ([]models.Table, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT page, tbl_order, flavor, row_idx, col_idx, cell
		FROM cells
		WHERE request_id = ? AND slug = ?
		ORDER BY page, tbl_order, row_idx, col_idx
	`, requestID, slug)
	if err != nil {
		return nil, fmt.Errorf("query cells: %w", err)
	}
	defer rows.Close()

	var tables []models.Table
	var current *models.Table
	for rows.Next() {
		var page, order, rowIdx, colIdx int
		var flavor, cell string
		if err := rows.Scan(&page, &order, &flavor, &rowIdx, &colIdx, &cell); err != nil {
			return nil, fmt.Errorf("scan cell: %w", err)
		}

		if current == nil || current.Page != page || current.Order != order {
			tables = append(tables, models.Table{Page: page, Order: order, Flavor: flavor})
			current = &tables[len(tables)-1]
		}
		for len(current.Data) <= rowIdx {
			current.Data = append(current.Data, nil)
		}
		for len(current.Data[rowIdx]) <= colIdx {
			current.Data[rowIdx] = append(current.Data[rowIdx], "")
		}
		current.Data[rowIdx][colIdx] = cell
	}
	return tables, rows.Err()
}

// DeleteRequest drops all cells belonging to one request.
func (s *Store) DeleteRequest(ctx context.Context, requestID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.ExecContext(ctx, `DELETE FROM cells WHERE request_id = ?`, requestID)
	return err
}

// Close releases the database.
func (s *Store) Close() error {
	return s.db.Close()
}
