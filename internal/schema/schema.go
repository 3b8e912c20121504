// Package schema manages DDL for taskvault tables: creation, column
// addition, and introspection.
//
// Identifiers (table and column names) are validated before being placed in
// DDL statements; SQLite does not accept bound parameters in DDL, so
// validation is the injection boundary here. Values in every other query
// throughout the codebase are always bound parameters.
package schema

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strings"

	"taskvault/internal/database"
	"taskvault/internal/domain"
)

// Column is one ordered column definition for CreateTable.
// Def is the type and constraint text, e.g. "TEXT NOT NULL".
type Column struct {
	Name string
	Def  string
}

// ColumnInfo describes an existing column, from PRAGMA table_info
type ColumnInfo struct {
	Name       string
	Type       string
	NotNull    bool
	Default    string
	PrimaryKey bool
}

var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// IsValidIdent reports whether s is safe to use as a SQL identifier
func IsValidIdent(s string) bool {
	return identPattern.MatchString(s)
}

func checkIdent(kind, s string) error {
	if !IsValidIdent(s) {
		return fmt.Errorf("%w: invalid %s name %q", domain.ErrSchema, kind, s)
	}
	return nil
}

// Manager executes DDL against an injected query handle. It works over
// *sql.DB or *sql.Tx, so schema changes can participate in transactions.
type Manager struct {
	db database.Queryer
}

// NewManager creates a schema manager over the given handle
func NewManager(db database.Queryer) *Manager {
	return &Manager{db: db}
}

// CreateTable creates table with the given ordered columns if it does not
// already exist. Creating an existing table is a no-op.
func (m *Manager) CreateTable(ctx context.Context, table string, cols []Column) error {
	if err := checkIdent("table", table); err != nil {
		return err
	}
	if len(cols) == 0 {
		return fmt.Errorf("%w: create table %s: no columns", domain.ErrSchema, table)
	}

	defs := make([]string, 0, len(cols))
	for _, col := range cols {
		if err := checkIdent("column", col.Name); err != nil {
			return err
		}
		if strings.TrimSpace(col.Def) == "" {
			return fmt.Errorf("%w: column %s: empty definition", domain.ErrSchema, col.Name)
		}
		defs = append(defs, col.Name+" "+col.Def)
	}

	ddl := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", table, strings.Join(defs, ", "))
	if _, err := m.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("%w: create table %s: %v", domain.ErrSchema, table, err)
	}
	return nil
}

// AddColumn adds a column to an existing table. A missing table or a
// duplicate column name is a schema error.
func (m *Manager) AddColumn(ctx context.Context, table, name, def string) error {
	if err := checkIdent("table", table); err != nil {
		return err
	}
	if err := checkIdent("column", name); err != nil {
		return err
	}
	if strings.TrimSpace(def) == "" {
		return fmt.Errorf("%w: column %s: empty definition", domain.ErrSchema, name)
	}

	exists, err := m.TableExists(ctx, table)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("%w: add column %s: table %s does not exist", domain.ErrSchema, name, table)
	}

	ddl := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", table, name, def)
	if _, err := m.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("%w: add column %s.%s: %v", domain.ErrSchema, table, name, err)
	}
	return nil
}

// TableExists reports whether table exists in the database
func (m *Manager) TableExists(ctx context.Context, table string) (bool, error) {
	var name string
	err := m.db.QueryRowContext(ctx,
		"SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?", table).Scan(&name)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("%w: table exists %s: %v", domain.ErrSchema, table, err)
	}
	return true, nil
}

// TableInfo returns the columns of table in definition order.
// A missing table is a schema error.
func (m *Manager) TableInfo(ctx context.Context, table string) ([]ColumnInfo, error) {
	if err := checkIdent("table", table); err != nil {
		return nil, err
	}

	// PRAGMA does not accept bound parameters; the name was validated above
	rows, err := m.db.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return nil, fmt.Errorf("%w: table info %s: %v", domain.ErrSchema, table, err)
	}
	defer rows.Close()

	var cols []ColumnInfo
	for rows.Next() {
		var (
			cid     int
			name    string
			ctype   string
			notNull int
			dflt    sql.NullString
			pk      int
		)
		if err := rows.Scan(&cid, &name, &ctype, &notNull, &dflt, &pk); err != nil {
			return nil, fmt.Errorf("%w: scan table info: %v", domain.ErrSchema, err)
		}
		cols = append(cols, ColumnInfo{
			Name:       name,
			Type:       ctype,
			NotNull:    notNull != 0,
			Default:    dflt.String,
			PrimaryKey: pk != 0,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate table info: %v", domain.ErrSchema, err)
	}

	if len(cols) == 0 {
		return nil, fmt.Errorf("%w: table %s does not exist", domain.ErrSchema, table)
	}
	return cols, nil
}

// DropTable removes table if it exists
func (m *Manager) DropTable(ctx context.Context, table string) error {
	if err := checkIdent("table", table); err != nil {
		return err
	}
	if _, err := m.db.ExecContext(ctx, "DROP TABLE IF EXISTS "+table); err != nil {
		return fmt.Errorf("%w: drop table %s: %v", domain.ErrSchema, table, err)
	}
	return nil
}
