// Package lookup fetches rows by primary key. Schemas use it to turn an
// identity payload, such as {"id": 3}, into the stored row.
package lookup

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ridoystarlord/ormschema/schema"
)

// ErrNotFound is returned when no row matches the key.
var ErrNotFound = errors.New("no matching row")

// Store fetches one row of model m by primary key. key must hold a value for
// every primary key column. The row is returned as column name -> value.
type Store interface {
	Get(ctx context.Context, m *schema.Model, key map[string]any) (map[string]any, error)
}

// SQLStore is a Store on database/sql, used with SQLite.
type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db}
}

func (s *SQLStore) Get(ctx context.Context, m *schema.Model, key map[string]any) (map[string]any, error) {
	query, args, err := selectByKey(m, key, func(int) string { return "?" })
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying %s: %w", table(m), err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("querying %s: %w", table(m), err)
		}
		return nil, ErrNotFound
	}

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("reading columns of %s: %w", table(m), err)
	}
	values := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range values {
		ptrs[i] = &values[i]
	}
	if err := rows.Scan(ptrs...); err != nil {
		return nil, fmt.Errorf("scanning %s row: %w", table(m), err)
	}

	row := make(map[string]any, len(cols))
	for i, col := range cols {
		if b, ok := values[i].([]byte); ok {
			row[col] = string(b)
			continue
		}
		row[col] = values[i]
	}
	return row, rows.Err()
}

// PostgresStore is a Store on a pgx connection pool.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) Get(ctx context.Context, m *schema.Model, key map[string]any) (map[string]any, error) {
	query, args, err := selectByKey(m, key, func(i int) string { return fmt.Sprintf("$%d", i) })
	if err != nil {
		return nil, err
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying %s: %w", table(m), err)
	}

	row, err := pgx.CollectExactlyOneRow(rows, pgx.RowToMap)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s row: %w", table(m), err)
	}
	return row, nil
}

// selectByKey builds a SELECT of every column of m filtered by its primary
// key. placeholder renders the i-th (1-based) bind parameter.
func selectByKey(m *schema.Model, key map[string]any, placeholder func(i int) string) (string, []any, error) {
	pk := m.PrimaryKey()
	if len(pk) == 0 {
		return "", nil, fmt.Errorf("model '%s' has no primary key", m.Name)
	}

	var cols []string
	for _, c := range m.Columns() {
		cols = append(cols, quote(c.Name))
	}

	var (
		where []string
		args  []any
	)
	for i, c := range pk {
		v, ok := key[c.Name]
		if !ok {
			return "", nil, fmt.Errorf("key for model '%s' is missing primary key column '%s'", m.Name, c.Name)
		}
		where = append(where, fmt.Sprintf("%s = %s", quote(c.Name), placeholder(i+1)))
		args = append(args, v)
	}

	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s",
		strings.Join(cols, ", "), quote(table(m)), strings.Join(where, " AND "))
	return query, args, nil
}

func table(m *schema.Model) string {
	if m.TableName != "" {
		return m.TableName
	}
	return schema.ToSnakeCase(m.Name)
}

func quote(ident string) string {
	return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
}
