package introspect

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/ridoystarlord/ormschema/schema"
)

// SQLite reads the tables of an SQLite database and returns them as a
// catalog.
func SQLite(ctx context.Context, db *sql.DB) (*schema.Catalog, error) {
	tables, err := IntrospectSQLite(ctx, db)
	if err != nil {
		return nil, err
	}
	return ToCatalog(tables)
}

func IntrospectSQLite(ctx context.Context, db *sql.DB) ([]ExistingTable, error) {
	rows, err := db.QueryContext(ctx, `
	SELECT name FROM sqlite_master
	WHERE type = 'table' AND name NOT LIKE 'sqlite_%'
	ORDER BY name;
	`)
	if err != nil {
		return nil, fmt.Errorf("querying tables: %v", err)
	}
	defer rows.Close()

	var tableNames []string
	for rows.Next() {
		var tableName string
		if err := rows.Scan(&tableName); err != nil {
			return nil, fmt.Errorf("scanning table name: %v", err)
		}
		tableNames = append(tableNames, tableName)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterating table rows: %v", rows.Err())
	}

	var tables []ExistingTable
	for _, tableName := range tableNames {
		columns, err := sqliteColumns(ctx, db, tableName)
		if err != nil {
			return nil, fmt.Errorf("getting columns for table %s: %v", tableName, err)
		}
		unique, err := sqliteUniqueColumns(ctx, db, tableName)
		if err != nil {
			return nil, fmt.Errorf("getting indexes for table %s: %v", tableName, err)
		}
		for i := range columns {
			columns[i].IsUnique = unique[columns[i].ColumnName]
		}
		foreignKeys, err := sqliteForeignKeys(ctx, db, tableName)
		if err != nil {
			return nil, fmt.Errorf("getting foreign keys for table %s: %v", tableName, err)
		}

		tables = append(tables, ExistingTable{
			TableName:   tableName,
			Columns:     columns,
			ForeignKeys: foreignKeys,
		})
	}

	return tables, nil
}

func sqliteColumns(ctx context.Context, db *sql.DB, tableName string) ([]ExistingColumn, error) {
	rows, err := db.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", quote(tableName)))
	if err != nil {
		return nil, fmt.Errorf("querying columns: %v", err)
	}
	defer rows.Close()

	var columns []ExistingColumn
	for rows.Next() {
		var (
			cid      int
			col      ExistingColumn
			notNull  bool
			dfltExpr sql.NullString
			pk       int
		)
		if err := rows.Scan(&cid, &col.ColumnName, &col.DataType, &notNull, &dfltExpr, &pk); err != nil {
			return nil, fmt.Errorf("scanning column: %v", err)
		}
		col.IsPrimaryKey = pk > 0
		col.IsNullable = !notNull && !col.IsPrimaryKey
		if dfltExpr.Valid {
			v := dfltExpr.String
			col.ColumnDefault = &v
		}
		if col.DataType == "" {
			// SQLite allows untyped columns
			col.DataType = "text"
		}
		columns = append(columns, col)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterating column rows: %v", rows.Err())
	}
	return columns, nil
}

// sqliteUniqueColumns returns the columns covered alone by a unique index.
func sqliteUniqueColumns(ctx context.Context, db *sql.DB, tableName string) (map[string]bool, error) {
	rows, err := db.QueryContext(ctx, fmt.Sprintf("PRAGMA index_list(%s)", quote(tableName)))
	if err != nil {
		return nil, fmt.Errorf("querying indexes: %v", err)
	}

	var indexes []string
	for rows.Next() {
		var (
			seq     int
			name    string
			unique  bool
			origin  string
			partial bool
		)
		if err := rows.Scan(&seq, &name, &unique, &origin, &partial); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scanning index: %v", err)
		}
		if unique && !partial && origin != "pk" {
			indexes = append(indexes, name)
		}
	}
	rows.Close()
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterating index rows: %v", rows.Err())
	}

	unique := make(map[string]bool)
	for _, index := range indexes {
		cols, err := sqliteIndexColumns(ctx, db, index)
		if err != nil {
			return nil, err
		}
		if len(cols) == 1 {
			unique[cols[0]] = true
		}
	}
	return unique, nil
}

func sqliteIndexColumns(ctx context.Context, db *sql.DB, index string) ([]string, error) {
	rows, err := db.QueryContext(ctx, fmt.Sprintf("PRAGMA index_info(%s)", quote(index)))
	if err != nil {
		return nil, fmt.Errorf("querying index %s: %v", index, err)
	}
	defer rows.Close()

	var cols []string
	for rows.Next() {
		var (
			seqno, cid int
			name       sql.NullString
		)
		if err := rows.Scan(&seqno, &cid, &name); err != nil {
			return nil, fmt.Errorf("scanning index column: %v", err)
		}
		cols = append(cols, name.String)
	}
	return cols, rows.Err()
}

func sqliteForeignKeys(ctx context.Context, db *sql.DB, tableName string) ([]ExistingForeignKey, error) {
	rows, err := db.QueryContext(ctx, fmt.Sprintf("PRAGMA foreign_key_list(%s)", quote(tableName)))
	if err != nil {
		return nil, fmt.Errorf("querying foreign keys: %v", err)
	}
	defer rows.Close()

	var foreignKeys []ExistingForeignKey
	for rows.Next() {
		var (
			id, seq int
			fk      ExistingForeignKey
			to      sql.NullString
			match   string
		)
		if err := rows.Scan(&id, &seq, &fk.ReferencesTable, &fk.ColumnName, &to, &fk.OnUpdate, &fk.OnDelete, &match); err != nil {
			return nil, fmt.Errorf("scanning foreign key: %v", err)
		}
		fk.ConstraintName = fmt.Sprintf("%s_fk_%d", tableName, id)
		fk.ReferencesColumn = to.String
		foreignKeys = append(foreignKeys, fk)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterating foreign key rows: %v", rows.Err())
	}
	return foreignKeys, nil
}

func quote(ident string) string {
	return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
}
