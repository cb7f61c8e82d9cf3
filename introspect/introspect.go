// Package introspect reads models from the catalog of a live database.
package introspect

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ridoystarlord/ormschema/schema"
)

type ExistingTable struct {
	TableName   string
	Columns     []ExistingColumn
	ForeignKeys []ExistingForeignKey
}

type ExistingColumn struct {
	ColumnName    string
	DataType      string
	IsNullable    bool
	ColumnDefault *string
	IsPrimaryKey  bool
	IsUnique      bool
}

type ExistingForeignKey struct {
	ConstraintName   string
	ColumnName       string
	ReferencesTable  string
	ReferencesColumn string
	OnDelete         string
	OnUpdate         string
}

// Postgres reads the base tables of schemaName ("public" when empty) and
// returns them as a catalog.
func Postgres(ctx context.Context, pool *pgxpool.Pool, schemaName string) (*schema.Catalog, error) {
	tables, err := IntrospectPostgres(ctx, pool, schemaName)
	if err != nil {
		return nil, err
	}
	return ToCatalog(tables)
}

func IntrospectPostgres(ctx context.Context, pool *pgxpool.Pool, schemaName string) ([]ExistingTable, error) {
	if schemaName == "" {
		schemaName = "public"
	}

	tablesQuery := `
	SELECT table_name::text
	FROM information_schema.tables
	WHERE table_schema = $1 AND table_type='BASE TABLE'
	ORDER BY table_name;
	`

	rows, err := pool.Query(ctx, tablesQuery, schemaName)
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

	enums, err := getEnums(ctx, pool)
	if err != nil {
		return nil, fmt.Errorf("getting enum types: %v", err)
	}

	var tables []ExistingTable
	for _, tableName := range tableNames {
		columns, err := getColumns(ctx, pool, schemaName, tableName, enums)
		if err != nil {
			return nil, fmt.Errorf("getting columns for table %s: %v", tableName, err)
		}

		foreignKeys, err := getForeignKeys(ctx, pool, schemaName, tableName)
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

func getColumns(ctx context.Context, pool *pgxpool.Pool, schemaName, tableName string, enums map[string][]string) ([]ExistingColumn, error) {
	columnsQuery := `
	SELECT
		c.column_name::text,
		c.data_type::text,
		c.udt_name::text,
		c.character_maximum_length::int,
		(c.is_nullable = 'YES') as is_nullable,
		c.column_default::text,
		COALESCE(bool_or(tc.constraint_type = 'PRIMARY KEY'), false) as is_primary,
		COALESCE(bool_or(tc.constraint_type = 'UNIQUE'), false) as is_unique
	FROM information_schema.columns c
	LEFT JOIN information_schema.key_column_usage kcu
		ON c.table_schema = kcu.table_schema AND c.table_name = kcu.table_name AND c.column_name = kcu.column_name
	LEFT JOIN information_schema.table_constraints tc
		ON kcu.constraint_name = tc.constraint_name AND kcu.table_schema = tc.table_schema
	WHERE c.table_schema = $1 AND c.table_name = $2
	GROUP BY c.column_name, c.data_type, c.udt_name, c.character_maximum_length,
		c.is_nullable, c.column_default, c.ordinal_position
	ORDER BY c.ordinal_position;
	`

	rows, err := pool.Query(ctx, columnsQuery, schemaName, tableName)
	if err != nil {
		return nil, fmt.Errorf("querying columns: %v", err)
	}
	defer rows.Close()

	var columns []ExistingColumn
	for rows.Next() {
		var (
			col    ExistingColumn
			udt    string
			length *int
		)
		if err := rows.Scan(
			&col.ColumnName,
			&col.DataType,
			&udt,
			&length,
			&col.IsNullable,
			&col.ColumnDefault,
			&col.IsPrimaryKey,
			&col.IsUnique,
		); err != nil {
			return nil, fmt.Errorf("scanning column: %v", err)
		}
		col.DataType = postgresType(col.DataType, udt, length, enums)
		columns = append(columns, col)
	}

	if rows.Err() != nil {
		return nil, fmt.Errorf("iterating column rows: %v", rows.Err())
	}

	return columns, nil
}

func getForeignKeys(ctx context.Context, pool *pgxpool.Pool, schemaName, tableName string) ([]ExistingForeignKey, error) {
	foreignKeysQuery := `
	SELECT
		tc.constraint_name::text,
		kcu.column_name::text,
		ccu.table_name::text AS foreign_table_name,
		ccu.column_name::text AS foreign_column_name,
		COALESCE(rc.delete_rule::text, ''),
		COALESCE(rc.update_rule::text, '')
	FROM information_schema.table_constraints AS tc
	JOIN information_schema.key_column_usage AS kcu
		ON tc.constraint_name = kcu.constraint_name
		AND tc.table_schema = kcu.table_schema
	JOIN information_schema.constraint_column_usage AS ccu
		ON ccu.constraint_name = tc.constraint_name
		AND ccu.table_schema = tc.table_schema
	LEFT JOIN information_schema.referential_constraints AS rc
		ON tc.constraint_name = rc.constraint_name
	WHERE tc.constraint_type = 'FOREIGN KEY'
		AND tc.table_schema = $1
		AND tc.table_name = $2
	ORDER BY tc.constraint_name, kcu.ordinal_position;
	`

	rows, err := pool.Query(ctx, foreignKeysQuery, schemaName, tableName)
	if err != nil {
		return nil, fmt.Errorf("querying foreign keys: %v", err)
	}
	defer rows.Close()

	var foreignKeys []ExistingForeignKey
	for rows.Next() {
		var fk ExistingForeignKey
		if err := rows.Scan(
			&fk.ConstraintName,
			&fk.ColumnName,
			&fk.ReferencesTable,
			&fk.ReferencesColumn,
			&fk.OnDelete,
			&fk.OnUpdate,
		); err != nil {
			return nil, fmt.Errorf("scanning foreign key: %v", err)
		}
		foreignKeys = append(foreignKeys, fk)
	}

	if rows.Err() != nil {
		return nil, fmt.Errorf("iterating foreign key rows: %v", rows.Err())
	}

	return foreignKeys, nil
}

// getEnums returns the labels of every enum type, keyed by type name.
func getEnums(ctx context.Context, pool *pgxpool.Pool) (map[string][]string, error) {
	enumsQuery := `
	SELECT t.typname::text, e.enumlabel::text
	FROM pg_type t
	JOIN pg_enum e ON e.enumtypid = t.oid
	ORDER BY t.typname, e.enumsortorder;
	`

	rows, err := pool.Query(ctx, enumsQuery)
	if err != nil {
		return nil, fmt.Errorf("querying enums: %v", err)
	}
	defer rows.Close()

	enums := make(map[string][]string)
	for rows.Next() {
		var typeName, label string
		if err := rows.Scan(&typeName, &label); err != nil {
			return nil, fmt.Errorf("scanning enum label: %v", err)
		}
		enums[typeName] = append(enums[typeName], label)
	}

	if rows.Err() != nil {
		return nil, fmt.Errorf("iterating enum rows: %v", rows.Err())
	}

	return enums, nil
}

// postgresType renders an information_schema type as a type string
// schema.ParseType understands.
func postgresType(dataType, udt string, length *int, enums map[string][]string) string {
	if dataType == "USER-DEFINED" {
		if labels, ok := enums[udt]; ok {
			return "enum(" + strings.Join(labels, ",") + ")"
		}
		return udt
	}
	if length != nil && *length > 0 {
		return fmt.Sprintf("%s(%d)", dataType, *length)
	}
	return dataType
}
