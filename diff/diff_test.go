package diff

import (
	"context"
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ridoystarlord/ormschema/introspect"
	"github.com/ridoystarlord/ormschema/loader"
	"github.com/ridoystarlord/ormschema/schema"
)

const modelsYAML = `
models:
  - name: Person
    table: people
    columns:
      - name: id
        type: integer
        primary: true
      - name: name
        type: text
      - name: email
        type: integer
        nullable: true
      - name: age
        type: integer
        nullable: true
  - name: Address
    table: addresses
    columns:
      - name: id
        type: int4
        primary: true
      - name: street
        type: varchar(128)
      - name: person_id
        type: integer
        nullable: true
        references: people.id
        on_delete: cascade
  - name: Invoice
    table: invoices
    columns:
      - name: id
        type: integer
        primary: true
`

func existingCatalog(t *testing.T) *schema.Catalog {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	for _, stmt := range []string{
		`CREATE TABLE people (
			id INTEGER PRIMARY KEY,
			name VARCHAR(64) NOT NULL,
			email TEXT,
			legacy TEXT
		)`,
		`CREATE TABLE addresses (
			id INTEGER PRIMARY KEY,
			street TEXT NOT NULL,
			person_id INTEGER REFERENCES people(id) ON DELETE CASCADE
		)`,
		`CREATE TABLE audit (id INTEGER PRIMARY KEY)`,
	} {
		_, err := db.Exec(stmt)
		require.NoError(t, err)
	}

	c, err := introspect.SQLite(context.Background(), db)
	require.NoError(t, err)
	return c
}

func kinds(diffs []Difference) []string {
	out := make([]string, len(diffs))
	for i, d := range diffs {
		out[i] = string(d.Type) + " " + d.TableName
		if d.ColumnName != "" {
			out[i] += "." + d.ColumnName
		}
	}
	return out
}

func TestCompare(t *testing.T) {
	models, err := loader.ParseYAML([]byte(modelsYAML))
	require.NoError(t, err)
	defined, err := schema.NewCatalog(models...)
	require.NoError(t, err)

	diffs := Compare(defined, existingCatalog(t))
	assert.ElementsMatch(t, []string{
		"TYPE_MISMATCH people.email",
		"MISSING_COLUMN people.age",
		"EXTRA_COLUMN people.legacy",
		"MISSING_TABLE invoices",
		"EXTRA_TABLE audit",
	}, kinds(diffs))

	for _, d := range diffs {
		if d.Type == TypeMismatch {
			assert.Equal(t, "integer", d.Expected)
			assert.Equal(t, "text", d.Actual)
			assert.Equal(t, "Person", d.Model)
		}
	}
}

func TestCompare_Identical(t *testing.T) {
	existing := existingCatalog(t)
	assert.Empty(t, Compare(existing, existing))
}

func TestCompare_ForeignKeys(t *testing.T) {
	col := func(fk *schema.ForeignKey) *schema.Model {
		return &schema.Model{Name: "lines", TableName: "lines", Attributes: []schema.Attribute{
			&schema.Column{Name: "order_id", Type: schema.MustParseType("integer"), ForeignKey: fk},
		}}
	}

	tests := []struct {
		name     string
		defined  *schema.ForeignKey
		existing *schema.ForeignKey
		want     []string
	}{
		{"same", &schema.ForeignKey{ReferencesTable: "orders", ReferencesColumn: "id"}, &schema.ForeignKey{ReferencesTable: "orders", ReferencesColumn: "id", OnDelete: "no action"}, nil},
		{"missing", &schema.ForeignKey{ReferencesTable: "orders", ReferencesColumn: "id"}, nil, []string{"MISSING_FOREIGN_KEY lines.order_id"}},
		{"extra", nil, &schema.ForeignKey{ReferencesTable: "orders", ReferencesColumn: "id"}, []string{"EXTRA_FOREIGN_KEY lines.order_id"}},
		{"changed", &schema.ForeignKey{ReferencesTable: "orders", ReferencesColumn: "id", OnDelete: "CASCADE"}, &schema.ForeignKey{ReferencesTable: "orders", ReferencesColumn: "id"}, []string{"FOREIGN_KEY_MISMATCH lines.order_id"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defined, err := schema.NewCatalog(col(tt.defined))
			require.NoError(t, err)
			existing, err := schema.NewCatalog(col(tt.existing))
			require.NoError(t, err)

			got := kinds(Compare(defined, existing))
			if tt.want == nil {
				assert.Empty(t, got)
			} else {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestDifference_String(t *testing.T) {
	d := Difference{Type: NullableMismatch, TableName: "people", ColumnName: "name", Expected: "nullable=true", Actual: "nullable=false"}
	assert.Equal(t, "NULLABLE_MISMATCH people.name: model has nullable=true, database has nullable=false", d.String())

	d = Difference{Type: ExtraTable, TableName: "audit"}
	assert.Equal(t, "EXTRA_TABLE audit", d.String())
}
