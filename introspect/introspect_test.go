package introspect

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ridoystarlord/ormschema/builder"
	"github.com/ridoystarlord/ormschema/schema"
)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	for _, stmt := range []string{
		`CREATE TABLE people (
			id INTEGER PRIMARY KEY,
			name VARCHAR(64) NOT NULL,
			email TEXT UNIQUE,
			created DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE addresses (
			id INTEGER PRIMARY KEY,
			street TEXT NOT NULL,
			person_id INTEGER REFERENCES people(id) ON DELETE CASCADE
		)`,
	} {
		_, err := db.Exec(stmt)
		require.NoError(t, err)
	}
	return db
}

func TestSQLite(t *testing.T) {
	c, err := SQLite(context.Background(), setupDB(t))
	require.NoError(t, err)
	assert.Equal(t, []string{"addresses", "people"}, c.Names())

	people, ok := c.Model("people")
	require.True(t, ok)

	id := people.Column("id")
	require.NotNil(t, id)
	assert.True(t, id.PrimaryKey)
	assert.False(t, id.Nullable)
	assert.Same(t, id, people.AutoincrementColumn())

	name := people.Column("name")
	assert.Equal(t, schema.ColumnType{Name: "varchar", Length: 64}, name.Type)
	assert.False(t, name.Nullable)

	email := people.Column("email")
	assert.True(t, email.Unique)
	assert.True(t, email.Nullable)

	assert.True(t, people.Column("created").ServerDefault)

	back := people.Relation("addresses")
	require.NotNil(t, back)
	assert.Equal(t, schema.OneToMany, back.Type)
	assert.Equal(t, "addresses", back.Target)

	addresses, _ := c.Model("addresses")
	assert.Equal(t, &schema.ForeignKey{ReferencesTable: "people", ReferencesColumn: "id", OnDelete: "CASCADE", OnUpdate: "NO ACTION"},
		addresses.Column("person_id").ForeignKey)

	person := addresses.Relation("person")
	require.NotNil(t, person)
	assert.Equal(t, schema.ManyToOne, person.Type)
	assert.Equal(t, []string{"person_id"}, person.ForeignKeys)
}

func TestSQLite_BuildsSchema(t *testing.T) {
	c, err := SQLite(context.Background(), setupDB(t))
	require.NoError(t, err)

	m, _ := c.Model("addresses")
	s, err := builder.Build(c, m, builder.Options{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))})
	require.NoError(t, err)

	var names []string
	for _, child := range s.Children {
		names = append(names, child.Name)
	}
	assert.Equal(t, []string{"id", "street", "person_id", "person"}, names)

	// the nested person stops at its primary key on the way back
	nested, ok := s.Nested("person")
	require.True(t, ok)
	back := nested.Child("addresses")
	require.NotNil(t, back)
	require.Len(t, back.Children, 1)
	assert.Len(t, back.Children[0].Children, 1)
}

func TestToCatalog_CompositeForeignKey(t *testing.T) {
	tables := []ExistingTable{
		{
			TableName: "orders",
			Columns: []ExistingColumn{
				{ColumnName: "region", DataType: "text", IsPrimaryKey: true},
				{ColumnName: "number", DataType: "integer", IsPrimaryKey: true},
			},
		},
		{
			TableName: "lines",
			Columns: []ExistingColumn{
				{ColumnName: "id", DataType: "integer", IsPrimaryKey: true},
				{ColumnName: "order_region", DataType: "text"},
				{ColumnName: "order_number", DataType: "integer"},
			},
			ForeignKeys: []ExistingForeignKey{
				{ConstraintName: "fk_order", ColumnName: "order_region", ReferencesTable: "orders", ReferencesColumn: "region"},
				{ConstraintName: "fk_order", ColumnName: "order_number", ReferencesTable: "orders", ReferencesColumn: "number"},
				{ConstraintName: "fk_gone", ColumnName: "id", ReferencesTable: "missing", ReferencesColumn: "id"},
			},
		},
	}

	c, err := ToCatalog(tables)
	require.NoError(t, err)

	lines, _ := c.Model("lines")
	rel := lines.Relation("orders")
	require.NotNil(t, rel)
	assert.Equal(t, []string{"order_region", "order_number"}, rel.ForeignKeys)
	assert.Nil(t, lines.Column("id").ForeignKey)

	orders, _ := c.Model("orders")
	assert.NotNil(t, orders.Relation("lines"))
}

func TestToColumn_Defaults(t *testing.T) {
	seq := "nextval('users_id_seq'::regclass)"
	col, err := toColumn(ExistingColumn{ColumnName: "id", DataType: "integer", IsPrimaryKey: true, ColumnDefault: &seq})
	require.NoError(t, err)
	require.NotNil(t, col.Autoincrement)
	assert.True(t, *col.Autoincrement)
	assert.False(t, col.ServerDefault)

	now := "now()"
	col, err = toColumn(ExistingColumn{ColumnName: "created", DataType: "timestamp with time zone", ColumnDefault: &now})
	require.NoError(t, err)
	assert.True(t, col.ServerDefault)
	assert.Nil(t, col.Autoincrement)

	_, err = toColumn(ExistingColumn{ColumnName: "bad", DataType: "varchar(x)"})
	assert.Error(t, err)
}

func TestPostgresType(t *testing.T) {
	length := 64
	enums := map[string][]string{"mood": {"sad", "ok", "happy"}}

	tests := []struct {
		dataType string
		udt      string
		length   *int
		want     string
	}{
		{"character varying", "varchar", &length, "character varying(64)"},
		{"text", "text", nil, "text"},
		{"USER-DEFINED", "mood", nil, "enum(sad,ok,happy)"},
		{"USER-DEFINED", "geometry", nil, "geometry"},
		{"timestamp without time zone", "timestamp", nil, "timestamp without time zone"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, postgresType(tt.dataType, tt.udt, tt.length, enums))
	}
}
