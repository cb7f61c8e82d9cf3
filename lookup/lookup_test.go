package lookup

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ridoystarlord/ormschema/schema"
)

var person = &schema.Model{
	Name:      "Person",
	TableName: "persons",
	Attributes: []schema.Attribute{
		&schema.Column{Name: "id", Type: schema.MustParseType("integer"), PrimaryKey: true},
		&schema.Column{Name: "name", Type: schema.MustParseType("varchar(64)")},
	},
}

func setupDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(`CREATE TABLE persons (id INTEGER PRIMARY KEY, name VARCHAR(64) NOT NULL)`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO persons (id, name) VALUES (1, 'Ada'), (2, 'Grace')`)
	require.NoError(t, err)
	return db
}

func TestSQLStore_Get(t *testing.T) {
	store := NewSQLStore(setupDB(t))

	row, err := store.Get(context.Background(), person, map[string]any{"id": int64(2)})
	require.NoError(t, err)
	assert.Equal(t, int64(2), row["id"])
	assert.Equal(t, "Grace", row["name"])
}

func TestSQLStore_NotFound(t *testing.T) {
	store := NewSQLStore(setupDB(t))

	_, err := store.Get(context.Background(), person, map[string]any{"id": 99})
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestSelectByKey(t *testing.T) {
	composite := &schema.Model{
		Name: "Membership",
		Attributes: []schema.Attribute{
			&schema.Column{Name: "user_id", PrimaryKey: true},
			&schema.Column{Name: "group_id", PrimaryKey: true},
			&schema.Column{Name: "role"},
		},
	}

	query, args, err := selectByKey(composite, map[string]any{"user_id": 1, "group_id": 2},
		func(i int) string { return "$" + string(rune('0'+i)) })
	require.NoError(t, err)
	assert.Equal(t, `SELECT "user_id", "group_id", "role" FROM "membership" WHERE "user_id" = $1 AND "group_id" = $2`, query)
	assert.Equal(t, []any{1, 2}, args)

	_, _, err = selectByKey(composite, map[string]any{"user_id": 1}, func(int) string { return "?" })
	assert.Error(t, err)
}
