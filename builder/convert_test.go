package builder

import (
	"context"
	"database/sql"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ridoystarlord/ormschema/lookup"
	"github.com/ridoystarlord/ormschema/node"
	"github.com/ridoystarlord/ormschema/schema"
)

func int64Ptr(v int64) *int64 { return &v }

func TestDictify_Struct(t *testing.T) {
	s := mustBuild(t, accountCatalog(t), "Person", Options{})

	p := &Person{
		ID: 1, Name: "Ada", Surname: "Lovelace", Gender: "F", Age: int64Ptr(36),
		Addresses: []*Address{{ID: 7, Street: "Main", City: "London", PersonID: int64Ptr(1), Ephemeral: "x"}},
	}
	got, err := s.Dictify(p)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"id":       int64(1),
		"name":     "Ada",
		"surname":  "Lovelace",
		"gender":   "F",
		"birthday": node.Null,
		"age":      int64(36),
		"addresses": []any{map[string]any{
			"id":        int64(7),
			"street":    "Main",
			"latitude":  node.Null,
			"person_id": int64(1),
		}},
	}, got)

	// a value works as well as a pointer
	got, err = s.Dictify(*p)
	require.NoError(t, err)
	assert.Equal(t, "Ada", got["name"])
}

func TestDictify_Record(t *testing.T) {
	tag := &schema.Model{
		Name: "Tag",
		Attributes: []schema.Attribute{
			col("id", "integer", primary),
			col("label", "varchar(16)", nullable),
		},
	}
	s, err := buildModels(t, "Tag", Options{}, tag)
	require.NoError(t, err)

	got, err := s.Dictify(schema.Record{"id": 3, "label": nil, "other": true})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"id": 3, "label": node.Null}, got)

	// attributes missing from the object are left out
	got, err = s.Dictify(schema.Record{"id": 3})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"id": 3}, got)

	_, err = s.Dictify(42)
	assert.Error(t, err)
}

func TestDictify_NilToOne(t *testing.T) {
	s := mustBuild(t, accountCatalog(t), "Account", Options{Includes: []string{"email", "person"}})

	got, err := s.Dictify(&Account{Email: "a@b.c"})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"email": "a@b.c", "person": nil}, got)
}

func TestObjectify_Struct(t *testing.T) {
	s := mustBuild(t, accountCatalog(t), "Person", Options{})

	obj, err := s.Objectify(context.Background(), map[string]any{
		"id":       int64(1),
		"name":     "Ada",
		"birthday": nil,
		"age":      int64(36),
		"unmapped": "ignored",
		"addresses": []any{
			map[string]any{"id": float64(7), "street": "Main", "person_id": int64(1)},
		},
	}, nil)
	require.NoError(t, err)

	p, ok := obj.(*Person)
	require.True(t, ok)
	assert.Equal(t, &Person{
		ID: 1, Name: "Ada", Age: int64Ptr(36),
		Addresses: []*Address{{ID: 7, Street: "Main", PersonID: int64Ptr(1)}},
	}, p)
}

func TestObjectify_Into(t *testing.T) {
	s := mustBuild(t, accountCatalog(t), "Person", Options{})

	p := &Person{ID: 1, Name: "Ada", Surname: "Lovelace"}
	_, err := s.Objectify(context.Background(), map[string]any{"name": "Augusta", "age": node.Null}, p)
	require.NoError(t, err)
	assert.Equal(t, "Augusta", p.Name)
	assert.Equal(t, "Lovelace", p.Surname)
	assert.Nil(t, p.Age)

	_, err = s.Objectify(context.Background(), map[string]any{"name": "Augusta"}, *p)
	assert.Error(t, err)
}

func TestObjectify_Record(t *testing.T) {
	tag := &schema.Model{
		Name: "Tag",
		Attributes: []schema.Attribute{
			col("id", "integer", primary),
			col("label", "varchar(16)", nullable),
		},
	}
	s, err := buildModels(t, "Tag", Options{}, tag)
	require.NoError(t, err)

	obj, err := s.Objectify(context.Background(), map[string]any{"id": int64(3), "label": node.Null}, nil)
	require.NoError(t, err)
	assert.Equal(t, schema.Record{"id": int64(3), "label": nil}, obj)
}

func TestObjectify_NestedWithoutLookup(t *testing.T) {
	s := mustBuild(t, accountCatalog(t), "Account", Options{})

	obj, err := s.Objectify(context.Background(), map[string]any{
		"email":  "a@b.c",
		"person": map[string]any{"id": int64(1)},
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, &Account{Email: "a@b.c", Person: &Person{ID: 1}}, obj)
}

func peopleDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(`CREATE TABLE people (
		id INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		surname TEXT NOT NULL,
		gender TEXT NOT NULL,
		birthday DATE,
		age INTEGER
	)`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO people (id, name, surname, gender, age) VALUES (1, 'Ada', 'Lovelace', 'F', 36)`)
	require.NoError(t, err)
	return db
}

func TestObjectify_LookupIdentity(t *testing.T) {
	s := mustBuild(t, accountCatalog(t), "Account", Options{Lookup: lookup.NewSQLStore(peopleDB(t))})

	obj, err := s.Objectify(context.Background(), map[string]any{
		"email":  "a@b.c",
		"person": map[string]any{"id": int64(1)},
	}, nil)
	require.NoError(t, err)

	account := obj.(*Account)
	assert.Equal(t, &Person{ID: 1, Name: "Ada", Surname: "Lovelace", Gender: "F", Age: int64Ptr(36)}, account.Person)
}

func TestObjectify_LookupForeignKey(t *testing.T) {
	s := mustBuild(t, accountCatalog(t), "Account", Options{Lookup: lookup.NewSQLStore(peopleDB(t))})

	obj, err := s.Objectify(context.Background(), map[string]any{
		"email":     "a@b.c",
		"person_id": int64(1),
	}, nil)
	require.NoError(t, err)

	account := obj.(*Account)
	assert.Equal(t, int64Ptr(1), account.PersonID)
	require.NotNil(t, account.Person)
	assert.Equal(t, "Ada", account.Person.Name)
}

func TestObjectify_LookupNotFound(t *testing.T) {
	s := mustBuild(t, accountCatalog(t), "Account", Options{Lookup: lookup.NewSQLStore(peopleDB(t))})

	for _, data := range []map[string]any{
		{"email": "a@b.c", "person_id": int64(99)},
		{"email": "a@b.c", "person": map[string]any{"id": int64(99)}},
	} {
		_, err := s.Objectify(context.Background(), data, nil)

		var inv *node.Invalid
		require.ErrorAs(t, err, &inv)
		assert.Contains(t, inv.Asdict(), "person")
	}
}

// A struct survives dictify, serialize, deserialize and objectify unchanged.
func TestProperty_ObjectRoundTrip(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	s := mustBuild(t, accountCatalog(t), "Person", Options{})
	short := gen.Identifier().Map(func(v string) string {
		if len(v) > 32 {
			return v[:32]
		}
		return v
	})

	properties.Property("person round trips", prop.ForAll(
		func(id int64, name, surname, gender string, age int64, streets []string) bool {
			p := &Person{ID: id, Name: name, Surname: surname, Gender: gender, Age: &age, Addresses: []*Address{}}
			for i, street := range streets {
				if len(street) > 64 {
					street = street[:64]
				}
				p.Addresses = append(p.Addresses, &Address{ID: int64(i + 1), Street: street, PersonID: &id})
			}

			app, err := s.Dictify(p)
			if err != nil {
				return false
			}
			cstruct, err := s.Serialize(app)
			if err != nil {
				return false
			}
			back, err := s.Deserialize(cstruct)
			if err != nil {
				return false
			}
			obj, err := s.Objectify(context.Background(), back.(map[string]any), nil)
			if err != nil {
				return false
			}
			return assert.ObjectsAreEqual(p, obj)
		},
		gen.Int64Range(1, 1<<40),
		short,
		short,
		gen.OneConstOf("M", "F"),
		gen.Int64Range(0, 120),
		gen.SliceOfN(3, gen.Identifier()),
	))

	properties.TestingRun(t)
}
