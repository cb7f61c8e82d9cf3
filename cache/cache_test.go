package cache

import (
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ridoystarlord/ormschema/builder"
	"github.com/ridoystarlord/ormschema/node"
	"github.com/ridoystarlord/ormschema/schema"
)

func catalog(t *testing.T) *schema.Catalog {
	t.Helper()

	user := &schema.Model{
		Name: "User",
		Attributes: []schema.Attribute{
			&schema.Column{Name: "id", Type: schema.MustParseType("integer"), PrimaryKey: true},
			&schema.Column{Name: "email", Type: schema.MustParseType("varchar(64)")},
			&schema.Column{Name: "name", Type: schema.MustParseType("varchar(32)"), Nullable: true},
		},
	}
	c, err := schema.NewCatalog(user)
	require.NoError(t, err)
	return c
}

func quiet() builder.Options {
	return builder.Options{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

func TestCache_HitForEqualOptions(t *testing.T) {
	c := New(catalog(t))

	opts := quiet()
	opts.Includes = []string{"id", "email"}
	opts.Overrides = map[string]schema.Config{"email": {"title": "E-mail"}}

	first, err := c.GetByName("User", opts)
	require.NoError(t, err)

	again := quiet()
	again.Includes = []string{"id", "email"}
	again.Overrides = map[string]schema.Config{"email": {"title": "E-mail"}}
	second, err := c.GetByName("User", again)
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, Stats{Entries: 1, Hits: 1, Misses: 1}, c.Stats())
}

func TestCache_MissForDifferentOptions(t *testing.T) {
	c := New(catalog(t))

	variants := []func(*builder.Options){
		func(o *builder.Options) {},
		func(o *builder.Options) { o.Includes = []string{"email", "id"} },
		func(o *builder.Options) { o.Includes = []string{"id", "email"} },
		func(o *builder.Options) { o.Excludes = []string{"name"} },
		func(o *builder.Options) { o.Unknown = node.Raise },
		func(o *builder.Options) { o.Overrides = map[string]schema.Config{"email": {"title": "Mail"}} },
		func(o *builder.Options) { o.Node = schema.Config{"title": "Account"} },
	}
	seen := map[*builder.Schema]bool{}
	for _, v := range variants {
		opts := quiet()
		v(&opts)
		s, err := c.GetByName("User", opts)
		require.NoError(t, err)
		seen[s] = true
	}

	assert.Len(t, seen, len(variants))
	assert.Equal(t, len(variants), c.Stats().Entries)
}

func TestCache_BuildError(t *testing.T) {
	c := New(catalog(t))

	opts := quiet()
	opts.Includes = []string{"email"}
	opts.Excludes = []string{"email"}
	_, err := c.GetByName("User", opts)
	assert.Error(t, err)
	assert.Equal(t, 0, c.Stats().Entries)

	_, err = c.GetByName("Nope", quiet())
	assert.Error(t, err)
}

func TestCache_Concurrent(t *testing.T) {
	c := New(catalog(t))

	var wg sync.WaitGroup
	results := make([]*builder.Schema, 16)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s, err := c.GetByName("User", quiet())
			assert.NoError(t, err)
			results[i] = s
		}(i)
	}
	wg.Wait()

	for _, s := range results {
		assert.Same(t, results[0], s)
	}
	stats := c.Stats()
	assert.Equal(t, 1, stats.Entries)
	assert.Equal(t, uint64(16), stats.Hits+stats.Misses)
}

func TestCache_Reset(t *testing.T) {
	c := New(catalog(t))

	first, err := c.GetByName("User", quiet())
	require.NoError(t, err)
	c.Reset()
	second, err := c.GetByName("User", quiet())
	require.NoError(t, err)

	assert.NotSame(t, first, second)
}
