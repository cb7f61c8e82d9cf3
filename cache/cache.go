// Package cache memoizes built schemas per model and build options.
package cache

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/spaolacci/murmur3"

	"github.com/ridoystarlord/ormschema/builder"
	"github.com/ridoystarlord/ormschema/schema"
)

// Cache holds built schemas for the models of one catalog. It is safe for
// concurrent use. Cached schemas are shared: Clone one before mutating it.
type Cache struct {
	mu      sync.RWMutex
	catalog *schema.Catalog
	entries map[key]*builder.Schema
	hits    uint64
	misses  uint64
}

type key struct{ hi, lo uint64 }

// Stats reports cache usage.
type Stats struct {
	Entries int
	Hits    uint64
	Misses  uint64
}

func New(c *schema.Catalog) *Cache {
	return &Cache{catalog: c, entries: make(map[key]*builder.Schema)}
}

// Get returns the schema of m built with opts, building it on first use.
func (c *Cache) Get(m *schema.Model, opts builder.Options) (*builder.Schema, error) {
	k := fingerprint(m, opts)

	c.mu.RLock()
	s, ok := c.entries[k]
	c.mu.RUnlock()
	if ok {
		c.mu.Lock()
		c.hits++
		c.mu.Unlock()
		return s, nil
	}

	built, err := builder.Build(c.catalog, m, opts)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	// another caller may have built it meanwhile
	if s, ok := c.entries[k]; ok {
		c.hits++
		return s, nil
	}
	c.misses++
	c.entries[k] = built
	return built, nil
}

// GetByName looks the model up in the catalog first.
func (c *Cache) GetByName(name string, opts builder.Options) (*builder.Schema, error) {
	m, ok := c.catalog.Model(name)
	if !ok {
		return nil, fmt.Errorf("model '%s' not found", name)
	}
	return c.Get(m, opts)
}

// Reset drops every entry.
func (c *Cache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[key]*builder.Schema)
}

func (c *Cache) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Stats{Entries: len(c.entries), Hits: c.hits, Misses: c.misses}
}

// fingerprint hashes the model identity and a canonical rendering of opts.
// The logger does not take part.
func fingerprint(m *schema.Model, opts builder.Options) key {
	var b strings.Builder
	fmt.Fprintf(&b, "model=%s@%p\n", m.Name, m)
	fmt.Fprintf(&b, "includes=%q\n", opts.Includes)
	fmt.Fprintf(&b, "excludes=%q\n", opts.Excludes)
	fmt.Fprintf(&b, "unknown=%s\n", opts.Unknown)
	fmt.Fprintf(&b, "callables=%s\n", opts.Callables)
	if opts.Lookup != nil {
		fmt.Fprintf(&b, "lookup=%T@%p\n", opts.Lookup, opts.Lookup)
	}

	attrs := make([]string, 0, len(opts.Overrides))
	for name := range opts.Overrides {
		attrs = append(attrs, name)
	}
	sort.Strings(attrs)
	for _, name := range attrs {
		writeConfig(&b, "override."+name, opts.Overrides[name])
	}

	names := make([]string, 0, len(opts.Nodes))
	for name := range opts.Nodes {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(&b, "node.%s=%p\n", name, opts.Nodes[name])
	}
	writeConfig(&b, "args", opts.Node)

	h := murmur3.New128()
	h.Write([]byte(b.String()))
	hi, lo := h.Sum128()
	return key{hi: hi, lo: lo}
}

func writeConfig(b *strings.Builder, prefix string, cfg schema.Config) {
	for _, k := range cfg.Keys() {
		fmt.Fprintf(b, "%s.%s=%#v\n", prefix, k, cfg[k])
	}
}
