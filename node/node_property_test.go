package node

import (
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// Deserializing what was serialized yields the original appstruct.
func TestProperty_SerializeRoundTrip(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	root := New("", Mapping{},
		New("id", Integer{}),
		New("name", String{}),
		New("active", Boolean{}),
		New("born", Date{}),
		New("tags", Sequence{}, New("tag", String{})),
	)

	properties.Property("mapping of scalars round trips", prop.ForAll(
		func(id int64, name string, active bool, days int, tags []string) bool {
			tagValues := make([]any, len(tags))
			for i, tag := range tags {
				tagValues[i] = tag
			}
			app := map[string]any{
				"id":     id,
				"name":   name,
				"active": active,
				"born":   time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, days),
				"tags":   tagValues,
			}

			cstruct, err := root.Serialize(app)
			if err != nil {
				return false
			}
			back, err := root.Deserialize(cstruct)
			if err != nil {
				return false
			}

			got := back.(map[string]any)
			if got["id"] != id || got["name"] != name || got["active"] != active {
				return false
			}
			if !got["born"].(time.Time).Equal(app["born"].(time.Time)) {
				return false
			}
			gotTags := got["tags"].([]any)
			if len(gotTags) != len(tags) {
				return false
			}
			for i := range tags {
				if gotTags[i] != tags[i] {
					return false
				}
			}
			return true
		},
		gen.Int64(),
		gen.Identifier(),
		gen.Bool(),
		gen.IntRange(0, 40000),
		gen.SliceOf(gen.Identifier()),
	))

	properties.TestingRun(t)
}

// Integer accepts its own serialization for every int64.
func TestProperty_IntegerStrings(t *testing.T) {
	properties := gopter.NewProperties(gopter.DefaultTestParameters())
	n := New("n", Integer{})

	properties.Property("integer strings parse back", prop.ForAll(
		func(i int64) bool {
			s, err := n.Serialize(i)
			if err != nil {
				return false
			}
			back, err := n.Deserialize(s)
			return err == nil && back == i
		},
		gen.Int64(),
	))

	properties.TestingRun(t)
}
