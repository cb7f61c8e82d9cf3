package typemap

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ridoystarlord/ormschema/node"
	"github.com/ridoystarlord/ormschema/schema"
)

func TestMap(t *testing.T) {
	tests := []struct {
		typ           string
		want          node.Kind
		wantValidator bool
	}{
		{"boolean", node.KindBoolean, false},
		{"date", node.KindDate, false},
		{"timestamp", node.KindDateTime, false},
		{"timestamp with time zone", node.KindDateTime, false},
		{"enum(M,F)", node.KindString, true},
		{"double precision", node.KindFloat, false},
		{"integer", node.KindInteger, false},
		{"BIGINT", node.KindInteger, false},
		{"serial", node.KindInteger, false},
		{"varchar(64)", node.KindString, true},
		{"text", node.KindString, false},
		{"numeric(10,2)", node.KindDecimal, false},
		{"time", node.KindTime, false},
		{"uuid", node.KindString, true},
	}

	for _, tt := range tests {
		t.Run(tt.typ, func(t *testing.T) {
			typ, validator, err := Map("col", schema.MustParseType(tt.typ))
			require.NoError(t, err)
			assert.Equal(t, tt.want, typ.Kind())
			assert.Equal(t, tt.wantValidator, validator != nil)
		})
	}
}

func TestMap_Validators(t *testing.T) {
	_, enum, err := Map("gender", schema.MustParseType("enum(M,F)"))
	require.NoError(t, err)
	n := node.New("gender", node.String{})
	assert.NoError(t, enum(n, "M"))
	assert.Error(t, enum(n, "A"))

	_, length, err := Map("code", schema.MustParseType("varchar(3)"))
	require.NoError(t, err)
	assert.NoError(t, length(n, "abc"))
	assert.Error(t, length(n, "abcd"))
}

func TestMap_UnwrapsDecorator(t *testing.T) {
	decorated := schema.Decorate("money", schema.MustParseType("numeric(12,2)"), nil)

	typ, _, err := Map("price", decorated)
	require.NoError(t, err)
	assert.Equal(t, node.KindDecimal, typ.Kind())
}

func TestMap_Unsupported(t *testing.T) {
	_, _, err := Map("payload", schema.MustParseType("jsonb"))
	require.Error(t, err)

	var unsupported *UnsupportedTypeError
	require.True(t, errors.As(err, &unsupported))
	assert.Equal(t, "payload", unsupported.Attribute)
	assert.Contains(t, err.Error(), "payload")
	assert.Contains(t, err.Error(), "jsonb")
}
