package schema

import (
	"reflect"
	"strings"
)

// TagKey is the struct tag holding column and relation definitions, e.g.
//
//	Email string `ormschema:"column:email;type:varchar(64);primary"`
const TagKey = "ormschema"

// ParseTag splits a tag value into key/value parts and bare flags. Flags map
// to an empty string.
func ParseTag(tag string) map[string]string {
	parts := make(map[string]string)
	for _, part := range strings.Split(tag, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if kv := strings.SplitN(part, ":", 2); len(kv) == 2 {
			parts[strings.TrimSpace(kv[0])] = strings.TrimSpace(kv[1])
			continue
		}
		parts[part] = ""
	}
	return parts
}

// AttrName returns the attribute name a struct field stores, and false for
// unexported fields and fields tagged "-".
func AttrName(f reflect.StructField) (string, bool) {
	if !f.IsExported() {
		return "", false
	}
	tag := f.Tag.Get(TagKey)
	if tag == "-" {
		return "", false
	}
	if name := ParseTag(tag)["column"]; name != "" {
		return name, true
	}
	return ToSnakeCase(f.Name), true
}
