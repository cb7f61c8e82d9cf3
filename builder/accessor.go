package builder

import (
	"fmt"
	"math/big"
	"reflect"
	"sync"

	"github.com/ridoystarlord/ormschema/node"
	"github.com/ridoystarlord/ormschema/schema"
)

// accessor reads and writes the attributes of one object.
type accessor interface {
	Get(name string) (any, bool)
	Set(name string, value any) error
	Value() any
}

func accessorOf(obj any) (accessor, error) {
	switch o := obj.(type) {
	case schema.Record:
		return recordAccessor(o), nil
	case map[string]any:
		return recordAccessor(o), nil
	}

	rv := reflect.ValueOf(obj)
	switch {
	case rv.Kind() == reflect.Ptr && !rv.IsNil() && rv.Elem().Kind() == reflect.Struct:
		return &structAccessor{v: rv.Elem(), obj: obj, fields: fieldsOf(rv.Elem().Type())}, nil
	case rv.Kind() == reflect.Struct:
		return &structAccessor{v: rv, obj: obj, fields: fieldsOf(rv.Type())}, nil
	}
	return nil, fmt.Errorf("cannot convert %T: want a struct, a pointer to a struct or a schema.Record", obj)
}

func (s *Schema) newInstance() any {
	if s.Model.Type != nil {
		return reflect.New(s.Model.Type).Interface()
	}
	return schema.Record{}
}

type recordAccessor map[string]any

func (r recordAccessor) Get(name string) (any, bool) {
	v, ok := r[name]
	return v, ok
}

func (r recordAccessor) Set(name string, value any) error {
	r[name] = value
	return nil
}

func (r recordAccessor) Value() any { return schema.Record(r) }

type structAccessor struct {
	v      reflect.Value
	obj    any
	fields map[string][]int
}

func (s *structAccessor) Get(name string) (any, bool) {
	idx, ok := s.fields[name]
	if !ok {
		return nil, false
	}
	f, err := s.v.FieldByIndexErr(idx)
	if err != nil {
		// promoted through a nil embedded pointer
		return nil, true
	}
	return f.Interface(), true
}

func (s *structAccessor) Set(name string, value any) error {
	idx, ok := s.fields[name]
	if !ok {
		return fmt.Errorf("no field for attribute '%s' on %s", name, s.v.Type())
	}
	if !s.v.CanSet() {
		return fmt.Errorf("%s is not addressable, pass a pointer", s.v.Type())
	}
	f, err := s.v.FieldByIndexErr(idx)
	if err != nil {
		return err
	}
	return assign(f, value)
}

func (s *structAccessor) Value() any { return s.obj }

var fieldCache sync.Map // reflect.Type -> map[string][]int

// fieldsOf maps attribute names to struct field indexes.
func fieldsOf(t reflect.Type) map[string][]int {
	if cached, ok := fieldCache.Load(t); ok {
		return cached.(map[string][]int)
	}
	fields := make(map[string][]int)
	for _, f := range reflect.VisibleFields(t) {
		if f.Anonymous {
			continue
		}
		if name, ok := schema.AttrName(f); ok {
			if _, taken := fields[name]; !taken {
				fields[name] = f.Index
			}
		}
	}
	fieldCache.Store(t, fields)
	return fields
}

var ratType = reflect.TypeOf((*big.Rat)(nil))

// assign stores value in dst, converting between numeric kinds, pointers and
// slices as needed. A nil value stores the zero value.
func assign(dst reflect.Value, value any) error {
	if value == nil {
		dst.Set(reflect.Zero(dst.Type()))
		return nil
	}
	src := reflect.ValueOf(value)
	t := dst.Type()

	if src.Type().AssignableTo(t) {
		dst.Set(src)
		return nil
	}

	if r, ok := value.(*big.Rat); ok && r != nil {
		switch t.Kind() {
		case reflect.Float32, reflect.Float64:
			f, _ := r.Float64()
			dst.SetFloat(f)
			return nil
		case reflect.String:
			dst.SetString(node.FormatDecimal(r))
			return nil
		}
	}

	switch {
	case t.Kind() == reflect.Ptr && t != ratType:
		if src.Kind() == reflect.Ptr && src.IsNil() {
			dst.Set(reflect.Zero(t))
			return nil
		}
		elem := reflect.New(t.Elem())
		if err := assign(elem.Elem(), value); err != nil {
			return err
		}
		dst.Set(elem)
		return nil

	case src.Kind() == reflect.Ptr:
		if src.IsNil() {
			dst.Set(reflect.Zero(t))
			return nil
		}
		return assign(dst, src.Elem().Interface())

	case t.Kind() == reflect.Slice && src.Kind() == reflect.Slice:
		items, _ := node.AsSlice(value)
		out := reflect.MakeSlice(t, 0, len(items))
		for _, item := range items {
			ev := reflect.New(t.Elem()).Elem()
			if err := assign(ev, item); err != nil {
				return err
			}
			out = reflect.Append(out, ev)
		}
		dst.Set(out)
		return nil

	case convertible(src.Kind(), t.Kind()):
		dst.Set(src.Convert(t))
		return nil
	}

	return fmt.Errorf("cannot assign %T to %s", value, t)
}

func convertible(from, to reflect.Kind) bool {
	numeric := func(k reflect.Kind) bool {
		return k >= reflect.Int && k <= reflect.Float64
	}
	switch {
	case numeric(from) && numeric(to):
		return true
	case from == reflect.String && to == reflect.String:
		return true
	case from == reflect.Bool && to == reflect.Bool:
		return true
	}
	return false
}

// deref unwraps pointers to column values. Decimals stay *big.Rat.
func deref(v any) any {
	if _, ok := v.(*big.Rat); ok {
		return v
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Ptr {
		return v
	}
	if rv.IsNil() {
		return nil
	}
	return rv.Elem().Interface()
}
