package node

import (
	"encoding/json"
	"fmt"
	"math"
	"math/big"
	"reflect"
	"strconv"
	"strings"
	"time"
)

type Kind int

const (
	KindBoolean Kind = iota
	KindInteger
	KindFloat
	KindDecimal
	KindString
	KindDate
	KindDateTime
	KindTime
	KindMapping
	KindSequence
)

func (k Kind) String() string {
	switch k {
	case KindBoolean:
		return "Boolean"
	case KindInteger:
		return "Integer"
	case KindFloat:
		return "Float"
	case KindDecimal:
		return "Decimal"
	case KindString:
		return "String"
	case KindDate:
		return "Date"
	case KindDateTime:
		return "DateTime"
	case KindTime:
		return "Time"
	case KindMapping:
		return "Mapping"
	case KindSequence:
		return "Sequence"
	}
	return "Unknown"
}

// Type converts between appstructs and cstructs for one kind of value.
// Implementations pass Null through unchanged.
type Type interface {
	Kind() Kind
	Serialize(n *Node, appstruct any) (any, error)
	Deserialize(n *Node, cstruct any) (any, error)
}

// Scalar types serialize to strings and deserialize from strings or from
// the matching native Go values. An empty string deserializes to Null.
type (
	Boolean  struct{}
	Integer  struct{}
	Float    struct{}
	Decimal  struct{}
	String   struct{}
	Date     struct{}
	DateTime struct{}
	Time     struct{}
)

func (Boolean) Kind() Kind  { return KindBoolean }
func (Integer) Kind() Kind  { return KindInteger }
func (Float) Kind() Kind    { return KindFloat }
func (Decimal) Kind() Kind  { return KindDecimal }
func (String) Kind() Kind   { return KindString }
func (Date) Kind() Kind     { return KindDate }
func (DateTime) Kind() Kind { return KindDateTime }
func (Time) Kind() Kind     { return KindTime }

func (Boolean) Serialize(n *Node, appstruct any) (any, error) {
	if IsNull(appstruct) {
		return Null, nil
	}
	b, ok := appstruct.(bool)
	if !ok {
		return nil, NewInvalid(n, fmt.Sprintf("%v is not a boolean", appstruct), appstruct)
	}
	return strconv.FormatBool(b), nil
}

func (Boolean) Deserialize(n *Node, cstruct any) (any, error) {
	if isEmpty(cstruct) {
		return Null, nil
	}
	switch v := cstruct.(type) {
	case bool:
		return v, nil
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "true", "1", "yes", "on", "t", "y":
			return true, nil
		case "false", "0", "no", "off", "f", "n":
			return false, nil
		}
	}
	return nil, NewInvalid(n, fmt.Sprintf("\"%v\" is neither in (true) nor in (false)", cstruct), cstruct)
}

func (Integer) Serialize(n *Node, appstruct any) (any, error) {
	if IsNull(appstruct) {
		return Null, nil
	}
	i, err := toInt64(appstruct)
	if err != nil {
		return nil, NewInvalid(n, fmt.Sprintf("\"%v\" is not a number", appstruct), appstruct)
	}
	return strconv.FormatInt(i, 10), nil
}

func (Integer) Deserialize(n *Node, cstruct any) (any, error) {
	if isEmpty(cstruct) {
		return Null, nil
	}
	i, err := toInt64(cstruct)
	if err != nil {
		return nil, NewInvalid(n, fmt.Sprintf("\"%v\" is not a number", cstruct), cstruct)
	}
	return i, nil
}

func (Float) Serialize(n *Node, appstruct any) (any, error) {
	if IsNull(appstruct) {
		return Null, nil
	}
	f, err := toFloat64(appstruct)
	if err != nil {
		return nil, NewInvalid(n, fmt.Sprintf("\"%v\" is not a number", appstruct), appstruct)
	}
	return strconv.FormatFloat(f, 'f', -1, 64), nil
}

func (Float) Deserialize(n *Node, cstruct any) (any, error) {
	if isEmpty(cstruct) {
		return Null, nil
	}
	f, err := toFloat64(cstruct)
	if err != nil {
		return nil, NewInvalid(n, fmt.Sprintf("\"%v\" is not a number", cstruct), cstruct)
	}
	return f, nil
}

func (Decimal) Serialize(n *Node, appstruct any) (any, error) {
	if IsNull(appstruct) {
		return Null, nil
	}
	r, err := toRat(appstruct)
	if err != nil {
		return nil, NewInvalid(n, fmt.Sprintf("\"%v\" is not a number", appstruct), appstruct)
	}
	return FormatDecimal(r), nil
}

func (Decimal) Deserialize(n *Node, cstruct any) (any, error) {
	if isEmpty(cstruct) {
		return Null, nil
	}
	r, err := toRat(cstruct)
	if err != nil {
		return nil, NewInvalid(n, fmt.Sprintf("\"%v\" is not a number", cstruct), cstruct)
	}
	return r, nil
}

func (String) Serialize(n *Node, appstruct any) (any, error) {
	if IsNull(appstruct) {
		return Null, nil
	}
	switch v := appstruct.(type) {
	case string:
		return v, nil
	case fmt.Stringer:
		return v.String(), nil
	}
	if !isScalar(appstruct) {
		return nil, NewInvalid(n, fmt.Sprintf("%v is not a string", appstruct), appstruct)
	}
	return fmt.Sprint(appstruct), nil
}

func (String) Deserialize(n *Node, cstruct any) (any, error) {
	if isEmpty(cstruct) {
		return Null, nil
	}
	switch v := cstruct.(type) {
	case string:
		return v, nil
	case fmt.Stringer:
		return v.String(), nil
	}
	if !isScalar(cstruct) {
		return nil, NewInvalid(n, fmt.Sprintf("%v is not a string", cstruct), cstruct)
	}
	return fmt.Sprint(cstruct), nil
}

const (
	dateLayout = "2006-01-02"
	timeLayout = "15:04:05"
)

var dateTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	dateLayout,
}

var timeLayouts = []string{
	"15:04:05.999999999",
	"15:04",
}

func (Date) Serialize(n *Node, appstruct any) (any, error) {
	if IsNull(appstruct) {
		return Null, nil
	}
	t, ok := appstruct.(time.Time)
	if !ok {
		return nil, NewInvalid(n, fmt.Sprintf("\"%v\" is not a date object", appstruct), appstruct)
	}
	return t.Format(dateLayout), nil
}

func (Date) Deserialize(n *Node, cstruct any) (any, error) {
	if isEmpty(cstruct) {
		return Null, nil
	}
	t, err := parseTime(cstruct, dateTimeLayouts)
	if err != nil {
		return nil, NewInvalid(n, "Invalid date", cstruct)
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
}

func (DateTime) Serialize(n *Node, appstruct any) (any, error) {
	if IsNull(appstruct) {
		return Null, nil
	}
	t, ok := appstruct.(time.Time)
	if !ok {
		return nil, NewInvalid(n, fmt.Sprintf("\"%v\" is not a datetime object", appstruct), appstruct)
	}
	return t.Format(time.RFC3339Nano), nil
}

func (DateTime) Deserialize(n *Node, cstruct any) (any, error) {
	if isEmpty(cstruct) {
		return Null, nil
	}
	t, err := parseTime(cstruct, dateTimeLayouts)
	if err != nil {
		return nil, NewInvalid(n, "Invalid date", cstruct)
	}
	return t, nil
}

func (Time) Serialize(n *Node, appstruct any) (any, error) {
	if IsNull(appstruct) {
		return Null, nil
	}
	t, ok := appstruct.(time.Time)
	if !ok {
		return nil, NewInvalid(n, fmt.Sprintf("\"%v\" is not a time object", appstruct), appstruct)
	}
	if t.Nanosecond() != 0 {
		return t.Format("15:04:05.999999999"), nil
	}
	return t.Format(timeLayout), nil
}

func (Time) Deserialize(n *Node, cstruct any) (any, error) {
	if isEmpty(cstruct) {
		return Null, nil
	}
	t, err := parseTime(cstruct, timeLayouts)
	if err != nil {
		return nil, NewInvalid(n, "Invalid time", cstruct)
	}
	return time.Date(0, 1, 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC), nil
}

// FormatDecimal renders r in plain decimal notation without losing digits
// when its denominator is a product of 2s and 5s.
func FormatDecimal(r *big.Rat) string {
	if r.IsInt() {
		return r.Num().String()
	}
	return r.FloatString(decimalPlaces(r.Denom()))
}

func decimalPlaces(denom *big.Int) int {
	d := new(big.Int).Set(denom)
	two, five, zero := big.NewInt(2), big.NewInt(5), big.NewInt(0)
	var twos, fives int
	mod := new(big.Int)
	for mod.Mod(d, two).Cmp(zero) == 0 {
		d.Quo(d, two)
		twos++
	}
	for mod.Mod(d, five).Cmp(zero) == 0 {
		d.Quo(d, five)
		fives++
	}
	if d.Cmp(big.NewInt(1)) != 0 {
		// non-terminating expansion
		return 16
	}
	if twos > fives {
		return twos
	}
	return fives
}

// isEmpty reports whether a cstruct counts as absent.
func isEmpty(cstruct any) bool {
	if IsNull(cstruct) {
		return true
	}
	s, ok := cstruct.(string)
	return ok && s == ""
}

func isScalar(v any) bool {
	switch reflect.ValueOf(v).Kind() {
	case reflect.Map, reflect.Slice, reflect.Array, reflect.Struct, reflect.Func, reflect.Chan:
		return false
	}
	return true
}

func toInt64(v any) (int64, error) {
	switch x := v.(type) {
	case string:
		return strconv.ParseInt(strings.TrimSpace(x), 10, 64)
	case json.Number:
		return x.Int64()
	case float32:
		return integralFloat(float64(x))
	case float64:
		return integralFloat(x)
	case bool:
		return 0, fmt.Errorf("boolean is not a number")
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int(), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		u := rv.Uint()
		if u > math.MaxInt64 {
			return 0, fmt.Errorf("%d overflows int64", u)
		}
		return int64(u), nil
	}
	return 0, fmt.Errorf("%T is not a number", v)
}

func integralFloat(f float64) (int64, error) {
	if f != math.Trunc(f) || math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, fmt.Errorf("%v is not an integer", f)
	}
	if f >= math.MaxInt64 || f < math.MinInt64 {
		return 0, fmt.Errorf("%v overflows int64", f)
	}
	return int64(f), nil
}

func toFloat64(v any) (float64, error) {
	switch x := v.(type) {
	case string:
		return strconv.ParseFloat(strings.TrimSpace(x), 64)
	case json.Number:
		return x.Float64()
	case *big.Rat:
		f, _ := x.Float64()
		return f, nil
	case bool:
		return 0, fmt.Errorf("boolean is not a number")
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Float32, reflect.Float64:
		return rv.Float(), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint()), nil
	}
	return 0, fmt.Errorf("%T is not a number", v)
}

func toRat(v any) (*big.Rat, error) {
	switch x := v.(type) {
	case *big.Rat:
		return new(big.Rat).Set(x), nil
	case big.Rat:
		return new(big.Rat).Set(&x), nil
	case string:
		r, ok := new(big.Rat).SetString(strings.TrimSpace(x))
		if !ok {
			return nil, fmt.Errorf("%q is not a decimal", x)
		}
		return r, nil
	case json.Number:
		r, ok := new(big.Rat).SetString(x.String())
		if !ok {
			return nil, fmt.Errorf("%q is not a decimal", x)
		}
		return r, nil
	case float32, float64:
		f, _ := toFloat64(x)
		// go through the shortest decimal representation so 0.1 stays 0.1
		r, ok := new(big.Rat).SetString(strconv.FormatFloat(f, 'f', -1, 64))
		if !ok {
			return nil, fmt.Errorf("%v is not a decimal", x)
		}
		return r, nil
	}
	i, err := toInt64(v)
	if err != nil {
		return nil, err
	}
	return new(big.Rat).SetInt64(i), nil
}

func parseTime(v any, layouts []string) (time.Time, error) {
	switch x := v.(type) {
	case time.Time:
		return x, nil
	case *time.Time:
		return *x, nil
	case string:
		s := strings.TrimSpace(x)
		for _, layout := range layouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t, nil
			}
		}
		return time.Time{}, fmt.Errorf("cannot parse %q", s)
	}
	return time.Time{}, fmt.Errorf("%T is not a time", v)
}
