package offline

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// normalizeArg maps Go values onto the engine's value set: nil, int64,
// float64, string and bool.
func normalizeArg(v any) (any, error) {
	switch x := v.(type) {
	case nil, int64, float64, string, bool:
		return x, nil
	case int:
		return int64(x), nil
	case int8:
		return int64(x), nil
	case int16:
		return int64(x), nil
	case int32:
		return int64(x), nil
	case uint8:
		return int64(x), nil
	case uint16:
		return int64(x), nil
	case uint32:
		return int64(x), nil
	case uint:
		if uint64(x) > math.MaxInt64 {
			return nil, fmt.Errorf("value %d overflows INTEGER", x)
		}
		return int64(x), nil
	case uint64:
		if x > math.MaxInt64 {
			return nil, fmt.Errorf("value %d overflows INTEGER", x)
		}
		return int64(x), nil
	case float32:
		return float64(x), nil
	case []byte:
		return string(x), nil
	case fmt.Stringer:
		return x.String(), nil
	}
	return nil, fmt.Errorf("unsupported argument type %T", v)
}

// coerce converts v to the storage class of a column. NULL stays NULL.
func coerce(v any, t ColumnType) (any, error) {
	if n, ok := v.(json.Number); ok {
		v = numberValue(n)
	}
	if v == nil {
		return nil, nil
	}
	switch t {
	case TypeInteger:
		switch x := v.(type) {
		case int64:
			return x, nil
		case float64:
			if x == math.Trunc(x) && math.Abs(x) < 1<<63 {
				return int64(x), nil
			}
		case bool:
			return boolInt(x), nil
		case string:
			if n, err := strconv.ParseInt(strings.TrimSpace(x), 10, 64); err == nil {
				return n, nil
			}
		}
	case TypeReal:
		switch x := v.(type) {
		case int64:
			return float64(x), nil
		case float64:
			return x, nil
		case bool:
			return float64(boolInt(x)), nil
		case string:
			if f, err := strconv.ParseFloat(strings.TrimSpace(x), 64); err == nil {
				return f, nil
			}
		}
	case TypeText:
		switch x := v.(type) {
		case string:
			return x, nil
		case int64:
			return strconv.FormatInt(x, 10), nil
		case float64:
			return strconv.FormatFloat(x, 'g', -1, 64), nil
		case bool:
			return strconv.FormatInt(boolInt(x), 10), nil
		}
	case TypeBoolean:
		switch x := v.(type) {
		case bool:
			return boolInt(x), nil
		case int64:
			return boolInt(x != 0), nil
		case float64:
			return boolInt(x != 0), nil
		case string:
			if b, err := strconv.ParseBool(strings.TrimSpace(x)); err == nil {
				return boolInt(b), nil
			}
		}
	}
	return nil, fmt.Errorf("cannot store %v (%T) as %s", v, v, t)
}

func numberValue(n json.Number) any {
	if i, err := n.Int64(); err == nil {
		return i
	}
	if f, err := n.Float64(); err == nil {
		return f
	}
	return n.String()
}

func boolInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

// compare orders two non-NULL values. Numbers compare numerically; anything
// else compares as text.
func compare(a, b any) (int, bool) {
	if a == nil || b == nil {
		return 0, false
	}
	if af, aok := toFloat(a); aok {
		if bf, bok := toFloat(b); bok {
			ai, aInt := a.(int64)
			bi, bInt := b.(int64)
			if aInt && bInt {
				return cmpOrdered(ai, bi), true
			}
			return cmpOrdered(af, bf), true
		}
	}
	return strings.Compare(fmt.Sprint(a), fmt.Sprint(b)), true
}

func cmpOrdered[T int64 | float64](a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func toFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case int64:
		return float64(x), true
	case float64:
		return x, true
	case bool:
		return float64(boolInt(x)), true
	}
	return 0, false
}

func compareEqual(a, b any) bool {
	c, ok := compare(a, b)
	return ok && c == 0
}

// orderLess sorts NULLs first.
func orderLess(a, b any) bool {
	switch {
	case a == nil:
		return b != nil
	case b == nil:
		return false
	}
	c, _ := compare(a, b)
	return c < 0
}

// compile turns AND-joined conditions into a row predicate.
func compile(schema *Schema, conds []condition, args []any) (func([]any) bool, error) {
	if len(conds) == 0 {
		return nil, nil
	}
	tests := make([]func([]any) bool, 0, len(conds))
	for _, c := range conds {
		ci := schema.index(c.column)
		if ci < 0 {
			return nil, fmt.Errorf("%w: %s.%s", ErrNoColumn, schema.Name, c.column)
		}
		t, err := compileCondition(ci, schema.Columns[ci].Type, c, args)
		if err != nil {
			return nil, err
		}
		tests = append(tests, t)
	}
	return func(row []any) bool {
		for _, t := range tests {
			if !t(row) {
				return false
			}
		}
		return true
	}, nil
}

func compileCondition(ci int, typ ColumnType, c condition, args []any) (func([]any) bool, error) {
	switch c.op {
	case "IS NULL":
		return func(row []any) bool { return row[ci] == nil }, nil
	case "IS NOT NULL":
		return func(row []any) bool { return row[ci] != nil }, nil
	}

	want := c.value.resolve(args)
	if want == nil {
		// comparisons with NULL are never true
		return func([]any) bool { return false }, nil
	}

	if c.op == "LIKE" {
		re, err := likePattern(fmt.Sprint(want))
		if err != nil {
			return nil, err
		}
		return func(row []any) bool {
			if row[ci] == nil {
				return false
			}
			return re.MatchString(fmt.Sprint(row[ci]))
		}, nil
	}

	if v, err := coerce(want, typ); err == nil {
		want = v
	}
	var accept func(int) bool
	switch c.op {
	case "=":
		accept = func(n int) bool { return n == 0 }
	case "!=":
		accept = func(n int) bool { return n != 0 }
	case "<":
		accept = func(n int) bool { return n < 0 }
	case "<=":
		accept = func(n int) bool { return n <= 0 }
	case ">":
		accept = func(n int) bool { return n > 0 }
	case ">=":
		accept = func(n int) bool { return n >= 0 }
	default:
		return nil, fmt.Errorf("unsupported operator %q", c.op)
	}
	return func(row []any) bool {
		n, ok := compare(row[ci], want)
		return ok && accept(n)
	}, nil
}

// likePattern translates a LIKE pattern into an anchored, case-insensitive
// regular expression.
func likePattern(p string) (*regexp.Regexp, error) {
	var sb strings.Builder
	sb.WriteString("(?is)^")
	for _, r := range p {
		switch r {
		case '%':
			sb.WriteString(".*")
		case '_':
			sb.WriteString(".")
		default:
			sb.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	sb.WriteString("$")
	return regexp.Compile(sb.String())
}
