package checker

import (
	"fmt"
	"reflect"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// MatchesExpectation checks actual against expected. Expected strings may be
// a regex between tildes (~^Lee~) or a numeric comparison (>=0.5, <10).
// Maps match when every expected key matches; extra actual keys are ignored.
func MatchesExpectation(actual, expected interface{}) (bool, string) {
	if expected == nil {
		if actual == nil {
			return true, ""
		}
		return false, fmt.Sprintf("expected nil, got %v", actual)
	}
	if actual == nil {
		return false, fmt.Sprintf("expected %v, got nil", expected)
	}

	switch exp := expected.(type) {
	case string:
		return matchString(actual, exp)
	case bool:
		if b, ok := actual.(bool); ok && b == exp {
			return true, ""
		}
		return false, fmt.Sprintf("expected %v, got %v", exp, actual)
	case map[string]interface{}:
		return matchMap(actual, exp)
	case []interface{}:
		return matchSlice(actual, exp)
	}

	if want, err := toFloat64(expected); err == nil {
		got, err := toFloat64(actual)
		if err != nil {
			return false, fmt.Sprintf("expected number %v, got %T", expected, actual)
		}
		if got == want {
			return true, ""
		}
		return false, fmt.Sprintf("expected %v, got %v", expected, actual)
	}

	if reflect.DeepEqual(actual, expected) {
		return true, ""
	}
	return false, fmt.Sprintf("expected %v, got %v", expected, actual)
}

func matchString(actual interface{}, expected string) (bool, string) {
	if len(expected) > 1 && strings.HasPrefix(expected, "~") && strings.HasSuffix(expected, "~") {
		pattern := expected[1 : len(expected)-1]
		re, err := regexp.Compile(pattern)
		if err != nil {
			return false, fmt.Sprintf("invalid regex %q: %v", pattern, err)
		}
		s := fmt.Sprintf("%v", actual)
		if re.MatchString(s) {
			return true, ""
		}
		return false, fmt.Sprintf("value %q does not match ~%s~", s, pattern)
	}

	if op, operand, ok := splitComparison(expected); ok {
		return matchComparison(actual, op, operand)
	}

	s, ok := actual.(string)
	if !ok {
		return false, fmt.Sprintf("expected string %q, got %T", expected, actual)
	}
	if s == expected {
		return true, ""
	}
	return false, fmt.Sprintf("expected %q, got %q", expected, s)
}

func splitComparison(s string) (op string, operand float64, ok bool) {
	for _, candidate := range []string{">=", "<=", ">", "<"} {
		if strings.HasPrefix(s, candidate) {
			v, err := strconv.ParseFloat(strings.TrimSpace(s[len(candidate):]), 64)
			if err != nil {
				return "", 0, false
			}
			return candidate, v, true
		}
	}
	return "", 0, false
}

func matchComparison(actual interface{}, op string, want float64) (bool, string) {
	got, err := toFloat64(actual)
	if err != nil {
		return false, fmt.Sprintf("cannot compare non-numeric value %v", actual)
	}

	var ok bool
	switch op {
	case ">=":
		ok = got >= want
	case "<=":
		ok = got <= want
	case ">":
		ok = got > want
	case "<":
		ok = got < want
	}
	if ok {
		return true, ""
	}
	return false, fmt.Sprintf("expected %s %v, got %v", op, want, got)
}

func matchMap(actual interface{}, expected map[string]interface{}) (bool, string) {
	got, ok := actual.(map[string]interface{})
	if !ok {
		return false, fmt.Sprintf("expected object, got %T", actual)
	}

	keys := make([]string, 0, len(expected))
	for k := range expected {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		v, exists := got[k]
		if !exists {
			return false, fmt.Sprintf("missing key %q", k)
		}
		if ok, reason := MatchesExpectation(v, expected[k]); !ok {
			return false, fmt.Sprintf("key %q: %s", k, reason)
		}
	}
	return true, ""
}

func matchSlice(actual interface{}, expected []interface{}) (bool, string) {
	got, ok := actual.([]interface{})
	if !ok {
		return false, fmt.Sprintf("expected array, got %T", actual)
	}
	if len(got) != len(expected) {
		return false, fmt.Sprintf("expected array length %d, got %d", len(expected), len(got))
	}
	for i := range expected {
		if ok, reason := MatchesExpectation(got[i], expected[i]); !ok {
			return false, fmt.Sprintf("element %d: %s", i, reason)
		}
	}
	return true, ""
}

func toFloat64(val interface{}) (float64, error) {
	switch v := val.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int32:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case uint64:
		return float64(v), nil
	case []byte:
		return strconv.ParseFloat(string(v), 64)
	default:
		return 0, fmt.Errorf("not a numeric type: %T", val)
	}
}
