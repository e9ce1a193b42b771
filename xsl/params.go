package xsl

import (
	"fmt"
	"maps"
	"slices"
	"strings"
)

type Param struct {
	Name  string
	Value string
}

func (p Param) String() string {
	return fmt.Sprintf("%s=%s", p.Name, p.Value)
}

// ParseParam splits a name=value string.
func ParseParam(str string) (Param, error) {
	name, value, ok := strings.Cut(str, "=")
	if !ok || name == "" {
		return Param{}, fmt.Errorf("%s: %w", str, ErrInvalidInput)
	}
	return Param{Name: name, Value: value}, nil
}

// Quote wraps value in double quotes, or in single quotes when the value
// contains a double quote, so that the engine takes it as a string literal.
// A value with both kinds of quotes is not made safe.
func Quote(value string) string {
	if strings.ContainsRune(value, '"') {
		return "'" + value + "'"
	}
	return `"` + value + `"`
}

// Params normalizes the supported parameter shapes into an ordered list:
// a single pair, a list of pairs or a mapping. Mappings are sorted by name.
func Params(v any) ([]Param, error) {
	switch v := v.(type) {
	case nil:
		return nil, nil
	case Param:
		return []Param{v}, nil
	case []Param:
		return slices.Clone(v), nil
	case [2]string:
		return []Param{{Name: v[0], Value: v[1]}}, nil
	case [][2]string:
		list := make([]Param, 0, len(v))
		for _, p := range v {
			list = append(list, Param{Name: p[0], Value: p[1]})
		}
		return list, nil
	case []string:
		switch len(v) {
		case 0:
			return nil, nil
		case 2:
			return []Param{{Name: v[0], Value: v[1]}}, nil
		default:
			return nil, invalidInput(msgInvalidParams)
		}
	case map[string]string:
		var list []Param
		for _, k := range slices.Sorted(maps.Keys(v)) {
			list = append(list, Param{Name: k, Value: v[k]})
		}
		return list, nil
	case map[string][]string:
		var list []Param
		for _, k := range slices.Sorted(maps.Keys(v)) {
			if len(v[k]) == 0 {
				continue
			}
			list = append(list, Param{Name: k, Value: v[k][0]})
		}
		return list, nil
	default:
		return nil, invalidInput(msgInvalidParams)
	}
}
