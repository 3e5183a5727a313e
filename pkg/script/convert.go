package script

import (
	"errors"
	"fmt"
	"sort"

	"go.starlark.net/starlark"
	"go.starlark.net/starlarkstruct"

	"github.com/openfroyo/intcode/pkg/intcode"
)

// programArg accepts a program as source text or as a sequence of ints.
func programArg(v starlark.Value) (intcode.Program, error) {
	if s, ok := v.(starlark.String); ok {
		return intcode.Parse(string(s))
	}
	words, err := int64sArg(v)
	if err != nil {
		return nil, err
	}
	if len(words) == 0 {
		return nil, errors.New("empty program")
	}
	return intcode.Program(words), nil
}

// int64sArg converts an iterable of ints. None yields nil.
func int64sArg(v starlark.Value) ([]int64, error) {
	if v == nil || v == starlark.None {
		return nil, nil
	}
	iterable, ok := v.(starlark.Iterable)
	if !ok {
		return nil, fmt.Errorf("want a list of ints, got %s", v.Type())
	}

	var words []int64
	it := iterable.Iterate()
	defer it.Done()
	for x := starlark.Value(nil); it.Next(&x); {
		w, err := wordOf(x)
		if err != nil {
			return nil, err
		}
		words = append(words, w)
	}
	return words, nil
}

// wordOf converts a Starlark int to a machine word.
func wordOf(x starlark.Value) (int64, error) {
	n, ok := x.(starlark.Int)
	if !ok {
		return 0, fmt.Errorf("want int, got %s", x.Type())
	}
	w, ok := n.Int64()
	if !ok {
		return 0, fmt.Errorf("integer %s does not fit a machine word", n)
	}
	return w, nil
}

func int64List(words []int64) *starlark.List {
	elems := make([]starlark.Value, 0, len(words))
	for _, w := range words {
		elems = append(elems, starlark.MakeInt64(w))
	}
	return starlark.NewList(elems)
}

// toStarlark converts script inputs. Supported: nil, bool, int, int64,
// float64, string, []int64, intcode.Program, []interface{} and
// map[string]interface{}.
func toStarlark(v interface{}) (starlark.Value, error) {
	switch val := v.(type) {
	case nil:
		return starlark.None, nil
	case bool:
		return starlark.Bool(val), nil
	case int:
		return starlark.MakeInt(val), nil
	case int64:
		return starlark.MakeInt64(val), nil
	case float64:
		return starlark.Float(val), nil
	case string:
		return starlark.String(val), nil
	case []int64:
		return int64List(val), nil
	case intcode.Program:
		return int64List(val), nil
	case []interface{}:
		elems := make([]starlark.Value, 0, len(val))
		for i, item := range val {
			elem, err := toStarlark(item)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			elems = append(elems, elem)
		}
		return starlark.NewList(elems), nil
	case map[string]interface{}:
		return toStarlarkDict(val)
	}
	return nil, fmt.Errorf("unsupported type: %T", v)
}

// toStarlarkDict inserts keys in sorted order so iteration in scripts is
// deterministic.
func toStarlarkDict(m map[string]interface{}) (*starlark.Dict, error) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	dict := starlark.NewDict(len(m))
	for _, k := range keys {
		elem, err := toStarlark(m[k])
		if err != nil {
			return nil, fmt.Errorf("%s: %w", k, err)
		}
		if err := dict.SetKey(starlark.String(k), elem); err != nil {
			return nil, err
		}
	}
	return dict, nil
}

// fromStarlark converts script globals back to Go. Ints become int64,
// lists and tuples []interface{}, dicts and structs map[string]interface{}.
func fromStarlark(v starlark.Value) (interface{}, error) {
	switch val := v.(type) {
	case starlark.NoneType:
		return nil, nil
	case starlark.Bool:
		return bool(val), nil
	case starlark.Int:
		return wordOf(val)
	case starlark.Float:
		return float64(val), nil
	case starlark.String:
		return string(val), nil
	case starlark.Bytes:
		return string(val), nil
	case starlark.Indexable:
		out := make([]interface{}, val.Len())
		for i := range out {
			elem, err := fromStarlark(val.Index(i))
			if err != nil {
				return nil, err
			}
			out[i] = elem
		}
		return out, nil
	case *starlark.Dict:
		out := make(map[string]interface{}, val.Len())
		for _, kv := range val.Items() {
			k, ok := kv[0].(starlark.String)
			if !ok {
				return nil, fmt.Errorf("dict key %s is not a string", kv[0])
			}
			elem, err := fromStarlark(kv[1])
			if err != nil {
				return nil, err
			}
			out[string(k)] = elem
		}
		return out, nil
	case *starlarkstruct.Struct:
		fields := make(starlark.StringDict)
		val.ToStringDict(fields)
		out := make(map[string]interface{}, len(fields))
		for name, field := range fields {
			elem, err := fromStarlark(field)
			if err != nil {
				return nil, err
			}
			out[name] = elem
		}
		return out, nil
	}
	return nil, fmt.Errorf("unsupported starlark type: %s", v.Type())
}
