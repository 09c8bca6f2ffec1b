package sandbox

import (
	"fmt"

	"go.starlark.net/starlark"
)

// toGo converts a Starlark value into a plain Go value suitable for JSON
// encoding and storage on an Execution's Result field. It mirrors the
// handful of types the Runtime APIs and program return values actually
// produce — there is no need to handle every Starlark type (sets, functions,
// bytes) since none of those cross the Submit/Resume/Status boundary.
func toGo(v starlark.Value) (any, error) {
	switch x := v.(type) {
	case starlark.NoneType:
		return nil, nil
	case starlark.Bool:
		return bool(x), nil
	case starlark.Int:
		if i, ok := x.Int64(); ok {
			return i, nil
		}
		return x.String(), nil
	case starlark.Float:
		return float64(x), nil
	case starlark.String:
		return string(x), nil
	case *starlark.List:
		out := make([]any, 0, x.Len())
		for i := 0; i < x.Len(); i++ {
			elem, err := toGo(x.Index(i))
			if err != nil {
				return nil, err
			}
			out = append(out, elem)
		}
		return out, nil
	case starlark.Tuple:
		out := make([]any, 0, len(x))
		for _, elem := range x {
			g, err := toGo(elem)
			if err != nil {
				return nil, err
			}
			out = append(out, g)
		}
		return out, nil
	case *starlark.Dict:
		out := make(map[string]any, x.Len())
		for _, item := range x.Items() {
			key, ok := starlark.AsString(item[0])
			if !ok {
				key = item[0].String()
			}
			val, err := toGo(item[1])
			if err != nil {
				return nil, err
			}
			out[key] = val
		}
		return out, nil
	default:
		return nil, fmt.Errorf("sandbox: unsupported Starlark value of type %s", v.Type())
	}
}

// toStarlark converts a plain Go value (typically a decoded JSON payload
// supplied on Resume) back into a Starlark value.
func toStarlark(v any) (starlark.Value, error) {
	switch x := v.(type) {
	case nil:
		return starlark.None, nil
	case bool:
		return starlark.Bool(x), nil
	case string:
		return starlark.String(x), nil
	case int:
		return starlark.MakeInt(x), nil
	case int64:
		return starlark.MakeInt64(x), nil
	case float64:
		return starlark.Float(x), nil
	case []any:
		items := make([]starlark.Value, len(x))
		for i, elem := range x {
			sv, err := toStarlark(elem)
			if err != nil {
				return nil, err
			}
			items[i] = sv
		}
		return starlark.NewList(items), nil
	case map[string]any:
		dict := starlark.NewDict(len(x))
		for k, val := range x {
			sv, err := toStarlark(val)
			if err != nil {
				return nil, err
			}
			if err := dict.SetKey(starlark.String(k), sv); err != nil {
				return nil, err
			}
		}
		return dict, nil
	default:
		return nil, fmt.Errorf("sandbox: unsupported Go value of type %T", v)
	}
}

// toGoMap converts a Starlark dict (or nil) into a map[string]any, used for
// Runtime API option/context/input arguments.
func toGoMap(v starlark.Value) (map[string]any, error) {
	if v == nil || v == starlark.None {
		return nil, nil
	}
	g, err := toGo(v)
	if err != nil {
		return nil, err
	}
	m, ok := g.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("sandbox: expected dict, got %s", v.Type())
	}
	return m, nil
}
