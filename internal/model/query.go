package model

import (
	"fmt"

	"go.starlark.net/starlark"
)

// Query evaluates expr — the path expression language §1 names as
// out-of-scope-but-interfaced — against m using Starlark, and returns the
// matched values as a plain Go slice (the NodeSet outcome's payload).
// Bindings available to expr: hosts, users, procs, each a dict keyed by
// name. A bare name (e.g. "hosts") returns every entry; an expression like
// "[h for h in hosts.values() if h['hostname'] == 'db1']" filters.
func Query(m *Manifest, expr string) ([]interface{}, error) {
	thread := &starlark.Thread{Name: "model-query"}

	globals := starlark.StringDict{
		"hosts": hostsDict(m),
		"users": usersDict(m),
		"procs": procsDict(m),
	}

	val, err := starlark.Eval(thread, "query.star", expr, globals)
	if err != nil {
		return nil, fmt.Errorf("model: query %q: %w", expr, err)
	}

	return toGoSlice(val)
}

// EvalGuard evaluates a Switch task's "when" expression as a Starlark
// boolean — used by TaskExecOp to pick which Case to run.
func EvalGuard(expr string) (bool, error) {
	thread := &starlark.Thread{Name: "model-guard"}
	val, err := starlark.Eval(thread, "guard.star", expr, nil)
	if err != nil {
		return false, fmt.Errorf("model: guard %q: %w", expr, err)
	}
	return bool(val.Truth()), nil
}

func hostsDict(m *Manifest) *starlark.Dict {
	d := starlark.NewDict(len(m.Hosts))
	for name, h := range m.Hosts {
		entry := starlark.NewDict(2)
		_ = entry.SetKey(starlark.String("hostname"), starlark.String(h.Hostname))
		_ = entry.SetKey(starlark.String("ssh_dest"), starlark.String(h.SSHDest))
		_ = d.SetKey(starlark.String(name), entry)
	}
	return d
}

func usersDict(m *Manifest) *starlark.Dict {
	d := starlark.NewDict(len(m.Users))
	for name, u := range m.Users {
		entry := starlark.NewDict(1)
		_ = entry.SetKey(starlark.String("username"), starlark.String(u.Username))
		_ = d.SetKey(starlark.String(name), entry)
	}
	return d
}

func procsDict(m *Manifest) *starlark.Dict {
	d := starlark.NewDict(len(m.Procs))
	for name, p := range m.Procs {
		entry := starlark.NewDict(2)
		_ = entry.SetKey(starlark.String("id"), starlark.String(p.ID))
		_ = entry.SetKey(starlark.String("proc"), starlark.String(p.Kind))
		_ = d.SetKey(starlark.String(name), entry)
	}
	return d
}

// toGoSlice converts a Starlark value to the []interface{} a NodeSet
// outcome carries. A single non-iterable value is wrapped in a one-element
// slice so callers always get a list.
func toGoSlice(v starlark.Value) ([]interface{}, error) {
	switch v := v.(type) {
	case starlark.String, starlark.Bool, starlark.Int, starlark.Float, starlark.NoneType:
		g, err := toGoValue(v)
		if err != nil {
			return nil, err
		}
		return []interface{}{g}, nil
	case starlark.Indexable:
		out := make([]interface{}, v.Len())
		for i := 0; i < v.Len(); i++ {
			g, err := toGoValue(v.Index(i))
			if err != nil {
				return nil, err
			}
			out[i] = g
		}
		return out, nil
	case *starlark.Dict:
		out := make([]interface{}, 0, v.Len())
		for _, k := range v.Keys() {
			val, _, _ := v.Get(k)
			g, err := toGoValue(val)
			if err != nil {
				return nil, err
			}
			out = append(out, g)
		}
		return out, nil
	default:
		g, err := toGoValue(v)
		if err != nil {
			return nil, err
		}
		return []interface{}{g}, nil
	}
}

func toGoValue(v starlark.Value) (interface{}, error) {
	switch v := v.(type) {
	case starlark.NoneType:
		return nil, nil
	case starlark.Bool:
		return bool(v), nil
	case starlark.String:
		return string(v), nil
	case starlark.Int:
		i, _ := v.Int64()
		return i, nil
	case starlark.Float:
		return float64(v), nil
	case *starlark.Dict:
		out := make(map[string]interface{}, v.Len())
		for _, k := range v.Keys() {
			key, ok := k.(starlark.String)
			if !ok {
				continue
			}
			val, _, _ := v.Get(k)
			g, err := toGoValue(val)
			if err != nil {
				return nil, err
			}
			out[string(key)] = g
		}
		return out, nil
	case starlark.Indexable:
		out := make([]interface{}, v.Len())
		for i := 0; i < v.Len(); i++ {
			g, err := toGoValue(v.Index(i))
			if err != nil {
				return nil, err
			}
			out[i] = g
		}
		return out, nil
	default:
		return nil, fmt.Errorf("model: unsupported starlark value %s in query result", v.Type())
	}
}
