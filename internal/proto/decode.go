package proto

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// envelope is the on-the-wire shape: a "kind" tag alongside the variant's
// own fields, the same tagged-message idiom
// pkg/micro_runner/protocol.Message uses (Type + raw Data), applied here so
// the sixteen-variant Request interface survives a JSON/YAML round trip.
type envelope struct {
	Kind     string            `json:"kind" yaml:"kind"`
	Children []json.RawMessage `json:"children,omitempty" yaml:"children,omitempty"`
}

// DecodeJSON recovers a concrete Request from its JSON encoding.
func DecodeJSON(data []byte) (Request, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("proto: decode envelope: %w", err)
	}

	switch env.Kind {
	case (ConfigGet{}).Kind():
		return unmarshalJSONAs[ConfigGet](data)
	case (ModelInit{}).Kind():
		return unmarshalJSONAs[ModelInit](data)
	case (ModelCommit{}).Kind():
		return unmarshalJSONAs[ModelCommit](data)
	case (ModelQuery{}).Kind():
		return unmarshalJSONAs[ModelQuery](data)
	case (ModelTest{}).Kind():
		return unmarshalJSONAs[ModelTest](data)
	case (ModelDiff{}).Kind():
		return unmarshalJSONAs[ModelDiff](data)
	case (ModelUpdate{}).Kind():
		return unmarshalJSONAs[ModelUpdate](data)
	case (ModelCheck{}).Kind():
		return unmarshalJSONAs[ModelCheck](data)
	case (ModelProbe{}).Kind():
		return unmarshalJSONAs[ModelProbe](data)
	case (ProcExec{}).Kind():
		return unmarshalJSONAs[ProcExec](data)
	case (StepExec{}).Kind():
		return unmarshalJSONAs[StepExec](data)
	case (TaskExec{}).Kind():
		return unmarshalJSONAs[TaskExec](data)
	case (FileCopyExec{}).Kind():
		return unmarshalJSONAs[FileCopyExec](data)
	case (RemoteExec{}).Kind():
		return unmarshalJSONAs[RemoteExec](data)
	case (Sequence{}).Kind():
		children, err := decodeChildrenJSON(env.Children)
		if err != nil {
			return nil, err
		}
		return Sequence{Children: children}, nil
	case (Parallel{}).Kind():
		children, err := decodeChildrenJSON(env.Children)
		if err != nil {
			return nil, err
		}
		return Parallel{Children: children}, nil
	default:
		return nil, fmt.Errorf("proto: unknown request kind %q", env.Kind)
	}
}

func unmarshalJSONAs[T Request](data []byte) (Request, error) {
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("proto: decode %T: %w", v, err)
	}
	return v, nil
}

func decodeChildrenJSON(raw []json.RawMessage) ([]Request, error) {
	children := make([]Request, 0, len(raw))
	for _, r := range raw {
		child, err := DecodeJSON(r)
		if err != nil {
			return nil, err
		}
		children = append(children, child)
	}
	return children, nil
}

// EncodeJSON renders req back to its tagged-envelope JSON form.
func EncodeJSON(req Request) ([]byte, error) {
	switch v := req.(type) {
	case Sequence:
		return encodeCombinatorJSON("sequence", v.Children)
	case Parallel:
		return encodeCombinatorJSON("parallel", v.Children)
	default:
		return encodeFlatJSON(req)
	}
}

func encodeFlatJSON(req Request) ([]byte, error) {
	fields, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("proto: encode %T: %w", req, err)
	}
	var m map[string]json.RawMessage
	if err := json.Unmarshal(fields, &m); err != nil {
		return nil, err
	}
	m["kind"] = mustMarshal(req.Kind())
	return json.Marshal(m)
}

func encodeCombinatorJSON(kind string, children []Request) ([]byte, error) {
	raw := make([]json.RawMessage, 0, len(children))
	for _, c := range children {
		b, err := EncodeJSON(c)
		if err != nil {
			return nil, err
		}
		raw = append(raw, b)
	}
	return json.Marshal(struct {
		Kind     string            `json:"kind"`
		Children []json.RawMessage `json:"children"`
	}{Kind: kind, Children: raw})
}

func mustMarshal(s string) json.RawMessage {
	b, _ := json.Marshal(s)
	return b
}

// DecodeYAML recovers a concrete Request from its YAML encoding, reusing
// the JSON decoder by round-tripping through yaml.Node → interface{} → JSON
// (gopkg.in/yaml.v3 has no direct analogue of json.RawMessage-driven
// polymorphic decode, so this is the most direct path to shared logic).
func DecodeYAML(data []byte) (Request, error) {
	var raw interface{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("proto: decode yaml: %w", err)
	}
	jsonBytes, err := json.Marshal(normalizeYAML(raw))
	if err != nil {
		return nil, fmt.Errorf("proto: normalize yaml: %w", err)
	}
	return DecodeJSON(jsonBytes)
}

// normalizeYAML converts the map[interface{}]interface{} that yaml.v3 can
// produce for nested maps into map[string]interface{}, which encoding/json
// requires.
func normalizeYAML(v interface{}) interface{} {
	switch val := v.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(val))
		for k, vv := range val {
			out[k] = normalizeYAML(vv)
		}
		return out
	case map[interface{}]interface{}:
		out := make(map[string]interface{}, len(val))
		for k, vv := range val {
			out[fmt.Sprintf("%v", k)] = normalizeYAML(vv)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(val))
		for i, vv := range val {
			out[i] = normalizeYAML(vv)
		}
		return out
	default:
		return val
	}
}
