package parser

import (
	"fmt"

	"go.yaml.in/yaml/v4"
)

// maxDecodeDepth bounds nesting in the raw tree, including alias expansion.
const maxDecodeDepth = 512

// DecodeError reports a node that could not be converted into the raw tree.
type DecodeError struct {
	Line    int
	Message string
	Cause   error
}

func (e *DecodeError) Error() string {
	msg := fmt.Sprintf("line %d: %s", e.Line, e.Message)
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *DecodeError) Unwrap() error { return e.Cause }

// Decode parses YAML or JSON into a raw tree of *Object, []any and scalars.
// Mapping key order is preserved. An empty input decodes to nil.
func Decode(data []byte) (any, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, err
	}
	return convertNode(&root, 0)
}

func convertNode(n *yaml.Node, depth int) (any, error) {
	if n == nil {
		return nil, nil
	}
	if depth > maxDecodeDepth {
		return nil, &DecodeError{Line: n.Line, Message: fmt.Sprintf("nesting exceeds %d levels", maxDecodeDepth)}
	}

	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return nil, nil
		}
		return convertNode(n.Content[0], depth)

	case yaml.MappingNode:
		obj := NewObject()
		for i := 0; i+1 < len(n.Content); i += 2 {
			keyNode, valNode := n.Content[i], n.Content[i+1]
			if keyNode.Tag == "!!merge" {
				if err := mergeInto(obj, valNode, depth); err != nil {
					return nil, err
				}
				continue
			}
			val, err := convertNode(valNode, depth+1)
			if err != nil {
				return nil, err
			}
			// Later duplicates win, like encoding/json.
			if obj.Has(keyNode.Value) {
				obj.Delete(keyNode.Value)
			}
			obj.Set(keyNode.Value, val)
		}
		return obj, nil

	case yaml.SequenceNode:
		arr := make([]any, 0, len(n.Content))
		for _, child := range n.Content {
			val, err := convertNode(child, depth+1)
			if err != nil {
				return nil, err
			}
			arr = append(arr, val)
		}
		return arr, nil

	case yaml.AliasNode:
		return convertNode(n.Alias, depth+1)

	case yaml.ScalarNode:
		var v any
		if err := n.Decode(&v); err != nil {
			return nil, &DecodeError{Line: n.Line, Message: "invalid scalar", Cause: err}
		}
		return v, nil
	}
	return nil, nil
}

// mergeInto applies a YAML merge key. Explicit keys already present win.
func mergeInto(obj *Object, src *yaml.Node, depth int) error {
	val, err := convertNode(src, depth+1)
	if err != nil {
		return err
	}
	var sources []*Object
	switch v := val.(type) {
	case *Object:
		sources = append(sources, v)
	case []any:
		for _, item := range v {
			if o, ok := item.(*Object); ok {
				sources = append(sources, o)
			}
		}
	}
	for _, s := range sources {
		for k, v := range s.All() {
			if !obj.Has(k) {
				obj.Set(k, v)
			}
		}
	}
	return nil
}
