package deref

import (
	"iter"
	"strings"

	"github.com/speakeasy-api/openapi/sequencedmap"

	"github.com/erraggy/oasgraph/parser"
)

// Reference records the $ref through which a node was reached.
type Reference struct {
	// Ref is the reference string as written.
	Ref string
	// File is the absolute path or URL of the target document.
	File string
	// Pointer is the normalized JSON pointer of the target.
	Pointer string
}

// Target returns the "file#pointer" identity of the referenced location.
func (r *Reference) Target() string {
	return r.File + "#" + r.Pointer
}

// Source is the provenance of a node.
type Source struct {
	// File is the absolute path or URL of the document containing the node.
	File string
	// Path is the JSON pointer of the node within File. Empty for the root.
	Path string
	// Version is the version of the document that declared the node. Fragment
	// files inherit the version of the document that referenced them.
	Version parser.OASVersion
	// Component is the name of the enclosing reusable component, if any.
	Component string
	// Reference is set when the node is a reference site.
	Reference *Reference
}

// Key returns the "file#pointer" identity of the node.
func (s Source) Key() string {
	return s.File + "#" + s.Path
}

// Node is a dereferenced object. A node whose source carried a $ref keeps
// its own sibling keywords (for example summary or description) and points at
// the shared target node; lookups check the node's own keywords first.
//
// Field values are *Node for objects, []any for arrays and plain scalars.
// Nodes are immutable once dereferencing has finished.
type Node struct {
	Src Source

	fields *sequencedmap.Map[string, any]
	target *Node
}

func newNode(src Source) *Node {
	return &Node{Src: src, fields: sequencedmap.New[string, any]()}
}

// NewNode builds a detached node from fields, mainly for tests and
// synthesized objects. Values follow the same conventions as dereferenced
// nodes.
func NewNode(src Source, fields ...*sequencedmap.Element[string, any]) *Node {
	return &Node{Src: src, fields: sequencedmap.New(fields...)}
}

// Key returns the identity of the node's own location.
func (n *Node) Key() string {
	return n.Src.Key()
}

// IsReference reports whether the node was written as a $ref.
func (n *Node) IsReference() bool {
	return n.Src.Reference != nil
}

// IsBroken reports whether the node is a reference whose target could not be
// found.
func (n *Node) IsBroken() bool {
	return n.IsReference() && n.target == nil
}

// Target returns the node a reference points at, or nil.
func (n *Node) Target() *Node {
	return n.target
}

// Resolved follows references to the last node in the chain.
func (n *Node) Resolved() *Node {
	cur := n
	for cur.target != nil {
		cur = cur.target
	}
	return cur
}

// Get returns the value of key, consulting the node's own keywords before
// those of its reference target.
func (n *Node) Get(key string) (any, bool) {
	for cur := n; cur != nil; cur = cur.target {
		if v, ok := cur.fields.Get(key); ok {
			return v, true
		}
	}
	return nil, false
}

// Has reports whether key is defined on the node or its target chain.
func (n *Node) Has(key string) bool {
	_, ok := n.Get(key)
	return ok
}

// Keys returns the effective keys: those of the target chain in target order
// followed by the node's own additional keys. "$ref" is omitted for reference
// nodes.
func (n *Node) Keys() []string {
	var chain []*Node
	for cur := n; cur != nil; cur = cur.target {
		chain = append(chain, cur)
	}

	seen := make(map[string]bool)
	var keys []string
	for i := len(chain) - 1; i >= 0; i-- {
		c := chain[i]
		for k := range c.fields.Keys() {
			if seen[k] || (k == "$ref" && c.IsReference()) {
				continue
			}
			seen[k] = true
			keys = append(keys, k)
		}
	}
	return keys
}

// OwnKeys returns the keywords written on this node itself, including "$ref".
func (n *Node) OwnKeys() []string {
	keys := make([]string, 0, n.fields.Len())
	for k := range n.fields.Keys() {
		keys = append(keys, k)
	}
	return keys
}

// Fields iterates over Keys with their effective values.
func (n *Node) Fields() iter.Seq2[string, any] {
	return func(yield func(string, any) bool) {
		for _, k := range n.Keys() {
			v, _ := n.Get(k)
			if !yield(k, v) {
				return
			}
		}
	}
}

// Len returns the number of effective keys.
func (n *Node) Len() int {
	return len(n.Keys())
}

// String returns the string value of key, or "".
func (n *Node) String(key string) string {
	v, _ := n.Get(key)
	s, _ := v.(string)
	return s
}

// Bool returns the boolean value of key and whether it was a boolean.
func (n *Node) Bool(key string) (value, ok bool) {
	v, _ := n.Get(key)
	value, ok = v.(bool)
	return value, ok
}

// Float returns a numeric value of key as float64.
func (n *Node) Float(key string) (float64, bool) {
	v, _ := n.Get(key)
	return toFloat(v)
}

// Int returns an integer value of key.
func (n *Node) Int(key string) (int, bool) {
	v, _ := n.Get(key)
	switch i := v.(type) {
	case int:
		return i, true
	case int64:
		return int(i), true
	case uint64:
		return int(i), true
	case float64:
		if i == float64(int(i)) {
			return int(i), true
		}
	}
	return 0, false
}

// Node returns the object value of key, or nil.
func (n *Node) Node(key string) *Node {
	v, _ := n.Get(key)
	child, _ := v.(*Node)
	return child
}

// Array returns the array value of key, or nil.
func (n *Node) Array(key string) []any {
	v, _ := n.Get(key)
	arr, _ := v.([]any)
	return arr
}

// Nodes returns the object elements of the array value of key.
func (n *Node) Nodes(key string) []*Node {
	arr := n.Array(key)
	out := make([]*Node, 0, len(arr))
	for _, item := range arr {
		if child, ok := item.(*Node); ok {
			out = append(out, child)
		}
	}
	return out
}

// Strings returns the string elements of the array value of key.
func (n *Node) Strings(key string) []string {
	arr := n.Array(key)
	out := make([]string, 0, len(arr))
	for _, item := range arr {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// Extensions returns the effective "x-" keywords in key order.
func (n *Node) Extensions() *sequencedmap.Map[string, any] {
	ext := sequencedmap.New[string, any]()
	for k, v := range n.Fields() {
		if strings.HasPrefix(k, "x-") {
			ext.Set(k, v)
		}
	}
	return ext
}

// Plain converts a field value back into plain Go values: objects become
// *sequencedmap.Map[string, any], arrays []any. It is used for keywords whose
// values are data rather than structure, such as enum, default or examples.
func Plain(v any) any {
	return plain(v, 0)
}

// maxPlainDepth stops Plain on cyclic data.
const maxPlainDepth = 64

func plain(v any, depth int) any {
	if depth > maxPlainDepth {
		return nil
	}
	switch t := v.(type) {
	case *Node:
		m := sequencedmap.New[string, any]()
		for k, fv := range t.Fields() {
			m.Set(k, plain(fv, depth+1))
		}
		return m
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = plain(item, depth+1)
		}
		return out
	}
	return v
}

func toFloat(v any) (float64, bool) {
	switch f := v.(type) {
	case float64:
		return f, true
	case float32:
		return float64(f), true
	case int:
		return float64(f), true
	case int64:
		return float64(f), true
	case uint64:
		return float64(f), true
	}
	return 0, false
}
