package deref

import (
	"testing"

	"github.com/speakeasy-api/openapi/sequencedmap"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func elem(k string, v any) *sequencedmap.Element[string, any] {
	return sequencedmap.NewElem(k, v)
}

func TestNodeAccessors(t *testing.T) {
	child := NewNode(Source{File: "/a.yaml", Path: "/x/items"}, elem("type", "string"))
	n := NewNode(Source{File: "/a.yaml", Path: "/x"},
		elem("type", "array"),
		elem("minItems", 1),
		elem("maximum", 2.5),
		elem("uniqueItems", true),
		elem("items", child),
		elem("required", []any{"a", 3, "b"}),
		elem("allOf", []any{child, "noise"}),
		elem("x-go-name", "Thing"),
	)

	assert.Equal(t, "/a.yaml#/x", n.Key())
	assert.False(t, n.IsReference())
	assert.False(t, n.IsBroken())
	assert.Same(t, n, n.Resolved())

	assert.Equal(t, "array", n.String("type"))
	assert.Equal(t, "", n.String("minItems"))

	i, ok := n.Int("minItems")
	assert.True(t, ok)
	assert.Equal(t, 1, i)
	_, ok = n.Int("maximum")
	assert.False(t, ok)

	f, ok := n.Float("maximum")
	assert.True(t, ok)
	assert.Equal(t, 2.5, f)
	f, ok = n.Float("minItems")
	assert.True(t, ok)
	assert.Equal(t, 1.0, f)

	b, ok := n.Bool("uniqueItems")
	assert.True(t, ok)
	assert.True(t, b)
	_, ok = n.Bool("missing")
	assert.False(t, ok)

	assert.Same(t, child, n.Node("items"))
	assert.Nil(t, n.Node("type"))
	assert.Equal(t, []string{"a", "b"}, n.Strings("required"))
	assert.Equal(t, []*Node{child}, n.Nodes("allOf"))
	assert.Nil(t, n.Array("missing"))

	ext := n.Extensions()
	assert.Equal(t, 1, ext.Len())
	assert.Equal(t, "Thing", ext.GetOrZero("x-go-name"))
	assert.Equal(t, 8, n.Len())
}

func TestNodeReferenceOverlay(t *testing.T) {
	target := NewNode(Source{File: "/c.yaml", Path: "/Pet"},
		elem("type", "object"),
		elem("description", "target"),
	)
	site := NewNode(Source{File: "/a.yaml", Path: "/s", Reference: &Reference{Ref: "c.yaml#/Pet", File: "/c.yaml", Pointer: "/Pet"}},
		elem("$ref", "c.yaml#/Pet"),
		elem("description", "site"),
		elem("x-extra", true),
	)
	site.target = target

	assert.True(t, site.IsReference())
	assert.Equal(t, "site", site.String("description"))
	assert.Equal(t, "object", site.String("type"))
	assert.True(t, site.Has("type"))
	assert.Equal(t, []string{"type", "description", "x-extra"}, site.Keys())
	assert.Equal(t, "/c.yaml#/Pet", site.Src.Reference.Target())

	var keys []string
	for k := range site.Fields() {
		keys = append(keys, k)
	}
	assert.Equal(t, site.Keys(), keys)
}

func TestPlain(t *testing.T) {
	inner := NewNode(Source{}, elem("k", "v"))
	n := NewNode(Source{}, elem("obj", inner), elem("list", []any{1, inner}))

	p, ok := Plain(n).(*sequencedmap.Map[string, any])
	require.True(t, ok)
	obj, ok := p.GetOrZero("obj").(*sequencedmap.Map[string, any])
	require.True(t, ok)
	assert.Equal(t, "v", obj.GetOrZero("k"))

	list, ok := p.GetOrZero("list").([]any)
	require.True(t, ok)
	assert.Equal(t, 1, list[0])
	assert.IsType(t, &sequencedmap.Map[string, any]{}, list[1])

	assert.Equal(t, "scalar", Plain("scalar"))
}
