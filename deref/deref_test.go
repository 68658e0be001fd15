package deref

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erraggy/oasgraph/oaserrors"
	"github.com/erraggy/oasgraph/parser"
)

func newTestDereferencer(t *testing.T, files map[string]string, opts ...Option) *Dereferencer {
	t.Helper()
	fsys := fstest.MapFS{}
	for name, data := range files {
		fsys[strings.TrimPrefix(name, "/")] = &fstest.MapFile{Data: []byte(data)}
	}
	cache, err := parser.NewCache(parser.WithFileSystem(parser.FromFS(fsys)))
	require.NoError(t, err)
	d, err := New(cache, opts...)
	require.NoError(t, err)
	return d
}

// at walks object keys from n.
func at(t *testing.T, n *Node, keys ...string) *Node {
	t.Helper()
	cur := n
	for _, k := range keys {
		next := cur.Node(k)
		require.NotNil(t, next, "missing %q under %s", k, cur.Key())
		cur = next
	}
	return cur
}

const petstore = `
openapi: 3.0.3
info: {title: pets, version: "1"}
paths:
  /pets:
    get:
      responses:
        "200":
          description: ok
          content:
            application/json:
              schema:
                $ref: '#/components/schemas/Pet'
                description: A pet from the list
components:
  schemas:
    Pet:
      type: object
      description: A pet
      properties:
        name: {type: string}
`

func TestDereferenceLocalRef(t *testing.T) {
	d := newTestDereferencer(t, map[string]string{"/spec/openapi.yaml": petstore})

	root, err := d.Dereference(context.Background(), "/spec/openapi.yaml")
	require.NoError(t, err)
	assert.Equal(t, "/spec/openapi.yaml#", root.Key())
	assert.Equal(t, parser.OASVersion30, root.Src.Version)

	site := at(t, root, "paths", "/pets", "get", "responses", "200", "content", "application/json", "schema")
	require.True(t, site.IsReference())
	assert.Equal(t, "/paths/~1pets/get/responses/200/content/application~1json/schema", site.Src.Path)
	assert.Equal(t, "#/components/schemas/Pet", site.Src.Reference.Ref)
	assert.Equal(t, "/spec/openapi.yaml#/components/schemas/Pet", site.Src.Reference.Target())

	pet := at(t, root, "components", "schemas", "Pet")
	assert.Same(t, pet, site.Target())
	assert.Same(t, pet, site.Resolved())
	assert.Equal(t, "Pet", pet.Src.Component)

	stored, ok := d.Lookup("/spec/openapi.yaml#/components/schemas/Pet")
	require.True(t, ok)
	assert.Same(t, pet, stored)

	// the site's own description overlays the target's
	assert.Equal(t, "A pet from the list", site.String("description"))
	assert.Equal(t, "A pet", pet.String("description"))
	assert.Equal(t, "object", site.String("type"))
	assert.Equal(t, []string{"type", "description", "properties"}, site.Keys())
	assert.Equal(t, []string{"$ref", "description"}, site.OwnKeys())
	assert.Empty(t, d.Warnings())
}

func TestDereferenceRelativeToReferencingFile(t *testing.T) {
	d := newTestDereferencer(t, map[string]string{
		"/spec/openapi.yaml": `
openapi: 3.1.0
paths:
  /a:
    $ref: ./paths/a.yaml
`,
		"/spec/paths/a.yaml": `
get:
  responses:
    "200":
      description: ok
      content:
        application/json:
          schema:
            $ref: ./other.yaml#/components/schemas/Foo
`,
		"/spec/paths/other.yaml": `
components:
  schemas:
    Foo: {type: string, description: right}
`,
		"/spec/other.yaml": `
components:
  schemas:
    Foo: {type: integer, description: wrong}
`,
	})

	root, err := d.Dereference(context.Background(), "/spec/openapi.yaml")
	require.NoError(t, err)

	pathItem := at(t, root, "paths", "/a")
	require.True(t, pathItem.IsReference())
	assert.Equal(t, "/spec/paths/a.yaml#", pathItem.Target().Key())

	schema := at(t, pathItem, "get", "responses", "200", "content", "application/json", "schema")
	target := schema.Target()
	require.NotNil(t, target)
	assert.Equal(t, "/spec/paths/other.yaml", target.Src.File)
	assert.Equal(t, "/components/schemas/Foo", target.Src.Path)
	assert.Equal(t, "right", target.String("description"))

	// fragments take the version of the document that referenced them
	assert.Equal(t, parser.OASVersion31, target.Src.Version)
}

func TestDereferenceLoadsEachFileOnce(t *testing.T) {
	d := newTestDereferencer(t, map[string]string{
		"/spec/openapi.yaml": `
openapi: 3.0.0
components:
  schemas:
    A: {$ref: 'common.yaml#/A'}
    B: {$ref: 'common.yaml#/B'}
    C: {$ref: './common.yaml#/A'}
`,
		"/spec/common.yaml": `
A: {type: string}
B: {type: integer}
`,
	})

	root, err := d.Dereference(context.Background(), "/spec/openapi.yaml")
	require.NoError(t, err)
	assert.Equal(t, int64(2), d.Cache().Loads())

	schemas := at(t, root, "components", "schemas")
	assert.Same(t, at(t, schemas, "A").Target(), at(t, schemas, "C").Target())
	assert.NotSame(t, at(t, schemas, "A").Target(), at(t, schemas, "B").Target())
}

func TestDereferenceRecursiveSchema(t *testing.T) {
	d := newTestDereferencer(t, map[string]string{
		"/spec/openapi.yaml": `
openapi: 3.0.0
components:
  schemas:
    TreeNode:
      type: object
      properties:
        parent:
          $ref: '#/components/schemas/TreeNode'
        children:
          type: array
          items:
            $ref: '#/components/schemas/TreeNode'
`,
	})

	root, err := d.Dereference(context.Background(), "/spec/openapi.yaml")
	require.NoError(t, err)

	tree := at(t, root, "components", "schemas", "TreeNode")
	assert.Same(t, tree, at(t, tree, "properties", "parent").Target())
	assert.Same(t, tree, at(t, tree, "properties", "children", "items").Target())
	assert.Same(t, tree, at(t, tree, "properties", "parent", "properties", "parent").Target())
	assert.GreaterOrEqual(t, d.Cycles(), int64(2))
	assert.Empty(t, d.Warnings())
}

func TestDereferenceCrossFileCycle(t *testing.T) {
	d := newTestDereferencer(t, map[string]string{
		"/spec/a.yaml": `
openapi: 3.0.0
components:
  schemas:
    A:
      properties:
        b: {$ref: 'b.yaml#/B'}
`,
		"/spec/b.yaml": `
B:
  properties:
    a: {$ref: 'a.yaml#/components/schemas/A'}
`,
	})

	root, err := d.Dereference(context.Background(), "/spec/a.yaml")
	require.NoError(t, err)

	a := at(t, root, "components", "schemas", "A")
	b := at(t, a, "properties", "b").Target()
	require.NotNil(t, b)
	assert.Same(t, a, at(t, b, "properties", "a").Target())
}

func TestDereferenceBrokenReference(t *testing.T) {
	files := map[string]string{
		"/spec/openapi.yaml": `
openapi: 3.0.0
components:
  schemas:
    Missing: {$ref: '#/components/schemas/Nope'}
    Scalar: {$ref: '#/info/title'}
info: {title: t}
`,
	}

	t.Run("collected as warnings", func(t *testing.T) {
		d := newTestDereferencer(t, files)
		root, err := d.Dereference(context.Background(), "/spec/openapi.yaml")
		require.NoError(t, err)

		missing := at(t, root, "components", "schemas", "Missing")
		assert.True(t, missing.IsBroken())
		assert.Nil(t, missing.Target())
		assert.Empty(t, missing.Keys())

		warnings := d.Warnings()
		require.Len(t, warnings, 2)
		assert.Equal(t, "/components/schemas/Missing", warnings[0].Path)
		assert.Equal(t, "#/components/schemas/Nope", warnings[0].Ref)
		assert.Equal(t, "local", warnings[0].RefType)
		assert.ErrorIs(t, warnings[0], oaserrors.ErrBrokenReference)
		assert.Contains(t, warnings[1].Message, "not an object")
	})

	t.Run("strict mode fails", func(t *testing.T) {
		d := newTestDereferencer(t, files, WithStrictRefs(true))
		_, err := d.Dereference(context.Background(), "/spec/openapi.yaml")
		require.Error(t, err)
		assert.ErrorIs(t, err, oaserrors.ErrBrokenReference)
	})
}

func TestDereferenceAliasLoop(t *testing.T) {
	d := newTestDereferencer(t, map[string]string{
		"/spec/openapi.yaml": `
openapi: 3.0.0
components:
  schemas:
    A: {$ref: '#/components/schemas/B'}
    B: {$ref: '#/components/schemas/A'}
    Self: {$ref: '#/components/schemas/Self'}
`,
	})

	root, err := d.Dereference(context.Background(), "/spec/openapi.yaml")
	require.NoError(t, err)

	schemas := at(t, root, "components", "schemas")
	assert.NotNil(t, at(t, schemas, "Self").Src.Reference)
	assert.Nil(t, at(t, schemas, "Self").Target())

	// Resolved must terminate for every node
	for _, name := range []string{"A", "B", "Self"} {
		assert.NotNil(t, at(t, schemas, name).Resolved())
	}

	warnings := d.Warnings()
	require.Len(t, warnings, 2)
	for _, w := range warnings {
		assert.True(t, w.IsCircular)
		assert.ErrorIs(t, w, oaserrors.ErrCircularReference)
	}
}

func TestDereferenceMissingFileIsFatal(t *testing.T) {
	d := newTestDereferencer(t, map[string]string{
		"/spec/openapi.yaml": `
openapi: 3.0.0
components:
  schemas:
    A: {$ref: 'gone.yaml#/A'}
`,
	})

	_, err := d.Dereference(context.Background(), "/spec/openapi.yaml")
	require.Error(t, err)
	assert.ErrorIs(t, err, oaserrors.ErrLoad)
	assert.Contains(t, err.Error(), "/spec/gone.yaml")
}

func TestDereferenceMaxRefDepth(t *testing.T) {
	files := map[string]string{
		"/spec/openapi.yaml": `
openapi: 3.0.0
components:
  schemas:
    A: {$ref: '#/components/schemas/B'}
    B: {$ref: '#/components/schemas/C'}
    C: {type: string}
`,
	}

	d := newTestDereferencer(t, files, WithMaxRefDepth(1))
	_, err := d.Dereference(context.Background(), "/spec/openapi.yaml")
	assert.ErrorIs(t, err, oaserrors.ErrResourceLimit)

	d = newTestDereferencer(t, files, WithMaxRefDepth(2))
	_, err = d.Dereference(context.Background(), "/spec/openapi.yaml")
	assert.NoError(t, err)
}

func TestDereferenceCanceled(t *testing.T) {
	d := newTestDereferencer(t, map[string]string{"/spec/openapi.yaml": petstore})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := d.Dereference(ctx, "/spec/openapi.yaml")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDereferenceRootNotObject(t *testing.T) {
	d := newTestDereferencer(t, map[string]string{"/spec/list.yaml": "- a\n- b\n"})
	_, err := d.Dereference(context.Background(), "/spec/list.yaml")
	assert.ErrorIs(t, err, oaserrors.ErrLoad)
}

func TestDereferenceConcurrent(t *testing.T) {
	var sb strings.Builder
	sb.WriteString("openapi: 3.0.0\ncomponents:\n  schemas:\n")
	const n = 40
	for i := range n {
		fmt.Fprintf(&sb, "    S%d:\n      type: object\n      properties:\n", i)
		fmt.Fprintf(&sb, "        next: {$ref: '#/components/schemas/S%d'}\n", (i+1)%n)
		fmt.Fprintf(&sb, "        shared: {$ref: 'common.yaml#/Shared'}\n")
		fmt.Fprintf(&sb, "        list: {type: array, items: {$ref: '#/components/schemas/S%d'}}\n", (i+7)%n)
	}
	files := map[string]string{
		"/spec/openapi.yaml": sb.String(),
		"/spec/second.yaml":  "openapi: 3.0.0\ncomponents:\n  schemas:\n    X: {$ref: 'openapi.yaml#/components/schemas/S3'}\n",
		"/spec/common.yaml":  "Shared: {type: string}\n",
	}

	d := newTestDereferencer(t, files, WithConcurrency(8))
	roots, err := d.DereferenceAll(context.Background(), []string{"/spec/openapi.yaml", "/spec/second.yaml"})
	require.NoError(t, err)
	require.Len(t, roots, 2)
	assert.Equal(t, "/spec/openapi.yaml#", roots[0].Key())
	assert.Equal(t, "/spec/second.yaml#", roots[1].Key())

	schemas := at(t, roots[0], "components", "schemas")
	shared := at(t, schemas, "S0", "properties", "shared").Target()
	require.NotNil(t, shared)
	for i := range n {
		s := at(t, schemas, fmt.Sprintf("S%d", i))
		next := at(t, s, "properties", "next").Target()
		assert.Same(t, at(t, schemas, fmt.Sprintf("S%d", (i+1)%n)), next)
		assert.Same(t, shared, at(t, s, "properties", "shared").Target())
	}
	assert.Same(t, at(t, schemas, "S3"), at(t, roots[1], "components", "schemas", "X").Target())
	assert.Equal(t, int64(3), d.Cache().Loads())
	assert.Empty(t, d.Warnings())
}

func TestNewInvalidOptions(t *testing.T) {
	_, err := New(nil)
	assert.ErrorIs(t, err, oaserrors.ErrConfig)

	cache, err := parser.NewCache()
	require.NoError(t, err)
	_, err = New(cache, WithConcurrency(-1))
	assert.ErrorIs(t, err, oaserrors.ErrConfig)
	_, err = New(cache, WithMaxRefDepth(-1))
	assert.ErrorIs(t, err, oaserrors.ErrConfig)
}

func TestResolveLocation(t *testing.T) {
	tests := []struct {
		current, part, want string
	}{
		{"/spec/paths/a.yaml", "./other.yaml", "/spec/paths/other.yaml"},
		{"/spec/paths/a.yaml", "../common.yaml", "/spec/common.yaml"},
		{"/spec/a.yaml", "/abs/b.yaml", "/abs/b.yaml"},
		{"/spec/a.yaml", "https://x.test/b.yaml", "https://x.test/b.yaml"},
		{"https://x.test/api/a.yaml", "b.yaml", "https://x.test/api/b.yaml"},
		{"https://x.test/api/a.yaml", "../c.yaml", "https://x.test/c.yaml"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, resolveLocation(tt.current, tt.part), tt.part)
	}
}

func TestLookup(t *testing.T) {
	root, err := parser.Decode([]byte(`{"a": {"b": [10, {"c": "x"}], "200": "ok"}}`))
	require.NoError(t, err)

	v, ok := lookup(root, []string{"a", "b", "1", "c"})
	assert.True(t, ok)
	assert.Equal(t, "x", v)

	v, ok = lookup(root, []string{"a", "200"})
	assert.True(t, ok)
	assert.Equal(t, "ok", v)

	_, ok = lookup(root, []string{"a", "b", "5"})
	assert.False(t, ok)
	_, ok = lookup(root, []string{"a", "b", "x"})
	assert.False(t, ok)
	_, ok = lookup(root, []string{"a", "200", "deeper"})
	assert.False(t, ok)

	v, ok = lookup(root, nil)
	assert.True(t, ok)
	assert.Same(t, root, v)
}
