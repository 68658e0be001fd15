package collector

import (
	"context"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erraggy/oasgraph/deref"
	"github.com/erraggy/oasgraph/parser"
)

// dereference loads files from an in-memory file system and dereferences
// the given entry documents.
func dereference(t *testing.T, files map[string]string, entries ...string) []*deref.Node {
	t.Helper()
	fsys := fstest.MapFS{}
	for name, data := range files {
		fsys[strings.TrimPrefix(name, "/")] = &fstest.MapFile{Data: []byte(data)}
	}
	cache, err := parser.NewCache(parser.WithFileSystem(parser.FromFS(fsys)))
	require.NoError(t, err)
	d, err := deref.New(cache)
	require.NoError(t, err)
	roots, err := d.DereferenceAll(context.Background(), entries)
	require.NoError(t, err)
	return roots
}

func keys(t *Table) []string {
	var out []string
	for _, e := range t.Entries() {
		out = append(out, e.Key)
	}
	return out
}

const petstore = `
openapi: 3.0.3
info: {title: pets, version: "1"}
tags:
  - {name: pets, description: Pet operations}
  - {name: pets, description: duplicate}
paths:
  /pets:
    parameters:
      - $ref: '#/components/parameters/Limit'
    post:
      requestBody:
        content:
          application/json:
            schema: {$ref: '#/components/schemas/Pet'}
      responses:
        "201": {$ref: '#/components/responses/Created'}
    get:
      tags: [pets]
      responses:
        "200":
          description: ok
          content:
            application/json:
              schema:
                $ref: '#/components/schemas/Pet'
                description: listed pet
components:
  schemas:
    Pet:
      type: object
      properties:
        owner: {$ref: '#/components/schemas/Owner'}
        tags:
          type: array
          items: {type: string}
    Owner:
      type: object
      properties:
        name: {type: string}
  parameters:
    Limit: {name: limit, in: query, schema: {type: integer}}
  responses:
    Created:
      description: created
      headers:
        Location: {schema: {type: string}}
`

func TestCollectPetstore(t *testing.T) {
	roots := dereference(t, map[string]string{"/api/openapi.yaml": petstore}, "/api/openapi.yaml")

	index, err := Collect(context.Background(), roots)
	require.NoError(t, err)

	const f = "/api/openapi.yaml#"
	assert.Equal(t, []string{
		f + "/components/parameters/Limit/schema",
		f + "/components/schemas/Pet",
		f + "/components/schemas/Owner",
		f + "/components/schemas/Owner/properties/name",
		f + "/components/schemas/Pet/properties/tags",
		f + "/components/schemas/Pet/properties/tags/items",
		f + "/components/responses/Created/headers/Location/schema",
	}, keys(index.Schemas))

	// get is listed before post regardless of document order
	assert.Equal(t, []string{
		f + "/paths/~1pets/get",
		f + "/paths/~1pets/post",
	}, keys(index.Operations))
	get, ok := index.Operations.Get(f + "/paths/~1pets/get")
	require.True(t, ok)
	assert.Equal(t, "get", get.Method)
	assert.Equal(t, "/pets", get.PathPattern)
	require.NotNil(t, get.PathItem)
	assert.Equal(t, f+"/paths/~1pets", get.PathItem.Key)
	assert.Same(t, roots[0], get.Document)

	assert.Equal(t, []string{f + "/components/parameters/Limit"}, keys(index.Parameters))
	limit, _ := index.Parameters.Get(f + "/components/parameters/Limit")
	assert.Equal(t, "Limit", limit.Name)
	assert.True(t, limit.Site.IsReference())

	assert.Equal(t, []string{
		f + "/paths/~1pets/get/responses/200",
		f + "/components/responses/Created",
	}, keys(index.Responses))
	assert.Equal(t, 1, index.RequestBodies.Len())
	assert.Equal(t, []string{f + "/components/responses/Created/headers/Location"}, keys(index.Headers))
	assert.Equal(t, 1, index.PathItems.Len())

	assert.Equal(t, 1, index.Tags.Len())
	assert.Equal(t, "Pet operations", index.Tags.GetOrZero("pets"))
	assert.Equal(t, 7+2+1+2+1+1+1, index.Len())
}

func TestCollectDeduplicatesAliases(t *testing.T) {
	roots := dereference(t, map[string]string{"/api/openapi.yaml": petstore}, "/api/openapi.yaml")
	index, err := Collect(context.Background(), roots)
	require.NoError(t, err)

	root := roots[0]
	listed := root.Node("paths").Node("/pets").Node("get").Node("responses").Node("200").
		Node("content").Node("application/json").Node("schema")
	posted := root.Node("paths").Node("/pets").Node("post").Node("requestBody").
		Node("content").Node("application/json").Node("schema")

	a, ok := index.Lookup(KindSchema, listed)
	require.True(t, ok)
	b, ok := index.Lookup(KindSchema, posted)
	require.True(t, ok)
	assert.Same(t, a, b)
	assert.Equal(t, "Pet", a.Name)
	assert.Same(t, listed, a.Site)
	assert.Equal(t, "/components/schemas/Pet", a.Node.Src.Path)
	assert.Equal(t, parser.OASVersion30, a.Version())
}

func TestCollectAcrossFilesAndDocuments(t *testing.T) {
	files := map[string]string{
		"/spec/main.yaml": `
openapi: 3.1.0
paths:
  /pets:
    get:
      responses:
        "200":
          description: ok
          content:
            application/json:
              schema: {$ref: '#/components/schemas/Pet'}
components:
  schemas:
    Pet: {$ref: './common.yaml#/Pet'}
`,
		"/spec/admin.yaml": `
openapi: 3.1.0
paths:
  /admin/pets:
    get:
      responses:
        "200":
          description: ok
          content:
            application/json:
              schema: {$ref: './common.yaml#/Pet'}
`,
		"/spec/common.yaml": `
Pet:
  type: object
  properties:
    name: {type: string}
`,
	}
	roots := dereference(t, files, "/spec/main.yaml", "/spec/admin.yaml")

	index, err := Collect(context.Background(), roots)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"/spec/common.yaml#/Pet",
		"/spec/common.yaml#/Pet/properties/name",
	}, keys(index.Schemas))
	pet, _ := index.Schemas.Get("/spec/common.yaml#/Pet")
	assert.Equal(t, "Pet", pet.Name, "the declared alias names the shared schema")
	assert.Equal(t, parser.OASVersion31, pet.Version(), "fragments take the referencing version")
	assert.Equal(t, 2, index.Operations.Len())
	assert.Len(t, index.Documents, 2)
}

func TestCollectRecursiveSchemas(t *testing.T) {
	roots := dereference(t, map[string]string{"/t.yaml": `
openapi: 3.0.0
components:
  schemas:
    Node:
      type: object
      properties:
        children:
          type: array
          items: {$ref: '#/components/schemas/Node'}
        next: {$ref: '#/components/schemas/Node'}
`}, "/t.yaml")

	index, err := Collect(context.Background(), roots)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"/t.yaml#/components/schemas/Node",
		"/t.yaml#/components/schemas/Node/properties/children",
	}, keys(index.Schemas))
}

func TestCollectCompositionAndNesting(t *testing.T) {
	roots := dereference(t, map[string]string{"/t.yaml": `
openapi: 3.1.0
components:
  schemas:
    S:
      allOf:
        - {type: object, properties: {a: {type: string}}}
      anyOf:
        - {type: object}
      oneOf:
        - {type: string}
      not: {type: integer}
      additionalProperties: {type: number}
      prefixItems:
        - {type: boolean}
      $defs:
        Inner: {type: "null"}
`}, "/t.yaml")

	index, err := Collect(context.Background(), roots)
	require.NoError(t, err)

	const s = "/t.yaml#/components/schemas/S"
	assert.Equal(t, []string{
		s,
		s + "/prefixItems/0",
		s + "/allOf/0",
		s + "/allOf/0/properties/a",
		s + "/anyOf/0",
		s + "/oneOf/0",
		s + "/not",
		s + "/additionalProperties",
		s + "/$defs/Inner",
	}, keys(index.Schemas))
}

func TestCollectOAS2(t *testing.T) {
	roots := dereference(t, map[string]string{"/swagger.yaml": `
swagger: "2.0"
info: {title: pets, version: "1"}
paths:
  /pets:
    post:
      parameters:
        - {name: body, in: body, schema: {$ref: '#/definitions/Pet'}}
        - $ref: '#/parameters/Trace'
      responses:
        "200":
          description: ok
          schema: {$ref: '#/definitions/Pet'}
        default: {$ref: '#/responses/Error'}
definitions:
  Pet: {type: object}
  Unused: {type: string}
parameters:
  Trace: {name: X-Trace, in: header, type: string}
responses:
  Error: {description: failed, schema: {type: string}}
`}, "/swagger.yaml")

	index, err := Collect(context.Background(), roots)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"/swagger.yaml#/definitions/Pet",
		"/swagger.yaml#/responses/Error/schema",
		"/swagger.yaml#/definitions/Unused",
	}, keys(index.Schemas))
	trace, ok := index.Parameters.Get("/swagger.yaml#/parameters/Trace")
	require.True(t, ok)
	assert.Equal(t, "Trace", trace.Name)
	errResp, ok := index.Responses.Get("/swagger.yaml#/responses/Error")
	require.True(t, ok)
	assert.Equal(t, "Error", errResp.Name)
	assert.Equal(t, 2, index.Parameters.Len())
}

func TestCollectWebhooksAndComponentPathItems(t *testing.T) {
	roots := dereference(t, map[string]string{"/t.yaml": `
openapi: 3.1.0
webhooks:
  newPet:
    post:
      requestBody:
        content:
          application/json:
            schema: {type: object}
      responses:
        "200": {description: ok}
components:
  pathItems:
    Orphan:
      get:
        responses:
          "200": {description: ok}
`}, "/t.yaml")

	index, err := Collect(context.Background(), roots)
	require.NoError(t, err)

	require.Equal(t, 1, index.Operations.Len())
	op := index.Operations.Entries()[0]
	assert.True(t, op.Webhook)
	assert.Equal(t, "newPet", op.PathPattern)
	assert.Equal(t, "post", op.Method)

	assert.Equal(t, 2, index.PathItems.Len())
	orphan, ok := index.PathItems.Get("/t.yaml#/components/pathItems/Orphan")
	require.True(t, ok)
	assert.Equal(t, "Orphan", orphan.Name)
	assert.Empty(t, orphan.PathPattern)
}

func TestCollectBrokenReference(t *testing.T) {
	roots := dereference(t, map[string]string{"/t.yaml": `
openapi: 3.0.0
components:
  schemas:
    Broken: {$ref: '#/components/schemas/Missing'}
`}, "/t.yaml")

	index, err := Collect(context.Background(), roots)
	require.NoError(t, err)
	require.Equal(t, 1, index.Schemas.Len())
	e := index.Schemas.Entries()[0]
	assert.True(t, e.Node.IsBroken())
	assert.Equal(t, "Broken", e.Name)
}

func TestCollectCanceled(t *testing.T) {
	roots := dereference(t, map[string]string{"/api/openapi.yaml": petstore}, "/api/openapi.yaml")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Collect(ctx, roots)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestIndexTable(t *testing.T) {
	x := newIndex()
	for _, k := range []Kind{KindSchema, KindParameter, KindRequestBody, KindResponse, KindHeader, KindPathItem, KindOperation} {
		assert.NotNil(t, x.Table(k), k)
	}
	assert.Nil(t, x.Table("bogus"))
	_, ok := x.Lookup("bogus", nil)
	assert.False(t, ok)
}
