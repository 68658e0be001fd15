package collector

import (
	"context"
	"slices"
	"strings"

	"github.com/speakeasy-api/openapi/sequencedmap"

	"github.com/erraggy/oasgraph/deref"
	"github.com/erraggy/oasgraph/internal/httputil"
	"github.com/erraggy/oasgraph/internal/pathutil"
	"github.com/erraggy/oasgraph/parser"
	"github.com/erraggy/oasgraph/refchain"
)

// Kind identifies the table an entry belongs to.
type Kind string

// Entry kinds.
const (
	KindSchema      Kind = "schema"
	KindParameter   Kind = "parameter"
	KindRequestBody Kind = "requestBody"
	KindResponse    Kind = "response"
	KindHeader      Kind = "header"
	KindPathItem    Kind = "pathItem"
	KindOperation   Kind = "operation"
)

// componentKinds maps an entry kind to the component section declaring it.
var componentKinds = map[Kind]string{
	KindSchema:      pathutil.KindSchemas,
	KindParameter:   pathutil.KindParameters,
	KindRequestBody: pathutil.KindRequestBodies,
	KindResponse:    pathutil.KindResponses,
	KindHeader:      pathutil.KindHeaders,
	KindPathItem:    pathutil.KindPathItems,
}

// Methods lists the operation keys of a path item in the order they are
// recognized.
var Methods = []string{
	httputil.MethodGet,
	httputil.MethodPut,
	httputil.MethodPost,
	httputil.MethodDelete,
	httputil.MethodOptions,
	httputil.MethodHead,
	httputil.MethodPatch,
	httputil.MethodTrace,
}

// Entry is one distinct object found during collection.
type Entry struct {
	// Key is the identity of Node.
	Key string
	// Node is the canonical node: alias references are already collapsed.
	Node *deref.Node
	// Site is the node through which the entry was first reached. It equals
	// Node unless the entry was first reached through an alias.
	Site *deref.Node
	Kind Kind
	// Name is the declared component name, or "" for inline objects.
	Name string

	// Method, PathPattern and PathItem are set for operations. PathPattern
	// is also set on path items reached from paths or webhooks.
	Method      string
	PathPattern string
	PathItem    *Entry
	// Webhook is true for path items and operations under "webhooks".
	Webhook bool
	// Document is the root of the entry document the walk started from.
	Document *deref.Node
}

// Version returns the version of the document declaring the entry.
func (e *Entry) Version() parser.OASVersion {
	return e.Node.Src.Version
}

// Table holds the entries of one kind in discovery order.
type Table struct {
	entries *sequencedmap.Map[string, *Entry]
}

func newTable() *Table {
	return &Table{entries: sequencedmap.New[string, *Entry]()}
}

// Get returns the entry with the given key.
func (t *Table) Get(key string) (*Entry, bool) {
	return t.entries.Get(key)
}

// Len returns the number of entries.
func (t *Table) Len() int {
	return t.entries.Len()
}

// Entries returns the entries in discovery order.
func (t *Table) Entries() []*Entry {
	return slices.Collect(t.entries.Values())
}

func (t *Table) add(e *Entry) {
	t.entries.Set(e.Key, e)
}

// Index is the result of a collection pass.
type Index struct {
	Schemas       *Table
	Parameters    *Table
	RequestBodies *Table
	Responses     *Table
	Headers       *Table
	PathItems     *Table
	Operations    *Table

	// Documents are the roots passed to Collect, in order.
	Documents []*deref.Node
	// Tags maps declared tag names to their descriptions, in declaration
	// order. The first declaration of a name wins.
	Tags *sequencedmap.Map[string, string]
}

func newIndex() *Index {
	return &Index{
		Schemas:       newTable(),
		Parameters:    newTable(),
		RequestBodies: newTable(),
		Responses:     newTable(),
		Headers:       newTable(),
		PathItems:     newTable(),
		Operations:    newTable(),
		Tags:          sequencedmap.New[string, string](),
	}
}

// Table returns the table for kind.
func (x *Index) Table(kind Kind) *Table {
	switch kind {
	case KindSchema:
		return x.Schemas
	case KindParameter:
		return x.Parameters
	case KindRequestBody:
		return x.RequestBodies
	case KindResponse:
		return x.Responses
	case KindHeader:
		return x.Headers
	case KindPathItem:
		return x.PathItems
	case KindOperation:
		return x.Operations
	}
	return nil
}

// Lookup returns the entry n coalesces into.
func (x *Index) Lookup(kind Kind, n *deref.Node) (*Entry, bool) {
	t := x.Table(kind)
	if t == nil || n == nil {
		return nil, false
	}
	return t.Get(refchain.Canonical(n).Key())
}

// Len returns the total number of entries.
func (x *Index) Len() int {
	return x.Schemas.Len() + x.Parameters.Len() + x.RequestBodies.Len() +
		x.Responses.Len() + x.Headers.Len() + x.PathItems.Len() + x.Operations.Len()
}

// Option configures Collect.
type Option func(*collector)

// WithLogger sets the logger.
func WithLogger(l parser.Logger) Option {
	return func(c *collector) {
		c.logger = l
	}
}

type collector struct {
	ctx    context.Context
	logger parser.Logger
	index  *Index
	doc    *deref.Node
}

// Collect walks the dereferenced documents in order and indexes every
// distinct object that can define a reusable component. Objects reached
// through several paths are indexed once, under the identity of their
// canonical node.
//
// Each document is visited as paths, webhooks, then components (3.x) or
// definitions, parameters and responses (2.0), in document order. The only
// error is ctx's.
func Collect(ctx context.Context, roots []*deref.Node, opts ...Option) (*Index, error) {
	c := &collector{ctx: ctx, index: newIndex()}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = parser.OrNop(c.logger)

	for _, root := range roots {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if root == nil {
			continue
		}
		c.index.Documents = append(c.index.Documents, root)
		c.document(root)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.logger.Debug("collected",
		"schemas", c.index.Schemas.Len(),
		"operations", c.index.Operations.Len(),
		"entries", c.index.Len())
	return c.index, nil
}

func (c *collector) document(root *deref.Node) {
	c.doc = root

	for _, tag := range root.Nodes("tags") {
		name := tag.String("name")
		if name != "" && !c.index.Tags.Has(name) {
			c.index.Tags.Set(name, tag.String("description"))
		}
	}

	if paths := root.Node("paths"); paths != nil {
		for pattern, v := range paths.Fields() {
			if item, ok := v.(*deref.Node); ok && !isExtension(pattern) {
				c.pathItem(item, pattern, false)
			}
		}
	}
	if hooks := root.Node("webhooks"); hooks != nil {
		for name, v := range hooks.Fields() {
			if item, ok := v.(*deref.Node); ok && !isExtension(name) {
				c.pathItem(item, name, true)
			}
		}
	}

	if comps := root.Node("components"); comps != nil {
		c.section(comps.Node(pathutil.KindSchemas), c.schema)
		c.section(comps.Node(pathutil.KindParameters), c.parameter)
		c.section(comps.Node(pathutil.KindRequestBodies), c.requestBody)
		c.section(comps.Node(pathutil.KindResponses), c.response)
		c.section(comps.Node(pathutil.KindHeaders), c.header)
		c.section(comps.Node(pathutil.KindPathItems), func(n *deref.Node) {
			c.pathItem(n, "", false)
		})
	}
	if root.Src.Version.IsOAS2() {
		c.section(root.Node("definitions"), c.schema)
		c.section(root.Node("parameters"), c.parameter)
		c.section(root.Node("responses"), c.response)
	}
}

func (c *collector) section(n *deref.Node, visit func(*deref.Node)) {
	if n == nil {
		return
	}
	for name, v := range n.Fields() {
		if child, ok := v.(*deref.Node); ok && !isExtension(name) {
			visit(child)
		}
	}
}

// register adds the canonical node of site to the table for kind. It returns
// nil when the node was already indexed.
func (c *collector) register(kind Kind, site *deref.Node) *Entry {
	if c.ctx.Err() != nil {
		return nil
	}
	node := refchain.Canonical(site)
	t := c.index.Table(kind)
	key := node.Key()
	if _, ok := t.Get(key); ok {
		return nil
	}
	e := &Entry{
		Key:      key,
		Node:     node,
		Site:     site,
		Kind:     kind,
		Name:     declaredName(kind, site, node),
		Document: c.doc,
	}
	t.add(e)
	return e
}

// declaredName returns the component name of node, or failing that of the
// first alias on the way to it.
func declaredName(kind Kind, site, node *deref.Node) string {
	want := componentKinds[kind]
	if want == "" {
		return ""
	}
	name := func(n *deref.Node) string {
		if k, name, ok := pathutil.Component(n.Src.Path); ok && k == want {
			return name
		}
		return ""
	}
	if s := name(node); s != "" {
		return s
	}
	visited := make(map[*deref.Node]bool)
	for cur := site; cur != nil && cur != node && !visited[cur]; cur = cur.Target() {
		visited[cur] = true
		if s := name(cur); s != "" {
			return s
		}
	}
	return ""
}

func (c *collector) pathItem(site *deref.Node, pattern string, webhook bool) {
	e := c.register(KindPathItem, site)
	if e == nil {
		return
	}
	e.PathPattern = pattern
	e.Webhook = webhook
	n := e.Node

	for _, p := range n.Nodes("parameters") {
		c.parameter(p)
	}
	if pattern == "" && !webhook {
		// Operations of unreferenced component path items have no path.
		return
	}
	for _, method := range Methods {
		if op := n.Node(method); op != nil {
			c.operation(op, method, e)
		}
	}
}

func (c *collector) operation(site *deref.Node, method string, item *Entry) {
	e := c.register(KindOperation, site)
	if e == nil {
		return
	}
	e.Method = method
	e.PathPattern = item.PathPattern
	e.PathItem = item
	e.Webhook = item.Webhook
	n := e.Node

	for _, p := range n.Nodes("parameters") {
		c.parameter(p)
	}
	if body := n.Node("requestBody"); body != nil {
		c.requestBody(body)
	}
	if responses := n.Node("responses"); responses != nil {
		c.section(responses, c.response)
	}
}

func (c *collector) parameter(site *deref.Node) {
	e := c.register(KindParameter, site)
	if e == nil {
		return
	}
	c.schemaAt(e.Node, "schema")
	c.content(e.Node)
}

func (c *collector) requestBody(site *deref.Node) {
	e := c.register(KindRequestBody, site)
	if e == nil {
		return
	}
	c.content(e.Node)
}

func (c *collector) response(site *deref.Node) {
	e := c.register(KindResponse, site)
	if e == nil {
		return
	}
	c.section(e.Node.Node("headers"), c.header)
	c.content(e.Node)
	c.schemaAt(e.Node, "schema")
}

func (c *collector) header(site *deref.Node) {
	e := c.register(KindHeader, site)
	if e == nil {
		return
	}
	c.schemaAt(e.Node, "schema")
	c.content(e.Node)
}

// content visits the schemas of the media types under n's "content".
func (c *collector) content(n *deref.Node) {
	c.section(n.Node("content"), func(media *deref.Node) {
		c.schemaAt(media, "schema")
	})
}

func (c *collector) schemaAt(n *deref.Node, key string) {
	if s := n.Node(key); s != nil {
		c.schema(s)
	}
}

// schema visits a schema and every schema nested in it.
func (c *collector) schema(site *deref.Node) {
	e := c.register(KindSchema, site)
	if e == nil {
		return
	}
	n := e.Node

	c.section(n.Node("properties"), c.schema)
	if items := n.Node("items"); items != nil {
		c.schema(items)
	} else {
		for _, item := range n.Nodes("items") {
			c.schema(item)
		}
	}
	for _, item := range n.Nodes("prefixItems") {
		c.schema(item)
	}
	for _, key := range []string{"allOf", "anyOf", "oneOf"} {
		for _, member := range n.Nodes(key) {
			c.schema(member)
		}
	}
	c.schemaAt(n, "not")
	c.schemaAt(n, "additionalProperties")
	c.section(n.Node("$defs"), c.schema)
}

func isExtension(key string) bool {
	return strings.HasPrefix(key, "x-")
}
