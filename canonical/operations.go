package canonical

import (
	"slices"
	"strings"

	"github.com/speakeasy-api/openapi/sequencedmap"

	"github.com/erraggy/oasgraph/collector"
	"github.com/erraggy/oasgraph/deref"
	"github.com/erraggy/oasgraph/internal/httputil"
	"github.com/erraggy/oasgraph/internal/naming"
	"github.com/erraggy/oasgraph/internal/pathutil"
	"github.com/erraggy/oasgraph/model"
)

// defaultMediaTypes apply to OAS 2.0 documents that declare neither
// consumes nor produces.
var defaultMediaTypes = []string{"application/json"}

const (
	mediaFormURLEncoded = "application/x-www-form-urlencoded"
	mediaMultipart      = "multipart/form-data"
)

func (b *builder) endpoint(e *collector.Entry) {
	op := e.Node
	oas2 := op.Src.Version.IsOAS2()

	ep := &model.Endpoint{
		ID:          e.Key,
		Method:      strings.ToUpper(e.Method),
		Path:        e.PathPattern,
		OperationID: op.String("operationId"),
		Summary:     op.String("summary"),
		Description: op.String("description"),
		Responses:   sequencedmap.New[string, *model.Response](),
		Tags:        op.Strings("tags"),
		Webhook:     e.Webhook,
		Extensions:  op.Extensions(),
		Source:      source(e.Site, op),
	}
	ep.Deprecated, _ = op.Bool("deprecated")

	var inherited []*deref.Node
	if e.PathItem != nil {
		ep.PathItem = b.pathItemFor(e.PathItem)
		inherited = e.PathItem.Node.Nodes("parameters")
	}

	consumes := mediaTypes(op, e.Document, "consumes")
	var form []*deref.Node
	for _, p := range mergeParameters(inherited, op.Nodes("parameters")) {
		switch in := p.String("in"); {
		case oas2 && in == "body":
			ep.RequestBody = b.bodyParameter(p, consumes)
		case oas2 && in == "formData":
			form = append(form, p)
		default:
			ep.Parameters = append(ep.Parameters, b.parameterFor(p))
		}
	}
	if len(form) > 0 && ep.RequestBody == nil {
		ep.RequestBody = b.formBody(ep, op, form, consumes)
	}
	if body := op.Node("requestBody"); body != nil && !oas2 {
		ep.RequestBody = b.requestBodyFor(body)
	}

	if responses := op.Node("responses"); responses != nil {
		produces := mediaTypes(op, e.Document, "produces")
		for code, v := range responses.Fields() {
			r, ok := v.(*deref.Node)
			if !ok || strings.HasPrefix(code, "x-") || ep.Responses.Has(code) {
				continue
			}
			if !httputil.IsResponseKey(code) {
				b.logger.Debug("skipping response with invalid status code", "operation", e.Key, "code", code)
				continue
			}
			ep.Responses.Set(code, b.responseFor(r, produces))
		}
	}
	b.endpoints = append(b.endpoints, ep)
}

// mergeParameters overlays operation parameters onto the inherited path-item
// ones. An operation parameter replaces the inherited parameter with the same
// name and location in place; the others follow in order.
func mergeParameters(inherited, own []*deref.Node) []*deref.Node {
	id := func(p *deref.Node) string {
		return p.String("in") + "\x00" + p.String("name")
	}
	out := slices.Clone(inherited)
	for _, p := range own {
		i := slices.IndexFunc(out, func(q *deref.Node) bool { return id(q) == id(p) })
		if i >= 0 {
			out[i] = p
			continue
		}
		out = append(out, p)
	}
	return out
}

// mediaTypes returns the OAS 2.0 consumes or produces list of op, falling
// back to the document's, then to application/json.
func mediaTypes(op, doc *deref.Node, key string) []string {
	if v := op.Strings(key); len(v) > 0 {
		return v
	}
	if doc != nil {
		if v := doc.Strings(key); len(v) > 0 {
			return v
		}
	}
	return defaultMediaTypes
}

func (b *builder) pathItemFor(e *collector.Entry) *model.PathItem {
	if item, ok := b.pathItems[e.Key]; ok {
		return item
	}
	n := e.Node
	item := &model.PathItem{
		ID:          e.Key,
		Path:        e.PathPattern,
		Summary:     n.String("summary"),
		Description: n.String("description"),
		Extensions:  n.Extensions(),
		Source:      source(e.Site, n),
	}
	b.pathItems[e.Key] = item
	oas2 := n.Src.Version.IsOAS2()
	for _, p := range n.Nodes("parameters") {
		if in := p.String("in"); oas2 && (in == "body" || in == "formData") {
			continue
		}
		item.Parameters = append(item.Parameters, b.parameterFor(p))
	}
	return item
}

func (b *builder) parameterFor(n *deref.Node) *model.Parameter {
	c, key := canonicalKey(n)
	if p, ok := b.params[key]; ok {
		return p
	}
	p := &model.Parameter{
		ID:          key,
		Name:        c.String("name"),
		In:          c.String("in"),
		Description: n.String("description"),
		Style:       c.String("style"),
		Extensions:  c.Extensions(),
		Source:      source(n, c),
	}
	b.params[key] = p
	p.Required, _ = c.Bool("required")
	p.Deprecated, _ = c.Bool("deprecated")
	if explode, ok := c.Bool("explode"); ok {
		p.Explode = &explode
	}
	p.Schema = b.valueSchema(c)
	p.Content = b.contents(c)
	return p
}

// valueSchema returns the schema of a parameter or header: its "schema"
// keyword, or for OAS 2.0 the schema keywords written on it directly.
func (b *builder) valueSchema(n *deref.Node) *model.Schema {
	if s := n.Node("schema"); s != nil {
		return b.schemaFor(s)
	}
	if n.Src.Version.IsOAS2() && n.Has("type") {
		return b.inlineSchema(n)
	}
	return nil
}

func (b *builder) requestBodyFor(n *deref.Node) *model.RequestBody {
	c, key := canonicalKey(n)
	if body, ok := b.bodies[key]; ok {
		return body
	}
	body := &model.RequestBody{
		ID:          key,
		Description: n.String("description"),
		Extensions:  c.Extensions(),
		Source:      source(n, c),
	}
	b.bodies[key] = body
	body.Required, _ = c.Bool("required")
	body.Contents = b.contents(c)
	return body
}

// bodyParameter converts an OAS 2.0 body parameter into a request body with
// one content entry per consumed media type.
func (b *builder) bodyParameter(n *deref.Node, consumes []string) *model.RequestBody {
	c, key := canonicalKey(n)
	if body, ok := b.bodies[key]; ok {
		return body
	}
	body := &model.RequestBody{
		ID:          key,
		Description: n.String("description"),
		Extensions:  c.Extensions(),
		Source:      source(n, c),
	}
	b.bodies[key] = body
	body.Required, _ = c.Bool("required")
	schema := b.schemaFor(c.Node("schema"))
	for _, mt := range consumes {
		body.Contents = append(body.Contents, &model.Content{MediaType: mt, Schema: schema})
	}
	return body
}

// formBody gathers OAS 2.0 formData parameters into a synthetic object
// schema carried by a synthetic request body.
func (b *builder) formBody(ep *model.Endpoint, op *deref.Node, form []*deref.Node, consumes []string) *model.RequestBody {
	obj := model.NewObjectVariant()
	required := model.NewStringSet()
	multipart := false
	for _, p := range form {
		name := p.String("name")
		if name == "" || obj.Properties.Has(name) {
			continue
		}
		obj.Properties.Set(name, b.inlineSchema(p))
		if req, _ := p.Bool("required"); req {
			required.Add(name)
		}
		if p.String("type") == "file" {
			multipart = true
		}
	}

	base := naming.ToPascalCase(ep.OperationID)
	if base == "" {
		base = naming.FromPointerSegments(pathutil.Split(op.Src.Path))
	}
	schema := &model.Schema{
		ID:              b.ids.Next(model.KindObject),
		Name:            b.names.Claim(base + "Form"),
		IsNameGenerated: true,
		Synthetic:       true,
		Accessibility:   model.AccessAll,
		Required:        required,
		Extensions:      sequencedmap.New[string, any](),
		Source:          ep.Source,
		Variant:         obj,
	}
	b.order = append(b.order, schema)

	var media []string
	for _, mt := range consumes {
		if mt == mediaFormURLEncoded || mt == mediaMultipart {
			media = append(media, mt)
		}
	}
	if len(media) == 0 {
		media = []string{mediaFormURLEncoded}
		if multipart {
			media = []string{mediaMultipart}
		}
	}

	body := &model.RequestBody{
		ID:         b.ids.Next("requestBody"),
		Required:   required.Len() > 0,
		Extensions: sequencedmap.New[string, any](),
		Source:     ep.Source,
	}
	for _, mt := range media {
		body.Contents = append(body.Contents, &model.Content{MediaType: mt, Schema: schema})
	}
	return body
}

func (b *builder) responseFor(n *deref.Node, produces []string) *model.Response {
	c, key := canonicalKey(n)
	if r, ok := b.responses[key]; ok {
		return r
	}
	r := &model.Response{
		ID:          key,
		Description: n.String("description"),
		Headers:     sequencedmap.New[string, *model.Header](),
		Extensions:  c.Extensions(),
		Source:      source(n, c),
	}
	b.responses[key] = r
	if headers := c.Node("headers"); headers != nil {
		for name, v := range headers.Fields() {
			if h, ok := v.(*deref.Node); ok && !r.Headers.Has(name) {
				r.Headers.Set(name, b.headerFor(h))
			}
		}
	}
	r.Contents = b.contents(c)
	if s := c.Node("schema"); s != nil && c.Src.Version.IsOAS2() {
		schema := b.schemaFor(s)
		for _, mt := range produces {
			r.Contents = append(r.Contents, &model.Content{MediaType: mt, Schema: schema})
		}
	}
	return r
}

func (b *builder) headerFor(n *deref.Node) *model.Header {
	c, key := canonicalKey(n)
	if h, ok := b.headers[key]; ok {
		return h
	}
	h := &model.Header{
		ID:          key,
		Description: n.String("description"),
		Extensions:  c.Extensions(),
		Source:      source(n, c),
	}
	b.headers[key] = h
	h.Required, _ = c.Bool("required")
	h.Deprecated, _ = c.Bool("deprecated")
	h.Schema = b.valueSchema(c)
	return h
}

// contents converts the "content" map of n.
func (b *builder) contents(n *deref.Node) []*model.Content {
	content := n.Node("content")
	if content == nil {
		return nil
	}
	var out []*model.Content
	for mt, v := range content.Fields() {
		media, ok := v.(*deref.Node)
		if !ok || strings.HasPrefix(mt, "x-") {
			continue
		}
		if !httputil.IsMediaType(mt) {
			b.logger.Debug("skipping content with invalid media type", "location", content.Key(), "mediaType", mt)
			continue
		}
		out = append(out, &model.Content{MediaType: mt, Schema: b.schemaFor(media.Node("schema"))})
	}
	return out
}
