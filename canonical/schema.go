package canonical

import (
	"github.com/speakeasy-api/openapi/sequencedmap"

	"github.com/erraggy/oasgraph/deref"
	"github.com/erraggy/oasgraph/model"
)

var primitiveKinds = map[string]model.Kind{
	"string":  model.KindString,
	"number":  model.KindNumber,
	"integer": model.KindInteger,
	"boolean": model.KindBoolean,
}

// schemaFor returns the schema for n, building it on first use. The schema
// is registered before its fields are filled, so recursive references get
// the same pointer.
func (b *builder) schemaFor(n *deref.Node) *model.Schema {
	if n == nil {
		return nil
	}
	c, key := canonicalKey(n)
	if s, ok := b.schemas[key]; ok {
		return s
	}

	name, named := b.declared[key]
	if !named {
		name = b.names.Claim(generatedName(c))
	}
	site := b.sites[key]
	if site == nil {
		site = n
	}

	s := &model.Schema{
		ID:              key,
		Name:            name,
		IsNameGenerated: !b.isDeclared(key),
		Source:          source(site, c),
	}
	b.schemas[key] = s
	b.order = append(b.order, s)
	b.fillSchema(s, c)
	if site != c {
		s.Description = site.String("description")
	}
	return s
}

// isDeclared reports whether the collected schema with key kept its
// declared name.
func (b *builder) isDeclared(key string) bool {
	e, ok := b.index.Schemas.Get(key)
	return ok && e.Name != "" && e.Name == b.declared[key]
}

// inlineSchema builds a schema from the schema keywords written directly on
// n, as OAS 2.0 does for non-body parameters, headers and items. It is
// identified by n's location plus "/schema".
func (b *builder) inlineSchema(n *deref.Node) *model.Schema {
	key := n.Key() + "/schema"
	if s, ok := b.schemas[key]; ok {
		return s
	}
	s := &model.Schema{
		ID:              key,
		Name:            b.names.Claim(generatedName(n) + "Schema"),
		IsNameGenerated: true,
		Source:          model.Source{File: n.Src.File, Path: n.Src.Path},
	}
	b.schemas[key] = s
	b.order = append(b.order, s)
	b.fillSchema(s, n)
	if n.String("type") == "file" {
		s.Format = "binary"
		s.Variant = &model.StringVariant{}
	}
	s.Description = ""
	s.Deprecated = false
	s.Required = model.NewStringSet()
	s.Extensions = sequencedmap.New[string, any]()
	return s
}

func (b *builder) fillSchema(s *model.Schema, n *deref.Node) {
	s.Title = n.String("title")
	s.Description = n.String("description")
	s.Deprecated, _ = n.Bool("deprecated")
	readOnly, _ := n.Bool("readOnly")
	writeOnly, _ := n.Bool("writeOnly")
	s.Accessibility = model.AccessibilityOf(readOnly, writeOnly)
	if enum := n.Array("enum"); enum != nil {
		s.Enum = make([]any, len(enum))
		for i, v := range enum {
			s.Enum[i] = deref.Plain(v)
		}
	}
	if v, ok := n.Get("const"); ok {
		s.Const, s.HasConst = deref.Plain(v), true
	}
	if v, ok := n.Get("default"); ok {
		s.Default, s.HasDefault = deref.Plain(v), true
	}
	s.Format = n.String("format")
	nullable, _ := n.Bool("nullable")
	xNullable, _ := n.Bool("x-nullable")
	s.Nullable = nullable || xNullable
	s.Required = model.NewStringSet(n.Strings("required")...)
	s.Extensions = n.Extensions()

	types, hasNull := schemaTypes(n)
	if hasNull {
		s.Nullable = true
	}
	s.Variant = b.variant(n, types, hasNull)
}

// schemaTypes returns the non-null entries of "type" and whether "null" was
// among them.
func schemaTypes(n *deref.Node) (types []string, hasNull bool) {
	v, _ := n.Get("type")
	var all []string
	switch t := v.(type) {
	case string:
		all = []string{t}
	case []any:
		all = n.Strings("type")
	}
	for _, t := range all {
		if t == "null" {
			hasNull = true
			continue
		}
		types = append(types, t)
	}
	return types, hasNull
}

func (b *builder) variant(n *deref.Node, types []string, hasNull bool) model.Variant {
	allOf, anyOf, oneOf := n.Nodes("allOf"), n.Nodes("anyOf"), n.Nodes("oneOf")
	composed := len(allOf) > 0 || len(anyOf) > 0 || len(oneOf) > 0

	if len(types) > 1 {
		kinds := make([]model.Kind, 0, len(types))
		for _, t := range types {
			kinds = append(kinds, kindOf(t))
		}
		return &model.MultiTypeVariant{Types: kinds}
	}

	typ := ""
	if len(types) == 1 {
		typ = types[0]
	}
	if kind, ok := primitiveKinds[typ]; ok {
		if composed {
			return &model.CombinedVariant{
				Base:  kind,
				AllOf: b.schemaList(allOf),
				AnyOf: b.schemaList(anyOf),
				OneOf: b.schemaList(oneOf),
			}
		}
		return b.primitive(n, kind)
	}

	switch {
	case typ == "array" || (typ == "" && n.Has("items")):
		return b.array(n)
	case typ == "object" || n.Has("properties") || n.Has("additionalProperties"):
		return b.object(n, allOf, anyOf, oneOf)
	case composed && len(allOf) == 0 && len(anyOf) == 0:
		return &model.OneOfVariant{Members: b.schemaList(oneOf), Discriminator: discriminator(n)}
	case composed:
		return &model.CombinedVariant{
			AllOf: b.schemaList(allOf),
			AnyOf: b.schemaList(anyOf),
			OneOf: b.schemaList(oneOf),
		}
	case hasNull:
		return &model.NullVariant{}
	}
	return &model.UnknownVariant{}
}

func kindOf(t string) model.Kind {
	if k, ok := primitiveKinds[t]; ok {
		return k
	}
	switch t {
	case "array":
		return model.KindArray
	case "object":
		return model.KindObject
	}
	return model.KindUnknown
}

func (b *builder) primitive(n *deref.Node, kind model.Kind) model.Variant {
	switch kind {
	case model.KindString:
		return &model.StringVariant{
			MinLength: intPtr(n, "minLength"),
			MaxLength: intPtr(n, "maxLength"),
			Pattern:   n.String("pattern"),
		}
	case model.KindBoolean:
		return &model.BooleanVariant{}
	}

	v := &model.NumberVariant{
		Integer:    kind == model.KindInteger,
		Minimum:    floatPtr(n, "minimum"),
		Maximum:    floatPtr(n, "maximum"),
		MultipleOf: floatPtr(n, "multipleOf"),
	}
	// Boolean exclusive bounds (2.0, 3.0) turn the plain bound exclusive.
	if excl, ok := n.Bool("exclusiveMinimum"); ok {
		if excl {
			v.ExclusiveMinimum, v.Minimum = v.Minimum, nil
		}
	} else {
		v.ExclusiveMinimum = floatPtr(n, "exclusiveMinimum")
	}
	if excl, ok := n.Bool("exclusiveMaximum"); ok {
		if excl {
			v.ExclusiveMaximum, v.Maximum = v.Maximum, nil
		}
	} else {
		v.ExclusiveMaximum = floatPtr(n, "exclusiveMaximum")
	}
	return v
}

func (b *builder) array(n *deref.Node) model.Variant {
	v := &model.ArrayVariant{
		MinItems: intPtr(n, "minItems"),
		MaxItems: intPtr(n, "maxItems"),
	}
	v.UniqueItems, _ = n.Bool("uniqueItems")
	if items := n.Node("items"); items != nil {
		v.Items = b.schemaFor(items)
	} else if tuple := n.Nodes("items"); len(tuple) > 0 {
		v.Items = b.schemaFor(tuple[0])
	}
	return v
}

func (b *builder) object(n *deref.Node, allOf, anyOf, oneOf []*deref.Node) model.Variant {
	v := model.NewObjectVariant()
	if props := n.Node("properties"); props != nil {
		for name, pv := range props.Fields() {
			if p, ok := pv.(*deref.Node); ok && !v.Properties.Has(name) {
				v.Properties.Set(name, b.schemaFor(p))
			}
		}
	}
	switch ap, _ := n.Get("additionalProperties"); t := ap.(type) {
	case bool:
		v.AdditionalProperties = &model.AdditionalProperties{Allowed: t}
	case *deref.Node:
		v.AdditionalProperties = &model.AdditionalProperties{Allowed: true, Schema: b.schemaFor(t)}
	}
	v.AllOf = b.schemaList(allOf)
	v.AnyOf = b.schemaList(anyOf)
	v.OneOf = b.schemaList(oneOf)
	v.Discriminator = discriminator(n)
	return v
}

func (b *builder) schemaList(nodes []*deref.Node) []*model.Schema {
	if len(nodes) == 0 {
		return nil
	}
	out := make([]*model.Schema, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, b.schemaFor(n))
	}
	return out
}

// discriminator reads the 3.x object form and the 2.0 property-name form.
func discriminator(n *deref.Node) *model.Discriminator {
	v, _ := n.Get("discriminator")
	switch d := v.(type) {
	case string:
		return &model.Discriminator{PropertyName: d, Mapping: sequencedmap.New[string, string]()}
	case *deref.Node:
		out := &model.Discriminator{
			PropertyName: d.String("propertyName"),
			Mapping:      sequencedmap.New[string, string](),
		}
		if m := d.Node("mapping"); m != nil {
			for k, mv := range m.Fields() {
				if s, ok := mv.(string); ok && !out.Mapping.Has(k) {
					out.Mapping.Set(k, s)
				}
			}
		}
		return out
	}
	return nil
}

func intPtr(n *deref.Node, key string) *int {
	if v, ok := n.Int(key); ok {
		return &v
	}
	return nil
}

func floatPtr(n *deref.Node, key string) *float64 {
	if v, ok := n.Float(key); ok {
		return &v
	}
	return nil
}
