// Package compose flattens allOf and anyOf composition into plain object
// schemas.
//
// allOf members are intersected: their properties and required names are
// merged. anyOf members are unioned: their properties are merged but never
// become required, and that optionality carries into any allOf nested below
// them. When two members have equal property names the first one seen wins.
//
//	c := compose.New(compose.WithIDGenerator(ids))
//	flat, outcome := c.Flatten(schema)
//	if outcome == compose.Flattened {
//		*schema = *flat
//	}
package compose

import (
	"github.com/speakeasy-api/openapi/sequencedmap"

	"github.com/erraggy/oasgraph/model"
	"github.com/erraggy/oasgraph/parser"
)

// Outcome reports what Flatten did.
type Outcome int

const (
	// Flattened means a new flat object schema was returned.
	Flattened Outcome = iota + 1
	// NothingToFlatten means the schema is already flat; no copy was made.
	NothingToFlatten
	// CannotFlatten means a member is not object-like.
	CannotFlatten
)

func (o Outcome) String() string {
	switch o {
	case Flattened:
		return "flattened"
	case NothingToFlatten:
		return "nothing to flatten"
	case CannotFlatten:
		return "cannot flatten"
	}
	return "unknown"
}

// Compositor flattens schemas for one run.
type Compositor struct {
	ids             *model.IDGenerator
	ignoreNonObject bool
	logger          parser.Logger

	synthesized []*model.Schema
}

// Option configures a Compositor.
type Option func(*Compositor)

// WithIDGenerator sets the generator for synthetic schema IDs. Share it with
// everything else that creates synthetic entities in the same run.
func WithIDGenerator(ids *model.IDGenerator) Option {
	return func(c *Compositor) {
		c.ids = ids
	}
}

// WithIgnoreNonObject skips members that are not object-like instead of
// refusing to flatten.
func WithIgnoreNonObject(ignore bool) Option {
	return func(c *Compositor) {
		c.ignoreNonObject = ignore
	}
}

// WithLogger sets the logger.
func WithLogger(l parser.Logger) Option {
	return func(c *Compositor) {
		c.logger = l
	}
}

// New returns a Compositor.
func New(opts ...Option) *Compositor {
	c := &Compositor{}
	for _, opt := range opts {
		opt(c)
	}
	if c.ids == nil {
		c.ids = &model.IDGenerator{}
	}
	c.logger = parser.OrNop(c.logger)
	return c
}

// Synthesized returns the schemas created while merging additionalProperties,
// in creation order.
func (c *Compositor) Synthesized() []*model.Schema {
	return c.synthesized
}

// Flatten merges the allOf and anyOf members of an object or combined schema
// into a single object schema. s itself is never modified.
func (c *Compositor) Flatten(s *model.Schema) (*model.Schema, Outcome) {
	own, ok := parts(s)
	if !ok || (len(own.allOf) == 0 && len(own.anyOf) == 0) {
		return nil, NothingToFlatten
	}
	if own.primitive || (!c.ignoreNonObject && !c.valid(s, map[*model.Schema]bool{})) {
		c.logger.Debug("cannot flatten", "schema", s.ID)
		return nil, CannotFlatten
	}

	m := &merger{
		c:        c,
		owner:    s,
		props:    sequencedmap.New[string, *model.Schema](),
		required: model.NewStringSet(),
		visited:  map[*model.Schema]treatment{s: mergedRequired},
	}
	if own.props != nil {
		for name, p := range own.props.All() {
			m.props.Set(name, p)
		}
	}
	m.required.AddSet(s.Required)
	if own.ap != nil {
		ap := *own.ap
		m.ap = &ap
		m.apDone = ap.Allowed && ap.Schema == nil
		if ap.Schema != nil && ap.Schema.Synthetic && ap.Schema.OneOf() != nil {
			m.union = ap.Schema
		}
	}

	for _, member := range own.allOf {
		m.merge(member, false)
	}
	for _, member := range own.anyOf {
		m.merge(member, true)
	}

	if m.props.Len() == 0 && !m.apChanged {
		return nil, NothingToFlatten
	}
	// A union replaced by a later additionalProperties: true is dropped.
	if m.created != nil && m.ap != nil && m.ap.Schema == m.created {
		c.synthesized = append(c.synthesized, m.created)
	}

	flat := *s
	flat.Required = m.required
	flat.Variant = &model.ObjectVariant{
		Properties:           m.props,
		AdditionalProperties: m.ap,
		OneOf:                own.oneOf,
		Discriminator:        own.discriminator,
	}
	c.logger.Debug("flattened schema", "schema", s.ID, "properties", m.props.Len())
	return &flat, Flattened
}

// composition is the part of a schema the compositor reads.
type composition struct {
	props         *sequencedmap.Map[string, *model.Schema]
	ap            *model.AdditionalProperties
	allOf         []*model.Schema
	anyOf         []*model.Schema
	oneOf         []*model.Schema
	discriminator *model.Discriminator
	primitive     bool
}

func parts(s *model.Schema) (composition, bool) {
	switch v := s.Variant.(type) {
	case *model.ObjectVariant:
		return composition{
			props:         v.Properties,
			ap:            v.AdditionalProperties,
			allOf:         v.AllOf,
			anyOf:         v.AnyOf,
			oneOf:         v.OneOf,
			discriminator: v.Discriminator,
		}, true
	case *model.CombinedVariant:
		return composition{
			allOf:     v.AllOf,
			anyOf:     v.AnyOf,
			oneOf:     v.OneOf,
			primitive: v.Base != "",
		}, true
	}
	return composition{}, false
}

// valid reports whether every allOf and anyOf member below s is an object or
// a combined schema whose own members are valid.
func (c *Compositor) valid(s *model.Schema, visited map[*model.Schema]bool) bool {
	if visited[s] {
		return true
	}
	visited[s] = true

	own, _ := parts(s)
	members := append(append([]*model.Schema{}, own.allOf...), own.anyOf...)
	for _, m := range members {
		p, ok := parts(m)
		if !ok || p.primitive {
			return false
		}
		if m.Kind() == model.KindCombined {
			for _, sub := range p.oneOf {
				if q, ok := parts(sub); !ok || q.primitive {
					return false
				}
			}
		}
		if !c.valid(m, visited) {
			return false
		}
	}
	return true
}

type merger struct {
	c        *Compositor
	owner    *model.Schema
	props    *sequencedmap.Map[string, *model.Schema]
	required *model.StringSet
	visited  map[*model.Schema]treatment

	ap        *model.AdditionalProperties
	apDone    bool
	apChanged bool
	union     *model.Schema
	// created is the union this merge synthesized, if any.
	created *model.Schema
}

// treatment records how a member has been merged so far.
type treatment int

const (
	unvisited treatment = iota
	mergedOptional
	mergedRequired
)

func (m *merger) merge(member *model.Schema, optional bool) {
	if member == nil {
		return
	}
	// A member seen only below anyOf is merged again when reached as
	// required, so its required names are added.
	switch m.visited[member] {
	case mergedRequired:
		return
	case mergedOptional:
		if optional {
			return
		}
	}
	if optional {
		m.visited[member] = mergedOptional
	} else {
		m.visited[member] = mergedRequired
	}

	p, ok := parts(member)
	if !ok || p.primitive {
		// only reachable with WithIgnoreNonObject
		return
	}
	if p.props != nil {
		for name, prop := range p.props.All() {
			if !m.props.Has(name) {
				m.props.Set(name, prop)
			}
		}
	}
	if !optional {
		m.required.AddSet(member.Required)
	}
	m.mergeAdditional(p.ap)

	for _, sub := range p.allOf {
		m.merge(sub, optional)
	}
	for _, sub := range p.anyOf {
		m.merge(sub, true)
	}
}

func (m *merger) mergeAdditional(ap *model.AdditionalProperties) {
	if m.apDone || ap == nil {
		return
	}
	if ap.Schema == nil {
		if ap.Allowed {
			m.ap = &model.AdditionalProperties{Allowed: true}
			m.apDone = true
			m.apChanged = true
		}
		return
	}

	switch {
	case m.ap == nil || m.ap.Schema == nil:
		m.ap = &model.AdditionalProperties{Allowed: true, Schema: ap.Schema}
		m.apChanged = true
	case sameSchema(m.ap.Schema, ap.Schema):
	case m.union != nil && m.ap.Schema == m.union:
		u := m.union.OneOf()
		for _, existing := range u.Members {
			if sameSchema(existing, ap.Schema) {
				return
			}
		}
		u.Members = append(u.Members, ap.Schema)
	default:
		m.union = m.c.newUnion(m.owner, m.ap.Schema, ap.Schema)
		m.created = m.union
		m.ap = &model.AdditionalProperties{Allowed: true, Schema: m.union}
		m.apChanged = true
	}
}

func (c *Compositor) newUnion(owner *model.Schema, members ...*model.Schema) *model.Schema {
	u := &model.Schema{
		ID:              c.ids.Next(model.KindOneOf),
		Name:            owner.Name + "Value",
		IsNameGenerated: true,
		Synthetic:       true,
		Accessibility:   model.AccessAll,
		Required:        model.NewStringSet(),
		Extensions:      sequencedmap.New[string, any](),
		Source:          owner.Source,
		Variant:         &model.OneOfVariant{Members: members},
	}
	return u
}

func sameSchema(a, b *model.Schema) bool {
	return a == b || (a.ID != "" && a.ID == b.ID)
}
