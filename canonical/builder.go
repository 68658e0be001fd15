package canonical

import (
	"context"
	"fmt"
	"path"
	"slices"
	"strings"

	"github.com/speakeasy-api/openapi/sequencedmap"

	"github.com/erraggy/oasgraph/collector"
	"github.com/erraggy/oasgraph/compose"
	"github.com/erraggy/oasgraph/deref"
	"github.com/erraggy/oasgraph/internal/naming"
	"github.com/erraggy/oasgraph/internal/options"
	"github.com/erraggy/oasgraph/internal/pathutil"
	"github.com/erraggy/oasgraph/model"
	"github.com/erraggy/oasgraph/oaserrors"
	"github.com/erraggy/oasgraph/parser"
	"github.com/erraggy/oasgraph/refchain"
)

// DefaultServiceName holds endpoints without tags.
const DefaultServiceName = "default"

// Option configures a build.
type Option func(*config) error

type config struct {
	logger          parser.Logger
	ids             *model.IDGenerator
	defaultService  string
	flatten         bool
	ignoreNonObject bool
}

// WithLogger sets the logger.
func WithLogger(l parser.Logger) Option {
	return func(c *config) error {
		c.logger = l
		return nil
	}
}

// WithIDGenerator sets the generator for synthetic entity IDs.
func WithIDGenerator(ids *model.IDGenerator) Option {
	return func(c *config) error {
		c.ids = ids
		return nil
	}
}

// WithDefaultServiceName names the service holding untagged endpoints.
func WithDefaultServiceName(name string) Option {
	return func(c *config) error {
		if strings.TrimSpace(name) == "" {
			return &oaserrors.ConfigError{Option: "WithDefaultServiceName", Value: name, Message: "must not be empty"}
		}
		c.defaultService = name
		return nil
	}
}

// WithFlatten controls whether allOf and anyOf are flattened. Enabled by
// default.
func WithFlatten(enabled bool) Option {
	return func(c *config) error {
		c.flatten = enabled
		return nil
	}
}

// WithIgnoreNonObject flattens compositions even when some members are not
// objects, skipping those members.
func WithIgnoreNonObject(ignore bool) Option {
	return func(c *config) error {
		c.ignoreNonObject = ignore
		return nil
	}
}

// builder holds the state of one Build call.
type builder struct {
	index          *collector.Index
	logger         parser.Logger
	ids            *model.IDGenerator
	names          *naming.Registry
	compositor     *compose.Compositor
	defaultService string
	flatten        bool

	// declared holds the names assigned to collected schemas, by key.
	declared map[string]string
	// sites maps schema keys to the node they were first reached through.
	sites map[string]*deref.Node

	schemas   map[string]*model.Schema
	order     []*model.Schema
	params    map[string]*model.Parameter
	bodies    map[string]*model.RequestBody
	responses map[string]*model.Response
	headers   map[string]*model.Header
	pathItems map[string]*model.PathItem
	endpoints []*model.Endpoint
}

// Build turns a collected index into the canonical graph. Every collected
// object becomes exactly one entity and cross-references share pointers, so
// the same source location is never copied.
func Build(ctx context.Context, index *collector.Index, opts ...Option) (*model.Graph, error) {
	if index == nil {
		return nil, fmt.Errorf("canonical: invalid options: %w", options.NotNil("index", true))
	}
	cfg := &config{defaultService: DefaultServiceName, flatten: true}
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, fmt.Errorf("canonical: invalid options: %w", err)
		}
	}
	if cfg.ids == nil {
		cfg.ids = &model.IDGenerator{}
	}
	logger := parser.OrNop(cfg.logger)

	b := &builder{
		index:          index,
		logger:         logger,
		ids:            cfg.ids,
		names:          naming.NewRegistry(),
		defaultService: cfg.defaultService,
		flatten:        cfg.flatten,
		declared:       make(map[string]string),
		sites:          make(map[string]*deref.Node),
		schemas:        make(map[string]*model.Schema),
		params:         make(map[string]*model.Parameter),
		bodies:         make(map[string]*model.RequestBody),
		responses:      make(map[string]*model.Response),
		headers:        make(map[string]*model.Header),
		pathItems:      make(map[string]*model.PathItem),
	}
	b.compositor = compose.New(
		compose.WithIDGenerator(cfg.ids),
		compose.WithIgnoreNonObject(cfg.ignoreNonObject),
		compose.WithLogger(logger),
	)

	b.assignNames()
	for _, e := range index.Schemas.Entries() {
		b.schemaFor(e.Node)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	for _, e := range index.Operations.Entries() {
		b.endpoint(e)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if b.flatten {
		b.flattenAll()
	}

	graph := &model.Graph{
		Services:  b.services(),
		Endpoints: b.endpoints,
		Schemas:   append(b.order, b.compositor.Synthesized()...),
	}
	logger.Debug("built graph",
		"services", len(graph.Services),
		"endpoints", len(graph.Endpoints),
		"schemas", len(graph.Schemas))
	return graph, nil
}

// assignNames gives every collected schema its name before any is built:
// declared names first, in discovery order, then generated ones.
func (b *builder) assignNames() {
	entries := b.index.Schemas.Entries()
	for _, e := range entries {
		b.sites[e.Key] = e.Site
		if e.Name != "" {
			b.declared[e.Key] = b.names.Claim(e.Name)
		}
	}
	for _, e := range entries {
		if e.Name == "" {
			b.declared[e.Key] = b.names.Claim(generatedName(e.Node))
		}
	}
}

// generatedName derives a name from the location of n. The root of a
// fragment file is named after the file.
func generatedName(n *deref.Node) string {
	segs := pathutil.Split(n.Src.Path)
	if len(segs) == 0 {
		base := path.Base(strings.ReplaceAll(n.Src.File, "\\", "/"))
		if name := naming.ToPascalCase(strings.TrimSuffix(base, path.Ext(base))); name != "" {
			return naming.FromPointerSegments([]string{name})
		}
	}
	return naming.FromPointerSegments(segs)
}

// flattenAll replaces every composed object or combined schema by its flat
// form, in discovery order.
func (b *builder) flattenAll() {
	for _, s := range b.order {
		if s.Kind() != model.KindObject && s.Kind() != model.KindCombined {
			continue
		}
		flat, outcome := b.compositor.Flatten(s)
		switch outcome {
		case compose.Flattened:
			*s = *flat
		case compose.CannotFlatten:
			b.logger.Debug("kept composition", "schema", s.ID, "name", s.Name)
		}
	}
}

// services groups endpoints by tag. Declared tags come first in declaration
// order, then undeclared ones in order of first use.
func (b *builder) services() []*model.Service {
	bySvc := sequencedmap.New[string, *model.Service]()
	for name, desc := range b.index.Tags.All() {
		bySvc.Set(name, &model.Service{Name: name, Description: desc})
	}
	add := func(name string, e *model.Endpoint) {
		svc, ok := bySvc.Get(name)
		if !ok {
			svc = &model.Service{Name: name}
			bySvc.Set(name, svc)
		}
		svc.Endpoints = append(svc.Endpoints, e)
	}
	for _, e := range b.endpoints {
		if len(e.Tags) == 0 {
			add(b.defaultService, e)
			continue
		}
		for i, tag := range e.Tags {
			if !slices.Contains(e.Tags[:i], tag) {
				add(tag, e)
			}
		}
	}

	var out []*model.Service
	for svc := range bySvc.Values() {
		if len(svc.Endpoints) > 0 {
			out = append(out, svc)
		}
	}
	return out
}

// source converts the provenance of node, recording the reference of site
// when the entity was reached through one.
func source(site, node *deref.Node) model.Source {
	src := model.Source{File: node.Src.File, Path: node.Src.Path}
	switch {
	case site != nil && site.IsReference():
		src.Ref = site.Src.Reference.Ref
	case node.IsReference():
		src.Ref = node.Src.Reference.Ref
	}
	return src
}

// canonicalKey is the identity n coalesces into.
func canonicalKey(n *deref.Node) (*deref.Node, string) {
	c := refchain.Canonical(n)
	return c, c.Key()
}
