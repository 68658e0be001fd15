package deref

import (
	"context"
	"fmt"
	"net/url"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/erraggy/oasgraph/internal/options"
	"github.com/erraggy/oasgraph/internal/pathutil"
	"github.com/erraggy/oasgraph/oaserrors"
	"github.com/erraggy/oasgraph/parser"
)

// Dereferencer turns raw documents into graphs of [Node] values with every
// $ref replaced by a link to its target.
//
// Every object location (file plus JSON pointer) is materialized exactly once
// per Dereferencer, no matter how many references or documents reach it. A
// location that is requested again while it is still being built, as happens
// with recursive schemas, yields the same, not yet complete node; it is filled
// in by the walk that created it. One Dereferencer may be shared by
// concurrent calls.
type Dereferencer struct {
	cache       *parser.Cache
	logger      parser.Logger
	maxDepth    int
	strict      bool
	concurrency int
	sem         *semaphore.Weighted

	mu       sync.Mutex
	nodes    map[string]*Node
	ready    map[*Node]bool
	warnings []*oaserrors.ReferenceError

	cycles atomic.Int64
}

// Option configures a Dereferencer.
type Option func(*config) error

type config struct {
	logger      parser.Logger
	maxDepth    int
	strict      bool
	concurrency int
}

// WithLogger sets the logger.
func WithLogger(l parser.Logger) Option {
	return func(c *config) error {
		c.logger = l
		return nil
	}
}

// WithMaxRefDepth limits how many references may be followed along a single
// path. Zero selects parser.MaxRefDepth.
func WithMaxRefDepth(depth int) Option {
	return func(c *config) error {
		if err := options.NonNegative("WithMaxRefDepth", depth); err != nil {
			return err
		}
		c.maxDepth = depth
		return nil
	}
}

// WithStrictRefs makes a broken reference a fatal error instead of a warning.
func WithStrictRefs(strict bool) Option {
	return func(c *config) error {
		c.strict = strict
		return nil
	}
}

// WithConcurrency bounds how many goroutines may walk branches at once.
// Values of 0 or 1 walk sequentially.
func WithConcurrency(n int) Option {
	return func(c *config) error {
		if err := options.NonNegative("WithConcurrency", n); err != nil {
			return err
		}
		c.concurrency = n
		return nil
	}
}

// New returns a Dereferencer that loads documents through cache.
func New(cache *parser.Cache, opts ...Option) (*Dereferencer, error) {
	if cache == nil {
		return nil, fmt.Errorf("deref: invalid options: %w", options.NotNil("cache", true))
	}
	cfg := &config{}
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, fmt.Errorf("deref: invalid options: %w", err)
		}
	}
	if cfg.maxDepth == 0 {
		cfg.maxDepth = parser.MaxRefDepth
	}
	if cfg.concurrency == 0 {
		cfg.concurrency = 1
	}

	d := &Dereferencer{
		cache:       cache,
		logger:      parser.OrNop(cfg.logger),
		maxDepth:    cfg.maxDepth,
		strict:      cfg.strict,
		concurrency: cfg.concurrency,
		nodes:       make(map[string]*Node),
		ready:       make(map[*Node]bool),
	}
	if cfg.concurrency > 1 {
		// The calling goroutine always works too, so n-1 extra slots.
		d.sem = semaphore.NewWeighted(int64(cfg.concurrency - 1))
	}
	return d, nil
}

// walk is the per-branch resolution context.
type walk struct {
	file    string
	version parser.OASVersion
	depth   int
	// keys of the nodes being built on this branch, for cycle reporting
	stack *frame
}

type frame struct {
	key    string
	parent *frame
}

func (f *frame) contains(key string) bool {
	for cur := f; cur != nil; cur = cur.parent {
		if cur.key == key {
			return true
		}
	}
	return false
}

// Dereference loads the document at location and returns its root node.
func (d *Dereferencer) Dereference(ctx context.Context, location string) (*Node, error) {
	doc, err := d.cache.Load(ctx, location)
	if err != nil {
		return nil, fmt.Errorf("deref: %w", err)
	}
	root, ok := doc.RootObject()
	if !ok {
		return nil, fmt.Errorf("deref: %w", &oaserrors.LoadError{
			Path:    doc.Path,
			Message: "document root is not an object",
		})
	}
	logger := d.logger.With("entry", doc.Path)
	logger.Debug("dereferencing document", "version", doc.Version)
	w := walk{file: doc.Path, version: doc.OASVersion}
	n, err := d.object(ctx, w, "", root)
	if err != nil {
		return nil, err
	}
	logger.Debug("dereferenced document", "nodes", d.Len(), "cycles", d.Cycles())
	return n, nil
}

// DereferenceAll dereferences several entry documents concurrently. Roots are
// returned in input order.
func (d *Dereferencer) DereferenceAll(ctx context.Context, locations []string) ([]*Node, error) {
	roots := make([]*Node, len(locations))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(d.concurrency)
	for i, loc := range locations {
		g.Go(func() error {
			root, err := d.Dereference(ctx, loc)
			if err != nil {
				return err
			}
			roots[i] = root
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return roots, nil
}

// Warnings returns every broken reference seen so far, ordered by location.
func (d *Dereferencer) Warnings() []*oaserrors.ReferenceError {
	d.mu.Lock()
	out := slices.Clone(d.warnings)
	d.mu.Unlock()
	slices.SortFunc(out, func(a, b *oaserrors.ReferenceError) int {
		if c := strings.Compare(a.File, b.File); c != 0 {
			return c
		}
		return strings.Compare(a.Path, b.Path)
	})
	return out
}

// Lookup returns the node materialized for a "file#pointer" key.
func (d *Dereferencer) Lookup(key string) (*Node, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	n, ok := d.nodes[key]
	return n, ok
}

// Len returns how many object locations have been materialized.
func (d *Dereferencer) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.nodes)
}

// Cycles returns how many times a walk reached a node that was still being
// built on the same branch.
func (d *Dereferencer) Cycles() int64 {
	return d.cycles.Load()
}

// Cache returns the document cache.
func (d *Dereferencer) Cache() *parser.Cache {
	return d.cache
}

// object materializes the raw object at file#ptr.
func (d *Dereferencer) object(ctx context.Context, w walk, ptr string, raw *parser.Object) (*Node, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	key := w.file + "#" + ptr
	d.mu.Lock()
	if n, ok := d.nodes[key]; ok {
		inFlight := !d.ready[n]
		d.mu.Unlock()
		if inFlight && w.stack.contains(key) {
			d.cycles.Add(1)
			d.logger.Debug("reference cycle", "location", key)
		}
		return n, nil
	}
	n := newNode(Source{
		File:      w.file,
		Path:      ptr,
		Version:   w.version,
		Component: pathutil.ComponentName(ptr),
	})
	d.nodes[key] = n
	d.mu.Unlock()

	w.stack = &frame{key: key, parent: w.stack}

	if ref, ok := raw.GetOrZero("$ref").(string); ok {
		if err := d.reference(ctx, w, n, ref); err != nil {
			return nil, err
		}
	}
	if err := d.fill(ctx, w, n, ptr, raw); err != nil {
		return nil, err
	}

	d.mu.Lock()
	d.ready[n] = true
	d.mu.Unlock()
	return n, nil
}

// fill converts the raw fields of an object in source order.
func (d *Dereferencer) fill(ctx context.Context, w walk, n *Node, ptr string, raw *parser.Object) error {
	keys := make([]string, 0, raw.Len())
	rawVals := make([]any, 0, raw.Len())
	for k, v := range raw.All() {
		keys = append(keys, k)
		rawVals = append(rawVals, v)
	}

	vals := make([]any, len(rawVals))
	err := d.each(ctx, rawVals, vals, func(i int) error {
		v, err := d.value(ctx, w, pathutil.Child(ptr, keys[i]), rawVals[i])
		vals[i] = v
		return err
	})
	if err != nil {
		return err
	}
	for i, k := range keys {
		n.fields.Set(k, vals[i])
	}
	return nil
}

func (d *Dereferencer) value(ctx context.Context, w walk, ptr string, raw any) (any, error) {
	switch v := raw.(type) {
	case *parser.Object:
		return d.object(ctx, w, ptr, v)
	case []any:
		out := make([]any, len(v))
		err := d.each(ctx, v, out, func(i int) error {
			item, err := d.value(ctx, w, pathutil.ChildIndex(ptr, i), v[i])
			out[i] = item
			return err
		})
		return out, err
	default:
		return v, nil
	}
}

// each converts raw[i] into out[i] with fn. Scalars are copied directly.
// Composite values run on another goroutine when a slot is free and inline
// otherwise, so a branch never blocks waiting for a slot.
func (d *Dereferencer) each(ctx context.Context, raw, out []any, fn func(i int) error) error {
	var g *errgroup.Group
	for i, v := range raw {
		switch v.(type) {
		case *parser.Object, []any:
		default:
			out[i] = v
			continue
		}
		if d.sem != nil && d.sem.TryAcquire(1) {
			if g == nil {
				g = &errgroup.Group{}
			}
			g.Go(func() error {
				defer d.sem.Release(1)
				return fn(i)
			})
			continue
		}
		if err := fn(i); err != nil {
			if g != nil {
				_ = g.Wait()
			}
			return err
		}
	}
	if g != nil {
		return g.Wait()
	}
	return ctx.Err()
}

// reference resolves ref found on site and links site to the target node.
func (d *Dereferencer) reference(ctx context.Context, w walk, site *Node, ref string) error {
	filePart, ptrPart := pathutil.SplitRef(ref)
	ptr := pathutil.Normalize(ptrPart)

	location := w.file
	refType := "local"
	if filePart != "" {
		location = resolveLocation(w.file, filePart)
		refType = "file"
		if parser.IsURL(location) {
			refType = "http"
		}
	}

	doc, err := d.cache.Load(ctx, location)
	if err != nil {
		return fmt.Errorf("deref: resolving %q in %s#%s: %w", ref, w.file, site.Src.Path, err)
	}
	site.Src.Reference = &Reference{Ref: ref, File: doc.Path, Pointer: ptr}

	if w.depth >= d.maxDepth {
		return &oaserrors.ResourceLimitError{
			ResourceType: "ref_depth",
			Limit:        int64(d.maxDepth),
			Actual:       int64(w.depth + 1),
			Message:      "following " + ref + " in " + site.Key(),
		}
	}

	broken := func(msg string, circular bool) error {
		refErr := &oaserrors.ReferenceError{
			Ref:        ref,
			RefType:    refType,
			File:       w.file,
			Path:       site.Src.Path,
			Target:     doc.Path + "#" + ptr,
			IsBroken:   true,
			IsCircular: circular,
			Message:    msg,
		}
		if d.strict {
			return refErr
		}
		d.logger.Warn("broken reference", "ref", ref, "location", site.Key(), "reason", msg)
		d.mu.Lock()
		d.warnings = append(d.warnings, refErr)
		d.mu.Unlock()
		return nil
	}

	raw, ok := lookup(doc.Root, pathutil.Split(ptr))
	if !ok {
		return broken("target not found", false)
	}
	obj, ok := raw.(*parser.Object)
	if !ok {
		return broken(fmt.Sprintf("target is %T, not an object", raw), false)
	}

	tw := walk{file: doc.Path, version: doc.OASVersion, depth: w.depth + 1, stack: w.stack}
	if doc.IsFragment() {
		tw.version = w.version
	}
	target, err := d.object(ctx, tw, ptr, obj)
	if err != nil {
		return err
	}

	d.mu.Lock()
	site.target = target
	loops := aliasLoop(site)
	if loops {
		site.target = nil
	}
	d.mu.Unlock()
	if loops {
		return broken("reference chain loops back to itself", true)
	}
	return nil
}

// aliasLoop reports whether following targets from n returns to n. Callers
// hold d.mu.
func aliasLoop(n *Node) bool {
	for cur := n.target; cur != nil; cur = cur.target {
		if cur == n {
			return true
		}
	}
	return false
}

// lookup walks unescaped pointer segments through a raw tree.
func lookup(root any, segments []string) (any, bool) {
	cur := root
	for _, seg := range segments {
		switch v := cur.(type) {
		case *parser.Object:
			next, ok := v.Get(seg)
			if !ok {
				return nil, false
			}
			cur = next
		case []any:
			i, err := strconv.Atoi(seg)
			if err != nil || i < 0 || i >= len(v) {
				return nil, false
			}
			cur = v[i]
		default:
			return nil, false
		}
	}
	return cur, true
}

// resolveLocation resolves the file part of a reference against the file
// that contains the reference.
func resolveLocation(current, part string) string {
	if parser.IsURL(part) {
		return part
	}
	if parser.IsURL(current) {
		base, err := url.Parse(current)
		if err != nil {
			return part
		}
		rel, err := url.Parse(part)
		if err != nil {
			return part
		}
		return base.ResolveReference(rel).String()
	}
	if filepath.IsAbs(part) {
		return filepath.Clean(part)
	}
	return filepath.Join(filepath.Dir(current), part)
}
