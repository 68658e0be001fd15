package normalizer

import (
	"context"
	"fmt"
	"time"

	"github.com/erraggy/oasgraph/canonical"
	"github.com/erraggy/oasgraph/collector"
	"github.com/erraggy/oasgraph/deref"
	"github.com/erraggy/oasgraph/model"
	"github.com/erraggy/oasgraph/parser"
)

// Result is the outcome of a normalization run.
type Result struct {
	// Graph is the canonical graph.
	Graph *model.Graph
	// Roots are the dereferenced entry documents, in input order.
	Roots []*deref.Node
	// Documents lists every document loaded during the run, in load order.
	Documents []*parser.Document
	// Warnings holds one *oaserrors.ReferenceError per broken reference.
	Warnings []error
	Stats    Stats
}

// Stats summarizes a run.
type Stats struct {
	Documents int
	Bytes     int64
	Nodes     int
	Cycles    int64
	Entries   int
	Schemas   int
	Endpoints int
	Duration  time.Duration
}

// HasWarnings reports whether any reference could not be resolved.
func (r *Result) HasWarnings() bool {
	return len(r.Warnings) > 0
}

// Normalize loads, dereferences and normalizes the given entry documents
// with default settings.
func Normalize(ctx context.Context, paths ...string) (*Result, error) {
	return NormalizeWithOptions(ctx, WithFilePaths(paths...))
}

// NormalizeWithOptions runs the whole pipeline: every entry document is
// dereferenced (sharing one document cache), the results are collected into
// one index, and the index is built into a canonical graph.
//
// A document that cannot be loaded aborts the run. Broken references are
// reported in Result.Warnings unless WithStrictRefs is set.
//
// Example:
//
//	result, err := normalizer.NormalizeWithOptions(ctx,
//	    normalizer.WithFilePaths("openapi.yaml"),
//	    normalizer.WithConcurrency(4),
//	)
func NormalizeWithOptions(ctx context.Context, opts ...Option) (*Result, error) {
	cfg, err := applyOptions(opts...)
	if err != nil {
		return nil, fmt.Errorf("normalizer: invalid options: %w", err)
	}
	start := time.Now()
	logger := parser.OrNop(cfg.logger)

	cacheOpts := []parser.CacheOption{
		parser.WithLogger(logger),
		parser.WithResolveHTTPRefs(cfg.resolveHTTPRefs),
		parser.WithHTTPClient(cfg.httpClient),
		parser.WithUserAgent(cfg.userAgent),
		parser.WithMaxFileSize(cfg.maxFileSize),
		parser.WithMaxCachedDocuments(cfg.maxCachedDocuments),
	}
	if cfg.fs != nil {
		cacheOpts = append(cacheOpts, parser.WithFileSystem(cfg.fs))
	}
	cache, err := parser.NewCache(cacheOpts...)
	if err != nil {
		return nil, fmt.Errorf("normalizer: %w", err)
	}

	d, err := deref.New(cache,
		deref.WithLogger(logger),
		deref.WithConcurrency(cfg.concurrency),
		deref.WithMaxRefDepth(cfg.maxRefDepth),
		deref.WithStrictRefs(cfg.strictRefs),
	)
	if err != nil {
		return nil, fmt.Errorf("normalizer: %w", err)
	}
	roots, err := d.DereferenceAll(ctx, cfg.filePaths)
	if err != nil {
		return nil, fmt.Errorf("normalizer: %w", err)
	}

	index, err := collector.Collect(ctx, roots, collector.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("normalizer: %w", err)
	}

	buildOpts := []canonical.Option{
		canonical.WithLogger(logger),
		canonical.WithFlatten(!cfg.noFlatten),
		canonical.WithIgnoreNonObject(cfg.ignoreNonObject),
	}
	if cfg.defaultService != "" {
		buildOpts = append(buildOpts, canonical.WithDefaultServiceName(cfg.defaultService))
	}
	graph, err := canonical.Build(ctx, index, buildOpts...)
	if err != nil {
		return nil, fmt.Errorf("normalizer: %w", err)
	}

	result := &Result{
		Graph:     graph,
		Roots:     roots,
		Documents: cache.Documents(),
	}
	for _, w := range d.Warnings() {
		result.Warnings = append(result.Warnings, w)
	}
	result.Stats = Stats{
		Documents: len(result.Documents),
		Nodes:     d.Len(),
		Cycles:    d.Cycles(),
		Entries:   index.Len(),
		Schemas:   len(graph.Schemas),
		Endpoints: len(graph.Endpoints),
		Duration:  time.Since(start),
	}
	for _, doc := range result.Documents {
		result.Stats.Bytes += doc.Size
	}

	logger.Info("normalized",
		"documents", result.Stats.Documents,
		"schemas", result.Stats.Schemas,
		"endpoints", result.Stats.Endpoints,
		"warnings", len(result.Warnings),
		"duration", result.Stats.Duration)
	return result, nil
}
