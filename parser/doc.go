// Package parser loads OpenAPI documents into order-preserving raw trees.
//
// The [Cache] is the single entry point for reading documents during a run.
// It resolves locations to absolute paths (or URLs), reads them through a
// [FileSystem] or an [HTTPFetcher], decodes YAML or JSON with [Decode] and
// records the declared version. Each location is read at most once per Cache,
// even when many goroutines request it at the same time.
//
//	cache, err := parser.NewCache(parser.WithLogger(parser.NewSlogAdapter(nil)))
//	if err != nil {
//		return err
//	}
//	doc, err := cache.Load(ctx, "openapi.yaml")
//
// Decoded mappings are [*Object] values (an ordered map), sequences are []any
// and scalars keep the types the YAML decoder assigns them.
//
// Documents in tests can be served from memory with [FromFS]:
//
//	fsys := fstest.MapFS{"spec/openapi.yaml": {Data: []byte(src)}}
//	cache, _ := parser.NewCache(parser.WithFileSystem(parser.FromFS(fsys)))
package parser
