// Package collector indexes the reusable objects of dereferenced documents.
//
// [Collect] walks paths, webhooks and components and records every schema,
// parameter, request body, response, header, path item and operation exactly
// once, keyed by the "file#pointer" identity of its canonical node (see
// [refchain.Canonical]). A schema used both as a named component and inline
// through a $ref therefore yields a single [Entry].
//
//	index, err := collector.Collect(ctx, roots)
//	for _, e := range index.Schemas.Entries() {
//		fmt.Println(e.Key, e.Name)
//	}
//
// The walk is sequential and visits keys in document order, so tables list
// entries in the order they were first reached.
package collector
