// Package deref resolves every $ref in a set of OpenAPI documents.
//
// [Dereferencer.Dereference] walks a document loaded through a
// [parser.Cache] and produces a graph of [Node] values. A node written as a
// $ref keeps its own keywords and links to the node of its target, so the
// same target location is always the same *Node:
//
//	d, err := deref.New(cache, deref.WithConcurrency(4))
//	root, err := d.Dereference(ctx, "openapi.yaml")
//	schema := root.Node("components").Node("schemas").Node("Pet")
//
// References are resolved relative to the file that contains them. Recursive
// schemas produce cyclic graphs rather than unbounded recursion, and a
// pointer that does not resolve yields a broken node plus a
// *oaserrors.ReferenceError in [Dereferencer.Warnings] (or a fatal error with
// [WithStrictRefs]). A document that cannot be loaded always aborts the walk.
package deref
