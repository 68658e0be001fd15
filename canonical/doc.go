// Package canonical builds the version-agnostic graph of services, endpoints
// and schemas from a collected index.
//
// Every collected schema, parameter, request body, response and header
// becomes exactly one entity whose ID is the "file#pointer" identity of its
// canonical node. Entities reached through several references share one
// pointer, and recursive schemas produce cyclic graphs:
//
//	index, _ := collector.Collect(ctx, roots)
//	graph, err := canonical.Build(ctx, index)
//	pet, _ := graph.SchemaNamed("Pet")
//
// Declared component names are kept; inline schemas get names derived from
// their location, made unique with numeric suffixes. After building, object
// and combined schemas are flattened with [compose.Compositor] and the
// synthetic unions it creates are appended to the graph's schemas.
//
// OAS 2.0 constructs are mapped onto the 3.x shape: body parameters become
// request bodies, formData parameters a synthetic object body, and response
// schemas become content for each produced media type.
package canonical
