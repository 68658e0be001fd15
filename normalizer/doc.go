// Package normalizer runs the whole pipeline over one or more OpenAPI
// documents and returns a canonical graph of services, endpoints and
// schemas.
//
// The stages are the document cache ([parser.Cache]), the cycle-safe
// dereferencer ([deref.Dereferencer]), the structural collector
// ([collector.Collect]) and the canonical builder ([canonical.Build]), which
// flattens compositions with [compose.Compositor]. All entry documents share
// one cache, so an entity reachable from several entries appears once in the
// graph.
//
// # Quick Start
//
//	result, err := normalizer.Normalize(ctx, "openapi.yaml")
//	if err != nil {
//		log.Fatal(err)
//	}
//	for _, svc := range result.Graph.Services {
//		fmt.Println(svc.Name, len(svc.Endpoints))
//	}
//
// # Broken References
//
// A reference whose target cannot be found is replaced with an unknown schema
// and reported in Result.Warnings as an *oaserrors.ReferenceError. Use
// WithStrictRefs to make it fatal instead. Documents that cannot be loaded
// and exceeded resource limits always abort the run.
package normalizer
