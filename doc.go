// Package oasgraph turns one or more OpenAPI documents (2.0, 3.0 and 3.1) into a
// single de-duplicated, version-agnostic graph of services, endpoints, parameters
// and schemas for downstream source emitters.
//
// # Overview
//
// The pipeline is split into packages that each own one stage:
//
//   - parser: loads documents once per run (Document Cache) and decodes them into an
//     order-preserving raw tree
//   - deref: replaces every $ref with its target, attaching provenance to every node
//   - refchain: collapses pure alias chains to the first substantive schema
//   - collector: indexes reusable constructs by source identity
//   - compose: flattens allOf/anyOf composition into a single object shape
//   - canonical: builds the canonical model from the collected indexes
//   - normalizer: runs the whole pipeline
//
// # Quick Start
//
//	result, err := normalizer.NormalizeWithOptions(ctx,
//		normalizer.WithFilePaths("openapi.yaml"),
//	)
//	if err != nil {
//		log.Fatal(err)
//	}
//	for _, svc := range result.Graph.Services {
//		fmt.Println(svc.Name, len(svc.Endpoints))
//	}
//
// The graph is read-only. Schema IDs are stable within one run and may be used as map
// keys when tracking what has already been emitted; they must not be persisted across
// runs.
package oasgraph
