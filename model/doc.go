// Package model defines the canonical, version-independent API graph.
//
// A [Graph] holds services, endpoints and schemas. Schemas are a tagged union:
// the common fields live on [Schema] and the kind-specific payload is one of
// the [Variant] implementations, so consumers switch on the concrete type:
//
//	switch v := schema.Variant.(type) {
//	case *model.ObjectVariant:
//		for name, prop := range v.Properties.All() { ... }
//	case *model.ArrayVariant:
//		...
//	}
//
// Entities reached through several paths are the same pointer, and schema
// graphs may be cyclic. The graph is read-only once built; IDs are only
// stable within a single run.
package model
