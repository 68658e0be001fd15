// Package naming converts document locations into identifier-friendly names.
//
// The canonical model builder uses it to derive deterministic names for inline
// schemas that have no declared component name, and [Registry] keeps those
// names unique within one run.
package naming
