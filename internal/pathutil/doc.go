// Package pathutil builds and splits JSON pointers and recognizes the
// pointer locations of reusable OpenAPI components.
//
// Pointers are built from unescaped segments:
//
//	ptr := pathutil.Pointer("components", "schemas", "a/b") // "/components/schemas/a~1b"
//	ptr = pathutil.Child(ptr, "properties")
//
// and split back with [Split], which also accepts the percent-encoded form
// used inside URI fragments:
//
//	pathutil.Split("/paths/~1pets%7Bid%7D/get") // ["paths", "/pets{id}", "get"]
//
// [Component] reports the kind and declared name of a pointer such as
// "/components/schemas/Pet" or "/definitions/Pet".
package pathutil
