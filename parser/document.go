package parser

import (
	"time"

	"github.com/speakeasy-api/openapi/sequencedmap"
)

// Object is a decoded mapping. Key order follows the source document.
type Object = sequencedmap.Map[string, any]

// NewObject returns an empty Object.
func NewObject() *Object {
	return sequencedmap.New[string, any]()
}

// SourceFormat is the serialization a document was read from.
type SourceFormat string

const (
	// SourceFormatYAML indicates YAML input.
	SourceFormatYAML SourceFormat = "yaml"
	// SourceFormatJSON indicates JSON input.
	SourceFormatJSON SourceFormat = "json"
	// SourceFormatUnknown indicates the format could not be determined.
	SourceFormatUnknown SourceFormat = "unknown"
)

// Document is a loaded, decoded file. Root holds the raw tree made of
// *Object, []any and scalar values; it is never mutated after loading.
type Document struct {
	// Path is the absolute file path or URL the document was loaded from.
	Path string
	// Root is the decoded raw tree.
	Root any
	// Format is the detected serialization.
	Format SourceFormat
	// Version is the declared version string, empty for fragment files.
	Version string
	// OASVersion is the series of Version, Unknown for fragment files.
	OASVersion OASVersion
	// Size is the byte length of the source.
	Size int64
	// LoadTime is how long reading and decoding took.
	LoadTime time.Duration
}

// RootObject returns Root as an *Object when it is a mapping.
func (d *Document) RootObject() (*Object, bool) {
	obj, ok := d.Root.(*Object)
	return obj, ok
}

// IsFragment reports whether the document declares no version of its own.
func (d *Document) IsFragment() bool {
	return d.Version == ""
}
