package model

import (
	"github.com/speakeasy-api/openapi/sequencedmap"
)

// Source is the provenance of a canonical entity.
type Source struct {
	// File is the absolute path or URL of the declaring document.
	File string
	// Path is the JSON pointer of the declaration within File.
	Path string
	// Ref is the reference string through which the entity was first
	// reached, if any.
	Ref string
}

// Key returns the "file#pointer" identity.
func (s Source) Key() string {
	return s.File + "#" + s.Path
}

// Graph is the result of a run. Every slice is in discovery order and every
// cross-reference points into these slices.
type Graph struct {
	Services  []*Service
	Endpoints []*Endpoint
	Schemas   []*Schema
}

// Schema returns the schema with the given ID.
func (g *Graph) Schema(id string) (*Schema, bool) {
	for _, s := range g.Schemas {
		if s.ID == id {
			return s, true
		}
	}
	return nil, false
}

// SchemaNamed returns the first schema with the given name.
func (g *Graph) SchemaNamed(name string) (*Schema, bool) {
	for _, s := range g.Schemas {
		if s.Name == name {
			return s, true
		}
	}
	return nil, false
}

// Service returns the service with the given name.
func (g *Graph) Service(name string) (*Service, bool) {
	for _, s := range g.Services {
		if s.Name == name {
			return s, true
		}
	}
	return nil, false
}

// Endpoint returns the endpoint for method and path.
func (g *Graph) Endpoint(method, path string) (*Endpoint, bool) {
	for _, e := range g.Endpoints {
		if e.Method == method && e.Path == path {
			return e, true
		}
	}
	return nil, false
}

// Service groups endpoints by tag.
type Service struct {
	Name        string
	Description string
	Endpoints   []*Endpoint
}

// PathItem is a path template shared by several endpoints.
type PathItem struct {
	ID          string
	Path        string
	Summary     string
	Description string
	Parameters  []*Parameter
	Extensions  *sequencedmap.Map[string, any]
	Source      Source
}

// Endpoint is one operation.
type Endpoint struct {
	ID          string
	Method      string
	Path        string
	PathItem    *PathItem
	OperationID string
	Summary     string
	Description string
	// Parameters include those inherited from the path item.
	Parameters  []*Parameter
	RequestBody *RequestBody
	// Responses maps status codes (and "default") to responses.
	Responses  *sequencedmap.Map[string, *Response]
	Tags       []string
	Deprecated bool
	// Webhook is true for operations declared under "webhooks".
	Webhook    bool
	Extensions *sequencedmap.Map[string, any]
	Source     Source
}

// Parameter locations.
const (
	InQuery  = "query"
	InHeader = "header"
	InPath   = "path"
	InCookie = "cookie"
)

// Parameter is a non-body operation parameter.
type Parameter struct {
	ID          string
	Name        string
	In          string
	Description string
	Required    bool
	Deprecated  bool
	Style       string
	Explode     *bool
	Schema      *Schema
	// Content is used instead of Schema for complex serializations.
	Content    []*Content
	Extensions *sequencedmap.Map[string, any]
	Source     Source
}

// Content is a schema for one media type.
type Content struct {
	MediaType string
	Schema    *Schema
}

// RequestBody is an operation's request payload.
type RequestBody struct {
	ID          string
	Description string
	Required    bool
	Contents    []*Content
	Extensions  *sequencedmap.Map[string, any]
	Source      Source
}

// Response is one possible operation result.
type Response struct {
	ID          string
	Description string
	Headers     *sequencedmap.Map[string, *Header]
	Contents    []*Content
	Extensions  *sequencedmap.Map[string, any]
	Source      Source
}

// Header is a response header.
type Header struct {
	ID          string
	Description string
	Required    bool
	Deprecated  bool
	Schema      *Schema
	Extensions  *sequencedmap.Map[string, any]
	Source      Source
}
