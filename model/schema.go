package model

import (
	"github.com/speakeasy-api/openapi/sequencedmap"
)

// Kind discriminates the schema variants.
type Kind string

// Schema kinds.
const (
	KindString    Kind = "string"
	KindNumber    Kind = "number"
	KindInteger   Kind = "integer"
	KindBoolean   Kind = "boolean"
	KindNull      Kind = "null"
	KindArray     Kind = "array"
	KindObject    Kind = "object"
	KindOneOf     Kind = "oneOf"
	KindCombined  Kind = "combined"
	KindMultiType Kind = "multi-type"
	KindUnknown   Kind = "unknown"
)

// Accessibility says in which direction a value travels.
type Accessibility string

const (
	// AccessAll values are both read and written.
	AccessAll Accessibility = "all"
	// AccessReadOnly values only appear in responses.
	AccessReadOnly Accessibility = "readOnly"
	// AccessWriteOnly values only appear in requests.
	AccessWriteOnly Accessibility = "writeOnly"
	// AccessNone values are both readOnly and writeOnly.
	AccessNone Accessibility = "none"
)

// AccessibilityOf combines the readOnly and writeOnly flags.
func AccessibilityOf(readOnly, writeOnly bool) Accessibility {
	switch {
	case readOnly && writeOnly:
		return AccessNone
	case readOnly:
		return AccessReadOnly
	case writeOnly:
		return AccessWriteOnly
	}
	return AccessAll
}

// Schema is a canonical schema. The fields shared by every kind live here;
// kind-specific data is in Variant.
type Schema struct {
	// ID is the identity of the source location, stable within one run.
	ID string
	// Name is the declared component name, or a generated one.
	Name string
	// IsNameGenerated is true when Name was not declared in a document.
	IsNameGenerated bool
	// Synthetic is true for schemas that exist in no document, such as
	// unions created while merging additionalProperties.
	Synthetic bool

	Title         string
	Description   string
	Deprecated    bool
	Accessibility Accessibility
	Enum          []any
	Const         any
	HasConst      bool
	Default       any
	HasDefault    bool
	Format        string
	Nullable      bool
	// Required lists required property names.
	Required   *StringSet
	Extensions *sequencedmap.Map[string, any]
	Source     Source

	Variant Variant
}

// Kind returns the kind of the schema's variant.
func (s *Schema) Kind() Kind {
	if s == nil || s.Variant == nil {
		return KindUnknown
	}
	return s.Variant.Kind()
}

// Object returns the object variant, or nil.
func (s *Schema) Object() *ObjectVariant {
	if s == nil {
		return nil
	}
	v, _ := s.Variant.(*ObjectVariant)
	return v
}

// Array returns the array variant, or nil.
func (s *Schema) Array() *ArrayVariant {
	if s == nil {
		return nil
	}
	v, _ := s.Variant.(*ArrayVariant)
	return v
}

// OneOf returns the oneOf variant, or nil.
func (s *Schema) OneOf() *OneOfVariant {
	if s == nil {
		return nil
	}
	v, _ := s.Variant.(*OneOfVariant)
	return v
}

// Combined returns the combined variant, or nil.
func (s *Schema) Combined() *CombinedVariant {
	if s == nil {
		return nil
	}
	v, _ := s.Variant.(*CombinedVariant)
	return v
}

// IsRequired reports whether prop is a required property.
func (s *Schema) IsRequired(prop string) bool {
	return s != nil && s.Required.Has(prop)
}

// Variant is the kind-specific part of a schema. The set of implementations
// is closed; switch on the concrete type.
type Variant interface {
	Kind() Kind
	variant()
}

// StringVariant is a string schema.
type StringVariant struct {
	MinLength *int
	MaxLength *int
	Pattern   string
}

// NumberVariant is a number or integer schema. Exclusive bounds use the
// numeric form; the boolean form of OpenAPI 3.0 and 2.0 is folded in.
type NumberVariant struct {
	Integer          bool
	Minimum          *float64
	Maximum          *float64
	ExclusiveMinimum *float64
	ExclusiveMaximum *float64
	MultipleOf       *float64
}

// BooleanVariant is a boolean schema.
type BooleanVariant struct{}

// NullVariant is a schema whose only value is null.
type NullVariant struct{}

// UnknownVariant is a schema without usable type information, including
// the targets of broken references.
type UnknownVariant struct{}

// ArrayVariant is an array schema.
type ArrayVariant struct {
	Items       *Schema
	MinItems    *int
	MaxItems    *int
	UniqueItems bool
}

// AdditionalProperties describes keys beyond the declared properties.
type AdditionalProperties struct {
	// Allowed is false for "additionalProperties: false".
	Allowed bool
	// Schema constrains the values when set.
	Schema *Schema
}

// ObjectVariant is an object schema. AllOf and AnyOf are empty once the
// schema has been flattened.
type ObjectVariant struct {
	Properties *sequencedmap.Map[string, *Schema]
	// AdditionalProperties is nil when the document did not say.
	AdditionalProperties *AdditionalProperties
	AllOf                []*Schema
	AnyOf                []*Schema
	OneOf                []*Schema
	Discriminator        *Discriminator
}

// NewObjectVariant returns an object variant with no properties.
func NewObjectVariant() *ObjectVariant {
	return &ObjectVariant{Properties: sequencedmap.New[string, *Schema]()}
}

// Discriminator names the property selecting a oneOf alternative.
type Discriminator struct {
	PropertyName string
	Mapping      *sequencedmap.Map[string, string]
}

// OneOfVariant is a schema that is exactly one of its members.
type OneOfVariant struct {
	Members       []*Schema
	Discriminator *Discriminator
}

// CombinedVariant is a composition without an object shape of its own, or
// one mixing a primitive type with composition.
type CombinedVariant struct {
	// Base is the primitive type declared alongside the composition, if any.
	Base  Kind
	AllOf []*Schema
	AnyOf []*Schema
	OneOf []*Schema
}

// MultiTypeVariant is a JSON Schema 2020-12 "type" array with several
// non-null types.
type MultiTypeVariant struct {
	Types []Kind
}

func (*StringVariant) Kind() Kind { return KindString }
func (v *NumberVariant) Kind() Kind {
	if v.Integer {
		return KindInteger
	}
	return KindNumber
}
func (*BooleanVariant) Kind() Kind   { return KindBoolean }
func (*NullVariant) Kind() Kind      { return KindNull }
func (*UnknownVariant) Kind() Kind   { return KindUnknown }
func (*ArrayVariant) Kind() Kind     { return KindArray }
func (*ObjectVariant) Kind() Kind    { return KindObject }
func (*OneOfVariant) Kind() Kind     { return KindOneOf }
func (*CombinedVariant) Kind() Kind  { return KindCombined }
func (*MultiTypeVariant) Kind() Kind { return KindMultiType }

func (*StringVariant) variant()    {}
func (*NumberVariant) variant()    {}
func (*BooleanVariant) variant()   {}
func (*NullVariant) variant()      {}
func (*UnknownVariant) variant()   {}
func (*ArrayVariant) variant()     {}
func (*ObjectVariant) variant()    {}
func (*OneOfVariant) variant()     {}
func (*CombinedVariant) variant()  {}
func (*MultiTypeVariant) variant() {}
