package model

import (
	"slices"

	"github.com/speakeasy-api/openapi/sequencedmap"
)

// StringSet is a set of strings that remembers insertion order for stable
// output. Equality ignores order. The zero value is not usable; a nil
// *StringSet behaves as an empty set for reads.
type StringSet struct {
	m *sequencedmap.Map[string, struct{}]
}

// NewStringSet returns a set holding values.
func NewStringSet(values ...string) *StringSet {
	s := &StringSet{m: sequencedmap.New[string, struct{}]()}
	s.Add(values...)
	return s
}

// Add inserts values that are not yet present.
func (s *StringSet) Add(values ...string) {
	for _, v := range values {
		if !s.m.Has(v) {
			s.m.Set(v, struct{}{})
		}
	}
}

// AddSet inserts every value of other.
func (s *StringSet) AddSet(other *StringSet) {
	s.Add(other.Values()...)
}

// Has reports membership.
func (s *StringSet) Has(v string) bool {
	return s != nil && s.m.Has(v)
}

// Len returns the number of values.
func (s *StringSet) Len() int {
	if s == nil {
		return 0
	}
	return s.m.Len()
}

// Values returns the values in insertion order.
func (s *StringSet) Values() []string {
	if s == nil {
		return nil
	}
	return slices.Collect(s.m.Keys())
}

// Sorted returns the values in lexical order.
func (s *StringSet) Sorted() []string {
	v := s.Values()
	slices.Sort(v)
	return v
}

// Equal reports whether both sets hold the same values.
func (s *StringSet) Equal(other *StringSet) bool {
	if s.Len() != other.Len() {
		return false
	}
	for _, v := range s.Values() {
		if !other.Has(v) {
			return false
		}
	}
	return true
}

// Clone returns an independent copy.
func (s *StringSet) Clone() *StringSet {
	return NewStringSet(s.Values()...)
}
