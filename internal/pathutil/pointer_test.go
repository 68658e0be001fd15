package pathutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPointer(t *testing.T) {
	assert.Equal(t, "", Pointer())
	assert.Equal(t, "/components/schemas/Pet", Pointer("components", "schemas", "Pet"))
	assert.Equal(t, "/paths/~1pets~1{id}/get", Pointer("paths", "/pets/{id}", "get"))
	assert.Equal(t, "/a~0b", Pointer("a~b"))
}

func TestChild(t *testing.T) {
	assert.Equal(t, "/paths/~1pets", Child("/paths", "/pets"))
	assert.Equal(t, "/properties/name", Child("/properties", "name"))
	assert.Equal(t, "/allOf/2", ChildIndex("/allOf", 2))
	assert.Equal(t, "/x", Child("", "x"))
}

func TestSplit(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"", []string{}},
		{"#", []string{}},
		{"#/components/schemas/Pet", []string{"components", "schemas", "Pet"}},
		{"/a//b/", []string{"a", "b"}},
		{"/paths/~1pets~1{id}", []string{"paths", "/pets/{id}"}},
		{"/paths/~1pets%7Bid%7D", []string{"paths", "/pets{id}"}},
		{"/a~01", []string{"a~1"}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Split(tt.in))
		})
	}
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "/components/schemas/Pet", Normalize("#/components//schemas/Pet"))
	assert.Equal(t, "", Normalize("#"))
	assert.Equal(t, "/paths/~1pets", Normalize("/paths/%2Fpets"))
}

func TestSplitRef(t *testing.T) {
	tests := []struct {
		ref, file, ptr string
	}{
		{"#/components/schemas/Pet", "", "/components/schemas/Pet"},
		{"./other.yaml#/Foo", "./other.yaml", "/Foo"},
		{"other.yaml", "other.yaml", ""},
		{"  #/a", "", "/a"},
		{"https://x.test/api.yaml#/definitions/A", "https://x.test/api.yaml", "/definitions/A"},
	}
	for _, tt := range tests {
		file, ptr := SplitRef(tt.ref)
		assert.Equal(t, tt.file, file, tt.ref)
		assert.Equal(t, tt.ptr, ptr, tt.ref)
	}
}
