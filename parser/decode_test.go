package parser

import (
	"slices"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requireObject(t *testing.T, v any) *Object {
	t.Helper()
	obj, ok := v.(*Object)
	require.True(t, ok, "expected *Object, got %T", v)
	return obj
}

func TestDecodePreservesKeyOrder(t *testing.T) {
	src := `
zebra: 1
apple: 2
mango:
  "200": ok
  "100": continue
`
	root, err := Decode([]byte(src))
	require.NoError(t, err)

	obj := requireObject(t, root)
	assert.Equal(t, []string{"zebra", "apple", "mango"}, slices.Collect(obj.Keys()))

	mango := requireObject(t, obj.GetOrZero("mango"))
	assert.Equal(t, []string{"200", "100"}, slices.Collect(mango.Keys()))
}

func TestDecodeJSON(t *testing.T) {
	root, err := Decode([]byte(`{"openapi":"3.1.0","tags":[{"name":"pets"}],"flag":true,"n":1.5}`))
	require.NoError(t, err)

	obj := requireObject(t, root)
	assert.Equal(t, "3.1.0", obj.GetOrZero("openapi"))
	assert.Equal(t, true, obj.GetOrZero("flag"))
	assert.Equal(t, 1.5, obj.GetOrZero("n"))

	tags, ok := obj.GetOrZero("tags").([]any)
	require.True(t, ok)
	require.Len(t, tags, 1)
	assert.Equal(t, "pets", requireObject(t, tags[0]).GetOrZero("name"))
}

func TestDecodeAliasesAndMergeKeys(t *testing.T) {
	src := `
base: &base
  type: object
  description: base
derived:
  <<: *base
  description: derived
copy: *base
`
	root, err := Decode([]byte(src))
	require.NoError(t, err)
	obj := requireObject(t, root)

	derived := requireObject(t, obj.GetOrZero("derived"))
	assert.Equal(t, "object", derived.GetOrZero("type"))
	assert.Equal(t, "derived", derived.GetOrZero("description"))
	assert.Equal(t, 2, derived.Len())

	cp := requireObject(t, obj.GetOrZero("copy"))
	assert.Equal(t, "base", cp.GetOrZero("description"))
}

func TestDecodeDuplicateKeyLastWins(t *testing.T) {
	root, err := Decode([]byte(`{"a": 1, "b": 2, "a": 3}`))
	if err != nil {
		// Some decoders reject duplicates outright, which is also acceptable.
		return
	}
	obj := requireObject(t, root)
	assert.Equal(t, 2, obj.Len())
	assert.Equal(t, 3, obj.GetOrZero("a"))
}

func TestDecodeEmptyAndInvalid(t *testing.T) {
	root, err := Decode(nil)
	require.NoError(t, err)
	assert.Nil(t, root)

	_, err = Decode([]byte("key: [unclosed"))
	assert.Error(t, err)
}

func TestDecodeNestingLimit(t *testing.T) {
	src := "a:\n  b: " + strings.Repeat("[", maxDecodeDepth+2) + strings.Repeat("]", maxDecodeDepth+2) + "\n"
	_, err := Decode([]byte(src))
	require.Error(t, err)
	var decodeErr *DecodeError
	require.ErrorAs(t, err, &decodeErr)
	assert.Equal(t, 2, decodeErr.Line)
	assert.Contains(t, decodeErr.Error(), "nesting exceeds")
}
