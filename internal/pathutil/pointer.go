package pathutil

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/speakeasy-api/openapi/jsonpointer"
)

// Pointer builds a JSON pointer from unescaped segments. No segments yields
// the empty pointer, which addresses the whole document.
func Pointer(segments ...string) string {
	if len(segments) == 0 {
		return ""
	}
	return string(jsonpointer.PartsToJSONPointer(segments))
}

// Child appends one unescaped segment to ptr.
func Child(ptr, segment string) string {
	return ptr + "/" + jsonpointer.EscapeString(segment)
}

// ChildIndex appends an array index to ptr.
func ChildIndex(ptr string, i int) string {
	return ptr + "/" + strconv.Itoa(i)
}

// Split returns the unescaped segments of ptr. Blank segments are skipped, so
// "#/a//b" and "/a/b" are equivalent. Percent-encoding is decoded before
// "~1" and "~0".
func Split(ptr string) []string {
	ptr = strings.TrimPrefix(ptr, "#")
	raw := strings.Split(ptr, "/")
	out := make([]string, 0, len(raw))
	for _, seg := range raw {
		if strings.TrimSpace(seg) == "" {
			continue
		}
		if decoded, err := url.PathUnescape(seg); err == nil {
			seg = decoded
		}
		seg = strings.ReplaceAll(seg, "~1", "/")
		seg = strings.ReplaceAll(seg, "~0", "~")
		out = append(out, seg)
	}
	return out
}

// Normalize rewrites ptr into canonical form: leading slash, no blank
// segments, RFC 6901 escaping only.
func Normalize(ptr string) string {
	return Pointer(Split(ptr)...)
}

// SplitRef splits a $ref into its file part and pointer part. The file part
// is trimmed and empty for same-document references.
func SplitRef(ref string) (file, pointer string) {
	file, pointer, _ = strings.Cut(ref, "#")
	return strings.TrimSpace(file), pointer
}
