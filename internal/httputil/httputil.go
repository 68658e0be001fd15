// Package httputil provides HTTP-related checks used while building the
// canonical graph.
package httputil

import (
	"mime"
	"strconv"
	"strings"
)

// Operation keys of a path item.
const (
	MethodGet     = "get"
	MethodPut     = "put"
	MethodPost    = "post"
	MethodDelete  = "delete"
	MethodOptions = "options"
	MethodHead    = "head"
	MethodPatch   = "patch"
	MethodTrace   = "trace"
)

const (
	minStatusCode = 100
	maxStatusCode = 599
	wildcard      = 'X'
)

// IsResponseKey reports whether key names a response: "default", a wildcard
// class such as "4XX", or a numeric code between 100 and 599.
func IsResponseKey(key string) bool {
	if key == "default" {
		return true
	}
	if len(key) != 3 {
		return false
	}
	if key[1] == wildcard && key[2] == wildcard {
		return key[0] >= '1' && key[0] <= '5'
	}
	for i := range len(key) {
		if key[i] < '0' || key[i] > '9' {
			return false
		}
	}
	code, _ := strconv.Atoi(key)
	return code >= minStatusCode && code <= maxStatusCode
}

// IsMediaType reports whether mediaType is a media type or media range
// ("*/*", "image/*"). A wildcard type with a concrete subtype is rejected.
func IsMediaType(mediaType string) bool {
	if mediaType == "*/*" {
		return true
	}
	if typ, ok := strings.CutSuffix(mediaType, "/*"); ok {
		return typ != "" && typ != "*" && !strings.Contains(typ, "/")
	}
	if strings.HasPrefix(mediaType, "*/") || !strings.Contains(mediaType, "/") {
		return false
	}
	_, _, err := mime.ParseMediaType(mediaType)
	return err == nil
}
