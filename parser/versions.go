package parser

import (
	"math"
	"strconv"
	"strings"
)

// OASVersion identifies the major.minor series of an OpenAPI document.
// Patch releases never change resolution or normalization behavior, so the
// full version string is kept separately on [Document].
type OASVersion int

const (
	// Unknown is a missing or unsupported version.
	Unknown OASVersion = iota
	// OASVersion20 is Swagger / OpenAPI 2.0.
	OASVersion20
	// OASVersion30 is the OpenAPI 3.0.x series.
	OASVersion30
	// OASVersion31 is the OpenAPI 3.1.x series.
	OASVersion31
	// OASVersion32 is the OpenAPI 3.2.x series, normalized like 3.1.
	OASVersion32
)

var versionNames = map[OASVersion]string{
	OASVersion20: "2.0",
	OASVersion30: "3.0",
	OASVersion31: "3.1",
	OASVersion32: "3.2",
}

func (v OASVersion) String() string {
	if s, ok := versionNames[v]; ok {
		return s
	}
	return "unknown"
}

// IsValid reports whether v is a supported version.
func (v OASVersion) IsValid() bool {
	_, ok := versionNames[v]
	return ok
}

// IsOAS2 reports whether v is the 2.0 series.
func (v OASVersion) IsOAS2() bool { return v == OASVersion20 }

// IsOAS3 reports whether v is any 3.x series.
func (v OASVersion) IsOAS3() bool { return v >= OASVersion30 }

// SupportsJSONSchema2020 reports whether schemas follow JSON Schema 2020-12
// semantics (type arrays, const, numeric exclusive bounds, $ref siblings).
func (v OASVersion) SupportsJSONSchema2020() bool { return v >= OASVersion31 }

// ParseVersion maps a version string such as "2.0", "3.0.3" or "3.1.0-rc1"
// to its series. Unknown major or minor numbers report false.
func ParseVersion(s string) (OASVersion, bool) {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '-'); i >= 0 {
		s = s[:i]
	}
	parts := strings.Split(s, ".")
	if len(parts) < 2 || len(parts) > 3 {
		return Unknown, false
	}
	nums := make([]int, len(parts))
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return Unknown, false
		}
		nums[i] = n
	}
	switch {
	case nums[0] == 2 && nums[1] == 0:
		return OASVersion20, true
	case nums[0] == 3 && nums[1] == 0:
		return OASVersion30, true
	case nums[0] == 3 && nums[1] == 1:
		return OASVersion31, true
	case nums[0] == 3 && nums[1] == 2:
		return OASVersion32, true
	}
	return Unknown, false
}

// DetectVersion reads the "swagger" or "openapi" field of a decoded root.
// It returns an empty string for fragment files that declare neither.
func DetectVersion(root any) (string, OASVersion) {
	obj, ok := root.(*Object)
	if !ok {
		return "", Unknown
	}
	for _, key := range []string{"swagger", "openapi"} {
		raw, ok := obj.Get(key)
		if !ok {
			continue
		}
		s := versionString(raw)
		v, _ := ParseVersion(s)
		return s, v
	}
	return "", Unknown
}

// versionString accepts the unquoted YAML forms `swagger: 2.0` and `openapi: 3.1`
// that decode as floats.
func versionString(raw any) string {
	switch v := raw.(type) {
	case string:
		return v
	case float64:
		if v == math.Trunc(v) {
			return strconv.FormatFloat(v, 'f', 1, 64)
		}
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v) + ".0"
	}
	return ""
}
