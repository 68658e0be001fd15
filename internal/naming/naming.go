package naming

import (
	"strconv"
	"strings"
	"sync"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Words splits s on every rune that is neither a letter nor a digit.
func Words(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// ToPascalCase upper-cases the first letter of every word and joins them.
// Existing capitals are kept.
// Example: "user_profile" -> "UserProfile"
// Example: "/pets/{petId}" -> "PetsPetId"
func ToPascalCase(s string) string {
	// Casers carry state, so each call gets its own.
	caser := cases.Title(language.English, cases.NoLower)
	var b strings.Builder
	for _, w := range Words(s) {
		b.WriteString(caser.String(w))
	}
	return b.String()
}

// structural segments add nothing to a generated name.
var skipSegments = map[string]bool{
	"components":  true,
	"schemas":     true,
	"definitions": true,
	"paths":       true,
	"webhooks":    true,
	"content":     true,
	"schema":      true,
	"properties":  true,
	"$defs":       true,
}

var renameSegments = map[string]string{
	"items":                "Item",
	"additionalProperties": "Value",
	"requestBody":          "Request",
	"responses":            "Response",
	"parameters":           "Param",
	"headers":              "Header",
}

// FromPointerSegments derives a type name from the unescaped segments of the
// JSON pointer where an inline schema was found.
// Example: ["paths", "/pets", "get", "responses", "200", "content", "application/json", "schema"]
// -> "PetsGetResponse200ApplicationJson"
func FromPointerSegments(segments []string) string {
	var b strings.Builder
	for _, seg := range segments {
		if skipSegments[seg] {
			continue
		}
		if r, ok := renameSegments[seg]; ok {
			b.WriteString(r)
			continue
		}
		b.WriteString(ToPascalCase(seg))
	}
	name := b.String()
	if name == "" {
		return "Schema"
	}
	if r := []rune(name)[0]; unicode.IsDigit(r) {
		name = "Schema" + name
	}
	return name
}

// Registry hands out names that are unique within a run.
type Registry struct {
	mu   sync.Mutex
	used map[string]int
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{used: make(map[string]int)}
}

// Reserve marks name as taken without renaming it.
func (r *Registry) Reserve(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.used[name]; !ok {
		r.used[name] = 1
	}
}

// Claim returns name if unused, otherwise name with the next free numeric
// suffix ("Name2", "Name3", ...).
func (r *Registry) Claim(name string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	n, taken := r.used[name]
	if !taken {
		r.used[name] = 1
		return name
	}
	for {
		n++
		candidate := name + strconv.Itoa(n)
		if _, exists := r.used[candidate]; !exists {
			r.used[name] = n
			r.used[candidate] = 1
			return candidate
		}
	}
}
