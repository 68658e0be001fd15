package pathutil

// Component kinds, named after their OAS 3.x section.
const (
	KindSchemas       = "schemas"
	KindParameters    = "parameters"
	KindRequestBodies = "requestBodies"
	KindResponses     = "responses"
	KindHeaders       = "headers"
	KindPathItems     = "pathItems"
)

// OAS 2.0 sections map onto the 3.x kinds.
var oas2Sections = map[string]string{
	"definitions": KindSchemas,
	"parameters":  KindParameters,
	"responses":   KindResponses,
}

var oas3Sections = map[string]bool{
	KindSchemas:       true,
	KindParameters:    true,
	KindRequestBodies: true,
	KindResponses:     true,
	KindHeaders:       true,
	KindPathItems:     true,
}

// Component reports whether ptr addresses a declared reusable component and,
// if so, its kind and declared name. Only the component itself matches, not
// locations nested inside it.
func Component(ptr string) (kind, name string, ok bool) {
	segs := Split(ptr)
	switch {
	case len(segs) == 3 && segs[0] == "components" && oas3Sections[segs[1]]:
		return segs[1], segs[2], true
	case len(segs) == 2:
		if k, found := oas2Sections[segs[0]]; found {
			return k, segs[1], true
		}
	}
	return "", "", false
}

// ComponentName returns the name of the component enclosing ptr, or "" when
// ptr lies outside any reusable component.
func ComponentName(ptr string) string {
	segs := Split(ptr)
	switch {
	case len(segs) >= 3 && segs[0] == "components" && oas3Sections[segs[1]]:
		return segs[2]
	case len(segs) >= 2 && oas2Sections[segs[0]] != "":
		return segs[1]
	}
	return ""
}
