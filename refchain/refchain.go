// Package refchain collapses chains of pure alias references.
//
// A schema written as
//
//	A: {$ref: '#/components/schemas/B'}
//	B: {$ref: '#/components/schemas/C'}
//	C: {type: object, ...}
//
// has three locations but only one substantive definition. [Walk] returns C
// for A and B, while a hop that adds a real keyword of its own stays a
// separate definition.
package refchain

import (
	"slices"
	"strings"

	"github.com/erraggy/oasgraph/deref"
)

// OverlayKeywords are the keywords a reference may carry without becoming a
// definition of its own.
var OverlayKeywords = []string{"summary", "description"}

// Walk follows references from n while the current node defines nothing but
// the reference, internal "$" keys, "x-" extensions and the ignored keys. It
// returns the first node that defines something else, the last node of the
// chain, or, for a broken reference, the broken node itself.
func Walk(n *deref.Node, ignore ...string) *deref.Node {
	if n == nil {
		return nil
	}
	visited := make(map[*deref.Node]bool)
	cur := n
	for cur.IsReference() && cur.Target() != nil && !visited[cur] {
		visited[cur] = true
		if DefinesSomething(cur, ignore...) {
			return cur
		}
		cur = cur.Target()
	}
	return cur
}

// Canonical returns the node whose identity stands for n: reference sites
// that only add a summary or description collapse onto their target.
func Canonical(n *deref.Node) *deref.Node {
	return Walk(n, OverlayKeywords...)
}

// DefinesSomething reports whether n's own keywords include anything besides
// "$"-prefixed keys, "x-" extensions and the ignored keys.
func DefinesSomething(n *deref.Node, ignore ...string) bool {
	for _, k := range n.OwnKeys() {
		if strings.HasPrefix(k, "$") || strings.HasPrefix(k, "x-") {
			continue
		}
		if slices.Contains(ignore, k) {
			continue
		}
		return true
	}
	return false
}
