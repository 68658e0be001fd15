package model

import (
	"strconv"
	"sync/atomic"
)

// IDGenerator creates identities for synthetic entities. It is owned by a
// single run so IDs never leak between runs.
type IDGenerator struct {
	next atomic.Int64
}

// Next returns a fresh ID of the form "synthetic:<kind>:<n>".
func (g *IDGenerator) Next(kind Kind) string {
	return "synthetic:" + string(kind) + ":" + strconv.FormatInt(g.next.Add(1), 10)
}
