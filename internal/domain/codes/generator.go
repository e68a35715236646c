// Package codes issues patient codes and fetches them from a peer instance.
//
// Every instance serves GET /codes/next, so one instance can act as the code
// service for another: the client side strips the JSON quotes from the
// response body and hands the bare code to the patient service.
package codes

import (
	"strings"

	"github.com/google/uuid"
)

const DefaultPrefix = "PAT"

// suffixLen hex digits are taken from the leading 48 bits of a v4 UUID, all
// of which are random. Codes are not checked for uniqueness; the chance of
// any repeat reaches 50% only after about 16.7 million codes (2^24).
const suffixLen = 12

// Generator issues codes of the form <prefix>-<12 upper-case hex digits>.
type Generator struct {
	prefix string
	newID  func() uuid.UUID
}

func NewGenerator(prefix string) *Generator {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Generator{prefix: prefix, newID: uuid.New}
}

func (g *Generator) Next() string {
	id := g.newID()
	return g.prefix + "-" + strings.ToUpper(strings.ReplaceAll(id.String(), "-", "")[:suffixLen])
}
