package cache

import (
	"slices"
)

// Key prefixes, also reported to observability hooks as the key type.
const (
	KeyTypeResult   = "result"
	KeyTypeDocument = "doc"
)

// Keyer builds cache keys.
type Keyer interface {
	// ResultKey identifies the evaluation of targets against a document.
	ResultKey(docHash string, targets []string, opts ResultKeyOpts) string

	// DocumentKey identifies the stored canonical bytes of a graph.
	DocumentKey(graphID string) string
}

// ResultKeyOpts holds everything besides the document that changes an
// evaluation result.
type ResultKeyOpts struct {
	Catalog          string `json:"catalog"` // fingerprint of the registered plugins
	MaxSubgraphDepth int    `json:"max_subgraph_depth"`
}

// DefaultKeyer is the standard [Keyer].
type DefaultKeyer struct{}

// NewDefaultKeyer returns a DefaultKeyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// ResultKey hashes the document hash, the sorted targets and opts.
// Target order does not affect the key.
func (DefaultKeyer) ResultKey(docHash string, targets []string, opts ResultKeyOpts) string {
	sorted := slices.Clone(targets)
	slices.Sort(sorted)
	return hashKey(KeyTypeResult, docHash, sorted, opts)
}

// DocumentKey returns "doc:<graphID>".
func (DefaultKeyer) DocumentKey(graphID string) string {
	return KeyTypeDocument + ":" + graphID
}

var _ Keyer = DefaultKeyer{}
