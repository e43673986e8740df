package catalog

import "strings"

const (
	queryType = "Catalog"
)

// Query represents the input for listing the catalog.
type Query struct {
	AvailableOnly bool

	// Search keeps only books whose title or author contains it, ignoring case. Empty keeps all.
	Search string
}

// BuildQuery creates a new Query. availableOnly hides books that are currently issued.
func BuildQuery(availableOnly bool) Query {
	return Query{AvailableOnly: availableOnly}
}

// WithSearch returns a copy of q that searches titles and authors for term.
func (q Query) WithSearch(term string) Query {
	q.Search = strings.TrimSpace(term)
	return q
}

// QueryType returns the query type.
func (q Query) QueryType() string {
	return queryType
}
