package exportissuelogs

const (
	queryType = "ExportIssueLogs"
)

// Query represents the input for exporting the circulation ledger.
type Query struct {
	WithNames bool
}

// BuildQuery creates a new Query. withNames adds the student_name and book_title columns.
func BuildQuery(withNames bool) Query {
	return Query{WithNames: withNames}
}

// QueryType returns the query type.
func (q Query) QueryType() string {
	return queryType
}
