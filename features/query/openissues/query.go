package openissues

const (
	queryType = "OpenIssues"
)

// Query represents the input for listing open issue logs.
// A StudentID of 0 lists the open issues of all students.
type Query struct {
	StudentID int64
}

// BuildQuery creates a new Query.
func BuildQuery(studentID int64) Query {
	return Query{StudentID: studentID}
}

// QueryType returns the query type.
func (q Query) QueryType() string {
	return queryType
}
