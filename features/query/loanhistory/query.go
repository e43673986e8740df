package loanhistory

const (
	queryType = "LoanHistory"

	// DefaultLimit is the number of recent transactions shown on the dashboard.
	DefaultLimit = 10
)

// Query represents the input for listing the loan history.
// A StudentID of 0 covers all students, a Limit of 0 returns every matching entry.
type Query struct {
	StudentID int64
	Limit     int
}

// BuildQuery creates a new Query. A negative limit is treated as 0.
func BuildQuery(studentID int64, limit int) Query {
	return Query{StudentID: studentID, Limit: max(limit, 0)}
}

// QueryType returns the query type.
func (q Query) QueryType() string {
	return queryType
}
