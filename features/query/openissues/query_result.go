package openissues

import "time"

// IssueInfo describes one book on loan.
type IssueInfo struct {
	LogID       int64     `json:"log_id"`
	StudentID   int64     `json:"student_id"`
	StudentName string    `json:"student_name"`
	BookID      int64     `json:"book_id"`
	BookTitle   string    `json:"book_title"`
	IssueDate   time.Time `json:"-"`
	IssuedOn    string    `json:"issue_date"`
}

// OpenIssues represents the query result, ordered by log id.
type OpenIssues struct {
	Issues []IssueInfo `json:"issues"`
	Count  int         `json:"count"`
}
