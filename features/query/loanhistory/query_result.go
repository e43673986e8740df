package loanhistory

// Loan is one issue log with the names it refers to. ReturnDate is empty while the book is on loan.
type Loan struct {
	LogID       int64  `json:"log_id"`
	StudentID   int64  `json:"student_id"`
	StudentName string `json:"student_name"`
	BookID      int64  `json:"book_id"`
	BookTitle   string `json:"book_title"`
	IssueDate   string `json:"issue_date"`
	ReturnDate  string `json:"return_date"`
	Returned    bool   `json:"returned"`
}

// LoanHistory represents the query result, newest issue first.
type LoanHistory struct {
	Loans []Loan `json:"loans"`
	Count int    `json:"count"`
}
