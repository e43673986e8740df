package loanhistory

import (
	"cmp"
	"slices"

	"github.com/AntonStoeckl/library-circulation-go/circulation"
)

// Project builds the LoanHistory. It is a pure function.
//
// Query Logic:
//
//	GIVEN: all issue logs, and the active books and students
//	WHEN: LoanHistory query is executed
//	THEN: one Loan per issue log, newest issue date first, later log id first on the same day
//	INCLUDES: open and closed issue logs
//	EXCLUDES: entries of other students if StudentID is set, everything beyond Limit if Limit is set
//	NAMES: empty for removed records
func Project(
	entries []circulation.IssueLog,
	books []circulation.Book,
	students []circulation.Student,
	query Query,
) LoanHistory {
	studentNames := make(map[int64]string, len(students))
	for _, student := range students {
		studentNames[student.ID] = student.Name
	}

	bookTitles := make(map[int64]string, len(books))
	for _, book := range books {
		bookTitles[book.ID] = book.Title
	}

	selected := make([]circulation.IssueLog, 0, len(entries))
	for _, entry := range entries {
		if query.StudentID != 0 && entry.StudentID != query.StudentID {
			continue
		}

		selected = append(selected, entry)
	}

	slices.SortFunc(selected, func(a, b circulation.IssueLog) int {
		return cmp.Or(
			b.IssueDate.Compare(a.IssueDate),
			cmp.Compare(b.ID, a.ID),
		)
	})

	if query.Limit > 0 && len(selected) > query.Limit {
		selected = selected[:query.Limit]
	}

	loans := make([]Loan, 0, len(selected))
	for _, entry := range selected {
		loans = append(loans, Loan{
			LogID:       entry.ID,
			StudentID:   entry.StudentID,
			StudentName: studentNames[entry.StudentID],
			BookID:      entry.BookID,
			BookTitle:   bookTitles[entry.BookID],
			IssueDate:   entry.IssueDateString(),
			ReturnDate:  entry.ReturnDateString(),
			Returned:    !entry.IsOpen(),
		})
	}

	return LoanHistory{Loans: loans, Count: len(loans)}
}
