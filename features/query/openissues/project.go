package openissues

import (
	"cmp"
	"slices"

	"github.com/AntonStoeckl/library-circulation-go/circulation"
)

// Project builds the OpenIssues result. It is a pure function.
//
// Query Logic:
//
//	GIVEN: the issue logs, and the active books and students
//	WHEN: OpenIssues query is executed
//	THEN: OpenIssues with one IssueInfo per open issue log
//	EXCLUDES: closed issue logs, and open ones of other students if StudentID is set
func Project(
	entries []circulation.IssueLog,
	books []circulation.Book,
	students []circulation.Student,
	query Query,
) OpenIssues {
	studentNames := make(map[int64]string, len(students))
	for _, student := range students {
		studentNames[student.ID] = student.Name
	}

	bookTitles := make(map[int64]string, len(books))
	for _, book := range books {
		bookTitles[book.ID] = book.Title
	}

	issues := make([]IssueInfo, 0)
	for _, entry := range entries {
		if !entry.IsOpen() {
			continue
		}

		if query.StudentID != 0 && entry.StudentID != query.StudentID {
			continue
		}

		issues = append(issues, IssueInfo{
			LogID:       entry.ID,
			StudentID:   entry.StudentID,
			StudentName: studentNames[entry.StudentID],
			BookID:      entry.BookID,
			BookTitle:   bookTitles[entry.BookID],
			IssueDate:   entry.IssueDate,
			IssuedOn:    entry.IssueDateString(),
		})
	}

	slices.SortFunc(issues, func(a, b IssueInfo) int {
		return cmp.Compare(a.LogID, b.LogID)
	})

	return OpenIssues{Issues: issues, Count: len(issues)}
}
