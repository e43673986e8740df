package exportissuelogs

import (
	"cmp"
	"slices"
	"strconv"

	"github.com/AntonStoeckl/library-circulation-go/circulation"
)

// Project turns ledger entries into export rows. It is a pure function.
//
// Query Logic:
//
//	GIVEN: all issue logs, and the active books and students
//	WHEN: ExportIssueLogs query is executed
//	THEN: one row per issue log, ordered by log id
//	INCLUDES: open and closed issue logs
//	NAMES: looked up only with WithNames, empty for removed records
func Project(
	entries []circulation.IssueLog,
	books []circulation.Book,
	students []circulation.Student,
	query Query,
) Export {
	header := slices.Clone(Header)
	if query.WithNames {
		header = append(header, NameColumns...)
	}

	entries = slices.Clone(entries)
	slices.SortFunc(entries, func(a, b circulation.IssueLog) int {
		return cmp.Compare(a.ID, b.ID)
	})

	studentNames := make(map[int64]string, len(students))
	for _, student := range students {
		studentNames[student.ID] = student.Name
	}

	bookTitles := make(map[int64]string, len(books))
	for _, book := range books {
		bookTitles[book.ID] = book.Title
	}

	rows := make([][]string, 0, len(entries))
	for _, entry := range entries {
		row := []string{
			strconv.FormatInt(entry.ID, 10),
			strconv.FormatInt(entry.StudentID, 10),
			strconv.FormatInt(entry.BookID, 10),
			entry.IssueDateString(),
			entry.ReturnDateString(),
		}

		if query.WithNames {
			row = append(row, studentNames[entry.StudentID], bookTitles[entry.BookID])
		}

		rows = append(rows, row)
	}

	return Export{Header: header, Rows: rows}
}
