package librarystats

import "github.com/AntonStoeckl/library-circulation-go/circulation"

// Project counts books, students and issue logs. It is a pure function.
func Project(books []circulation.Book, students []circulation.Student, entries []circulation.IssueLog) LibraryStats {
	stats := LibraryStats{
		TotalTitles: len(books),
		Students:    len(students),
	}

	for _, book := range books {
		if book.Available {
			stats.AvailableTitles++
		}
	}

	for _, entry := range entries {
		if entry.IsOpen() {
			stats.OpenIssues++
		} else {
			stats.ClosedIssues++
		}
	}

	return stats
}
