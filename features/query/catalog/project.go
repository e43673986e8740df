package catalog

import (
	"slices"
	"strings"

	"github.com/AntonStoeckl/library-circulation-go/circulation"
)

// Project builds the Catalog. It is a pure function.
//
// Query Logic:
//
//	GIVEN: the active books and students
//	WHEN: Catalog query is executed
//	THEN: all students, and all books or only the available ones
//	SEARCH: books whose title or author contains Search, case-insensitive
func Project(books []circulation.Book, students []circulation.Student, query Query) Catalog {
	search := strings.ToLower(strings.TrimSpace(query.Search))

	books = slices.DeleteFunc(slices.Clone(books), func(book circulation.Book) bool {
		if query.AvailableOnly && !book.Available {
			return true
		}

		return search != "" &&
			!strings.Contains(strings.ToLower(book.Title), search) &&
			!strings.Contains(strings.ToLower(book.Author), search)
	})

	if books == nil {
		books = []circulation.Book{}
	}

	if students == nil {
		students = []circulation.Student{}
	}

	return Catalog{Books: books, Students: students}
}
