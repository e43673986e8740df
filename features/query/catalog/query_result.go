package catalog

import "github.com/AntonStoeckl/library-circulation-go/circulation"

// Catalog represents the query result: books and students ordered by id.
type Catalog struct {
	Books    []circulation.Book
	Students []circulation.Student
}
