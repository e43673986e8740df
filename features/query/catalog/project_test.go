package catalog_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/AntonStoeckl/library-circulation-go/circulation"
	"github.com/AntonStoeckl/library-circulation-go/features/query/catalog"
)

func Test_Project_Search(t *testing.T) {
	books := []circulation.Book{
		{ID: 1, Title: "Dune", Author: "Frank Herbert", Available: true},
		{ID: 2, Title: "Children of Dune", Author: "Frank Herbert", Available: false},
		{ID: 3, Title: "Emma", Author: "Jane Austen", Available: true},
		{ID: 4, Title: "Persuasion", Author: "Jane Austen", Available: false},
	}

	testCases := []struct {
		name        string
		query       catalog.Query
		expectedIDs []int64
	}{
		{name: "title, ignoring case", query: catalog.BuildQuery(false).WithSearch("dUNE"), expectedIDs: []int64{1, 2}},
		{name: "author", query: catalog.BuildQuery(false).WithSearch("austen"), expectedIDs: []int64{3, 4}},
		{name: "combined with available only", query: catalog.BuildQuery(true).WithSearch("Herbert"), expectedIDs: []int64{1}},
		{name: "blank term keeps all", query: catalog.BuildQuery(false).WithSearch("   "), expectedIDs: []int64{1, 2, 3, 4}},
		{name: "no match", query: catalog.BuildQuery(false).WithSearch("tolkien"), expectedIDs: []int64{}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// act
			result := catalog.Project(books, nil, tc.query)

			// assert
			ids := make([]int64, 0, len(result.Books))
			for _, book := range result.Books {
				ids = append(ids, book.ID)
			}

			assert.Equal(t, tc.expectedIDs, ids)
			assert.NotNil(t, result.Students)
		})
	}
}

func Test_Project_DoesNotModifyInput(t *testing.T) {
	// setup
	books := []circulation.Book{
		{ID: 1, Title: "Dune", Available: false},
		{ID: 2, Title: "Emma", Available: true},
	}

	// act
	catalog.Project(books, nil, catalog.BuildQuery(true).WithSearch("emma"))

	// assert
	assert.Equal(t, int64(1), books[0].ID)
	assert.Equal(t, int64(2), books[1].ID)
}
