package loanhistory_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/library-circulation-go/circulation"
	"github.com/AntonStoeckl/library-circulation-go/features/query/loanhistory"
)

func day(d int) time.Time {
	return time.Date(2026, 10, d, 0, 0, 0, 0, time.UTC)
}

func Test_Project(t *testing.T) {
	// setup
	entries := []circulation.IssueLog{
		{ID: 1, StudentID: 1, BookID: 1, IssueDate: day(1), ReturnDate: day(5)},
		{ID: 2, StudentID: 2, BookID: 2, IssueDate: day(3)},
		{ID: 3, StudentID: 1, BookID: 3, IssueDate: day(3)},
		{ID: 4, StudentID: 1, BookID: 1, IssueDate: day(6)},
	}
	books := []circulation.Book{{ID: 1, Title: "Dune"}, {ID: 2, Title: "Emma"}}
	students := []circulation.Student{{ID: 1, Name: "Ada"}, {ID: 2, Name: "Bob"}}

	// act
	all := loanhistory.Project(entries, books, students, loanhistory.BuildQuery(0, 0))
	recent := loanhistory.Project(entries, books, students, loanhistory.BuildQuery(0, 2))
	ada := loanhistory.Project(entries, books, students, loanhistory.BuildQuery(1, 0))

	// assert
	require.Equal(t, 4, all.Count)
	assert.Equal(t, []int64{4, 3, 2, 1}, logIDs(all))

	assert.Equal(t, []int64{4, 3}, logIDs(recent))
	assert.Equal(t, 2, recent.Count)

	assert.Equal(t, []int64{4, 3, 1}, logIDs(ada))

	closed := all.Loans[3]
	assert.True(t, closed.Returned)
	assert.Equal(t, "2026-10-01", closed.IssueDate)
	assert.Equal(t, "2026-10-05", closed.ReturnDate)
	assert.Equal(t, "Ada", closed.StudentName)
	assert.Equal(t, "Dune", closed.BookTitle)

	removedBook := all.Loans[1]
	assert.False(t, removedBook.Returned)
	assert.Empty(t, removedBook.ReturnDate)
	assert.Empty(t, removedBook.BookTitle, "book 3 is not in the catalog anymore")
}

func Test_Project_Empty(t *testing.T) {
	// act
	result := loanhistory.Project(nil, nil, nil, loanhistory.BuildQuery(0, loanhistory.DefaultLimit))

	// assert
	assert.NotNil(t, result.Loans)
	assert.Equal(t, 0, result.Count)
}

func Test_BuildQuery_NegativeLimit(t *testing.T) {
	assert.Equal(t, 0, loanhistory.BuildQuery(0, -3).Limit)
}

func logIDs(history loanhistory.LoanHistory) []int64 {
	ids := make([]int64, 0, len(history.Loans))
	for _, loan := range history.Loans {
		ids = append(ids, loan.LogID)
	}

	return ids
}
