package returnbook_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/AntonStoeckl/library-circulation-go/circulation"
	"github.com/AntonStoeckl/library-circulation-go/features/command/returnbook"
)

func Test_Decide(t *testing.T) {
	issued := time.Date(2026, 10, 18, 0, 0, 0, 0, time.UTC)
	openEntry := circulation.IssueLog{ID: 7, StudentID: 1, BookID: 2, IssueDate: issued}
	closedEntry := openEntry
	closedEntry.ReturnDate = issued.AddDate(0, 0, 7)

	command := returnbook.BuildCommand(7, issued.AddDate(0, 0, 14))

	testCases := []struct {
		name        string
		state       returnbook.State
		expectedErr error
	}{
		{
			name:  "success for an open entry of an issued book",
			state: returnbook.State{Entry: openEntry, EntryFound: true, BookFound: true},
		},
		{
			name:        "entry not found",
			state:       returnbook.State{},
			expectedErr: circulation.ErrNotFound,
		},
		{
			name:        "entry already closed",
			state:       returnbook.State{Entry: closedEntry, EntryFound: true, BookFound: true, BookAvailable: true},
			expectedErr: circulation.ErrAlreadyClosed,
		},
		{
			name:        "book of an open entry is flagged available",
			state:       returnbook.State{Entry: openEntry, EntryFound: true, BookFound: true, BookAvailable: true},
			expectedErr: circulation.ErrInconsistentState,
		},
		{
			name:        "book of an open entry is missing",
			state:       returnbook.State{Entry: openEntry, EntryFound: true},
			expectedErr: circulation.ErrInconsistentState,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// act
			err := returnbook.Decide(tc.state, command)

			// assert
			if tc.expectedErr == nil {
				assert.NoError(t, err)
				return
			}

			assert.ErrorIs(t, err, tc.expectedErr)
		})
	}
}

func Test_Decide_Error_InvalidReturnDate(t *testing.T) {
	issued := time.Date(2026, 10, 25, 0, 0, 0, 0, time.UTC)
	state := returnbook.State{
		Entry:      circulation.IssueLog{ID: 7, StudentID: 1, BookID: 2, IssueDate: issued},
		EntryFound: true,
		BookFound:  true,
	}

	testCases := []struct {
		name       string
		returnedAt time.Time
	}{
		{name: "zero return date", returnedAt: time.Time{}},
		{name: "return date before the issue date", returnedAt: issued.AddDate(0, 0, -7)},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// act
			err := returnbook.Decide(state, returnbook.BuildCommand(7, tc.returnedAt))

			// assert
			assert.ErrorIs(t, err, circulation.ErrInvalidInput)
		})
	}
}

func Test_Decide_ReturnOnTheIssueDay(t *testing.T) {
	// setup
	issued := time.Date(2026, 10, 25, 0, 0, 0, 0, time.UTC)
	state := returnbook.State{
		Entry:      circulation.IssueLog{ID: 7, StudentID: 1, BookID: 2, IssueDate: issued},
		EntryFound: true,
		BookFound:  true,
	}

	// act
	err := returnbook.Decide(state, returnbook.BuildCommand(7, issued.Add(17*time.Hour)))

	// assert
	assert.NoError(t, err)
}
