package circulation_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/library-circulation-go/circulation"
)

func Test_Day_TruncatesToCalendarDateOfTheGivenLocation(t *testing.T) {
	berlin := time.FixedZone("CET", 2*60*60)
	lateEvening := time.Date(2026, 10, 18, 23, 30, 0, 0, berlin)

	day := circulation.Day(lateEvening)

	assert.Equal(t, time.Date(2026, 10, 18, 0, 0, 0, 0, time.UTC), day)
}

func Test_IssueLog_DateStrings(t *testing.T) {
	entry := circulation.IssueLog{
		ID:        1,
		StudentID: 1,
		BookID:    1,
		IssueDate: time.Date(2026, 10, 18, 0, 0, 0, 0, time.UTC),
	}

	assert.True(t, entry.IsOpen())
	assert.Equal(t, "2026-10-18", entry.IssueDateString())
	assert.Equal(t, "", entry.ReturnDateString())

	entry.ReturnDate = time.Date(2026, 10, 25, 0, 0, 0, 0, time.UTC)

	assert.False(t, entry.IsOpen())
	assert.Equal(t, "2026-10-25", entry.ReturnDateString())
}

func Test_ParseDay(t *testing.T) {
	day, err := circulation.ParseDay("2026-10-18")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 10, 18, 0, 0, 0, 0, time.UTC), day)

	_, err = circulation.ParseDay("18.10.2026")
	assert.ErrorIs(t, err, circulation.ErrInvalidInput)
}

func Test_ValidateBook(t *testing.T) {
	assert.NoError(t, circulation.ValidateBook("Clean Code", "Robert C. Martin"))
	assert.ErrorIs(t, circulation.ValidateBook("  ", "Robert C. Martin"), circulation.ErrInvalidInput)
	assert.ErrorIs(t, circulation.ValidateBook("Clean Code", ""), circulation.ErrInvalidInput)
}

func Test_ValidateStudent(t *testing.T) {
	assert.NoError(t, circulation.ValidateStudent("Alice Smith", "alice@example.org"))
	assert.ErrorIs(t, circulation.ValidateStudent("", "alice@example.org"), circulation.ErrInvalidInput)
	assert.ErrorIs(t, circulation.ValidateStudent("Alice Smith", "alice"), circulation.ErrInvalidInput)
}

func Test_NormalizeEmail(t *testing.T) {
	assert.Equal(t, "alice@example.org", circulation.NormalizeEmail("  Alice@Example.ORG "))
}

func Test_ValidateDay(t *testing.T) {
	require.NoError(t, circulation.ValidateDay("issue date", time.Date(2026, 10, 18, 0, 0, 0, 0, time.UTC)))

	err := circulation.ValidateDay("issue date", time.Time{})
	require.ErrorIs(t, err, circulation.ErrInvalidInput)
	assert.Contains(t, err.Error(), "issue date")
}

func Test_PasswordMatches(t *testing.T) {
	assert.True(t, circulation.PasswordMatches("admin123", "admin123"))
	assert.False(t, circulation.PasswordMatches("admin123", "admin124"))
	assert.False(t, circulation.PasswordMatches("admin123", "admin"))
	assert.False(t, circulation.PasswordMatches("admin123", ""))
}

func Test_ConsistencyLevel_FromContext(t *testing.T) {
	ctx := context.Background()

	assert.Equal(t, circulation.StrongConsistency, circulation.GetConsistencyLevel(ctx))
	assert.Equal(t, circulation.EventualConsistency, circulation.GetConsistencyLevel(circulation.WithEventualConsistency(ctx)))
	assert.Equal(t, circulation.StrongConsistency, circulation.GetConsistencyLevel(circulation.WithStrongConsistency(ctx)))
	assert.Equal(t, "eventual", circulation.EventualConsistency.String())
	assert.Equal(t, "unknown", circulation.ConsistencyLevel(42).String())
}
