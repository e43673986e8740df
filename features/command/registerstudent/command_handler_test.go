package registerstudent_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/library-circulation-go/circulation"
	"github.com/AntonStoeckl/library-circulation-go/features/command/registerstudent"
	"github.com/AntonStoeckl/library-circulation-go/testutil/testengines"
)

func Test_CommandHandler_Handle_Success(t *testing.T) {
	testengines.ForEach(t, func(t *testing.T, engine circulation.Engine) {
		// setup
		ctx := context.Background()
		handler := registerstudent.NewCommandHandler(engine)

		// act
		result, err := handler.Handle(ctx, registerstudent.BuildCommand("Ada Lovelace", " Ada@Example.org "))

		// assert
		require.NoError(t, err)

		student, err := engine.GetStudent(ctx, result.RecordID)
		require.NoError(t, err)
		assert.Equal(t, "Ada Lovelace", student.Name)
		assert.Equal(t, "ada@example.org", student.Email)
	})
}

func Test_CommandHandler_Handle_Error_DuplicateEmail(t *testing.T) {
	testengines.ForEach(t, func(t *testing.T, engine circulation.Engine) {
		// setup
		ctx := context.Background()
		handler := registerstudent.NewCommandHandler(engine)
		_, err := handler.Handle(ctx, registerstudent.BuildCommand("Ada", "ada@example.org"))
		require.NoError(t, err)

		// act
		result, err := handler.Handle(ctx, registerstudent.BuildCommand("Another Ada", "ADA@example.org"))

		// assert
		assert.ErrorIs(t, err, circulation.ErrDuplicateKey)
		assert.Equal(t, 1, result.RetryAttempts, "duplicate keys must not be retried")

		students, err := engine.ListStudents(ctx)
		require.NoError(t, err)
		assert.Len(t, students, 1)
	})
}
