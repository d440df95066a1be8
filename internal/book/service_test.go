package book

import (
	"context"
	"errors"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestService_Create(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	mockRepo := NewMockRepository(ctrl)
	service := NewService(mockRepo, nil)
	ctx := context.Background()

	t.Run("success - one commit for the batch", func(t *testing.T) {
		want := []Book{
			{Name: "It", Author: "Stephen King", YearPublished: 1989, BookType: "horror", Status: DefaultStatus},
			{Name: "Carrie", Author: "Stephen King", YearPublished: 1974, BookType: "horror", Status: DefaultStatus},
		}
		mockRepo.EXPECT().InsertBatch(ctx, want).DoAndReturn(func(_ context.Context, books []Book) ([]Book, error) {
			out := make([]Book, len(books))
			for i, b := range books {
				b.ID = int64(i + 1)
				out[i] = b
			}
			return out, nil
		})

		got, err := service.Create(ctx, want[0].Fields(), want[1].Fields())
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, int64(2), got[1].ID)
	})

	t.Run("error - validation stops before the store", func(t *testing.T) {
		_, err := service.Create(ctx, Fields{FieldName: "It"})
		assert.ErrorIs(t, err, ErrConstraintViolation)
	})

	t.Run("error - store violation passes through", func(t *testing.T) {
		storeErr := &ConstraintViolation{Violations: []Violation{{Field: FieldName, Rule: RuleUnique}}}
		mockRepo.EXPECT().InsertBatch(ctx, gomock.Any()).Return(nil, storeErr)

		_, err := service.Create(ctx, itFields())
		var cv *ConstraintViolation
		require.True(t, errors.As(err, &cv))
		assert.Same(t, storeErr, cv)
	})

	t.Run("error - other store errors are wrapped", func(t *testing.T) {
		mockRepo.EXPECT().InsertBatch(ctx, gomock.Any()).Return(nil, context.DeadlineExceeded)

		_, err := service.Create(ctx, itFields())
		assert.ErrorIs(t, err, context.DeadlineExceeded)
		assert.NotErrorIs(t, err, ErrConstraintViolation)
		assert.Contains(t, err.Error(), "commit books")
	})
}

func TestService_First(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	mockRepo := NewMockRepository(ctrl)
	service := NewService(mockRepo, nil)
	ctx := context.Background()

	mockRepo.EXPECT().FindFirst(ctx, []Filter{{FieldName, "It"}}).Return(Book{ID: 3, Name: "It"}, nil)

	got, err := service.First(ctx, Filter{FieldName, "It"})
	require.NoError(t, err)
	assert.Equal(t, int64(3), got.ID)
}

func TestService_List(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	mockRepo := NewMockRepository(ctrl)
	service := NewService(mockRepo, nil)
	ctx := context.Background()

	t.Run("normalizes filters", func(t *testing.T) {
		mockRepo.EXPECT().List(ctx, ListQuery{
			Filters: []Filter{{FieldYearPublished, int64(1989)}},
			Limit:   20,
		}).Return([]Book{{ID: 1}}, 1, nil)

		books, total, err := service.List(ctx, ListQuery{
			Filters: []Filter{{FieldYearPublished, 1989}},
			Limit:   20,
		})
		require.NoError(t, err)
		assert.Len(t, books, 1)
		assert.Equal(t, 1, total)
	})

	t.Run("rejects unknown fields", func(t *testing.T) {
		_, _, err := service.List(ctx, ListQuery{Filters: []Filter{{"isbn", "1"}}})
		assert.ErrorIs(t, err, ErrUnknownField)
	})
}
