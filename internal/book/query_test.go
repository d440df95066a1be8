package book

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilter_Normalize(t *testing.T) {
	tests := []struct {
		name    string
		in      Filter
		want    Filter
		wantErr error
	}{
		{"string", Filter{FieldAuthor, "Stephen King"}, Filter{FieldAuthor, "Stephen King"}, nil},
		{"year int", Filter{FieldYearPublished, 1989}, Filter{FieldYearPublished, int64(1989)}, nil},
		{"year json number", Filter{FieldYearPublished, json.Number("1989")}, Filter{FieldYearPublished, int64(1989)}, nil},
		{"year string", Filter{FieldYearPublished, "1989"}, Filter{}, ErrInvalidFilter},
		{"name number", Filter{FieldName, 12}, Filter{}, ErrInvalidFilter},
		{"null", Filter{FieldName, nil}, Filter{}, ErrInvalidFilter},
		{"unknown", Filter{"id", 1}, Filter{}, ErrUnknownField},
		{"injection in field", Filter{"name; DROP TABLE books", "x"}, Filter{}, ErrUnknownField},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.in.Normalize()
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestWhereClause(t *testing.T) {
	where, args := whereClause([]Filter{
		{FieldName, "x' OR '1'='1"},
		{FieldYearPublished, int64(1989)},
	}, pgPlaceholder)

	assert.Equal(t, "WHERE 1=1 AND name = $1 AND year_published = $2", where)
	assert.Equal(t, []any{"x' OR '1'='1", int64(1989)}, args)

	where, args = whereClause(nil, sqlitePlaceholder)
	assert.Equal(t, "WHERE 1=1", where)
	assert.Empty(t, args)
}

func TestListSQL(t *testing.T) {
	t.Run("page", func(t *testing.T) {
		cw, ca, pw, pa := listSQL(ListQuery{
			Filters: []Filter{{FieldAuthor, "Stephen King"}},
			Limit:   20,
			Offset:  40,
		}, pgPlaceholder)

		assert.Equal(t, "WHERE 1=1 AND author = $1", cw)
		assert.Equal(t, []any{"Stephen King"}, ca)
		assert.Equal(t, "WHERE 1=1 AND author = $1 ORDER BY id LIMIT $2 OFFSET $3", pw)
		assert.Equal(t, []any{"Stephen King", 20, 40}, pa)
	})

	t.Run("cursor", func(t *testing.T) {
		_, _, pw, pa := listSQL(ListQuery{AfterID: 7, Limit: 5}, pgPlaceholder)
		assert.Equal(t, "WHERE 1=1 AND id > $1 ORDER BY id LIMIT $2 OFFSET $3", pw)
		assert.Equal(t, []any{int64(7), 5, 0}, pa)
	})

	t.Run("unbounded", func(t *testing.T) {
		_, _, pw, pa := listSQL(ListQuery{}, sqlitePlaceholder)
		assert.Equal(t, "WHERE 1=1 ORDER BY id", pw)
		assert.Empty(t, pa)
	})
}

func TestQuery(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	mockRepo := NewMockRepository(ctrl)
	ctx := context.Background()

	t.Run("first normalizes filters", func(t *testing.T) {
		want := Book{ID: 1, Name: "It"}
		mockRepo.EXPECT().FindFirst(ctx, []Filter{
			{FieldName, "It"},
			{FieldYearPublished, int64(1989)},
		}).Return(want, nil)

		got, err := NewQuery(mockRepo).FilterBy(FieldName, "It").FilterBy(FieldYearPublished, 1989.0).First(ctx)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	})

	t.Run("filter by does not mutate the receiver", func(t *testing.T) {
		base := NewQuery(mockRepo).FilterBy(FieldAuthor, "Stephen King")
		_ = base.FilterBy(FieldName, "It")
		_ = base.FilterBy(FieldName, "Carrie")

		mockRepo.EXPECT().FindFirst(ctx, []Filter{{FieldAuthor, "Stephen King"}}).Return(Book{}, ErrNotFound)
		_, err := base.First(ctx)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("invalid filter never reaches the store", func(t *testing.T) {
		_, err := NewQuery(mockRepo).FilterBy("title", "It").First(ctx)
		assert.ErrorIs(t, err, ErrUnknownField)

		_, err = NewQuery(mockRepo).FilterBy(FieldYearPublished, "1989").All(ctx)
		assert.ErrorIs(t, err, ErrInvalidFilter)
	})

	t.Run("all lists without a limit", func(t *testing.T) {
		mockRepo.EXPECT().List(ctx, ListQuery{Filters: []Filter{{FieldStatus, "available"}}}).
			Return([]Book{{ID: 1}, {ID: 2}}, 2, nil)

		got, err := NewQuery(mockRepo).FilterBy(FieldStatus, "available").All(ctx)
		require.NoError(t, err)
		assert.Len(t, got, 2)
	})
}
