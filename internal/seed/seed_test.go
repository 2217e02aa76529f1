package seed

import (
	"context"
	"testing"

	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFactoryRun(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer mock.Close()
	mock.MatchExpectationsInOrder(false)

	for id := int64(1); id <= 2; id++ {
		mock.ExpectQuery(`INSERT INTO users`).
			WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
			WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(id))
	}
	mock.ExpectQuery(`INSERT INTO groups`).
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(10)))
	for id := int64(100); id < 102; id++ {
		mock.ExpectQuery(`INSERT INTO posts`).
			WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
			WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(id))
		mock.ExpectExec(`INSERT INTO comments`).
			WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
	}
	mock.ExpectExec(`INSERT INTO follows`).
		WithArgs(int64(1), int64(2)).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(`INSERT INTO follows`).
		WithArgs(int64(2), int64(1)).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	f := NewFactory(mock, Options{Users: 2, Groups: 1, PostsPerUser: 1, CommentsPerPost: 1, Seed: 42})
	res, err := f.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, Result{Users: 2, Groups: 1, Posts: 2, Comments: 2, Follows: 2}, res)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFactorySingleUserHasNoFollows(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery(`INSERT INTO users`).
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(1)))

	res, err := NewFactory(mock, Options{Users: 1, Seed: 1}).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Users)
	assert.Zero(t, res.Follows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFactoryWrapsErrors(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery(`INSERT INTO users`).
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnError(assert.AnError)

	_, err = NewFactory(mock, Options{Users: 1, Seed: 1}).Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, assert.AnError)
	assert.Contains(t, err.Error(), "seed user")
}

func TestSlugWord(t *testing.T) {
	assert.Equal(t, "dangelo", slugWord("D'Angelo", "user"))
	assert.Equal(t, "group", slugWord("---", "group"))
	assert.Equal(t, "abc12", slugWord("abc12", "x"))
}
