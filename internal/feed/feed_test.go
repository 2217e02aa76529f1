package feed

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"backend-yatube/internal/apperr"
	"backend-yatube/internal/auth"

	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	countPostsSQL = `SELECT COUNT\(\*\) FROM posts p JOIN users u ON u\.id = p\.author_id`
	listPostsSQL  = `SELECT p\.id, p\.text, .* FROM posts p JOIN users u ON u\.id = p\.author_id LEFT JOIN groups g ON g\.id = p\.group_id`
)

var postCols = []string{"id", "text", "pub_date", "author_id", "username", "group_id", "slug", "title", "image"}

var errFeed = errors.New("db error")

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock
}

// postRows returns rows for posts with ids from..to (inclusive, descending),
// all written by the given author.
func postRows(from, to int64, authorID int64, author string) *pgxmock.Rows {
	rows := pgxmock.NewRows(postCols)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for id := from; id >= to; id-- {
		rows.AddRow(id, fmt.Sprintf("post %d", id), base.Add(time.Duration(id)*time.Minute), authorID, author, int64(0), "", "", "")
	}
	return rows
}

func countRow(n int) *pgxmock.Rows {
	return pgxmock.NewRows([]string{"count"}).AddRow(n)
}

func expectUser(mock pgxmock.PgxPoolIface, id int64, username string) {
	mock.ExpectQuery(`SELECT id, username FROM users WHERE username = \$1`).
		WithArgs(username).
		WillReturnRows(pgxmock.NewRows([]string{"id", "username"}).AddRow(id, username))
}

func expectCounters(mock pgxmock.PgxPoolIface, authorID, viewerID int64, followers, following int, isFollowing bool) {
	mock.ExpectQuery(`COUNT\(DISTINCT user_id\)`).
		WithArgs(authorID, viewerID).
		WillReturnRows(pgxmock.NewRows([]string{"followers", "following", "is_following"}).AddRow(followers, following, isFollowing))
}

func TestGlobalThirteenPostsSplitTenAndThree(t *testing.T) {
	mock := newMock(t)
	svc := NewService(mock)

	mock.ExpectQuery(countPostsSQL).WillReturnRows(countRow(13))
	mock.ExpectQuery(listPostsSQL + ` ORDER BY p\.pub_date DESC, p\.id DESC LIMIT 10 OFFSET 0`).
		WillReturnRows(postRows(13, 4, 1, "leo"))

	first, err := svc.Global(context.Background(), "")
	require.NoError(t, err)
	assert.Len(t, first.Items, 10)
	assert.Equal(t, 2, first.NumPages)
	assert.Equal(t, int64(13), first.Items[0].ID)
	assert.True(t, first.HasNext)
	assert.False(t, first.HasPrevious)

	mock.ExpectQuery(countPostsSQL).WillReturnRows(countRow(13))
	mock.ExpectQuery(listPostsSQL + ` .* LIMIT 10 OFFSET 10`).
		WillReturnRows(postRows(3, 1, 1, "leo"))

	second, err := svc.Global(context.Background(), "2")
	require.NoError(t, err)
	assert.Len(t, second.Items, 3)
	assert.Equal(t, 2, second.Number)
	assert.False(t, second.HasNext)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGlobalPageClamping(t *testing.T) {
	mock := newMock(t)
	svc := NewService(mock)

	mock.ExpectQuery(countPostsSQL).WillReturnRows(countRow(13))
	mock.ExpectQuery(`LIMIT 10 OFFSET 10`).WillReturnRows(postRows(3, 1, 1, "leo"))
	page, err := svc.Global(context.Background(), "99")
	require.NoError(t, err)
	assert.Equal(t, 2, page.Number)

	for _, raw := range []string{"0", "-3", "99999999999999999999"} {
		mock.ExpectQuery(countPostsSQL).WillReturnRows(countRow(13))
		mock.ExpectQuery(`LIMIT 10 OFFSET 10`).WillReturnRows(postRows(3, 1, 1, "leo"))
		page, err = svc.Global(context.Background(), raw)
		require.NoError(t, err)
		assert.Equal(t, 2, page.Number, "page=%q", raw)
		assert.Len(t, page.Items, 3, "page=%q", raw)
	}

	mock.ExpectQuery(countPostsSQL).WillReturnRows(countRow(13))
	mock.ExpectQuery(`LIMIT 10 OFFSET 0`).WillReturnRows(postRows(13, 4, 1, "leo"))
	page, err = svc.Global(context.Background(), "abc")
	require.NoError(t, err)
	assert.Equal(t, 1, page.Number)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGlobalEmpty(t *testing.T) {
	mock := newMock(t)
	svc := NewService(mock)

	mock.ExpectQuery(countPostsSQL).WillReturnRows(countRow(0))
	mock.ExpectQuery(listPostsSQL).WillReturnRows(pgxmock.NewRows(postCols))

	page, err := svc.Global(context.Background(), "1")
	require.NoError(t, err)
	assert.NotNil(t, page.Items)
	assert.Empty(t, page.Items)
	assert.Equal(t, 1, page.NumPages)
}

func TestGlobalErrors(t *testing.T) {
	mock := newMock(t)
	svc := NewService(mock)

	mock.ExpectQuery(countPostsSQL).WillReturnError(errFeed)
	_, err := svc.Global(context.Background(), "")
	assert.ErrorIs(t, err, errFeed)

	mock.ExpectQuery(countPostsSQL).WillReturnRows(countRow(2))
	mock.ExpectQuery(listPostsSQL).WillReturnError(errFeed)
	_, err = svc.Global(context.Background(), "")
	assert.ErrorIs(t, err, errFeed)
}

func TestGroupFeed(t *testing.T) {
	mock := newMock(t)
	svc := NewService(mock)

	mock.ExpectQuery(`SELECT id, title, slug, description FROM groups WHERE slug = \$1`).
		WithArgs("cats").
		WillReturnRows(pgxmock.NewRows([]string{"id", "title", "slug", "description"}).AddRow(int64(3), "Cats", "cats", ""))
	mock.ExpectQuery(countPostsSQL + ` WHERE p\.group_id = \$1`).
		WithArgs(int64(3)).
		WillReturnRows(countRow(1))
	mock.ExpectQuery(listPostsSQL + ` WHERE p\.group_id = \$1 ORDER BY`).
		WithArgs(int64(3)).
		WillReturnRows(pgxmock.NewRows(postCols).AddRow(int64(7), "meow", time.Now(), int64(1), "leo", int64(3), "cats", "Cats", ""))

	view, err := svc.Group(context.Background(), "cats", "")
	require.NoError(t, err)
	assert.Equal(t, "Cats", view.Group.Title)
	require.Len(t, view.Page.Items, 1)
	assert.Equal(t, int64(3), view.Page.Items[0].GroupID)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGroupFeedUnknownSlug(t *testing.T) {
	mock := newMock(t)
	svc := NewService(mock)

	mock.ExpectQuery(`FROM groups WHERE slug`).
		WithArgs("nope").
		WillReturnRows(pgxmock.NewRows([]string{"id", "title", "slug", "description"}))

	_, err := svc.Group(context.Background(), "nope", "")
	assert.True(t, apperr.IsNotFound(err))
}

func TestFollowFeed(t *testing.T) {
	mock := newMock(t)
	svc := NewService(mock)
	a := &auth.Actor{ID: 1, Username: "a"}
	c := &auth.Actor{ID: 3, Username: "c"}

	// a follows b, who wrote 13 posts
	mock.ExpectQuery(countPostsSQL + ` WHERE p\.author_id IN \(SELECT f\.author_id FROM follows f WHERE f\.user_id = \$1\)`).
		WithArgs(int64(1)).
		WillReturnRows(countRow(13))
	mock.ExpectQuery(listPostsSQL + ` WHERE p\.author_id IN .* LIMIT 10 OFFSET 0`).
		WithArgs(int64(1)).
		WillReturnRows(postRows(13, 4, 2, "b"))
	page, err := svc.Follow(context.Background(), a, "")
	require.NoError(t, err)
	assert.Len(t, page.Items, 10)
	assert.Equal(t, 13, page.Count)

	mock.ExpectQuery(countPostsSQL).WithArgs(int64(1)).WillReturnRows(countRow(13))
	mock.ExpectQuery(`LIMIT 10 OFFSET 10`).WithArgs(int64(1)).WillReturnRows(postRows(3, 1, 2, "b"))
	page, err = svc.Follow(context.Background(), a, "2")
	require.NoError(t, err)
	assert.Len(t, page.Items, 3)

	// c follows nobody
	mock.ExpectQuery(countPostsSQL).WithArgs(int64(3)).WillReturnRows(countRow(0))
	mock.ExpectQuery(listPostsSQL).WithArgs(int64(3)).WillReturnRows(pgxmock.NewRows(postCols))
	page, err = svc.Follow(context.Background(), c, "")
	require.NoError(t, err)
	assert.Empty(t, page.Items)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFollowFeedAnonymous(t *testing.T) {
	mock := newMock(t)
	svc := NewService(mock)

	_, err := svc.Follow(context.Background(), nil, "")
	assert.True(t, apperr.IsPermissionDenied(err))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestProfile(t *testing.T) {
	mock := newMock(t)
	svc := NewService(mock)
	viewer := &auth.Actor{ID: 1, Username: "a"}

	expectUser(mock, 2, "b")
	mock.ExpectQuery(countPostsSQL + ` WHERE p\.author_id = \$1`).
		WithArgs(int64(2)).
		WillReturnRows(countRow(13))
	mock.ExpectQuery(listPostsSQL + ` WHERE p\.author_id = \$1`).
		WithArgs(int64(2)).
		WillReturnRows(postRows(13, 4, 2, "b"))
	expectCounters(mock, 2, 1, 1, 0, true)

	view, err := svc.Profile(context.Background(), viewer, "b", "")
	require.NoError(t, err)
	assert.Equal(t, "b", view.Author.Username)
	assert.Equal(t, 13, view.PostCount)
	assert.Len(t, view.Page.Items, 10)
	assert.Equal(t, 1, view.Followers)
	assert.True(t, view.IsFollowing)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestProfileUnknownUser(t *testing.T) {
	mock := newMock(t)
	svc := NewService(mock)

	mock.ExpectQuery(`FROM users WHERE username`).
		WithArgs("ghost").
		WillReturnRows(pgxmock.NewRows([]string{"id", "username"}))

	_, err := svc.Profile(context.Background(), nil, "ghost", "")
	assert.True(t, apperr.IsNotFound(err))
}

func TestPostView(t *testing.T) {
	mock := newMock(t)
	svc := NewService(mock)

	mock.ExpectQuery(listPostsSQL + ` WHERE p\.id = \$1 AND u\.username = \$2`).
		WithArgs(int64(5), "b").
		WillReturnRows(postRows(5, 5, 2, "b"))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM posts WHERE author_id = \$1`).
		WithArgs(int64(2)).
		WillReturnRows(countRow(13))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM comments WHERE post_id = \$1`).
		WithArgs(int64(5)).
		WillReturnRows(countRow(2))
	mock.ExpectQuery(`SELECT c\.id, c\.post_id, c\.author_id, u\.username, c\.text, c\.created FROM comments c JOIN users u ON u\.id = c\.author_id WHERE c\.post_id = \$1 ORDER BY c\.created DESC, c\.id DESC LIMIT 10 OFFSET 0`).
		WithArgs(int64(5)).
		WillReturnRows(pgxmock.NewRows([]string{"id", "post_id", "author_id", "username", "text", "created"}).
			AddRow(int64(2), int64(5), int64(1), "a", "second", time.Now()).
			AddRow(int64(1), int64(5), int64(3), "c", "first", time.Now().Add(-time.Hour)))
	expectCounters(mock, 2, 0, 4, 2, false)

	view, err := svc.Post(context.Background(), nil, "b", 5, "")
	require.NoError(t, err)
	assert.Equal(t, int64(5), view.Post.ID)
	assert.Equal(t, 13, view.PostCount)
	assert.Equal(t, "b", view.Author.Username)
	require.Len(t, view.Comments.Items, 2)
	assert.Equal(t, "second", view.Comments.Items[0].Text)
	assert.Equal(t, 4, view.Followers)
	assert.False(t, view.IsFollowing)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostViewAuthorMismatch(t *testing.T) {
	mock := newMock(t)
	svc := NewService(mock)

	mock.ExpectQuery(listPostsSQL).
		WithArgs(int64(5), "a").
		WillReturnRows(pgxmock.NewRows(postCols))

	_, err := svc.Post(context.Background(), nil, "a", 5, "")
	assert.True(t, apperr.IsNotFound(err))
}

func TestGroupsPage(t *testing.T) {
	mock := newMock(t)
	svc := NewService(mock)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM groups`).WillReturnRows(countRow(2))
	mock.ExpectQuery(`SELECT id, title, slug, description FROM groups ORDER BY title, id LIMIT 10 OFFSET 0`).
		WillReturnRows(pgxmock.NewRows([]string{"id", "title", "slug", "description"}).
			AddRow(int64(2), "Birds", "birds", "").
			AddRow(int64(1), "Cats", "cats", ""))

	page, err := svc.Groups(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.Equal(t, "Birds", page.Items[0].Title)

	require.NoError(t, mock.ExpectationsWereMet())
}
