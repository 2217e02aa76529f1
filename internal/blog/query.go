package blog

import (
	"context"
	"errors"
	"fmt"

	"backend-yatube/internal/apperr"
	"backend-yatube/internal/db"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
)

// Psql builds Postgres statements with $n placeholders.
var Psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

var postColumns = []string{
	"p.id",
	"p.text",
	"p.pub_date",
	"p.author_id",
	"u.username",
	"COALESCE(p.group_id, 0)",
	"COALESCE(g.slug, '')",
	"COALESCE(g.title, '')",
	"COALESCE(p.image, '')",
}

// SelectPosts selects post rows joined with author and group, ready for ScanPost.
func SelectPosts() sq.SelectBuilder {
	return Psql.Select(postColumns...).
		From("posts p").
		Join("users u ON u.id = p.author_id").
		LeftJoin("groups g ON g.id = p.group_id")
}

// Newest orders posts the way every feed shows them.
func Newest(b sq.SelectBuilder) sq.SelectBuilder {
	return b.OrderBy("p.pub_date DESC", "p.id DESC")
}

type Scanner interface {
	Scan(dest ...any) error
}

func ScanPost(row Scanner) (Post, error) {
	var p Post
	err := row.Scan(&p.ID, &p.Text, &p.PubDate, &p.AuthorID, &p.Author, &p.GroupID, &p.GroupSlug, &p.GroupTitle, &p.Image)
	return p, err
}

// QueryPosts runs a post select and scans every row.
func QueryPosts(ctx context.Context, q db.Querier, b sq.SelectBuilder) ([]Post, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var posts []Post
	for rows.Next() {
		p, err := ScanPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, p)
	}
	return posts, rows.Err()
}

// Count runs a single-value COUNT statement.
func Count(ctx context.Context, q db.Querier, b sq.SelectBuilder) (int, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return 0, err
	}
	var n int
	if err := q.QueryRow(ctx, query, args...).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// LookupAuthor resolves a username to a user, or a NotFound error.
func LookupAuthor(ctx context.Context, q db.Querier, username string) (Author, error) {
	var a Author
	err := q.QueryRow(ctx, `SELECT id, username FROM users WHERE username = $1`, username).Scan(&a.ID, &a.Username)
	if errors.Is(err, pgx.ErrNoRows) {
		return Author{}, apperr.NotFound("user", username)
	}
	if err != nil {
		return Author{}, fmt.Errorf("lookup user: %w", err)
	}
	return a, nil
}

// LookupPost finds a post by id, requiring it to belong to username.
func LookupPost(ctx context.Context, q db.Querier, username string, id int64) (Post, error) {
	query, args, err := SelectPosts().Where("p.id = ? AND u.username = ?", id, username).ToSql()
	if err != nil {
		return Post{}, err
	}
	p, err := ScanPost(q.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return Post{}, apperr.NotFound("post", id)
	}
	if err != nil {
		return Post{}, fmt.Errorf("lookup post: %w", err)
	}
	return p, nil
}

// LookupGroup finds a group by slug, or a NotFound error.
func LookupGroup(ctx context.Context, q db.Querier, slug string) (Group, error) {
	var g Group
	err := q.QueryRow(ctx, `SELECT id, title, slug, description FROM groups WHERE slug = $1`, slug).
		Scan(&g.ID, &g.Title, &g.Slug, &g.Description)
	if errors.Is(err, pgx.ErrNoRows) {
		return Group{}, apperr.NotFound("group", slug)
	}
	if err != nil {
		return Group{}, fmt.Errorf("lookup group: %w", err)
	}
	return g, nil
}
