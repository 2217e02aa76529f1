// Package feed composes the read-only views: global, group, profile, follow,
// single post and group list. Every view is a count plus one page of rows.
package feed

import (
	"context"
	"fmt"

	"backend-yatube/internal/apperr"
	"backend-yatube/internal/auth"
	"backend-yatube/internal/blog"
	"backend-yatube/internal/db"
	"backend-yatube/internal/pagination"
	"backend-yatube/internal/social"

	sq "github.com/Masterminds/squirrel"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "backend-yatube/internal/feed"

type Service struct {
	db     db.Querier
	social *social.Service
	tracer trace.Tracer
}

func NewService(db db.Querier) *Service {
	return &Service{
		db:     db,
		social: social.NewService(db),
		tracer: otel.Tracer(tracerName),
	}
}

type GroupView struct {
	Group blog.Group                 `json:"group"`
	Page  pagination.Page[blog.Post] `json:"page"`
}

type ProfileView struct {
	Author    blog.Author                `json:"author"`
	Page      pagination.Page[blog.Post] `json:"page"`
	PostCount int                        `json:"post_count"`
	social.Counters
}

type PostView struct {
	Post      blog.Post                     `json:"post"`
	Author    blog.Author                   `json:"author"`
	PostCount int                           `json:"post_count"`
	Comments  pagination.Page[blog.Comment] `json:"comments"`
	social.Counters
}

func (s *Service) start(ctx context.Context, view string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return s.tracer.Start(ctx, "feed."+view, trace.WithAttributes(attrs...))
}

func finish(span trace.Span, err error) {
	if err != nil && !apperr.IsNotFound(err) && !apperr.IsPermissionDenied(err) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// posts pages the posts matched by where, newest first.
func (s *Service) posts(ctx context.Context, where sq.Sqlizer, rawPage string) (pagination.Page[blog.Post], error) {
	count := blog.Psql.Select("COUNT(*)").
		From("posts p").
		Join("users u ON u.id = p.author_id")
	list := blog.Newest(blog.SelectPosts())
	if where != nil {
		count = count.Where(where)
		list = list.Where(where)
	}

	n, err := blog.Count(ctx, s.db, count)
	if err != nil {
		return pagination.Page[blog.Post]{}, fmt.Errorf("count posts: %w", err)
	}
	w := pagination.NewWindow(n, rawPage)
	items, err := blog.QueryPosts(ctx, s.db, list.Limit(uint64(w.Limit())).Offset(uint64(w.Offset())))
	if err != nil {
		return pagination.Page[blog.Post]{}, fmt.Errorf("list posts: %w", err)
	}
	return pagination.NewPage(items, w), nil
}

// Global is every post, newest first.
func (s *Service) Global(ctx context.Context, rawPage string) (page pagination.Page[blog.Post], err error) {
	ctx, span := s.start(ctx, "Global")
	defer func() { finish(span, err) }()

	return s.posts(ctx, nil, rawPage)
}

func (s *Service) Group(ctx context.Context, slug, rawPage string) (view GroupView, err error) {
	ctx, span := s.start(ctx, "Group", attribute.String("group.slug", slug))
	defer func() { finish(span, err) }()

	g, err := blog.LookupGroup(ctx, s.db, slug)
	if err != nil {
		return GroupView{}, err
	}
	page, err := s.posts(ctx, sq.Eq{"p.group_id": g.ID}, rawPage)
	if err != nil {
		return GroupView{}, err
	}
	return GroupView{Group: g, Page: page}, nil
}

func (s *Service) Profile(ctx context.Context, viewer *auth.Actor, username, rawPage string) (view ProfileView, err error) {
	ctx, span := s.start(ctx, "Profile", attribute.String("author", username))
	defer func() { finish(span, err) }()

	author, err := blog.LookupAuthor(ctx, s.db, username)
	if err != nil {
		return ProfileView{}, err
	}
	page, err := s.posts(ctx, sq.Eq{"p.author_id": author.ID}, rawPage)
	if err != nil {
		return ProfileView{}, err
	}
	counters, err := s.social.Counters(ctx, viewer, author.ID)
	if err != nil {
		return ProfileView{}, err
	}
	return ProfileView{Author: author, Page: page, PostCount: page.Count, Counters: counters}, nil
}

// Follow is the viewer's personal feed: posts by authors they follow.
func (s *Service) Follow(ctx context.Context, viewer *auth.Actor, rawPage string) (page pagination.Page[blog.Post], err error) {
	ctx, span := s.start(ctx, "Follow")
	defer func() { finish(span, err) }()

	if !viewer.Authenticated() {
		return pagination.Page[blog.Post]{}, apperr.ErrAnonymous
	}
	span.SetAttributes(attribute.Int64("viewer.id", viewer.ID))
	followed := sq.Expr("p.author_id IN (SELECT f.author_id FROM follows f WHERE f.user_id = ?)", viewer.ID)
	return s.posts(ctx, followed, rawPage)
}

// Post is the single post view with its comments paged newest first.
func (s *Service) Post(ctx context.Context, viewer *auth.Actor, username string, postID int64, rawPage string) (view PostView, err error) {
	ctx, span := s.start(ctx, "Post", attribute.String("author", username), attribute.Int64("post.id", postID))
	defer func() { finish(span, err) }()

	post, err := blog.LookupPost(ctx, s.db, username, postID)
	if err != nil {
		return PostView{}, err
	}
	postCount, err := blog.Count(ctx, s.db, blog.Psql.Select("COUNT(*)").From("posts").Where(sq.Eq{"author_id": post.AuthorID}))
	if err != nil {
		return PostView{}, fmt.Errorf("count author posts: %w", err)
	}
	comments, err := s.comments(ctx, post.ID, rawPage)
	if err != nil {
		return PostView{}, err
	}
	counters, err := s.social.Counters(ctx, viewer, post.AuthorID)
	if err != nil {
		return PostView{}, err
	}
	return PostView{
		Post:      post,
		Author:    blog.Author{ID: post.AuthorID, Username: post.Author},
		PostCount: postCount,
		Comments:  comments,
		Counters:  counters,
	}, nil
}

func (s *Service) comments(ctx context.Context, postID int64, rawPage string) (pagination.Page[blog.Comment], error) {
	n, err := blog.Count(ctx, s.db, blog.Psql.Select("COUNT(*)").From("comments").Where(sq.Eq{"post_id": postID}))
	if err != nil {
		return pagination.Page[blog.Comment]{}, fmt.Errorf("count comments: %w", err)
	}
	w := pagination.NewWindow(n, rawPage)

	query, args, err := blog.Psql.
		Select("c.id", "c.post_id", "c.author_id", "u.username", "c.text", "c.created").
		From("comments c").
		Join("users u ON u.id = c.author_id").
		Where(sq.Eq{"c.post_id": postID}).
		OrderBy("c.created DESC", "c.id DESC").
		Limit(uint64(w.Limit())).
		Offset(uint64(w.Offset())).
		ToSql()
	if err != nil {
		return pagination.Page[blog.Comment]{}, err
	}
	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return pagination.Page[blog.Comment]{}, fmt.Errorf("list comments: %w", err)
	}
	defer rows.Close()

	var items []blog.Comment
	for rows.Next() {
		var c blog.Comment
		if err := rows.Scan(&c.ID, &c.PostID, &c.AuthorID, &c.Author, &c.Text, &c.Created); err != nil {
			return pagination.Page[blog.Comment]{}, err
		}
		items = append(items, c)
	}
	if err := rows.Err(); err != nil {
		return pagination.Page[blog.Comment]{}, err
	}
	return pagination.NewPage(items, w), nil
}

// Groups pages every group ordered by title.
func (s *Service) Groups(ctx context.Context, rawPage string) (page pagination.Page[blog.Group], err error) {
	ctx, span := s.start(ctx, "Groups")
	defer func() { finish(span, err) }()

	n, err := blog.Count(ctx, s.db, blog.Psql.Select("COUNT(*)").From("groups"))
	if err != nil {
		return pagination.Page[blog.Group]{}, fmt.Errorf("count groups: %w", err)
	}
	w := pagination.NewWindow(n, rawPage)

	query, args, err := blog.Psql.
		Select("id", "title", "slug", "description").
		From("groups").
		OrderBy("title", "id").
		Limit(uint64(w.Limit())).
		Offset(uint64(w.Offset())).
		ToSql()
	if err != nil {
		return pagination.Page[blog.Group]{}, err
	}
	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return pagination.Page[blog.Group]{}, fmt.Errorf("list groups: %w", err)
	}
	defer rows.Close()

	var items []blog.Group
	for rows.Next() {
		var g blog.Group
		if err := rows.Scan(&g.ID, &g.Title, &g.Slug, &g.Description); err != nil {
			return pagination.Page[blog.Group]{}, err
		}
		items = append(items, g)
	}
	if err := rows.Err(); err != nil {
		return pagination.Page[blog.Group]{}, err
	}
	return pagination.NewPage(items, w), nil
}
