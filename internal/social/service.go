package social

import (
	"context"
	"fmt"

	"backend-yatube/internal/apperr"
	"backend-yatube/internal/auth"
	"backend-yatube/internal/blog"
	"backend-yatube/internal/db"
	"backend-yatube/internal/observability"
	"backend-yatube/internal/policy"
)

type Service struct {
	db db.Querier
}

func NewService(db db.Querier) *Service {
	return &Service{db: db}
}

// Follow subscribes actor to username. Repeating a follow is not an error.
func (s *Service) Follow(ctx context.Context, actor *auth.Actor, username string) (FollowResult, error) {
	if !actor.Authenticated() {
		return "", apperr.ErrAnonymous
	}
	author, err := blog.LookupAuthor(ctx, s.db, username)
	if err != nil {
		return "", err
	}
	if err := policy.CheckFollow(actor, author.ID); err != nil {
		return "", err
	}

	tag, err := s.db.Exec(ctx, `
		INSERT INTO follows (user_id, author_id)
		VALUES ($1,$2)
		ON CONFLICT (user_id, author_id) DO NOTHING
	`, actor.ID, author.ID)
	if db.IsUniqueViolation(err) {
		return FollowAlready, nil
	}
	if err != nil {
		return "", fmt.Errorf("follow: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return FollowAlready, nil
	}
	observability.Logger.DebugContext(ctx, "follow created", "user_id", actor.ID, "author_id", author.ID)
	return FollowCreated, nil
}

// Unfollow removes the edge if present and reports whether one was removed.
func (s *Service) Unfollow(ctx context.Context, actor *auth.Actor, username string) (bool, error) {
	if !actor.Authenticated() {
		return false, apperr.ErrAnonymous
	}
	author, err := blog.LookupAuthor(ctx, s.db, username)
	if err != nil {
		return false, err
	}
	tag, err := s.db.Exec(ctx, `DELETE FROM follows WHERE user_id = $1 AND author_id = $2`, actor.ID, author.ID)
	if err != nil {
		return false, fmt.Errorf("unfollow: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// Counters returns follower and following totals for authorID, plus whether
// viewer follows them. An anonymous viewer never follows anyone.
func (s *Service) Counters(ctx context.Context, viewer *auth.Actor, authorID int64) (Counters, error) {
	var viewerID int64
	if viewer.Authenticated() {
		viewerID = viewer.ID
	}

	var c Counters
	err := s.db.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(DISTINCT user_id) FROM follows WHERE author_id = $1),
			(SELECT COUNT(DISTINCT author_id) FROM follows WHERE user_id = $1),
			EXISTS (SELECT 1 FROM follows WHERE user_id = $2 AND author_id = $1)
	`, authorID, viewerID).Scan(&c.Followers, &c.Following, &c.IsFollowing)
	if err != nil {
		return Counters{}, fmt.Errorf("follow counters: %w", err)
	}
	return c, nil
}
