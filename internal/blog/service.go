package blog

import (
	"context"
	"fmt"

	"backend-yatube/internal/apperr"
	"backend-yatube/internal/auth"
	"backend-yatube/internal/db"
	"backend-yatube/internal/observability"
	"backend-yatube/internal/policy"
	"backend-yatube/internal/stream"
	"backend-yatube/internal/validation"
)

// ImageStore checks and persists uploaded post images.
type ImageStore interface {
	Validate(data []byte) (string, error)
	Save(ctx context.Context, data []byte) (string, error)
	Remove(rel string) error
}

// Publisher receives an event for every new post.
type Publisher interface {
	Publish(ctx context.Context, username string, event stream.Event)
}

type Service struct {
	db     db.Querier
	images ImageStore
	events Publisher
}

func NewService(db db.Querier, images ImageStore, events Publisher) *Service {
	return &Service{db: db, images: images, events: events}
}

func (s *Service) Post(ctx context.Context, username string, id int64) (Post, error) {
	return LookupPost(ctx, s.db, username, id)
}

func (s *Service) GroupBySlug(ctx context.Context, slug string) (Group, error) {
	return LookupGroup(ctx, s.db, slug)
}

// Groups lists every group for form choices.
func (s *Service) Groups(ctx context.Context) ([]Group, error) {
	rows, err := s.db.Query(ctx, `SELECT id, title, slug, description FROM groups ORDER BY title, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	groups := []Group{}
	for rows.Next() {
		var g Group
		if err := rows.Scan(&g.ID, &g.Title, &g.Slug, &g.Description); err != nil {
			return nil, err
		}
		groups = append(groups, g)
	}
	return groups, rows.Err()
}

func (s *Service) CreateGroup(ctx context.Context, actor *auth.Actor, form GroupForm) (Group, error) {
	if err := policy.RequireStaff(actor); err != nil {
		return Group{}, err
	}
	res := groupSchema.Validate(form.values())
	if !res.Valid() {
		return Group{}, res.Err()
	}

	g := Group{Title: form.Title, Slug: form.Slug, Description: form.Description}
	err := s.db.QueryRow(ctx, `
		INSERT INTO groups (title, slug, description)
		VALUES ($1,$2,$3)
		RETURNING id
	`, g.Title, g.Slug, g.Description).Scan(&g.ID)
	if db.IsUniqueViolation(err) {
		res.Add("slug", msgSlugTaken)
		return Group{}, res.Err()
	}
	if err != nil {
		return Group{}, fmt.Errorf("create group: %w", err)
	}
	return g, nil
}

// DeleteGroup removes a group; its posts stay with the group cleared.
func (s *Service) DeleteGroup(ctx context.Context, actor *auth.Actor, slug string) error {
	if err := policy.RequireStaff(actor); err != nil {
		return err
	}
	tag, err := s.db.Exec(ctx, `DELETE FROM groups WHERE slug = $1`, slug)
	if err != nil {
		return fmt.Errorf("delete group: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("group", slug)
	}
	return nil
}

// validatePost runs the post schema plus the checks that need storage.
func (s *Service) validatePost(ctx context.Context, form PostForm) (validation.Result, error) {
	res := postSchema.Validate(form.values())
	if _, failed := res.Errors["group"]; !failed {
		if id := form.GroupID(); id > 0 {
			var exists bool
			if err := s.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM groups WHERE id = $1)`, id).Scan(&exists); err != nil {
				return res, fmt.Errorf("check group: %w", err)
			}
			if !exists {
				res.Add("group", msgInvalidGroup)
			}
		}
	}
	if len(form.Image) > 0 && s.images != nil {
		if _, err := s.images.Validate(form.Image); err != nil {
			res.Add("image", msgInvalidImage)
		}
	}
	return res, nil
}

func (s *Service) saveImage(ctx context.Context, data []byte) (string, error) {
	if len(data) == 0 || s.images == nil {
		return "", nil
	}
	return s.images.Save(ctx, data)
}

func nullableID(id int64) any {
	if id == 0 {
		return nil
	}
	return id
}

func nullableString(v string) any {
	if v == "" {
		return nil
	}
	return v
}

func (s *Service) CreatePost(ctx context.Context, actor *auth.Actor, form PostForm) (Post, error) {
	if !actor.Authenticated() {
		return Post{}, apperr.ErrAnonymous
	}
	res, err := s.validatePost(ctx, form)
	if err != nil {
		return Post{}, err
	}
	if !res.Valid() {
		return Post{}, res.Err()
	}

	image, err := s.saveImage(ctx, form.Image)
	if err != nil {
		return Post{}, err
	}

	p := Post{
		Text:     form.Text,
		AuthorID: actor.ID,
		Author:   actor.Username,
		GroupID:  form.GroupID(),
		Image:    image,
	}
	err = s.db.QueryRow(ctx, `
		INSERT INTO posts (text, author_id, group_id, image)
		VALUES ($1,$2,$3,$4)
		RETURNING id, pub_date
	`, p.Text, p.AuthorID, nullableID(p.GroupID), nullableString(p.Image)).Scan(&p.ID, &p.PubDate)
	if err != nil {
		s.removeImage(ctx, image)
		return Post{}, fmt.Errorf("create post: %w", err)
	}

	if s.events != nil {
		s.events.Publish(ctx, p.Author, stream.Event{
			Type:    stream.EventPostCreated,
			Author:  p.Author,
			PostID:  p.ID,
			Text:    p.Text,
			PubDate: p.PubDate,
		})
	}
	return p, nil
}

// UpdatePost edits text, group and image. An empty image keeps the current one.
func (s *Service) UpdatePost(ctx context.Context, actor *auth.Actor, username string, id int64, form PostForm) (Post, error) {
	p, err := LookupPost(ctx, s.db, username, id)
	if err != nil {
		return Post{}, err
	}
	if err := policy.RequireEdit(actor, p); err != nil {
		return p, err
	}
	res, err := s.validatePost(ctx, form)
	if err != nil {
		return p, err
	}
	if !res.Valid() {
		return p, res.Err()
	}

	previous := p.Image
	if len(form.Image) > 0 {
		image, err := s.saveImage(ctx, form.Image)
		if err != nil {
			return p, err
		}
		p.Image = image
	}
	p.Text = form.Text
	p.GroupID = form.GroupID()

	_, err = s.db.Exec(ctx, `
		UPDATE posts SET text = $1, group_id = $2, image = $3
		WHERE id = $4
	`, p.Text, nullableID(p.GroupID), nullableString(p.Image), p.ID)
	if err != nil {
		if p.Image != previous {
			s.removeImage(ctx, p.Image)
		}
		return p, fmt.Errorf("update post: %w", err)
	}

	if previous != "" && previous != p.Image {
		s.removeImage(ctx, previous)
	}
	return p, nil
}

func (s *Service) DeletePost(ctx context.Context, actor *auth.Actor, username string, id int64) error {
	p, err := LookupPost(ctx, s.db, username, id)
	if err != nil {
		return err
	}
	if err := policy.RequireEdit(actor, p); err != nil {
		return err
	}
	if _, err := s.db.Exec(ctx, `DELETE FROM posts WHERE id = $1`, p.ID); err != nil {
		return fmt.Errorf("delete post: %w", err)
	}
	s.removeImage(ctx, p.Image)
	return nil
}

func (s *Service) removeImage(ctx context.Context, rel string) {
	if rel == "" || s.images == nil {
		return
	}
	if err := s.images.Remove(rel); err != nil {
		observability.Logger.WarnContext(ctx, "remove image failed", "path", rel, "error", err)
	}
}

// AddComment attaches a comment to the post. Anonymous actors are refused
// before anything is read or written.
func (s *Service) AddComment(ctx context.Context, actor *auth.Actor, username string, postID int64, form CommentForm) (Comment, error) {
	if !policy.CanComment(actor) {
		return Comment{}, apperr.ErrAnonymous
	}
	p, err := LookupPost(ctx, s.db, username, postID)
	if err != nil {
		return Comment{}, err
	}
	res := commentSchema.Validate(map[string]string{"text": form.Text})
	if !res.Valid() {
		return Comment{}, res.Err()
	}

	c := Comment{PostID: p.ID, AuthorID: actor.ID, Author: actor.Username, Text: form.Text}
	err = s.db.QueryRow(ctx, `
		INSERT INTO comments (post_id, author_id, text)
		VALUES ($1,$2,$3)
		RETURNING id, created
	`, c.PostID, c.AuthorID, c.Text).Scan(&c.ID, &c.Created)
	if err != nil {
		return Comment{}, fmt.Errorf("add comment: %w", err)
	}
	return c, nil
}
