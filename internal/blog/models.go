package blog

import (
	"fmt"
	"time"
)

type Author struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

type Group struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
}

// Post is a published entry. GroupID is zero for ungrouped posts and Image is
// empty when no picture was attached.
type Post struct {
	ID         int64     `json:"id"`
	Text       string    `json:"text"`
	PubDate    time.Time `json:"pub_date"`
	AuthorID   int64     `json:"author_id"`
	Author     string    `json:"author"`
	GroupID    int64     `json:"group_id,omitempty"`
	GroupSlug  string    `json:"group_slug,omitempty"`
	GroupTitle string    `json:"group_title,omitempty"`
	Image      string    `json:"image,omitempty"`
}

func (p Post) AuthorIdentity() int64 { return p.AuthorID }

func (p Post) URL() string { return PostURL(p.Author, p.ID) }

type Comment struct {
	ID       int64     `json:"id"`
	PostID   int64     `json:"post_id"`
	AuthorID int64     `json:"author_id"`
	Author   string    `json:"author"`
	Text     string    `json:"text"`
	Created  time.Time `json:"created"`
}

func (c Comment) AuthorIdentity() int64 { return c.AuthorID }

func ProfileURL(username string) string {
	return "/" + username
}

func PostURL(username string, id int64) string {
	return fmt.Sprintf("/%s/%d", username, id)
}

func GroupURL(slug string) string {
	return "/group/" + slug
}
