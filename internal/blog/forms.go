package blog

import (
	"regexp"
	"strconv"
	"strings"

	"backend-yatube/internal/validation"
)

const (
	msgRequired     = "This field is required."
	msgInvalidGroup = "Select a valid choice. That choice is not one of the available choices."
	msgInvalidImage = "Upload a valid image. The file you uploaded was either not an image or a corrupted image."
	msgSlugTaken    = "Group with this slug already exists."
)

var slugRe = regexp.MustCompile(`^[-a-zA-Z0-9_]+$`)

var postSchema = validation.Schema{
	{Name: "text", Rules: []validation.Rule{validation.Required(msgRequired)}},
	{Name: "group", Rules: []validation.Rule{validation.OptionalID(msgInvalidGroup)}},
}

var commentSchema = validation.Schema{
	{Name: "text", Rules: []validation.Rule{
		validation.Required(msgRequired),
		validation.MaxLen(400, "Ensure this value has at most 400 characters."),
	}},
}

var groupSchema = validation.Schema{
	{Name: "title", Rules: []validation.Rule{
		validation.Required(msgRequired),
		validation.MaxLen(200, "Ensure this value has at most 200 characters."),
	}},
	{Name: "slug", Rules: []validation.Rule{
		validation.Required(msgRequired),
		validation.MaxLen(20, "Ensure this value has at most 20 characters."),
		validation.Matches(slugRe, "Enter a valid slug consisting of letters, numbers, underscores or hyphens."),
	}},
	{Name: "description", Rules: []validation.Rule{
		validation.MaxLen(500, "Ensure this value has at most 500 characters."),
	}},
}

type PostForm struct {
	Text  string `json:"text"`
	Group string `json:"group"`
	// Image holds raw upload bytes; empty keeps the current image on edit.
	Image []byte `json:"-"`
}

func (f PostForm) values() map[string]string {
	return map[string]string{"text": f.Text, "group": f.Group}
}

// GroupID is the selected group, zero for none. Only meaningful after validation.
func (f PostForm) GroupID() int64 {
	id, _ := strconv.ParseInt(strings.TrimSpace(f.Group), 10, 64)
	return id
}

type CommentForm struct {
	Text string `json:"text"`
}

type GroupForm struct {
	Title       string `json:"title"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
}

func (f GroupForm) values() map[string]string {
	return map[string]string{"title": f.Title, "slug": f.Slug, "description": f.Description}
}
