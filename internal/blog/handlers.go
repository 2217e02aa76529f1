package blog

import (
	"io"
	"strconv"

	"backend-yatube/internal/apperr"
	"backend-yatube/internal/auth"
	"backend-yatube/internal/policy"

	"github.com/gofiber/fiber/v2"
)

// RegisterRoutes mounts post, comment and group mutations. Register it before
// the read-only profile and post routes so their wildcards do not shadow these.
func RegisterRoutes(r fiber.Router, svc *Service, requireActor fiber.Handler) {
	r.Get("/new", requireActor, func(c *fiber.Ctx) error {
		return postFormContext(c, svc, PostForm{}, nil, nil)
	})

	r.Post("/new", requireActor, func(c *fiber.Ctx) error {
		form, err := readPostForm(c)
		if err != nil {
			return err
		}
		_, err = svc.CreatePost(c.UserContext(), auth.ActorFrom(c), form)
		if apperr.IsValidation(err) {
			return postFormContext(c, svc, form, nil, apperr.FieldErrors(err))
		}
		if err != nil {
			return err
		}
		return c.Redirect("/")
	})

	r.Post("/groups", requireActor, func(c *fiber.Ctx) error {
		form := GroupForm{
			Title:       c.FormValue("title"),
			Slug:        c.FormValue("slug"),
			Description: c.FormValue("description"),
		}
		g, err := svc.CreateGroup(c.UserContext(), auth.ActorFrom(c), form)
		switch {
		case apperr.IsPermissionDenied(err):
			return c.Redirect("/groups")
		case apperr.IsValidation(err):
			return c.JSON(fiber.Map{"form": form, "errors": apperr.FieldErrors(err)})
		case err != nil:
			return err
		}
		return c.Redirect(GroupURL(g.Slug))
	})

	r.Post("/group/:slug/delete", requireActor, func(c *fiber.Ctx) error {
		err := svc.DeleteGroup(c.UserContext(), auth.ActorFrom(c), c.Params("slug"))
		if err != nil && !apperr.IsPermissionDenied(err) {
			return err
		}
		return c.Redirect("/groups")
	})

	r.Get("/:username/:post_id/edit", requireActor, func(c *fiber.Ctx) error {
		username, id, err := postParams(c)
		if err != nil {
			return err
		}
		post, err := svc.Post(c.UserContext(), username, id)
		if err != nil {
			return err
		}
		if !policy.CanEdit(auth.ActorFrom(c), post) {
			return c.Redirect(post.URL())
		}
		form := PostForm{Text: post.Text}
		if post.GroupID != 0 {
			form.Group = strconv.FormatInt(post.GroupID, 10)
		}
		return postFormContext(c, svc, form, &post, nil)
	})

	r.Post("/:username/:post_id/edit", requireActor, func(c *fiber.Ctx) error {
		username, id, err := postParams(c)
		if err != nil {
			return err
		}
		form, err := readPostForm(c)
		if err != nil {
			return err
		}
		post, err := svc.UpdatePost(c.UserContext(), auth.ActorFrom(c), username, id, form)
		switch {
		case apperr.IsPermissionDenied(err):
			return c.Redirect(PostURL(username, id))
		case apperr.IsValidation(err):
			return postFormContext(c, svc, form, &post, apperr.FieldErrors(err))
		case err != nil:
			return err
		}
		return c.Redirect(post.URL())
	})

	r.Post("/:username/:post_id/delete", requireActor, func(c *fiber.Ctx) error {
		username, id, err := postParams(c)
		if err != nil {
			return err
		}
		err = svc.DeletePost(c.UserContext(), auth.ActorFrom(c), username, id)
		if apperr.IsPermissionDenied(err) {
			return c.Redirect(PostURL(username, id))
		}
		if err != nil {
			return err
		}
		return c.Redirect(ProfileURL(username))
	})

	// Comments are not behind requireActor: anonymous submissions go back to
	// the post without touching storage.
	r.Post("/:username/:post_id/comment", func(c *fiber.Ctx) error {
		username, id, err := postParams(c)
		if err != nil {
			return err
		}
		_, err = svc.AddComment(c.UserContext(), auth.ActorFrom(c), username, id, CommentForm{Text: c.FormValue("text")})
		if err != nil && !apperr.IsPermissionDenied(err) && !apperr.IsValidation(err) {
			return err
		}
		return c.Redirect(PostURL(username, id))
	})
}

// postParams reads the username and numeric post id; a non-numeric id is a 404.
func postParams(c *fiber.Ctx) (string, int64, error) {
	username := c.Params("username")
	id, err := strconv.ParseInt(c.Params("post_id"), 10, 64)
	if err != nil || id <= 0 {
		return "", 0, apperr.NotFound("post", c.Params("post_id"))
	}
	return username, id, nil
}

func readPostForm(c *fiber.Ctx) (PostForm, error) {
	form := PostForm{Text: c.FormValue("text"), Group: c.FormValue("group")}
	fh, err := c.FormFile("image")
	if err != nil {
		return form, nil
	}
	f, err := fh.Open()
	if err != nil {
		return form, fiber.NewError(fiber.StatusBadRequest, "unreadable upload")
	}
	defer f.Close()
	form.Image, err = io.ReadAll(f)
	if err != nil {
		return form, fiber.NewError(fiber.StatusBadRequest, "unreadable upload")
	}
	return form, nil
}

func postFormContext(c *fiber.Ctx, svc *Service, form PostForm, post *Post, errs map[string][]string) error {
	groups, err := svc.Groups(c.UserContext())
	if err != nil {
		return err
	}
	ctx := fiber.Map{
		"form":    form,
		"groups":  groups,
		"is_edit": post != nil,
	}
	if post != nil {
		ctx["post"] = post
	}
	if len(errs) > 0 {
		ctx["errors"] = errs
	}
	return c.JSON(ctx)
}
