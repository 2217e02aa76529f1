package feed

import (
	"strconv"

	"backend-yatube/internal/apperr"
	"backend-yatube/internal/auth"

	"github.com/gofiber/fiber/v2"
)

// RegisterRoutes mounts the read views. indexCache wraps the global feed and
// may be nil. The profile and post routes are catch-alls, so mount this last.
func RegisterRoutes(r fiber.Router, svc *Service, indexCache, requireActor fiber.Handler) {
	index := func(c *fiber.Ctx) error {
		page, err := svc.Global(c.UserContext(), c.Query("page"))
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"page": page})
	}
	if indexCache != nil {
		r.Get("/", indexCache, index)
	} else {
		r.Get("/", index)
	}

	r.Get("/groups", func(c *fiber.Ctx) error {
		page, err := svc.Groups(c.UserContext(), c.Query("page"))
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{
			"page":       page,
			"can_manage": auth.ActorFrom(c) != nil && auth.ActorFrom(c).IsStaff,
		})
	})

	r.Get("/group/:slug", func(c *fiber.Ctx) error {
		view, err := svc.Group(c.UserContext(), c.Params("slug"), c.Query("page"))
		if err != nil {
			return err
		}
		return c.JSON(view)
	})

	r.Get("/follow", requireActor, func(c *fiber.Ctx) error {
		page, err := svc.Follow(c.UserContext(), auth.ActorFrom(c), c.Query("page"))
		if apperr.IsPermissionDenied(err) {
			return c.Redirect(auth.LoginURL(c.OriginalURL()))
		}
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"page": page})
	})

	r.Get("/:username", func(c *fiber.Ctx) error {
		view, err := svc.Profile(c.UserContext(), auth.ActorFrom(c), c.Params("username"), c.Query("page"))
		if err != nil {
			return err
		}
		return c.JSON(view)
	})

	r.Get("/:username/:post_id", func(c *fiber.Ctx) error {
		id, err := strconv.ParseInt(c.Params("post_id"), 10, 64)
		if err != nil || id <= 0 {
			return apperr.NotFound("post", c.Params("post_id"))
		}
		view, err := svc.Post(c.UserContext(), auth.ActorFrom(c), c.Params("username"), id, c.Query("page"))
		if err != nil {
			return err
		}
		return c.JSON(view)
	})
}
