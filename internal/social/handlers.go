package social

import (
	"backend-yatube/internal/apperr"
	"backend-yatube/internal/auth"
	"backend-yatube/internal/blog"

	"github.com/gofiber/fiber/v2"
)

// RegisterRoutes mounts follow and unfollow. Both accept GET as well as POST
// so plain links work.
func RegisterRoutes(r fiber.Router, svc *Service, requireActor fiber.Handler) {
	follow := func(c *fiber.Ctx) error {
		username := c.Params("username")
		_, err := svc.Follow(c.UserContext(), auth.ActorFrom(c), username)
		if err != nil && !apperr.IsPreconditionAlready(err) {
			return err
		}
		return c.Redirect(blog.ProfileURL(username))
	}
	unfollow := func(c *fiber.Ctx) error {
		username := c.Params("username")
		if _, err := svc.Unfollow(c.UserContext(), auth.ActorFrom(c), username); err != nil {
			return err
		}
		return c.Redirect(blog.ProfileURL(username))
	}

	r.Get("/:username/follow", requireActor, follow)
	r.Post("/:username/follow", requireActor, follow)
	r.Get("/:username/unfollow", requireActor, unfollow)
	r.Post("/:username/unfollow", requireActor, unfollow)
}
