// Package pagecache stores fully rendered pages for a short time so repeated
// views of the first page skip the database.
package pagecache

import (
	"context"
	"encoding/json"
	"time"

	"backend-yatube/internal/auth"
	"backend-yatube/internal/observability"
	"backend-yatube/internal/policy"

	"github.com/gofiber/fiber/v2"
)

const DefaultTTL = 20 * time.Second

type entry struct {
	ContentType string `json:"content_type"`
	Body        []byte `json:"body"`
}

type Cache struct {
	store Store
	ttl   time.Duration
}

func New(store Store, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{store: store, ttl: ttl}
}

// canonical reports whether the request asks for the first page. Only those
// are cached, under a key that ignores the query string.
func canonical(c *fiber.Ctx) bool {
	page := c.Query("page")
	return page == "" || page == "1"
}

// Middleware serves and fills the cache entry named key.
func (pc *Cache) Middleware(key string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if c.Method() != fiber.MethodGet || !canonical(c) {
			observability.PageCacheLookups.WithLabelValues("bypass").Inc()
			return c.Next()
		}
		ctx := c.UserContext()

		raw, ok, err := pc.store.Get(ctx, key)
		if err != nil {
			observability.PageCacheLookups.WithLabelValues("error").Inc()
			observability.Logger.WarnContext(ctx, "page cache read failed", "key", key, "error", err)
		}
		if ok {
			var e entry
			if err := json.Unmarshal(raw, &e); err == nil {
				observability.PageCacheLookups.WithLabelValues("hit").Inc()
				c.Set(fiber.HeaderContentType, e.ContentType)
				c.Set("X-Page-Cache", "HIT")
				return c.Send(e.Body)
			}
		}
		observability.PageCacheLookups.WithLabelValues("miss").Inc()

		if err := c.Next(); err != nil {
			return err
		}
		if c.Response().StatusCode() != fiber.StatusOK {
			return nil
		}

		e := entry{
			ContentType: string(c.Response().Header.ContentType()),
			Body:        append([]byte(nil), c.Response().Body()...),
		}
		payload, err := json.Marshal(e)
		if err == nil {
			err = pc.store.Set(ctx, key, payload, pc.ttl)
		}
		if err != nil {
			observability.Logger.WarnContext(ctx, "page cache write failed", "key", key, "error", err)
		}
		c.Set("X-Page-Cache", "MISS")
		return nil
	}
}

// Clear drops every cached page.
func (pc *Cache) Clear(ctx context.Context) error {
	if err := pc.store.Clear(ctx); err != nil {
		return err
	}
	observability.PageCacheClears.Inc()
	observability.Logger.InfoContext(ctx, "page cache cleared")
	return nil
}

// RegisterRoutes mounts the staff-only clear endpoint.
func RegisterRoutes(r fiber.Router, pc *Cache, requireActor fiber.Handler) {
	r.Post("/admin/cache/clear", requireActor, func(c *fiber.Ctx) error {
		if err := policy.RequireStaff(auth.ActorFrom(c)); err != nil {
			return c.Redirect(auth.LoginURL(c.OriginalURL()))
		}
		if err := pc.Clear(c.UserContext()); err != nil {
			return err
		}
		return c.SendStatus(fiber.StatusNoContent)
	})
}
