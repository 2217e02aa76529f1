package server

import (
	"backend-yatube/internal/apperr"
	"backend-yatube/internal/auth"
	"backend-yatube/internal/blog"
	"backend-yatube/internal/config"
	"backend-yatube/internal/db"
	"backend-yatube/internal/feed"
	"backend-yatube/internal/observability"
	"backend-yatube/internal/pagecache"
	"backend-yatube/internal/social"
	"backend-yatube/internal/storage"
	"backend-yatube/internal/stream"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
)

const indexCacheKey = "index"

type Server struct {
	App    *fiber.App
	Cfg    config.Config
	DB     db.Querier
	Redis  *redis.Client
	Stream *stream.Hub
	Cache  *pagecache.Cache
	Media  *storage.Service
}

func NewServer(cfg config.Config, q db.Querier, redisClient *redis.Client) *Server {
	app := fiber.New(fiber.Config{
		ErrorHandler: errorHandler,
		BodyLimit:    10 * 1024 * 1024,
	})
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(observability.ContextMiddleware())
	app.Use(observability.RequestLogger())
	app.Use(auth.ActorMiddleware(cfg.JWTSecret))

	var store pagecache.Store = pagecache.NewMemoryStore()
	if redisClient != nil {
		store = pagecache.NewRedisStore(redisClient)
	}

	s := &Server{
		App:    app,
		Cfg:    cfg,
		DB:     q,
		Redis:  redisClient,
		Stream: stream.NewHub(redisClient),
		Cache:  pagecache.New(store, cfg.PageCacheTTL),
		Media:  storage.NewService(cfg.MediaRoot),
	}

	registerRoutes(s)
	return s
}

// Close releases background resources owned by the server.
func (s *Server) Close() error {
	return s.Stream.Close()
}

// registerRoutes mounts fixed paths first; the profile and post views match
// any /:username prefix and must come last.
func registerRoutes(s *Server) {
	s.App.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	s.App.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))
	if s.Cfg.MediaRoot != "" {
		s.App.Static("/media", s.Cfg.MediaRoot)
	}

	requireActor := auth.RequireActor()

	auth.RegisterRoutes(s.App.Group("/auth"), auth.NewService(s.Cfg.JWTSecret, s.DB))
	stream.RegisterRoutes(s.App.Group("/stream"), s.Stream)
	pagecache.RegisterRoutes(s.App, s.Cache, requireActor)

	blog.RegisterRoutes(s.App, blog.NewService(s.DB, s.Media, s.Stream), requireActor)
	social.RegisterRoutes(s.App, social.NewService(s.DB), requireActor)
	feed.RegisterRoutes(s.App, feed.NewService(s.DB), s.Cache.Middleware(indexCacheKey), requireActor)
}

func errorHandler(c *fiber.Ctx, err error) error {
	status := observability.StatusFor(err)
	switch {
	case apperr.IsNotFound(err):
		return c.Status(status).JSON(fiber.Map{"error": "not_found", "path": c.Path()})
	case status < fiber.StatusInternalServerError:
		return c.Status(status).JSON(fiber.Map{"error": err.Error()})
	}
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "server_error"})
}
