// server/http/handlers.go
package http

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/vinizap/notesync/server/auth"
	"github.com/vinizap/notesync/server/domain"
	"github.com/vinizap/notesync/server/events"
	"github.com/vinizap/notesync/server/metrics"
	"github.com/vinizap/notesync/server/notebook"
)

type Options struct {
	// PublicURL prefixes share link URLs. Empty means the request origin.
	PublicURL string
	Metrics   *metrics.Metrics
	// Gatherer backs /metrics; nil disables the route.
	Gatherer prometheus.Gatherer
	Logger   zerolog.Logger
}

type Server struct {
	notes     *notebook.Service
	users     *auth.Users
	hub       *events.Hub
	metrics   *metrics.Metrics
	gatherer  prometheus.Gatherer
	log       zerolog.Logger
	publicURL string
}

func NewServer(notes *notebook.Service, users *auth.Users, hub *events.Hub, opts Options) *Server {
	return &Server{
		notes:     notes,
		users:     users,
		hub:       hub,
		metrics:   opts.Metrics,
		gatherer:  opts.Gatherer,
		log:       opts.Logger.With().Str("component", "http").Logger(),
		publicURL: strings.TrimRight(opts.PublicURL, "/"),
	}
}

// App builds the fiber application with every route mounted.
func (s *Server) App() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "notesync",
		DisableStartupMessage: true,
		ErrorHandler:          s.handleError,
	})

	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,PATCH,DELETE,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))
	app.Use(s.requestLogger)

	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	if s.gatherer != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})))
	}
	app.Get("/shared/:noteId/:token", s.HandleSharedNote)

	api := app.Group("/api", auth.Middleware(s.users)...)
	api.Get("/me", s.HandleMe)
	api.Get("/events", s.HandleEvents)

	api.Get("/folders", s.HandleListFolders)
	api.Get("/folders/tree", s.HandleFolderTree)
	api.Post("/folders", s.HandleCreateFolder)
	api.Get("/folders/:id", s.HandleGetFolder)
	api.Patch("/folders/:id", s.HandleUpdateFolder)
	api.Put("/folders/:id", s.HandleUpdateFolder)
	api.Delete("/folders/:id", s.HandleDeleteFolder)

	api.Get("/notes", s.HandleListNotes)
	api.Post("/notes", s.HandleCreateNote)
	api.Get("/notes/:id", s.HandleGetNote)
	api.Patch("/notes/:id", s.HandleUpdateNote)
	api.Put("/notes/:id", s.HandleUpdateNote)
	api.Put("/notes/:id/hierarchy", s.HandleReparentNote)
	api.Delete("/notes/:id", s.HandleDeleteNote)

	api.Post("/share-links", s.HandleCreateShareLink)
	api.Get("/share-links/note/:noteId", s.HandleListShareLinks)
	api.Get("/share-links/:id", s.HandleGetShareLink)
	api.Delete("/share-links/:id", s.HandleDeleteShareLink)

	return app
}

func (s *Server) HandleMe(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"id": auth.OwnerID(c)})
}

// baseURL is the origin share links are issued under and resolved against.
func (s *Server) baseURL(c *fiber.Ctx) string {
	if s.publicURL != "" {
		return s.publicURL
	}
	return c.BaseURL()
}

func statusFor(err error) int {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return fe.Code
	}
	switch {
	case domain.IsValidation(err):
		return fiber.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, domain.ErrExpired):
		return fiber.StatusGone
	case errors.Is(err, domain.ErrLocked):
		return fiber.StatusLocked
	case errors.Is(err, domain.ErrConflict):
		return fiber.StatusConflict
	case errors.Is(err, domain.ErrUnauthorized):
		return fiber.StatusUnauthorized
	default:
		return fiber.StatusInternalServerError
	}
}

func (s *Server) handleError(c *fiber.Ctx, err error) error {
	status := statusFor(err)
	msg := err.Error()

	var de *domain.DeletionError
	if status == fiber.StatusInternalServerError && !errors.As(err, &de) {
		s.log.Error().Err(err).Str("path", c.Path()).Msg("request failed")
		msg = "Internal Server Error"
	}
	return c.Status(status).JSON(fiber.Map{"message": msg})
}

func badRequest(msg string) error {
	return fiber.NewError(fiber.StatusBadRequest, msg)
}
