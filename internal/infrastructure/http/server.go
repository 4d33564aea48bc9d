// Package http exposes the resume and suggestion API over fiber.
package http

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"

	"github.com/0xcro3dile/resume-intel/internal/domain/entities"
	"github.com/0xcro3dile/resume-intel/internal/domain/usecases"
)

// ResumeAPI is the resume lifecycle used by the handlers.
type ResumeAPI interface {
	Upload(ctx context.Context, userID, fileName, mimeType string, data []byte) (*usecases.UploadResult, error)
	Status(ctx context.Context, userID string) (*usecases.ResumeStatus, error)
	Get(ctx context.Context, userID string) (*entities.Resume, error)
	Delete(ctx context.Context, userID string) error
	Reindex(ctx context.Context, userID string) (*usecases.UploadResult, error)
}

type SuggestionAPI interface {
	SuggestBatch(ctx context.Context, userID string, req usecases.SuggestRequest) ([]entities.Suggestion, error)
	SuggestField(ctx context.Context, userID, url, title string, f entities.FormFieldQuery) (*entities.Suggestion, error)
	ApplicationFor(ctx context.Context, userID, url string) (*entities.Application, error)
}

type FeedbackAPI interface {
	Record(ctx context.Context, fb entities.Feedback) (*entities.Feedback, error)
	List(ctx context.Context, userID, url string) ([]entities.Feedback, error)
}

type InsightsAPI interface {
	Insights(ctx context.Context, userID string) (*entities.Insights, error)
}

// Services bundles the usecases served over HTTP.
type Services struct {
	Resumes     ResumeAPI
	Suggestions SuggestionAPI
	Feedback    FeedbackAPI
	Insights    InsightsAPI
}

// Options tunes the fiber app.
type Options struct {
	BodyLimitMB  int
	CORSOrigins  string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Server is the HTTP server for the API.
type Server struct {
	app      *fiber.App
	services Services
	logger   *zap.Logger
}

// NewServer builds the fiber app and registers every route.
func NewServer(services Services, opts Options, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.BodyLimitMB <= 0 {
		opts.BodyLimitMB = 10
	}
	if opts.CORSOrigins == "" {
		opts.CORSOrigins = "*"
	}
	if opts.ReadTimeout <= 0 {
		opts.ReadTimeout = 30 * time.Second
	}
	if opts.WriteTimeout <= 0 {
		// Suggestion batches wait on the LLM.
		opts.WriteTimeout = 300 * time.Second
	}

	s := &Server{services: services, logger: log.With(zap.String("component", "http"))}
	s.app = fiber.New(fiber.Config{
		AppName:               "resume-intel",
		BodyLimit:             opts.BodyLimitMB * 1024 * 1024,
		ReadTimeout:           opts.ReadTimeout,
		WriteTimeout:          opts.WriteTimeout,
		DisableStartupMessage: true,
		ErrorHandler:          s.handleError,
	})

	s.app.Use(recover.New())
	s.app.Use(s.requestLogger)
	s.app.Use(cors.New(cors.Config{
		AllowOrigins: opts.CORSOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, " + userHeader,
	}))
	s.routes()
	return s
}

func (s *Server) routes() {
	api := s.app.Group("/api")
	api.Get("/health", s.handleHealth)

	authed := api.Group("", requireUser)

	authed.Post("/resume", s.handleUpload)
	authed.Get("/resume", s.handleGetResume)
	authed.Delete("/resume", s.handleDeleteResume)
	authed.Get("/resume/status", s.handleStatus)
	authed.Post("/resume/reindex", s.handleReindex)
	authed.Get("/resume/insights", s.handleInsights)

	authed.Post("/suggestions", s.handleSuggestBatch)
	authed.Post("/suggestions/field", s.handleSuggestField)

	authed.Post("/feedback", s.handleFeedback)
	authed.Get("/feedback", s.handleListFeedback)

	authed.Get("/applications", s.handleGetApplication)
}

// App exposes the fiber app, mainly for tests.
func (s *Server) App() *fiber.App {
	return s.app
}

// Listen blocks serving addr until Shutdown is called.
func (s *Server) Listen(addr string) error {
	s.logger.Info("resume-intel server starting", zap.String("addr", addr))
	return s.app.Listen(addr)
}

// Shutdown stops accepting connections and waits for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}
