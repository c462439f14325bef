package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/acme/interview-callback/internal/app"
	attemptsvc "github.com/acme/interview-callback/internal/service/attempt"
	"github.com/acme/interview-callback/internal/service/callrequest"
	"github.com/acme/interview-callback/pkg/logger"
)

// SessionRegistry hosts the open call-request controllers.
type SessionRegistry interface {
	Open(ctx context.Context, interviewID string) (*callrequest.Controller, error)
	Get(id uuid.UUID) (*callrequest.Controller, error)
	Close(id uuid.UUID) error
}

// AttemptLister serves call-attempt history.
type AttemptLister interface {
	ListByInterview(ctx context.Context, interviewID string, limit int, pageToken string) (*attemptsvc.ListResult, error)
}

// HandlerSet bundles all HTTP handlers.
type HandlerSet struct {
	sessions SessionRegistry
	attempts AttemptLister
	checks   map[string]func(context.Context) error
	logger   *logger.Logger
}

// NewHandlerSet creates a new handler bundle.
func NewHandlerSet(container *app.Container) *HandlerSet {
	services := container.Services()
	return newHandlerSet(services.Sessions, services.Attempts, container.HealthChecks(), container.Logger)
}

func newHandlerSet(sessions SessionRegistry, attempts AttemptLister, checks map[string]func(context.Context) error, lg *logger.Logger) *HandlerSet {
	if lg == nil {
		lg = logger.Nop()
	}
	return &HandlerSet{sessions: sessions, attempts: attempts, checks: checks, logger: lg}
}

// Register wires all routes onto the fiber app.
func (h *HandlerSet) Register(app *fiber.App) {
	app.Get("/healthz", h.health)

	api := app.Group("/api")
	v1 := api.Group("/v1")

	interviews := v1.Group("/interviews")
	interviews.Post("/:id/sessions", h.openSession)
	interviews.Get("/:id/attempts", h.listAttempts)

	sessions := v1.Group("/sessions")
	sessions.Get("/:sid", h.getSession)
	sessions.Delete("/:sid", h.closeSession)
	sessions.Post("/:sid/select", h.selectModality)
	sessions.Post("/:sid/back", h.back)
	sessions.Post("/:sid/submit", h.submit)
}

// ErrorHandler provides centralized error responses.
func (h *HandlerSet) ErrorHandler(ctx *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := err.Error()

	if fiberErr, ok := err.(*fiber.Error); ok {
		code = fiberErr.Code
		message = fiberErr.Message
	}

	if code == fiber.StatusInternalServerError {
		h.logger.WithContext(ctx.UserContext()).Error("request failed", zap.Error(err), zap.String("path", ctx.Path()))
		message = "internal server error"
	}

	return ctx.Status(code).JSON(fiber.Map{"error": message})
}

func (h *HandlerSet) health(ctx *fiber.Ctx) error {
	healthCtx, cancel := context.WithTimeout(ctx.UserContext(), 2*time.Second)
	defer cancel()

	errs := make(map[string]string)
	for name, check := range h.checks {
		if err := check(healthCtx); err != nil {
			errs[name] = err.Error()
		}
	}

	status := fiber.StatusOK
	state := "ok"
	if len(errs) > 0 {
		status = fiber.StatusServiceUnavailable
		state = "degraded"
	}

	return ctx.Status(status).JSON(fiber.Map{"status": state, "errors": errs})
}
