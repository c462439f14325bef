package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	"github.com/google/uuid"

	"github.com/acme/interview-callback/internal/domain"
	"github.com/acme/interview-callback/internal/service/callrequest"
)

type selectRequest struct {
	Modality string `json:"modality"`
}

type submitRequest struct {
	PhoneNumber string `json:"phone_number"`
}

type sessionResponse struct {
	SessionID uuid.UUID `json:"session_id"`
	callrequest.View
}

func toSessionResponse(ctrl *callrequest.Controller, s domain.CallRequestState) sessionResponse {
	return sessionResponse{SessionID: ctrl.SessionID(), View: callrequest.Render(s)}
}

func (h *HandlerSet) openSession(ctx *fiber.Ctx) error {
	// Params aliases the request buffer; the id outlives this request.
	interviewID := utils.CopyString(ctx.Params("id"))
	ctrl, err := h.sessions.Open(ctx.UserContext(), interviewID)
	if err != nil {
		return translateError(err)
	}
	return ctx.Status(http.StatusCreated).JSON(toSessionResponse(ctrl, ctrl.State()))
}

func (h *HandlerSet) getSession(ctx *fiber.Ctx) error {
	ctrl, err := h.lookup(ctx)
	if err != nil {
		return err
	}
	return ctx.Status(http.StatusOK).JSON(toSessionResponse(ctrl, ctrl.State()))
}

func (h *HandlerSet) closeSession(ctx *fiber.Ctx) error {
	id, err := parseSessionID(ctx)
	if err != nil {
		return err
	}
	if err := h.sessions.Close(id); err != nil {
		return translateError(err)
	}
	return ctx.SendStatus(http.StatusNoContent)
}

func (h *HandlerSet) selectModality(ctx *fiber.Ctx) error {
	ctrl, err := h.lookup(ctx)
	if err != nil {
		return err
	}

	var req selectRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid request body")
	}

	state, err := ctrl.Select(domain.Modality(req.Modality))
	if err != nil {
		return translateError(err)
	}
	return ctx.Status(http.StatusOK).JSON(toSessionResponse(ctrl, state))
}

func (h *HandlerSet) back(ctx *fiber.Ctx) error {
	ctrl, err := h.lookup(ctx)
	if err != nil {
		return err
	}

	state, err := ctrl.Back()
	if err != nil {
		return translateError(err)
	}
	return ctx.Status(http.StatusOK).JSON(toSessionResponse(ctrl, state))
}

func (h *HandlerSet) submit(ctx *fiber.Ctx) error {
	ctrl, err := h.lookup(ctx)
	if err != nil {
		return err
	}

	var req submitRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid request body")
	}

	// Provider failures come back as a Failed state, not as an error.
	state, err := ctrl.Submit(ctx.UserContext(), req.PhoneNumber)
	if err != nil {
		return translateError(err)
	}
	return ctx.Status(http.StatusOK).JSON(toSessionResponse(ctrl, state))
}

func (h *HandlerSet) lookup(ctx *fiber.Ctx) (*callrequest.Controller, error) {
	id, err := parseSessionID(ctx)
	if err != nil {
		return nil, err
	}
	ctrl, err := h.sessions.Get(id)
	if err != nil {
		return nil, translateError(err)
	}
	return ctrl, nil
}

func parseSessionID(ctx *fiber.Ctx) (uuid.UUID, error) {
	id, err := uuid.Parse(ctx.Params("sid"))
	if err != nil {
		return uuid.Nil, fiber.NewError(http.StatusBadRequest, "invalid session id")
	}
	return id, nil
}
