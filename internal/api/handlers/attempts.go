package handlers

import (
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/acme/interview-callback/internal/domain"
)

type attemptResponse struct {
	ID             uuid.UUID             `json:"id"`
	SessionID      uuid.UUID             `json:"session_id"`
	InterviewID    string                `json:"interview_id"`
	PhoneNumber    string                `json:"phone_number"`
	Outcome        domain.AttemptOutcome `json:"outcome"`
	Error          string                `json:"error,omitempty"`
	ProviderCallID string                `json:"provider_call_id,omitempty"`
	DurationMs     int64                 `json:"duration_ms"`
	AttemptedAt    time.Time             `json:"attempted_at"`
}

type listAttemptsResponse struct {
	Attempts      []attemptResponse `json:"attempts"`
	NextPageToken string            `json:"next_page_token,omitempty"`
}

func (h *HandlerSet) listAttempts(ctx *fiber.Ctx) error {
	limit := ctx.QueryInt("limit", 50)

	res, err := h.attempts.ListByInterview(ctx.UserContext(), ctx.Params("id"), limit, ctx.Query("page_token"))
	if err != nil {
		return translateError(err)
	}

	out := listAttemptsResponse{
		Attempts:      make([]attemptResponse, 0, len(res.Attempts)),
		NextPageToken: res.NextToken,
	}
	for _, a := range res.Attempts {
		out.Attempts = append(out.Attempts, attemptResponse{
			ID:             a.ID,
			SessionID:      a.SessionID,
			InterviewID:    a.InterviewID,
			PhoneNumber:    a.PhoneNumber,
			Outcome:        a.Outcome,
			Error:          a.Error,
			ProviderCallID: a.ProviderCallID,
			DurationMs:     a.Duration.Milliseconds(),
			AttemptedAt:    a.AttemptedAt,
		})
	}

	return ctx.Status(http.StatusOK).JSON(out)
}
