package handler

import (
	"context"
	"errors"
	"time"

	"skilltrade/internal/delivery/http/dto"
	"skilltrade/internal/delivery/http/middleware"
	"skilltrade/internal/domain/trade"
	"skilltrade/internal/pkg/response"
	"skilltrade/internal/usecase"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
)

type TradeHandler struct {
	uc usecase.TradeUsecase
}

type proposeTradeRequest struct {
	ReceiverID      uuid.UUID `json:"receiver_id"`
	OfferedSkills   []string  `json:"offered_skills"`
	RequestedSkills []string  `json:"requested_skills"`
	Message         string    `json:"message"`
	CreditStake     int       `json:"credit_stake"`

	// Optional proposed session time; scheduling proper happens after
	// acceptance.
	ScheduledAt *time.Time `json:"scheduled_at"`
}

type scheduleTradeRequest struct {
	ScheduledAt time.Time `json:"scheduled_at"`
}

func NewTradeHandler(uc usecase.TradeUsecase) *TradeHandler {
	return &TradeHandler{uc: uc}
}

func (h *TradeHandler) RegisterRoutes(r fiber.Router) {
	if r == nil {
		return
	}

	grp := r.Group("/trades")
	grp.Post("/", h.Propose)
	grp.Get("/", h.List)
	grp.Get("/:trade_id", h.Get)
	grp.Post("/:trade_id/accept", h.transition(h.uc.Accept))
	grp.Post("/:trade_id/decline", h.transition(h.uc.Decline))
	grp.Post("/:trade_id/schedule", h.Schedule)
	grp.Post("/:trade_id/complete", h.transition(h.uc.Complete))
	grp.Post("/:trade_id/cancel", h.transition(h.uc.Cancel))
}

func (h *TradeHandler) Propose(c fiber.Ctx) error {
	userID, ok := middleware.UserIDFromCtx(c)
	if !ok {
		return middleware.NewAppError(fiber.StatusUnauthorized, "Unauthorized", nil, nil)
	}

	var req proposeTradeRequest
	if err := c.Bind().Body(&req); err != nil {
		return middleware.NewAppError(fiber.StatusBadRequest, "Bad request", nil, err)
	}

	created, err := h.uc.Propose(c.Context(), userID, usecase.ProposeTradeInput{
		ReceiverID:      req.ReceiverID,
		OfferedSkills:   req.OfferedSkills,
		RequestedSkills: req.RequestedSkills,
		Message:         req.Message,
		CreditStake:     req.CreditStake,
		ScheduledAt:     req.ScheduledAt,
	})
	if err != nil {
		return mapTradeUsecaseError(err)
	}
	return response.Success(c, fiber.StatusCreated, response.MessageCreated, dto.NewTradeResponse(created))
}

func (h *TradeHandler) List(c fiber.Ctx) error {
	userID, ok := middleware.UserIDFromCtx(c)
	if !ok {
		return middleware.NewAppError(fiber.StatusUnauthorized, "Unauthorized", nil, nil)
	}

	items, err := h.uc.ListForUser(c.Context(), userID)
	if err != nil {
		return mapTradeUsecaseError(err)
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, dto.NewTradeListResponse(items))
}

func (h *TradeHandler) Get(c fiber.Ctx) error {
	userID, ok := middleware.UserIDFromCtx(c)
	if !ok {
		return middleware.NewAppError(fiber.StatusUnauthorized, "Unauthorized", nil, nil)
	}

	tradeID, err := uuid.Parse(c.Params("trade_id"))
	if err != nil {
		return middleware.NewAppError(fiber.StatusBadRequest, "Bad request", nil, err)
	}

	t, err := h.uc.Get(c.Context(), tradeID, userID)
	if err != nil {
		return mapTradeUsecaseError(err)
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, dto.NewTradeResponse(t))
}

func (h *TradeHandler) Schedule(c fiber.Ctx) error {
	userID, ok := middleware.UserIDFromCtx(c)
	if !ok {
		return middleware.NewAppError(fiber.StatusUnauthorized, "Unauthorized", nil, nil)
	}

	tradeID, err := uuid.Parse(c.Params("trade_id"))
	if err != nil {
		return middleware.NewAppError(fiber.StatusBadRequest, "Bad request", nil, err)
	}

	var req scheduleTradeRequest
	if err := c.Bind().Body(&req); err != nil {
		return middleware.NewAppError(fiber.StatusBadRequest, "Bad request", nil, err)
	}

	t, err := h.uc.Schedule(c.Context(), tradeID, userID, req.ScheduledAt)
	if err != nil {
		return mapTradeUsecaseError(err)
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, dto.NewTradeResponse(t))
}

// transition wraps the body-less lifecycle moves that differ only in the
// usecase method they call.
func (h *TradeHandler) transition(do func(ctx context.Context, tradeID, actorID uuid.UUID) (trade.Request, error)) fiber.Handler {
	return func(c fiber.Ctx) error {
		userID, ok := middleware.UserIDFromCtx(c)
		if !ok {
			return middleware.NewAppError(fiber.StatusUnauthorized, "Unauthorized", nil, nil)
		}

		tradeID, err := uuid.Parse(c.Params("trade_id"))
		if err != nil {
			return middleware.NewAppError(fiber.StatusBadRequest, "Bad request", nil, err)
		}

		t, err := do(c.Context(), tradeID, userID)
		if err != nil {
			return mapTradeUsecaseError(err)
		}
		return response.Success(c, fiber.StatusOK, response.MessageOK, dto.NewTradeResponse(t))
	}
}

func mapTradeUsecaseError(err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, usecase.ErrInvalidInput):
		return middleware.NewAppError(fiber.StatusBadRequest, "Bad request", nil, err)
	case errors.Is(err, usecase.ErrForbidden):
		return middleware.NewAppError(fiber.StatusForbidden, "Forbidden", nil, err)
	case errors.Is(err, usecase.ErrTradeNotFound):
		return middleware.NewAppError(fiber.StatusNotFound, "Trade not found", nil, err)
	case errors.Is(err, usecase.ErrUserNotFound):
		return middleware.NewAppError(fiber.StatusNotFound, "User not found", nil, err)
	case errors.Is(err, usecase.ErrInvalidTradeState):
		return middleware.NewAppError(fiber.StatusConflict, "Invalid trade state", nil, err)
	case errors.Is(err, usecase.ErrInsufficientCredits):
		return middleware.NewAppError(fiber.StatusUnprocessableEntity, "Insufficient credits", nil, err)
	default:
		return middleware.NewAppError(fiber.StatusInternalServerError, response.MessageInternalServerError, nil, err)
	}
}
