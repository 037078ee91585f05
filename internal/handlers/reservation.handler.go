package handlers

import (
	"strconv"

	"pms/internal/app"
	"pms/internal/handlers/middleware"
	"pms/internal/models"
	"pms/internal/services"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type ReservationHandler struct {
	Handler
	coordinator *services.TransitionCoordinatorService
}

func NewReservationHandler(app app.App, router fiber.Router) *ReservationHandler {
	log := logger.New("handlers").File("reservation_handler")
	return &ReservationHandler{
		coordinator: app.TransitionCoordinator,
		Handler: Handler{
			log:        log,
			router:     router,
			middleware: app.Middleware,
		},
	}
}

func (h *ReservationHandler) Register() {
	reservations := h.router.Group("/reservations", h.middleware.RequireAuth())
	reservations.Post("/:id/transition", h.transition)
	reservations.Get("/:id/history", h.history)
}

type transitionBody struct {
	PropertyID       string `json:"propertyId"`
	NewStatus        string `json:"newStatus"`
	Reason           string `json:"reason"`
	ApprovalOverride bool   `json:"approvalOverride"`
}

func (h *ReservationHandler) transition(c *fiber.Ctx) error {
	actor := middleware.GetActor(c)
	if actor == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Authentication required",
		})
	}

	reservationID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid reservation ID",
		})
	}

	var body transitionBody
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	propertyID, err := uuid.Parse(body.PropertyID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid property ID",
		})
	}

	userID := actor.UserID
	result, err := h.coordinator.Transition(c.Context(), models.TransitionRequest{
		ReservationID:    reservationID,
		PropertyID:       propertyID,
		NewStatus:        models.ReservationStatus(body.NewStatus),
		Reason:           body.Reason,
		ActingUserID:     &userID,
		ActingRole:       actor.EffectiveRole,
		IsAutomatic:      false,
		ApprovalOverride: body.ApprovalOverride,
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to process transition",
		})
	}

	return c.Status(statusForOutcome(result.Outcome)).JSON(result)
}

func statusForOutcome(outcome models.Outcome) int {
	switch outcome {
	case models.OutcomeSuccess:
		return fiber.StatusOK
	case models.OutcomeNotFound:
		return fiber.StatusNotFound
	case models.OutcomeApprovalRequired, models.OutcomeConflict:
		return fiber.StatusConflict
	default:
		return fiber.StatusUnprocessableEntity
	}
}

func (h *ReservationHandler) history(c *fiber.Ctx) error {
	actor := middleware.GetActor(c)
	if actor == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Authentication required",
		})
	}

	reservationID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid reservation ID",
		})
	}

	limit := 50
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid limit",
			})
		}
		limit = parsed
	}

	entries, err := h.coordinator.History(c.Context(), reservationID, limit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load history",
		})
	}

	return c.JSON(fiber.Map{
		"history": entries,
	})
}
