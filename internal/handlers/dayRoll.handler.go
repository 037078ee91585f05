package handlers

import (
	"strconv"
	"time"

	"pms/internal/app"
	"pms/internal/handlers/middleware"
	"pms/internal/services"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type DayRollHandler struct {
	Handler
	dayRoll     *services.DayRollService
	coordinator *services.TransitionCoordinatorService
}

func NewDayRollHandler(app app.App, router fiber.Router) *DayRollHandler {
	log := logger.New("handlers").File("dayroll_handler")
	return &DayRollHandler{
		dayRoll:     app.DayRollService,
		coordinator: app.TransitionCoordinator,
		Handler: Handler{
			log:        log,
			router:     router,
			middleware: app.Middleware,
		},
	}
}

func (h *DayRollHandler) Register() {
	properties := h.router.Group("/properties", h.middleware.RequireAuth())
	properties.Get("/:id/day-roll-issues", h.issues)
	properties.Get("/:id/history", h.history)
}

func (h *DayRollHandler) issues(c *fiber.Ctx) error {
	actor := middleware.GetActor(c)
	if actor == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Authentication required",
		})
	}

	propertyID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid property ID",
		})
	}

	candidateDate := time.Now().UTC()
	if raw := c.Query("date"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid date, expected YYYY-MM-DD",
			})
		}
		candidateDate = parsed
	}

	issues, err := h.dayRoll.ComputeIssues(c.Context(), propertyID, candidateDate)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to compute day-roll issues",
		})
	}

	return c.JSON(fiber.Map{
		"issues":   issues,
		"blocking": services.HasBlockingIssues(issues),
	})
}

func (h *DayRollHandler) history(c *fiber.Ctx) error {
	actor := middleware.GetActor(c)
	if actor == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Authentication required",
		})
	}

	propertyID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid property ID",
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

	entries, err := h.coordinator.PropertyHistory(c.Context(), propertyID, limit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load property history",
		})
	}

	return c.JSON(fiber.Map{
		"history": entries,
	})
}
