package handlers

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/maheshrc27/blogflow/internal/service"
	"github.com/maheshrc27/blogflow/internal/transfer"
)

type ScheduleHandler struct {
	s service.SchedulingService
}

func NewScheduleHandler(service service.SchedulingService) *ScheduleHandler {
	return &ScheduleHandler{s: service}
}

func (h *ScheduleHandler) CreateSchedule(c *fiber.Ctx) error {
	userID := GetUserID(c)

	var sc transfer.ScheduleCreation
	if err := c.BodyParser(&sc); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to parse request body",
		})
	}

	scheduledAt, err := time.Parse("2006-01-02T15:04", sc.ScheduledAt)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid scheduled time format",
		})
	}

	sp, err := h.s.Schedule(c.Context(), userID, sc.PostID, scheduledAt)
	if err != nil {
		return scheduleError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(sp)
}

func (h *ScheduleHandler) UpdateSchedule(c *fiber.Ctx) error {
	userID := GetUserID(c)
	scheduleID := c.QueryInt("id", 0)

	var su transfer.ScheduleUpdate
	if err := c.BodyParser(&su); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to parse request body",
		})
	}

	scheduledAt, err := time.Parse("2006-01-02T15:04", su.ScheduledAt)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid scheduled time format",
		})
	}

	if err := h.s.Reschedule(c.Context(), userID, int64(scheduleID), scheduledAt); err != nil {
		return scheduleError(c, err)
	}

	return c.SendStatus(fiber.StatusOK)
}

func (h *ScheduleHandler) CancelSchedule(c *fiber.Ctx) error {
	userID := GetUserID(c)
	scheduleID := c.QueryInt("id", 0)

	if err := h.s.Cancel(c.Context(), userID, int64(scheduleID)); err != nil {
		return scheduleError(c, err)
	}

	return c.SendStatus(fiber.StatusOK)
}

func (h *ScheduleHandler) RetrySchedule(c *fiber.Ctx) error {
	userID := GetUserID(c)
	scheduleID := c.QueryInt("id", 0)

	if err := h.s.Retry(c.Context(), userID, int64(scheduleID)); err != nil {
		return scheduleError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"message": "Post has been queued for retry",
	})
}

func (h *ScheduleHandler) ListSchedules(c *fiber.Ctx) error {
	userID := GetUserID(c)
	status := c.Query("status")

	sps, err := h.s.List(c.Context(), userID, status)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to list schedules",
		})
	}

	return c.Status(fiber.StatusOK).JSON(sps)
}

func (h *ScheduleHandler) DueCount(c *fiber.Ctx) error {
	window := time.Duration(c.QueryInt("window_minutes", 60)) * time.Minute

	count, err := h.s.DueCount(c.Context(), window)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to count due schedules",
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"due_count": count,
	})
}

func scheduleError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Schedule not found"})
	case errors.Is(err, service.ErrPastTime),
		errors.Is(err, service.ErrCompleted),
		errors.Is(err, service.ErrRetryExhausted),
		errors.Is(err, service.ErrRetryNotFailed),
		errors.Is(err, service.ErrScheduleExists):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": err.Error()})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "something went wrong"})
	}
}
