package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/maheshrc27/blogflow/internal/service"
	"github.com/maheshrc27/blogflow/internal/transfer"
)

type NotificationHandler struct {
	s service.NotificationService
}

func NewNotificationHandler(service service.NotificationService) *NotificationHandler {
	return &NotificationHandler{s: service}
}

func (h *NotificationHandler) ListNotifications(c *fiber.Ctx) error {
	userID := GetUserID(c)
	unreadOnly := c.QueryBool("unread", false)

	list, err := h.s.List(c.Context(), userID, unreadOnly)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to list notifications",
		})
	}

	return c.Status(fiber.StatusOK).JSON(list)
}

func (h *NotificationHandler) MarkRead(c *fiber.Ctx) error {
	userID := GetUserID(c)

	var req transfer.MarkReadRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to parse request body",
		})
	}

	if err := h.s.MarkRead(c.Context(), userID, req.IDs); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to mark notifications read",
		})
	}

	return c.SendStatus(fiber.StatusOK)
}
