package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/oladanielT/support-system/internal/api/dto"
	"github.com/oladanielT/support-system/internal/service"
)

// NotificationsHandler serves the caller's inbox.
type NotificationsHandler struct {
	notifications *service.NotificationService
}

func NewNotificationsHandler(notifications *service.NotificationService) *NotificationsHandler {
	return &NotificationsHandler{notifications: notifications}
}

// List GET /notifications?unread=true.
func (h *NotificationsHandler) List(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	limit := parseInt(c.Query("limit"), 50)
	offset := parseInt(c.Query("offset"), 0)
	inbox, err := h.notifications.List(c.UserContext(), actor, c.QueryBool("unread"), limit, offset)
	if err != nil {
		return err
	}
	items := make([]dto.NotificationResponse, 0, len(inbox.Items))
	for _, n := range inbox.Items {
		items = append(items, dto.NotificationResponse{ID: n.ID, Message: n.Message, IsRead: n.Read, CreatedAt: n.CreatedAt})
	}
	return respondOK(c, fiber.Map{"items": items, "unread_count": inbox.UnreadCount})
}

// UnreadCount GET /notifications/unread-count.
func (h *NotificationsHandler) UnreadCount(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	count, err := h.notifications.UnreadCount(c.UserContext(), actor)
	if err != nil {
		return err
	}
	return respondOK(c, fiber.Map{"unread_count": count})
}

// MarkRead POST /notifications/:id/read.
func (h *NotificationsHandler) MarkRead(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	if err := h.notifications.MarkRead(c.UserContext(), actor, c.Params("id")); err != nil {
		return err
	}
	return respondOK(c, fiber.Map{"id": c.Params("id"), "is_read": true})
}

// MarkAllRead POST /notifications/read-all.
func (h *NotificationsHandler) MarkAllRead(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	count, err := h.notifications.MarkAllRead(c.UserContext(), actor)
	if err != nil {
		return err
	}
	return respondOK(c, fiber.Map{"marked": count})
}

// Clear DELETE /notifications.
func (h *NotificationsHandler) Clear(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	count, err := h.notifications.Clear(c.UserContext(), actor)
	if err != nil {
		return err
	}
	return respondOK(c, fiber.Map{"deleted": count})
}
