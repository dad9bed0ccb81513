package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"github.com/Windi-Fikriyansyah/homeservice_be/internal/services/booking"
)

// MessageHandler lets the two parties of a booking talk to each other. New
// messages are also pushed to the receiver over the websocket.
type MessageHandler struct {
	Bookings *booking.Service
	Log      logrus.FieldLogger
}

func NewMessageHandler(svc *booking.Service, log logrus.FieldLogger) *MessageHandler {
	return &MessageHandler{Bookings: svc, Log: log}
}

// Routes mounts messaging on a router that already requires a session.
func (h *MessageHandler) Routes(r fiber.Router, member fiber.Handler) {
	r.Get("/messages", member, h.Inbox)
	r.Get("/messages/unread", member, h.Unread)
	r.Get("/bookings/:id/messages", member, h.Thread)
	r.Post("/bookings/:id/messages", member, h.Send)
	r.Patch("/bookings/:id/messages/read", member, h.MarkRead)
}

type sendMessageReq struct {
	Content string `json:"content"`
}

func (h *MessageHandler) Send(c *fiber.Ctx) error {
	actor, err := getActor(c)
	if err != nil {
		return err
	}
	id, err := paramUUID(c, "id")
	if err != nil {
		return err
	}

	var req sendMessageReq
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}

	m, err := h.Bookings.SendMessage(c.UserContext(), id, actor, req.Content)
	if err != nil {
		return bookingFail(c, h.Log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": "Message sent",
		"data":    m,
	})
}

func (h *MessageHandler) Inbox(c *fiber.Ctx) error {
	userID, err := getAuth(c)
	if err != nil {
		return err
	}
	msgs, err := h.Bookings.Inbox(c.UserContext(), userID, limitQuery(c, 50))
	if err != nil {
		return bookingFail(c, h.Log, err)
	}
	return c.JSON(fiber.Map{"success": true, "data": msgs})
}

func (h *MessageHandler) Thread(c *fiber.Ctx) error {
	actor, err := getActor(c)
	if err != nil {
		return err
	}
	id, err := paramUUID(c, "id")
	if err != nil {
		return err
	}
	msgs, err := h.Bookings.Thread(c.UserContext(), id, actor)
	if err != nil {
		return bookingFail(c, h.Log, err)
	}
	return c.JSON(fiber.Map{"success": true, "data": msgs})
}

func (h *MessageHandler) MarkRead(c *fiber.Ctx) error {
	userID, err := getAuth(c)
	if err != nil {
		return err
	}
	id, err := paramUUID(c, "id")
	if err != nil {
		return err
	}
	n, err := h.Bookings.MarkRead(c.UserContext(), id, userID)
	if err != nil {
		return bookingFail(c, h.Log, err)
	}
	return c.JSON(fiber.Map{"success": true, "data": fiber.Map{"updated": n}})
}

func (h *MessageHandler) Unread(c *fiber.Ctx) error {
	userID, err := getAuth(c)
	if err != nil {
		return err
	}
	n, err := h.Bookings.UnreadCount(c.UserContext(), userID)
	if err != nil {
		return bookingFail(c, h.Log, err)
	}
	return c.JSON(fiber.Map{"success": true, "data": fiber.Map{"unread": n}})
}
