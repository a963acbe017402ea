package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/convohq/messaging-service/internal/chat"
)

type ChatHandler struct {
	svc *chat.Service
	log *zap.SugaredLogger
}

func NewChatHandler(svc *chat.Service, log *zap.SugaredLogger) *ChatHandler {
	return &ChatHandler{svc: svc, log: log}
}

func (h *ChatHandler) CreateConversation(c *fiber.Ctx) error {
	var body struct {
		Title       string `json:"title"`
		UserID      string `json:"user_id"`
		OtherUserID string `json:"other_user_id"`
	}
	if err := c.BodyParser(&body); err != nil {
		return fiber.ErrBadRequest
	}
	conv, err := h.svc.CreateConversation(context.Background(), body.Title, body.UserID, body.OtherUserID)
	if err != nil {
		h.log.Errorw("create conversation", "err", err)
		return fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(conv)
}

func (h *ChatHandler) ListConversations(c *fiber.Ctx) error {
	userID := c.Query("user_id")
	convs, err := h.svc.FetchConversations(context.Background(), userID)
	if err != nil {
		h.log.Errorw("list conversations", "user_id", userID, "err", err)
		return fail(c, err)
	}
	return c.JSON(convs)
}

func (h *ChatHandler) GetMessages(c *fiber.Ctx) error {
	convID := c.Params("id")
	msgs, err := h.svc.FetchMessages(context.Background(), convID)
	if err != nil {
		h.log.Errorw("get messages", "conversation_id", convID, "err", err)
		return fail(c, err)
	}
	return c.JSON(msgs)
}

func (h *ChatHandler) SendMessage(c *fiber.Ctx) error {
	convID := c.Params("id")
	var body struct {
		SenderID string `json:"sender_id"`
		Content  string `json:"content"`
	}
	if err := c.BodyParser(&body); err != nil {
		return fiber.ErrBadRequest
	}
	msg, err := h.svc.SendMessage(context.Background(), convID, body.SenderID, body.Content)
	if err != nil {
		h.log.Errorw("send message", "conversation_id", convID, "err", err)
		return fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(msg)
}

func (h *ChatHandler) DeleteConversation(c *fiber.Ctx) error {
	convID := c.Params("id")
	if err := h.svc.DeleteConversation(context.Background(), convID); err != nil {
		h.log.Errorw("delete conversation", "conversation_id", convID, "err", err)
		return fail(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
