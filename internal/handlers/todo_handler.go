package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/convohq/messaging-service/internal/auth"
	"github.com/convohq/messaging-service/internal/todo"
)

type TodoHandler struct {
	svc *todo.Service
	log *zap.SugaredLogger
}

func NewTodoHandler(svc *todo.Service, log *zap.SugaredLogger) *TodoHandler {
	return &TodoHandler{svc: svc, log: log}
}

func ownerID(c *fiber.Ctx) string {
	id, _ := c.Locals(auth.LocalUserID).(string)
	return id
}

func (h *TodoHandler) Create(c *fiber.Ctx) error {
	var body struct {
		Content string `json:"content"`
	}
	if err := c.BodyParser(&body); err != nil {
		return fiber.ErrBadRequest
	}
	t, err := h.svc.Create(context.Background(), ownerID(c), body.Content)
	if err != nil {
		h.log.Errorw("create todo", "err", err)
		return fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(t)
}

func (h *TodoHandler) List(c *fiber.Ctx) error {
	todos, err := h.svc.List(context.Background(), ownerID(c))
	if err != nil {
		h.log.Errorw("list todos", "err", err)
		return fail(c, err)
	}
	return c.JSON(todos)
}

func (h *TodoHandler) Update(c *fiber.Ctx) error {
	var body struct {
		Content *string `json:"content"`
		IsDone  *bool   `json:"is_done"`
	}
	if err := c.BodyParser(&body); err != nil {
		return fiber.ErrBadRequest
	}
	t, err := h.svc.Update(context.Background(), c.Params("id"), ownerID(c), body.Content, body.IsDone)
	if err != nil {
		h.log.Errorw("update todo", "todo_id", c.Params("id"), "err", err)
		return fail(c, err)
	}
	return c.JSON(t)
}

func (h *TodoHandler) Delete(c *fiber.Ctx) error {
	if err := h.svc.Delete(context.Background(), c.Params("id"), ownerID(c)); err != nil {
		h.log.Errorw("delete todo", "todo_id", c.Params("id"), "err", err)
		return fail(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
