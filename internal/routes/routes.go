package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	fiberws "github.com/gofiber/websocket/v2"
	"go.uber.org/zap"

	"github.com/convohq/messaging-service/config"
	"github.com/convohq/messaging-service/internal/auth"
	"github.com/convohq/messaging-service/internal/handlers"
	"github.com/convohq/messaging-service/internal/metrics"
	"github.com/convohq/messaging-service/internal/ws"
)

func Register(app *fiber.App, cfg *config.Config, chatH *handlers.ChatHandler, todoH *handlers.TodoHandler, wsServer *ws.Server, verifier *auth.Verifier, log *zap.SugaredLogger) {
	app.Get("/metrics", adaptor.HTTPHandler(metrics.Handler()))

	api := app.Group("/api/v1")
	api.Get("/health", func(c *fiber.Ctx) error { return c.JSON(fiber.Map{"status": "ok"}) })

	chat := api.Group("/chat", auth.APIKeyAuth(cfg.Auth.APIKey))
	chat.Post("/conversations", chatH.CreateConversation)
	chat.Get("/conversations", chatH.ListConversations)
	chat.Delete("/conversations/:id", chatH.DeleteConversation)
	chat.Get("/conversations/:id/messages", chatH.GetMessages)
	chat.Post("/conversations/:id/messages", chatH.SendMessage)

	todos := api.Group("/todos", auth.JWTAuth(verifier))
	todos.Post("/", todoH.Create)
	todos.Get("/", todoH.List)
	todos.Patch("/:id", todoH.Update)
	todos.Delete("/:id", todoH.Delete)

	app.Use("/ws", func(c *fiber.Ctx) error {
		if !fiberws.IsWebSocketUpgrade(c) {
			return fiber.ErrUpgradeRequired
		}
		userID, err := verifier.UserID(c.Query("token"))
		if err != nil {
			log.Warnw("ws auth", "err", err)
			return fiber.ErrUnauthorized
		}
		c.Locals(auth.LocalUserID, userID)
		return c.Next()
	})
	app.Get("/ws", fiberws.New(wsServer.Handle))
}
