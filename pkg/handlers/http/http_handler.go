package http

import "github.com/gofiber/fiber/v2"

type Handler interface {
	Handle(c *fiber.Ctx) error
}

// HandlerTransport bundles the gateway's HTTP handlers for route wiring.
type HandlerTransport struct {
	ChatHandler         Handler
	AgentContextHandler Handler
	ListSessionsHandler Handler
	ListMessagesHandler Handler
}
