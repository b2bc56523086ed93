package server

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"github.com/promptgate/promptgate/pkg/config"
	handlers "github.com/promptgate/promptgate/pkg/handlers/http"
)

type (
	GatewayServerDI struct {
		HandlerTransport handlers.HandlerTransport
		Config           *config.Config
		Logger           *logrus.Logger
	}
	GatewayServer struct {
		*BaseServer
		handlerTransport handlers.HandlerTransport
	}
)

func NewGatewayServer(di GatewayServerDI) *GatewayServer {
	return &GatewayServer{
		BaseServer:       NewBaseServer(di.Config, di.Logger),
		handlerTransport: di.HandlerTransport,
	}
}

func (s *GatewayServer) Run() error {
	s.setupRoutes()
	s.setupHealthCheck()
	s.setupMetricsEndpoint()

	addr := fmt.Sprintf("%s:%d", s.Config.Server.Host, s.Config.Server.Port)
	s.Logger.WithField("addr", addr).Info("starting gateway server")
	return s.Router.Listen(addr)
}

func (s *GatewayServer) setupRoutes() {
	s.addRoutes(s.Router.Group(""))
}

func (s *GatewayServer) addRoutes(router fiber.Router) {
	chat := router.Group("/chat")
	{
		chat.Post("", s.handlerTransport.ChatHandler.Handle)
		chat.Get("/agent-context", s.handlerTransport.AgentContextHandler.Handle)

		sessions := chat.Group("/sessions")
		{
			sessions.Get("", s.handlerTransport.ListSessionsHandler.Handle)
			sessions.Get("/:session_id/messages", s.handlerTransport.ListMessagesHandler.Handle)
		}
	}
}

func (s *GatewayServer) Shutdown() error {
	return s.Router.Shutdown()
}
