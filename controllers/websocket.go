package controllers

import (
	"github.com/gofiber/fiber/v2"
	fiberws "github.com/gofiber/websocket/v2"

	"sams_go/services/websocket"
	"sams_go/utils"
)

type WebSocketController struct {
	hub *websocket.Hub
}

func NewWebSocketController(hub *websocket.Hub) *WebSocketController {
	return &WebSocketController{hub: hub}
}

// GetFeedStats reports how many clients are watching the attendance feed
func (wsc *WebSocketController) GetFeedStats(c *fiber.Ctx) error {
	return utils.Success(c, "Feed stats retrieved successfully", fiber.Map{
		"connected_clients": wsc.hub.GetClientCount(),
	})
}

// WebSocketHandler upgrades the connection and attaches it to the feed hub
func (wsc *WebSocketController) WebSocketHandler() fiber.Handler {
	return fiberws.New(func(c *fiberws.Conn) {
		wsc.hub.ServeFiberWS(c)
	})
}
