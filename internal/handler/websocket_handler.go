// internal/handler/websocket_handler.go
package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/sarapudheen-ops/spacetec-sub001/internal/manager"
	"github.com/sarapudheen-ops/spacetec-sub001/internal/resource"
	"github.com/sarapudheen-ops/spacetec-sub001/internal/utils"
)

// WebSocketHandler streams scanner and resource events to WebSocket clients
type WebSocketHandler struct {
	upgrader    websocket.Upgrader
	connections *ConnectionManager
	scanner     *manager.ScannerManager
	resources   *resource.Manager
	logger      *utils.ServiceLogger
	stopBridges []func()
}

// NewWebSocketHandler creates a new WebSocket handler and starts the
// bridges that re-broadcast scanner events and resource alerts.
func NewWebSocketHandler(
	scanner *manager.ScannerManager,
	resources *resource.Manager,
	logger *zap.Logger,
) *WebSocketHandler {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			// In production, implement proper origin checking
			return true
		},
	}

	handler := &WebSocketHandler{
		upgrader:    upgrader,
		connections: NewConnectionManager(),
		scanner:     scanner,
		resources:   resources,
		logger:      utils.NewServiceLogger(logger, "websocket-handler"),
	}

	handler.startBridges()

	return handler
}

// startBridges subscribes to the scanner manager and resource supervisor
// and forwards their events to subscribed clients.
func (h *WebSocketHandler) startBridges() {
	events, cancelEvents := h.scanner.Subscribe()
	go func() {
		for event := range events {
			h.broadcastScannerEvent(event)
		}
	}()

	alerts, cancelAlerts := h.resources.Subscribe()
	go func() {
		for alert := range alerts {
			h.broadcastAlert(alert)
		}
	}()

	h.stopBridges = []func(){cancelEvents, cancelAlerts}
}

// Close releases the event subscriptions feeding WebSocket clients.
func (h *WebSocketHandler) Close() {
	for _, stop := range h.stopBridges {
		stop()
	}
}

// RegisterRoutes registers WebSocket routes
func (h *WebSocketHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/events", h.HandleEventConnection)
	router.GET("/stats", h.GetConnectionStats)
}

// HandleEventConnection upgrades the request and streams scanner events
// @Summary Scanner event stream
// @Description Upgrade to a WebSocket streaming connection, detection, and resource-alert events. Clients filter with subscribe/unsubscribe messages on the topics connection, detection, and alerts.
// @Tags WebSocket
// @Success 101 {string} string "Switching protocols"
// @Router /ws/events [get]
func (h *WebSocketHandler) HandleEventConnection(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("Failed to upgrade WebSocket connection", zap.Error(err))
		return
	}

	client := &Client{
		ID:          uuid.New().String(),
		Connection:  conn,
		Send:        make(chan []byte, 256),
		UserAgent:   c.Request.UserAgent(),
		RemoteAddr:  c.Request.RemoteAddr,
		ConnectedAt: time.Now(),
	}

	h.connections.Register(client)
	h.logger.Info("WebSocket client connected",
		zap.String("client_id", client.ID),
		zap.String("remote_addr", client.RemoteAddr),
	)

	go h.sendInitialStatus(client)

	go h.handleClientRead(client)
	go h.handleClientWrite(client)
}

// GetConnectionStats returns WebSocket connection statistics
// @Summary WebSocket connection stats
// @Description Get the connected WebSocket clients and their subscriptions
// @Tags WebSocket
// @Accept json
// @Produce json
// @Success 200 {object} utils.APIResponse{data=ConnectionStats} "Statistics retrieved"
// @Router /ws/stats [get]
func (h *WebSocketHandler) GetConnectionStats(c *gin.Context) {
	utils.SuccessResponse(c, http.StatusOK, "WebSocket statistics", h.connections.GetStats())
}

// handleClientRead handles reading messages from WebSocket client
func (h *WebSocketHandler) handleClientRead(client *Client) {
	defer func() {
		h.connections.Unregister(client)
		client.Connection.Close()
	}()

	client.Connection.SetReadDeadline(time.Now().Add(60 * time.Second))
	client.Connection.SetPongHandler(func(string) error {
		client.Connection.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		_, messageBytes, err := client.Connection.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.logger.Error("WebSocket read error",
					zap.Error(err),
					zap.String("client_id", client.ID),
				)
			}
			break
		}

		var message WebSocketMessage
		if err := json.Unmarshal(messageBytes, &message); err != nil {
			h.logger.Error("Failed to parse WebSocket message",
				zap.Error(err),
				zap.String("client_id", client.ID),
			)
			continue
		}

		h.handleClientMessage(client, &message)
	}
}

// handleClientWrite handles writing messages to WebSocket client
func (h *WebSocketHandler) handleClientWrite(client *Client) {
	ticker := time.NewTicker(54 * time.Second)
	defer func() {
		ticker.Stop()
		client.Connection.Close()
	}()

	for {
		select {
		case message, ok := <-client.Send:
			client.Connection.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				client.Connection.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := client.Connection.WriteMessage(websocket.TextMessage, message); err != nil {
				h.logger.Error("WebSocket write error",
					zap.Error(err),
					zap.String("client_id", client.ID),
				)
				return
			}

		case <-ticker.C:
			client.Connection.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := client.Connection.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handleClientMessage handles incoming client messages
func (h *WebSocketHandler) handleClientMessage(client *Client, message *WebSocketMessage) {
	switch message.Type {
	case "subscribe":
		h.handleSubscription(client, message)
	case "unsubscribe":
		h.handleUnsubscription(client, message)
	case "command":
		h.handleCommand(client, message)
	case "status":
		h.sendMessage(client, &WebSocketMessage{
			Type:      "status",
			Data:      h.scanner.Status(),
			Timestamp: time.Now(),
		})
	case "ping":
		h.sendMessage(client, &WebSocketMessage{
			Type:      "pong",
			Timestamp: time.Now(),
		})
	default:
		h.logger.Warn("Unknown message type",
			zap.String("type", message.Type),
			zap.String("client_id", client.ID),
		)
	}
}

// handleSubscription handles client subscription requests
func (h *WebSocketHandler) handleSubscription(client *Client, message *WebSocketMessage) {
	topic, ok := messageTopic(message)
	if !ok {
		h.sendError(client, "topic is required")
		return
	}

	client.subscribe(topic)
	h.logger.Info("Client subscribed to topic",
		zap.String("client_id", client.ID),
		zap.String("topic", topic),
	)

	h.sendMessage(client, &WebSocketMessage{
		Type: "subscription_confirmed",
		Data: map[string]interface{}{
			"topic": topic,
		},
		Timestamp: time.Now(),
	})
}

// handleUnsubscription handles client unsubscription requests
func (h *WebSocketHandler) handleUnsubscription(client *Client, message *WebSocketMessage) {
	topic, ok := messageTopic(message)
	if !ok {
		return
	}

	client.unsubscribe(topic)
	h.logger.Info("Client unsubscribed from topic",
		zap.String("client_id", client.ID),
		zap.String("topic", topic),
	)
}

// messageTopic extracts the topic from a subscribe or unsubscribe payload.
func messageTopic(message *WebSocketMessage) (string, bool) {
	if message.Topic != "" {
		return message.Topic, true
	}
	if data, ok := message.Data.(map[string]interface{}); ok {
		if topic, ok := data["topic"].(string); ok && topic != "" {
			return topic, true
		}
	}
	return "", false
}

// handleCommand handles adapter command messages
func (h *WebSocketHandler) handleCommand(client *Client, message *WebSocketMessage) {
	data, ok := message.Data.(map[string]interface{})
	if !ok {
		h.sendError(client, "invalid command data")
		return
	}

	command, ok := data["command"].(string)
	if !ok || command == "" {
		h.sendError(client, "command is required")
		return
	}

	go h.executeCommand(client, command, message.RequestID)
}

// executeCommand sends an adapter command and reports the reply.
func (h *WebSocketHandler) executeCommand(client *Client, command, requestID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	result, err := h.scanner.SendCommand(ctx, command, 0)

	response := &WebSocketMessage{
		Type: "command_response",
		Data: map[string]interface{}{
			"command": command,
			"success": err == nil,
		},
		Timestamp: time.Now(),
		RequestID: requestID,
	}

	if err != nil {
		response.Data.(map[string]interface{})["error"] = err.Error()
	} else {
		response.Data.(map[string]interface{})["response"] = result.Data
		response.Data.(map[string]interface{})["partial"] = result.Partial
	}

	h.sendMessage(client, response)
}

// sendInitialStatus pushes the current session status to a new client.
func (h *WebSocketHandler) sendInitialStatus(client *Client) {
	h.sendMessage(client, &WebSocketMessage{
		Type:      "initial_status",
		Data:      h.scanner.Status(),
		Timestamp: time.Now(),
	})
}

// sendMessage sends a message to a client
func (h *WebSocketHandler) sendMessage(client *Client, message *WebSocketMessage) {
	messageBytes, err := json.Marshal(message)
	if err != nil {
		h.logger.Error("Failed to marshal WebSocket message", zap.Error(err))
		return
	}

	select {
	case client.Send <- messageBytes:
	default:
		h.logger.Warn("Client send channel full, dropping message",
			zap.String("client_id", client.ID),
		)
	}
}

// sendError sends an error message to a client
func (h *WebSocketHandler) sendError(client *Client, errorMsg string) {
	message := &WebSocketMessage{
		Type: "error",
		Data: map[string]interface{}{
			"error": errorMsg,
		},
		Timestamp: time.Now(),
	}
	h.sendMessage(client, message)
}

// broadcastScannerEvent fans a manager event out to subscribed clients.
func (h *WebSocketHandler) broadcastScannerEvent(event manager.Event) {
	topic := TopicConnection
	switch event.Type {
	case manager.EventDetectionProgress, manager.EventDetectionCompleted:
		topic = TopicDetection
	}

	h.broadcastToTopic(topic, &WebSocketMessage{
		Type:      "scanner_event",
		Topic:     topic,
		Data:      event,
		Timestamp: time.Now(),
	})
}

// broadcastAlert fans a resource alert out to subscribed clients.
func (h *WebSocketHandler) broadcastAlert(alert resource.Alert) {
	h.broadcastToTopic(TopicAlerts, &WebSocketMessage{
		Type:      "resource_alert",
		Topic:     TopicAlerts,
		Data:      alert,
		Timestamp: time.Now(),
	})
}

// broadcastToTopic broadcasts a message to every client on a topic.
func (h *WebSocketHandler) broadcastToTopic(topic string, message *WebSocketMessage) {
	clients := h.connections.GetTopicClients(topic)
	if len(clients) == 0 {
		return
	}

	messageBytes, err := json.Marshal(message)
	if err != nil {
		h.logger.Error("Failed to marshal broadcast message",
			zap.Error(err),
			zap.String("topic", topic),
		)
		return
	}

	for _, client := range clients {
		select {
		case client.Send <- messageBytes:
		default:
			h.logger.Warn("Client send channel full during broadcast",
				zap.String("client_id", client.ID),
			)
		}
	}
}
