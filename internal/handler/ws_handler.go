package handler

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	gorillaws "github.com/gorilla/websocket"

	"github.com/asaadmansour/leastud/internal/service/session"
	"github.com/asaadmansour/leastud/internal/websocket"
)

// WSHandler обрабатывает WebSocket-подключения к сессиям викторины
type WSHandler struct {
	sessionManager *session.Manager
	hub            *websocket.Hub
	upgrader       gorillaws.Upgrader
}

// NewWSHandler создает новый обработчик WebSocket-подключений
func NewWSHandler(sessionManager *session.Manager, hub *websocket.Hub) *WSHandler {
	return &WSHandler{
		sessionManager: sessionManager,
		hub:            hub,
		upgrader: gorillaws.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Приложение локальное, фронтенд ходит с других портов localhost
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

// ServeQuizWS подключает клиента к каналу событий сессии.
// Клиент получает тики отсчета и события завершения, а отправляет
// сообщения видимости вкладки.
// GET /ws/quiz/:sessionID
func (h *WSHandler) ServeQuizWS(c *gin.Context) {
	sessionID := c.Param("sessionID")

	s, err := h.sessionManager.Get(sessionID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("[WSHandler] Ошибка апгрейда соединения для сессии %s: %v", sessionID, err)
		return
	}

	client := websocket.NewClient(h.hub, conn, sessionID)
	h.hub.Register(client)
	h.hub.Attach(s)

	client.StartPumps(func(msg websocket.InboundMessage) {
		if msg.Type == "visibility" {
			s.SetVisibility(msg.Visible)
		}
	})
}
