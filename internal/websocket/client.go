package websocket

import (
	"encoding/json"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	// Время, которое разрешено писать сообщение клиенту.
	writeWait = 10 * time.Second

	// Время, которое разрешено клиенту читать следующее сообщение.
	pongWait = 30 * time.Second

	// Периодичность отправки ping-сообщений клиенту.
	pingPeriod = (pongWait * 9) / 10

	// Максимальный размер входящего сообщения
	maxMessageSize = 512

	// Размер буфера канала отправки сообщений клиенту
	clientBufferSize = 64
)

// InboundMessage — сообщение от клиента. Единственный поддерживаемый тип —
// visibility: браузер сообщает о скрытии/показе вкладки.
type InboundMessage struct {
	Type    string `json:"type"`
	Visible bool   `json:"visible"`
}

// Client является посредником между WebSocket соединением и хабом сессии
type Client struct {
	// Уникальный ID соединения
	ConnectionID string

	// ID сессии викторины, за которой наблюдает клиент
	SessionID string

	hub  *Hub
	conn *websocket.Conn
	send chan []byte
}

// NewClient создает нового клиента для наблюдения за сессией
func NewClient(hub *Hub, conn *websocket.Conn, sessionID string) *Client {
	return &Client{
		ConnectionID: uuid.NewString(),
		SessionID:    sessionID,
		hub:          hub,
		conn:         conn,
		send:         make(chan []byte, clientBufferSize),
	}
}

// StartPumps запускает горутины чтения и записи клиента.
// messageHandler вызывается для каждого разобранного входящего сообщения.
func (c *Client) StartPumps(messageHandler func(msg InboundMessage)) {
	go c.writePump()
	go c.readPump(messageHandler)
}

// readPump читает сообщения от клиента и передает их обработчику
func (c *Client) readPump(messageHandler func(msg InboundMessage)) {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[WebSocket] Соединение %s закрыто с ошибкой: %v", c.ConnectionID, err)
			}
			return
		}

		var msg InboundMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			log.Printf("[WebSocket] Соединение %s: нечитаемое сообщение: %v", c.ConnectionID, err)
			continue
		}
		messageHandler(msg)
	}
}

// writePump пишет сообщения из канала send в соединение и шлёт пинги
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Хаб закрыл канал
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
