// Package websocket доставляет события сессии викторины (тики отсчета,
// истечение времени, фиксацию попытки) подключённым браузерным клиентам и
// принимает от них сигналы видимости вкладки.
package websocket

import (
	"encoding/json"
	"log"
	"sync"

	"github.com/asaadmansour/leastud/internal/service/session"
)

// Hub группирует клиентов по сессиям и транслирует им события.
// На каждую сессию запускается один пересыльщик, читающий канал событий
// сессии до его закрытия.
type Hub struct {
	mu       sync.RWMutex
	clients  map[string]map[*Client]bool
	attached map[string]bool
}

// NewHub создает хаб
func NewHub() *Hub {
	return &Hub{
		clients:  make(map[string]map[*Client]bool),
		attached: make(map[string]bool),
	}
}

// Register добавляет клиента в группу его сессии
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.clients[c.SessionID] == nil {
		h.clients[c.SessionID] = make(map[*Client]bool)
	}
	h.clients[c.SessionID][c] = true
	log.Printf("[Hub] Клиент %s подключен к сессии %s", c.ConnectionID, c.SessionID)
}

// Unregister убирает клиента из группы и закрывает его канал отправки
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	group, ok := h.clients[c.SessionID]
	if !ok || !group[c] {
		return
	}
	delete(group, c)
	close(c.send)
	if len(group) == 0 {
		delete(h.clients, c.SessionID)
	}
	log.Printf("[Hub] Клиент %s отключен от сессии %s", c.ConnectionID, c.SessionID)
}

// Attach запускает пересыльщика событий сессии. Повторные вызовы для той же
// сессии не создают второго пересыльщика.
func (h *Hub) Attach(s *session.Session) {
	h.mu.Lock()
	if h.attached[s.ID] {
		h.mu.Unlock()
		return
	}
	h.attached[s.ID] = true
	h.mu.Unlock()

	go func() {
		for event := range s.Events() {
			h.Broadcast(s.ID, event)
		}
		// Канал событий закрыт: попытка зафиксирована, группа больше не нужна
		h.closeSession(s.ID)
	}()
}

// Broadcast отправляет событие всем клиентам сессии. Медленный клиент с
// переполненным буфером отключается.
func (h *Hub) Broadcast(sessionID string, event session.Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		log.Printf("[Hub] Ошибка сериализации события %s: %v", event.Type, err)
		return
	}

	h.mu.RLock()
	var stalled []*Client
	for c := range h.clients[sessionID] {
		select {
		case c.send <- payload:
		default:
			stalled = append(stalled, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range stalled {
		log.Printf("[Hub] Буфер клиента %s переполнен, отключаю", c.ConnectionID)
		h.Unregister(c)
	}
}

// closeSession отключает всех клиентов завершённой сессии
func (h *Hub) closeSession(sessionID string) {
	h.mu.Lock()
	group := h.clients[sessionID]
	delete(h.clients, sessionID)
	delete(h.attached, sessionID)
	h.mu.Unlock()

	for c := range group {
		close(c.send)
	}
}
