package ws

import (
	"context"
	"sync"

	"scannimart/pkg/logger"

	"github.com/gofiber/contrib/websocket"
)

const TopicInventory = "inventory"

// OrderTopic is the feed a customer's exit pass listens on.
func OrderTopic(orderID string) string {
	return "order:" + orderID
}

// Conn is the part of a websocket connection the hub writes to.
type Conn interface {
	WriteMessage(messageType int, data []byte) error
	Close() error
}

type subscription struct {
	topic string
	conn  Conn
}

type message struct {
	topic string
	data  []byte
}

type Hub struct {
	topics     map[string]map[Conn]bool
	register   chan subscription
	unregister chan subscription
	broadcast  chan message
	done       chan struct{}
	mutex      sync.Mutex
	log        *logger.Logger
}

func NewHub(log *logger.Logger) *Hub {
	if log == nil {
		log = logger.Nop()
	}
	return &Hub{
		topics:     make(map[string]map[Conn]bool),
		register:   make(chan subscription),
		unregister: make(chan subscription),
		broadcast:  make(chan message, 256),
		done:       make(chan struct{}),
		log:        log,
	}
}

func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			close(h.done)
			return

		case sub := <-h.register:
			h.mutex.Lock()
			conns, ok := h.topics[sub.topic]
			if !ok {
				conns = make(map[Conn]bool)
				h.topics[sub.topic] = conns
			}
			conns[sub.conn] = true
			h.mutex.Unlock()
			h.log.Debug(h.log.WithField(ctx, "topic", sub.topic), "ws client subscribed")

		case sub := <-h.unregister:
			h.mutex.Lock()
			if conns, ok := h.topics[sub.topic]; ok {
				if _, ok := conns[sub.conn]; ok {
					delete(conns, sub.conn)
					sub.conn.Close()
				}
				if len(conns) == 0 {
					delete(h.topics, sub.topic)
				}
			}
			h.mutex.Unlock()

		case msg := <-h.broadcast:
			h.mutex.Lock()
			for conn := range h.topics[msg.topic] {
				if err := conn.WriteMessage(websocket.TextMessage, msg.data); err != nil {
					conn.Close()
					delete(h.topics[msg.topic], conn)
				}
			}
			h.mutex.Unlock()
		}
	}
}

// Subscribe closes conn straight away once the hub has stopped.
func (h *Hub) Subscribe(topic string, conn Conn) {
	select {
	case h.register <- subscription{topic: topic, conn: conn}:
	case <-h.done:
		conn.Close()
	}
}

// Unsubscribe is a no-op after the hub has stopped; closeAll already closed
// every connection.
func (h *Hub) Unsubscribe(topic string, conn Conn) {
	select {
	case h.unregister <- subscription{topic: topic, conn: conn}:
	case <-h.done:
	}
}

// Publish queues payload for every subscriber of topic. A full queue drops
// the message rather than stalling the caller.
func (h *Hub) Publish(topic string, payload []byte) {
	select {
	case h.broadcast <- message{topic: topic, data: payload}:
	default:
		h.log.Warn(h.log.WithField(context.Background(), "topic", topic), "ws broadcast queue full, dropping message")
	}
}

// Subscribers reports how many connections listen on topic.
func (h *Hub) Subscribers(topic string) int {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	return len(h.topics[topic])
}

func (h *Hub) closeAll() {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	for topic, conns := range h.topics {
		for conn := range conns {
			conn.Close()
		}
		delete(h.topics, topic)
	}
}
