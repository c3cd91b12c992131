package service

import (
	"encoding/json"
	"time"

	"scannimart/internal/model"
	"scannimart/internal/ws"

	"github.com/google/uuid"
)

// Publisher delivers a JSON payload to every listener of topic. Both the
// local ws.Hub and ws.RedisRelay satisfy it.
type Publisher interface {
	Publish(topic string, payload []byte)
}

type nopPublisher struct{}

func (nopPublisher) Publish(string, []byte) {}

func publisherOrNop(p Publisher) Publisher {
	if p == nil {
		return nopPublisher{}
	}
	return p
}

type orderStatusEvent struct {
	Type          string              `json:"type"`
	OrderID       uuid.UUID           `json:"order_id"`
	ReadableID    string              `json:"readable_id"`
	Status        model.OrderStatus   `json:"status"`
	PaymentMethod model.PaymentMethod `json:"payment_method"`
	At            time.Time           `json:"at"`
}

func publishOrderStatus(p Publisher, order *model.Order, at time.Time) {
	msg, _ := json.Marshal(orderStatusEvent{
		Type:          "order_status",
		OrderID:       order.ID,
		ReadableID:    order.ReadableID,
		Status:        order.Status,
		PaymentMethod: order.PaymentMethod,
		At:            at,
	})
	p.Publish(ws.OrderTopic(order.ID.String()), msg)
}

func publishStock(p Publisher, action string, product *model.Product) {
	msg, _ := json.Marshal(map[string]interface{}{
		"type":   "stock_update",
		"action": action,
		"product": map[string]interface{}{
			"id":      product.ID,
			"barcode": product.Barcode,
			"name":    product.Name,
			"stock":   product.Stock,
			"price":   product.Price,
		},
	})
	p.Publish(ws.TopicInventory, msg)
}
