package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/fjod/go_crafts/internal/domain"
	"github.com/segmentio/kafka-go"
)

const (
	EventOrderCreated       = "OrderCreated"
	EventOrderStatusChanged = "OrderStatusChanged"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// OrderEvents publishes order lifecycle events keyed by order id, so all events of one order land
// on the same partition in order.
type OrderEvents struct {
	writer messageWriter
}

func NewOrderEvents(topic string, brokers ...string) *OrderEvents {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
		WriteTimeout:           5 * time.Second,
	}
	return &OrderEvents{writer: w}
}

type orderCreatedPayload struct {
	OrderID   string             `json:"order_id"`
	BuyerID   string             `json:"buyer_id"`
	Items     []domain.OrderItem `json:"items"`
	Subtotal  float64            `json:"subtotal"`
	Shipping  float64            `json:"shipping"`
	Total     float64            `json:"total"`
	CreatedAt time.Time          `json:"created_at"`
}

type statusChangedPayload struct {
	OrderID   string             `json:"order_id"`
	BuyerID   string             `json:"buyer_id"`
	From      domain.OrderStatus `json:"from"`
	To        domain.OrderStatus `json:"to"`
	ChangedAt time.Time          `json:"changed_at"`
}

func (p *OrderEvents) OrderCreated(ctx context.Context, order *domain.Order) error {
	return p.publish(ctx, order.ID, EventOrderCreated, orderCreatedPayload{
		OrderID:   order.ID,
		BuyerID:   order.BuyerID,
		Items:     order.Items,
		Subtotal:  order.Subtotal,
		Shipping:  order.Shipping,
		Total:     order.Total,
		CreatedAt: order.CreatedAt,
	})
}

func (p *OrderEvents) OrderStatusChanged(ctx context.Context, order *domain.Order, from domain.OrderStatus) error {
	return p.publish(ctx, order.ID, EventOrderStatusChanged, statusChangedPayload{
		OrderID:   order.ID,
		BuyerID:   order.BuyerID,
		From:      from,
		To:        order.Status,
		ChangedAt: order.UpdatedAt,
	})
}

func (p *OrderEvents) publish(ctx context.Context, key, eventType string, payload any) error {
	value, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal %s payload: %w", eventType, err)
	}

	msg := kafka.Message{
		Key:   []byte(key),
		Value: value,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(eventType)},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to publish %s: %w", eventType, err)
	}
	return nil
}

func (p *OrderEvents) Close() error {
	return p.writer.Close()
}

// Noop drops every event. It is used when no brokers are configured.
type Noop struct{}

func (Noop) OrderCreated(context.Context, *domain.Order) error                          { return nil }
func (Noop) OrderStatusChanged(context.Context, *domain.Order, domain.OrderStatus) error { return nil }
func (Noop) Close() error                                                               { return nil }
