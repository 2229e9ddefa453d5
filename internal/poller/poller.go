package poller

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"

	"github.com/fjod/go_crafts/internal/domain"
	"github.com/fjod/go_crafts/internal/publisher"
)

type CartDeleter interface {
	DeleteCartUpdatedBefore(ctx context.Context, userID string, t time.Time) error
}

type messageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

// Poller consumes order events and clears the buyer's cart for every created order. Checkout
// deletes the cart itself; the poller covers the case where that delete failed. Only a cart last
// written before the order was placed is removed, so a late event never eats a newer cart.
type Poller struct {
	carts  CartDeleter
	reader messageReader
	log    logrus.FieldLogger
}

func NewPoller(carts CartDeleter, topic string, log logrus.FieldLogger, brokers ...string) *Poller {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  "storefront-cart-cleaner",
		MaxBytes: 10e6, // 10MB
	})
	return &Poller{carts: carts, reader: reader, log: log}
}

func (p *Poller) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		p.handleNext(ctx)
	}
}

func (p *Poller) Close() {
	if err := p.reader.Close(); err != nil {
		p.log.WithError(err).Error("error closing reader")
	}
}

type orderCreated struct {
	OrderID   string    `json:"order_id"`
	BuyerID   string    `json:"buyer_id"`
	CreatedAt time.Time `json:"created_at"`
}

func (p *Poller) handleNext(ctx context.Context) {
	m, err := p.reader.ReadMessage(ctx)
	if err != nil {
		if ctx.Err() == nil {
			p.log.WithError(err).Error("error reading message")
		}
		return
	}
	if eventType(m) != publisher.EventOrderCreated {
		return
	}

	var payload orderCreated
	if err := json.Unmarshal(m.Value, &payload); err != nil {
		p.log.WithError(err).WithField("offset", m.Offset).Error("error parsing message")
		return
	}
	if payload.BuyerID == "" || payload.CreatedAt.IsZero() {
		p.log.WithField("order_id", payload.OrderID).Warn("missing buyer_id or created_at")
		return
	}

	err = p.carts.DeleteCartUpdatedBefore(ctx, payload.BuyerID, payload.CreatedAt)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		p.log.WithError(err).WithFields(logrus.Fields{"order_id": payload.OrderID, "user_id": payload.BuyerID}).Error("failed to delete cart")
	}
}

func eventType(m kafka.Message) string {
	for _, h := range m.Headers {
		if h.Key == "event_type" {
			return string(h.Value)
		}
	}
	return ""
}
