package service

import (
	"context"
	"encoding/json"
	"strconv"
	"sync"
	"time"

	"github.com/go-faster/errors"
	"github.com/ikkim/storefront-backend/internal/app/model"
	"github.com/ikkim/storefront-backend/internal/websocket"
	"github.com/ikkim/storefront-backend/pkg/kafka"
	"github.com/ikkim/storefront-backend/pkg/logger"
	"github.com/shopspring/decimal"
)

const (
	OrderEventCreated       = "order.created"
	OrderEventStatusChanged = "order.status_changed"

	DefaultNotifyTimeout = 5 * time.Second
)

type OrderEvent struct {
	Type         string            `json:"type"`
	OrderID      uint              `json:"order_id"`
	Reference    string            `json:"reference"`
	OwnerKey     string            `json:"owner_key,omitempty"`
	CustomerID   uint              `json:"customer_id"`
	CustomerName string            `json:"customer_name,omitempty"`
	Total        decimal.Decimal   `json:"total"`
	ItemCount    int               `json:"item_count"`
	Status       model.OrderStatus `json:"status"`
	CreatedAt    time.Time         `json:"created_at"`
}

func newOrderEvent(eventType string, order *model.Order) OrderEvent {
	event := OrderEvent{
		Type:       eventType,
		OrderID:    order.ID,
		Reference:  order.Reference,
		OwnerKey:   order.OwnerKey,
		CustomerID: order.CustomerID,
		Total:      order.Total,
		ItemCount:  order.ItemCount,
		Status:     order.Status,
		CreatedAt:  order.CreatedAt,
	}
	if order.Customer != nil {
		event.CustomerName = order.Customer.Name
	}
	return event
}

// OrderNotifier is one destination for order events.
type OrderNotifier interface {
	Name() string
	NotifyOrder(ctx context.Context, event OrderEvent) error
}

// LogNotifier records events in the application log.
type LogNotifier struct{}

func (LogNotifier) Name() string { return "log" }

func (LogNotifier) NotifyOrder(_ context.Context, event OrderEvent) error {
	logger.Info("Order notification", map[string]interface{}{
		"type":       event.Type,
		"order_id":   event.OrderID,
		"reference":  event.Reference,
		"owner_key":  event.OwnerKey,
		"total":      event.Total.StringFixed(2),
		"item_count": event.ItemCount,
		"status":     event.Status,
	})
	return nil
}

// FeedOrderNotifier pushes events to websocket subscribers. The owner key is
// stripped since the feed is public.
type FeedOrderNotifier struct {
	hub *websocket.Hub
}

func NewFeedOrderNotifier(hub *websocket.Hub) *FeedOrderNotifier {
	return &FeedOrderNotifier{hub: hub}
}

func (n *FeedOrderNotifier) Name() string { return "feed" }

func (n *FeedOrderNotifier) NotifyOrder(_ context.Context, event OrderEvent) error {
	event.OwnerKey = ""
	return n.hub.Broadcast(event)
}

// KafkaOrderNotifier publishes events keyed by order id so all events of one
// order land on the same partition.
type KafkaOrderNotifier struct {
	producer kafka.Producer
}

func NewKafkaOrderNotifier(producer kafka.Producer) *KafkaOrderNotifier {
	return &KafkaOrderNotifier{producer: producer}
}

func (n *KafkaOrderNotifier) Name() string { return "kafka" }

func (n *KafkaOrderNotifier) NotifyOrder(ctx context.Context, event OrderEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return errors.Wrap(err, "marshal order event")
	}
	return n.producer.Publish(ctx, strconv.FormatUint(uint64(event.OrderID), 10), payload)
}

// NotificationService delivers order events without blocking the caller.
type NotificationService interface {
	Dispatch(event OrderEvent)
	Wait()
}

type notificationService struct {
	sinks   []OrderNotifier
	timeout time.Duration
	wg      sync.WaitGroup
}

func NewNotificationService(timeout time.Duration, sinks ...OrderNotifier) NotificationService {
	if timeout <= 0 {
		timeout = DefaultNotifyTimeout
	}
	return &notificationService{sinks: sinks, timeout: timeout}
}

// Dispatch returns immediately. Each sink runs with a shared deadline; sink
// errors and panics are logged and never reach the caller.
func (s *notificationService) Dispatch(event OrderEvent) {
	if len(s.sinks) == 0 {
		return
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()

		for _, sink := range s.sinks {
			if err := s.deliver(ctx, sink, event); err != nil {
				logger.Error("Order notification failed", err, map[string]interface{}{
					"sink":     sink.Name(),
					"type":     event.Type,
					"order_id": event.OrderID,
				})
			}
		}
	}()
}

func (s *notificationService) deliver(ctx context.Context, sink OrderNotifier, event OrderEvent) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Errorf("panic in %s notifier: %v", sink.Name(), r)
		}
	}()
	return sink.NotifyOrder(ctx, event)
}

// Wait blocks until every dispatched event has been handled.
func (s *notificationService) Wait() {
	s.wg.Wait()
}
