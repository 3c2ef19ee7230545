package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/yeremiapane/table-order/metrics"
	"github.com/yeremiapane/table-order/models"
	"github.com/yeremiapane/table-order/utils"
	"gorm.io/gorm"
)

const OrdersExchange = "orders_topic"

// EventPublisher delivers one message to the broker and returns once the
// broker confirmed it.
type EventPublisher interface {
	Publish(ctx context.Context, exchange, key string, body []byte) error
}

// EventRelay forwards order_events outbox rows to the broker. Rows are marked
// processed only after the broker confirmed them, so delivery is at least
// once.
type EventRelay struct {
	DB        *gorm.DB
	Publisher EventPublisher
	Interval  time.Duration
	BatchSize int
	StopChan  chan struct{}

	wg sync.WaitGroup
}

func NewEventRelay(db *gorm.DB, publisher EventPublisher) *EventRelay {
	return &EventRelay{
		DB:        db,
		Publisher: publisher,
		Interval:  1 * time.Second,
		BatchSize: 100,
		StopChan:  make(chan struct{}),
	}
}

func (r *EventRelay) Start() {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		ticker := time.NewTicker(r.Interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				if _, err := r.RelayPending(context.Background()); err != nil {
					utils.ErrorLogger.Printf("event relay: %v", err)
				}
			case <-r.StopChan:
				return
			}
		}
	}()
}

// Stop ends the loop and waits for an in-flight batch to finish.
func (r *EventRelay) Stop() {
	close(r.StopChan)
	r.wg.Wait()
}

// RelayPending publishes one batch in id order and stops at the first failed
// publish so later events never overtake it.
func (r *EventRelay) RelayPending(ctx context.Context) (int, error) {
	var events []models.OrderEvent
	if err := r.DB.WithContext(ctx).
		Where("processed = ?", false).
		Order("id ASC").
		Limit(r.BatchSize).
		Find(&events).Error; err != nil {
		return 0, fmt.Errorf("failed to fetch pending events: %w", err)
	}

	sent := 0
	for _, ev := range events {
		body, err := json.Marshal(ev)
		if err != nil {
			return sent, fmt.Errorf("failed to encode event %d: %w", ev.ID, err)
		}

		pubCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err = r.Publisher.Publish(pubCtx, OrdersExchange, RoutingKey(ev), body)
		cancel()
		if err != nil {
			metrics.RelayedEvents.WithLabelValues("error").Inc()
			return sent, fmt.Errorf("failed to publish event %d: %w", ev.ID, err)
		}

		if err := r.DB.WithContext(ctx).Model(&models.OrderEvent{}).
			Where("id = ?", ev.ID).
			Update("processed", true).Error; err != nil {
			return sent, fmt.Errorf("failed to mark event %d processed: %w", ev.ID, err)
		}
		metrics.RelayedEvents.WithLabelValues("ok").Inc()
		sent++
	}

	if sent > 0 {
		utils.InfoLogger.Printf("event relay: published %d events", sent)
	}
	return sent, nil
}

// RoutingKey is order.<type>.table<N>, e.g. order.order_created.table4.
func RoutingKey(ev models.OrderEvent) string {
	return fmt.Sprintf("order.%s.table%d", ev.Type, ev.TableNumber)
}
