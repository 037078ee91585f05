package events

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"pms/config"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/google/uuid"
	"github.com/valkey-io/valkey-go"
)

type Channel string

func (c Channel) String() string {
	return string(c)
}

const (
	RESERVATION_CHANNEL Channel = "reservation.status"
	BILLING_CHANNEL     Channel = "billing.fees"
)

type EventType string

const (
	STATUS_CHANGED    EventType = "status_changed"
	LATE_CHECKOUT_FEE EventType = "late_checkout_fee"
)

type Event struct {
	ID        string         `json:"id"`
	Type      EventType      `json:"type"`
	Channel   Channel        `json:"channel"`
	Data      map[string]any `json:"data"`
	Timestamp time.Time      `json:"timestamp"`
}

type EventHandler func(event Event) error

// EventBus is the engine's notification sink: valkey pub/sub with local
// handler fanout. Delivery is at-least-once and fire-and-forget; a publish
// failure is logged and never propagated back to the caller.
type EventBus struct {
	client   valkey.Client
	logger   logger.Logger
	config   config.Config
	handlers map[Channel][]EventHandler
	mutex    sync.RWMutex
	ctx      context.Context
	cancel   context.CancelFunc
}

func New(client valkey.Client, config config.Config) *EventBus {
	ctx, cancel := context.WithCancel(context.Background())

	return &EventBus{
		client:   client,
		logger:   logger.New("EventBus"),
		config:   config,
		handlers: make(map[Channel][]EventHandler),
		ctx:      ctx,
		cancel:   cancel,
	}
}

func (eb *EventBus) Publish(channel Channel, event Event) error {
	log := eb.logger.Function("Publish")

	if event.ID == "" {
		event.ID = uuid.New().String()
	}

	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	if event.Channel == "" {
		event.Channel = channel
	}

	eventData, err := json.Marshal(event)
	if err != nil {
		return log.Err("failed to marshal event", err, "eventID", event.ID)
	}

	ctx, cancel := context.WithTimeout(eb.ctx, 5*time.Second)
	defer cancel()

	err = eb.client.Do(ctx, eb.client.B().Publish().Channel(channel.String()).Message(string(eventData)).Build()).
		Error()
	if err != nil {
		return log.Err(
			"failed to publish event to valkey",
			err,
			"channel", channel,
			"eventID", event.ID,
		)
	}

	eb.notifyLocalHandlers(channel, event)

	return nil
}

// PublishStatusChange emits the transition notification. Runs in its own
// goroutine so the transition's caller never waits on the sink; failures are
// logged inside Publish and dropped.
func (eb *EventBus) PublishStatusChange(
	reservationID uuid.UUID,
	oldStatus, newStatus, reason string,
	propertyID, organizationID uuid.UUID,
) {
	go func() {
		_ = eb.Publish(RESERVATION_CHANNEL, Event{
			Type: STATUS_CHANGED,
			Data: map[string]any{
				"reservationId":  reservationID.String(),
				"oldStatus":      oldStatus,
				"newStatus":      newStatus,
				"reason":         reason,
				"propertyId":     propertyID.String(),
				"organizationId": organizationID.String(),
			},
		})
	}()
}

// PublishLateCheckoutFee hands a fee assessment to billing. The engine never
// moves money itself; this is the delegation boundary.
func (eb *EventBus) PublishLateCheckoutFee(
	reservationID uuid.UUID,
	amount int64,
	currencyNote string,
	propertyID, organizationID uuid.UUID,
) {
	go func() {
		_ = eb.Publish(BILLING_CHANNEL, Event{
			Type: LATE_CHECKOUT_FEE,
			Data: map[string]any{
				"reservationId":  reservationID.String(),
				"amount":         amount,
				"note":           currencyNote,
				"propertyId":     propertyID.String(),
				"organizationId": organizationID.String(),
			},
		})
	}()
}

func (eb *EventBus) Subscribe(channel Channel, handler EventHandler) error {
	log := eb.logger.Function("Subscribe")

	eb.mutex.Lock()
	eb.handlers[channel] = append(eb.handlers[channel], handler)
	eb.mutex.Unlock()

	log.Info("Handler subscribed to channel", "channel", channel)

	go eb.listenToChannel(channel)

	return nil
}

func (eb *EventBus) notifyLocalHandlers(channel Channel, event Event) {
	log := eb.logger.Function("notifyLocalHandlers")

	eb.mutex.RLock()
	handlers, exists := eb.handlers[channel]
	eb.mutex.RUnlock()

	if !exists || len(handlers) == 0 {
		return
	}

	for i, handler := range handlers {
		go func(h EventHandler, handlerIndex int) {
			if err := h(event); err != nil {
				log.Er(
					"handler failed",
					err,
					"channel", channel,
					"eventID", event.ID,
					"handlerIndex", handlerIndex,
				)
			}
		}(handler, i)
	}
}

func (eb *EventBus) listenToChannel(channel Channel) {
	log := eb.logger.Function("listenToChannel")

	ctx, cancel := context.WithCancel(eb.ctx)
	defer cancel()

	log.Info("Starting to listen to channel", "channel", channel)

	err := eb.client.Receive(
		ctx,
		eb.client.B().Subscribe().Channel(channel.String()).Build(),
		func(msg valkey.PubSubMessage) {
			var event Event
			if err := json.Unmarshal([]byte(msg.Message), &event); err != nil {
				log.Er("failed to unmarshal event", err, "channel", channel, "message", msg.Message)
				return
			}

			eb.notifyLocalHandlers(channel, event)
		},
	)
	if err != nil {
		log.Er("failed to listen to channel", err, "channel", channel)
	}
}

func (eb *EventBus) Close() error {
	eb.cancel()
	return nil
}
