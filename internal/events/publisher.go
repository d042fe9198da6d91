// Package events publishes alert events to Kafka or RabbitMQ.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"aquamonitor/internal/models"

	kafkago "github.com/segmentio/kafka-go"
	log "github.com/sirupsen/logrus"
)

// AlertPublisher delivers newly raised alerts to downstream consumers.
type AlertPublisher interface {
	PublishAlert(ctx context.Context, alert *models.WaterAlert, tank *models.WaterTank) error
	Close() error
}

// AlertEvent is the message payload on every transport.
type AlertEvent struct {
	AlertID      string    `json:"alert_id"`
	AlertType    string    `json:"alert_type"`
	Message      string    `json:"message"`
	TankID       string    `json:"tank_id,omitempty"`
	Floor        int       `json:"floor"`
	Room         int       `json:"room"`
	CurrentLevel float64   `json:"current_level"`
	CreatedAt    time.Time `json:"created_at"`
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// KafkaPublisher writes one message per alert, keyed by tank so a tank's alerts stay ordered.
type KafkaPublisher struct {
	writer messageWriter
}

func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	w := &kafkago.Writer{
		Addr:                   kafkago.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafkago.Hash{},
		RequiredAcks:           kafkago.RequireAll,
		AllowAutoTopicCreation: true,
		WriteTimeout:           5 * time.Second,
	}
	return &KafkaPublisher{writer: w}
}

func (p *KafkaPublisher) PublishAlert(ctx context.Context, alert *models.WaterAlert, tank *models.WaterTank) error {
	msg, err := alertMessage(alert, tank)
	if err != nil {
		return err
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish alert %s: %w", alert.ID, err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// newAlertEvent builds the payload and its partition key; alerts of one tank share a key.
func newAlertEvent(alert *models.WaterAlert, tank *models.WaterTank) (AlertEvent, string) {
	event := AlertEvent{
		AlertID:   alert.ID,
		AlertType: alert.AlertType,
		Message:   alert.Message,
		CreatedAt: alert.CreatedAt,
	}
	key := alert.ID
	if tank != nil {
		event.TankID = tank.ID
		event.Floor = tank.Floor
		event.Room = tank.Room
		event.CurrentLevel = tank.CurrentLevel
		key = tank.ID
	}
	return event, key
}

func alertMessage(alert *models.WaterAlert, tank *models.WaterTank) (kafkago.Message, error) {
	event, key := newAlertEvent(alert, tank)
	data, err := json.Marshal(event)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize alert event: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(key),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "alert_type", Value: []byte(alert.AlertType)},
			{Key: "created_at", Value: []byte(alert.CreatedAt.Format(time.RFC3339))},
		},
	}, nil
}

// NopPublisher is used when no brokers are configured.
type NopPublisher struct{}

func (NopPublisher) PublishAlert(_ context.Context, alert *models.WaterAlert, _ *models.WaterTank) error {
	log.WithFields(log.Fields{"alert_id": alert.ID, "alert_type": alert.AlertType}).Debug("alert publishing disabled")
	return nil
}

func (NopPublisher) Close() error { return nil }

// MultiPublisher fans an alert out to several publishers and joins their errors.
type MultiPublisher []AlertPublisher

func (m MultiPublisher) PublishAlert(ctx context.Context, alert *models.WaterAlert, tank *models.WaterTank) error {
	var errs []error
	for _, p := range m {
		if err := p.PublishAlert(ctx, alert, tank); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m MultiPublisher) Close() error {
	var errs []error
	for _, p := range m {
		if err := p.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
