package events

import (
	"context"
	"encoding/json"
	"fmt"

	"aquamonitor/internal/models"

	"github.com/streadway/amqp"
)

type amqpChannel interface {
	Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// AMQPPublisher sends alerts to a durable RabbitMQ queue through the default exchange.
type AMQPPublisher struct {
	conn    *amqp.Connection
	channel amqpChannel
	queue   string
}

func NewAMQPPublisher(url, queue string) (*AMQPPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	_, err = ch.QueueDeclare(
		queue, // name
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare queue: %w", err)
	}
	return &AMQPPublisher{conn: conn, channel: ch, queue: queue}, nil
}

func (p *AMQPPublisher) PublishAlert(ctx context.Context, alert *models.WaterAlert, tank *models.WaterTank) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg, err := amqpMessage(alert, tank)
	if err != nil {
		return err
	}
	if err := p.channel.Publish("", p.queue, false, false, msg); err != nil {
		return fmt.Errorf("publish alert %s: %w", alert.ID, err)
	}
	return nil
}

func (p *AMQPPublisher) Close() error {
	err := p.channel.Close()
	if p.conn != nil {
		if cerr := p.conn.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

func amqpMessage(alert *models.WaterAlert, tank *models.WaterTank) (amqp.Publishing, error) {
	event, key := newAlertEvent(alert, tank)
	data, err := json.Marshal(event)
	if err != nil {
		return amqp.Publishing{}, fmt.Errorf("serialize alert event: %w", err)
	}
	return amqp.Publishing{
		ContentType:   "application/json",
		DeliveryMode:  amqp.Persistent,
		MessageId:     alert.ID,
		CorrelationId: key,
		Timestamp:     alert.CreatedAt,
		Type:          alert.AlertType,
		Body:          data,
	}, nil
}
