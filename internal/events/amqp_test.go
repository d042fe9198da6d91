package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/streadway/amqp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type publishedMessage struct {
	key string
	msg amqp.Publishing
}

type fakeChannel struct {
	published []publishedMessage
	err       error
	closed    bool
}

func (c *fakeChannel) Publish(_, key string, _, _ bool, msg amqp.Publishing) error {
	c.published = append(c.published, publishedMessage{key: key, msg: msg})
	return c.err
}

func (c *fakeChannel) Close() error {
	c.closed = true
	return nil
}

func TestAMQPPublisher(t *testing.T) {
	alert, tank := fixtures()
	ch := &fakeChannel{}
	p := &AMQPPublisher{channel: ch, queue: "water.alerts"}

	require.NoError(t, p.PublishAlert(context.Background(), alert, tank))
	require.Len(t, ch.published, 1)

	got := ch.published[0]
	assert.Equal(t, "water.alerts", got.key)
	assert.Equal(t, "application/json", got.msg.ContentType)
	assert.Equal(t, amqp.Persistent, got.msg.DeliveryMode)
	assert.Equal(t, "alert-1", got.msg.MessageId)
	assert.Equal(t, "tank-7", got.msg.CorrelationId)

	var event AlertEvent
	require.NoError(t, json.Unmarshal(got.msg.Body, &event))
	assert.Equal(t, 3, event.Floor)
	assert.Equal(t, "critical", event.AlertType)

	require.NoError(t, p.Close())
	assert.True(t, ch.closed)
}

func TestAMQPPublisherErrors(t *testing.T) {
	alert, tank := fixtures()

	failing := &AMQPPublisher{channel: &fakeChannel{err: errors.New("channel closed")}, queue: "q"}
	assert.ErrorContains(t, failing.PublishAlert(context.Background(), alert, tank), "publish alert alert-1")

	ch := &fakeChannel{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := (&AMQPPublisher{channel: ch, queue: "q"}).PublishAlert(ctx, alert, tank)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, ch.published)
}

func TestMultiPublisherJoinsErrors(t *testing.T) {
	alert, tank := fixtures()
	ok := &fakeWriter{}
	boom := errors.New("no leader")

	multi := MultiPublisher{
		&KafkaPublisher{writer: ok},
		&KafkaPublisher{writer: &fakeWriter{err: boom}},
		&AMQPPublisher{channel: &fakeChannel{}, queue: "q"},
	}
	err := multi.PublishAlert(context.Background(), alert, tank)
	assert.ErrorIs(t, err, boom)
	assert.Len(t, ok.msgs, 1)
	assert.NoError(t, multi.Close())
}
