package events

import (
	"context"
	"errors"
	"testing"
	"time"

	"aquamonitor/internal/models"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	msgs []kafkago.Message
	err  error
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafkago.Message) error {
	w.msgs = append(w.msgs, msgs...)
	return w.err
}

func (w *fakeWriter) Close() error { return nil }

func fixtures() (*models.WaterAlert, *models.WaterTank) {
	created := time.Date(2024, 3, 9, 8, 30, 0, 0, time.UTC)
	tankID := "tank-7"
	return &models.WaterAlert{ID: "alert-1", AlertType: models.AlertCritical, Message: "low water", TankID: &tankID, CreatedAt: created},
		&models.WaterTank{ID: tankID, Floor: 3, Room: 2, CurrentLevel: 12}
}

func TestAlertMessage(t *testing.T) {
	alert, tank := fixtures()

	msg, err := alertMessage(alert, tank)
	require.NoError(t, err)

	assert.Equal(t, []byte("tank-7"), msg.Key)
	assert.JSONEq(t, `{
		"alert_id": "alert-1",
		"alert_type": "critical",
		"message": "low water",
		"tank_id": "tank-7",
		"floor": 3,
		"room": 2,
		"current_level": 12,
		"created_at": "2024-03-09T08:30:00Z"
	}`, string(msg.Value))
	require.Len(t, msg.Headers, 2)
	assert.Equal(t, []byte("critical"), msg.Headers[0].Value)
	assert.Equal(t, []byte("2024-03-09T08:30:00Z"), msg.Headers[1].Value)
}

func TestAlertMessageWithoutTankKeysByAlert(t *testing.T) {
	alert, _ := fixtures()
	msg, err := alertMessage(alert, nil)
	require.NoError(t, err)
	assert.Equal(t, []byte("alert-1"), msg.Key)
}

func TestKafkaPublisher(t *testing.T) {
	alert, tank := fixtures()

	w := &fakeWriter{}
	require.NoError(t, (&KafkaPublisher{writer: w}).PublishAlert(context.Background(), alert, tank))
	assert.Len(t, w.msgs, 1)

	failing := &KafkaPublisher{writer: &fakeWriter{err: errors.New("no leader")}}
	err := failing.PublishAlert(context.Background(), alert, tank)
	assert.ErrorContains(t, err, "publish alert alert-1")
}
