// Package telemetry ingests tank level readings published over MQTT.
package telemetry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"aquamonitor/internal/services"

	MQTT "github.com/eclipse/paho.mqtt.golang"
	log "github.com/sirupsen/logrus"
)

// LevelUpdater applies a level reading; services.TankService implements it.
type LevelUpdater interface {
	UpdateLevel(ctx context.Context, tankID string, level float64) (*services.LevelUpdate, error)
}

// Recorder counts processed messages by outcome.
type Recorder interface {
	ObserveTelemetry(outcome string)
}

type Config struct {
	Broker   string
	Topic    string
	ClientID string
	QoS      byte
}

// Reading is a decoded level message.
type Reading struct {
	TankID string
	Level  float64
}

// Subscriber consumes level readings from topics shaped like aquamonitor/tanks/{id}/level.
type Subscriber struct {
	cfg      Config
	updater  LevelUpdater
	recorder Recorder
	client   MQTT.Client
	timeout  time.Duration
}

func NewSubscriber(cfg Config, updater LevelUpdater, recorder Recorder) *Subscriber {
	if cfg.QoS == 0 {
		cfg.QoS = 1
	}
	return &Subscriber{cfg: cfg, updater: updater, recorder: recorder, timeout: 10 * time.Second}
}

// Start connects to the broker and subscribes. Subscriptions are restored on reconnect.
func (s *Subscriber) Start() error {
	opts := MQTT.NewClientOptions()
	opts.AddBroker(s.cfg.Broker)
	opts.SetClientID(s.cfg.ClientID)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(5 * time.Second)
	opts.SetMaxReconnectInterval(time.Minute)
	opts.SetOnConnectHandler(s.onConnect)
	opts.SetConnectionLostHandler(func(_ MQTT.Client, err error) {
		log.WithError(err).Warn("MQTT connection lost")
	})

	s.client = MQTT.NewClient(opts)
	token := s.client.Connect()
	if !token.WaitTimeout(s.timeout) {
		return fmt.Errorf("timed out connecting to MQTT broker %s", s.cfg.Broker)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("failed to connect to MQTT broker: %w", err)
	}
	return nil
}

func (s *Subscriber) Stop() {
	if s.client != nil && s.client.IsConnected() {
		s.client.Disconnect(250)
		log.Info("MQTT subscriber disconnected")
	}
}

func (s *Subscriber) onConnect(client MQTT.Client) {
	token := client.Subscribe(s.cfg.Topic, s.cfg.QoS, s.HandleMessage)
	if token.WaitTimeout(s.timeout) && token.Error() == nil {
		log.WithFields(log.Fields{"broker": s.cfg.Broker, "topic": s.cfg.Topic}).Info("MQTT subscriber connected")
		return
	}
	log.WithError(token.Error()).WithField("topic", s.cfg.Topic).Error("MQTT subscribe failed")
}

// HandleMessage is the paho message callback.
func (s *Subscriber) HandleMessage(_ MQTT.Client, msg MQTT.Message) {
	logger := log.WithField("topic", msg.Topic())

	reading, err := ParseReading(msg.Topic(), msg.Payload())
	if err != nil {
		logger.WithError(err).Warn("discarding invalid level message")
		s.observe("invalid")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	if _, err := s.updater.UpdateLevel(ctx, reading.TankID, reading.Level); err != nil {
		outcome := "error"
		if errors.Is(err, services.ErrTankNotFound) || errors.Is(err, services.ErrInvalidLevel) {
			outcome = "invalid"
		}
		logger.WithError(err).WithField("tank_id", reading.TankID).Warn("failed to apply level reading")
		s.observe(outcome)
		return
	}
	s.observe("applied")
}

func (s *Subscriber) observe(outcome string) {
	if s.recorder != nil {
		s.recorder.ObserveTelemetry(outcome)
	}
}

// ParseReading extracts the tank id from the topic (the segment before the last one) and
// the level from a JSON object {"level": n} or a bare number.
func ParseReading(topic string, payload []byte) (Reading, error) {
	parts := strings.Split(topic, "/")
	if len(parts) < 2 || parts[len(parts)-2] == "" {
		return Reading{}, fmt.Errorf("topic %q has no tank id", topic)
	}
	tankID := parts[len(parts)-2]

	text := strings.TrimSpace(string(payload))
	var level float64
	if strings.HasPrefix(text, "{") {
		var body struct {
			Level *float64 `json:"level"`
		}
		if err := json.Unmarshal([]byte(text), &body); err != nil {
			return Reading{}, fmt.Errorf("decode payload: %w", err)
		}
		if body.Level == nil {
			return Reading{}, errors.New("payload has no level")
		}
		level = *body.Level
	} else {
		v, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return Reading{}, fmt.Errorf("payload %q is not a number", text)
		}
		level = v
	}
	if math.IsNaN(level) || math.IsInf(level, 0) || level < 0 || level > 100 {
		return Reading{}, fmt.Errorf("level %v outside 0-100", level)
	}
	return Reading{TankID: tankID, Level: level}, nil
}
