package event

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/khoahotran/labour-connect/internal/application/service"
	"github.com/khoahotran/labour-connect/internal/config"
	"github.com/khoahotran/labour-connect/pkg/logger"
)

const TopicLabourEvents = "labour.events"

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type KafkaProducerClient struct {
	LabourEventsWriter messageWriter
	logger             logger.Logger
}

func NewKafkaProducerClient(cfg config.Config, log logger.Logger) (*KafkaProducerClient, error) {
	brokers := cfg.Kafka.Brokers
	if len(brokers) == 0 {
		return nil, fmt.Errorf("config Kafka brokers not found")
	}

	// writer 'labour.events'
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  TopicLabourEvents,
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
	}

	log.Info("Initialize Kafka Producer successfully.", zap.Strings("brokers", brokers))
	return &KafkaProducerClient{LabourEventsWriter: writer, logger: log}, nil
}

// EncodeProfileEvent builds the message for ev, keyed by user id so one
// user's events stay ordered within a partition.
func EncodeProfileEvent(ev service.ProfileEvent) (kafka.Message, error) {
	value, err := json.Marshal(ev)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("marshal profile event: %w", err)
	}
	return kafka.Message{Key: []byte(ev.UserID), Value: value}, nil
}

func DecodeProfileEvent(msg kafka.Message) (service.ProfileEvent, error) {
	var ev service.ProfileEvent
	if err := json.Unmarshal(msg.Value, &ev); err != nil {
		return ev, fmt.Errorf("unmarshal profile event: %w", err)
	}
	return ev, nil
}

func (c *KafkaProducerClient) PublishProfileEvent(ctx context.Context, ev service.ProfileEvent) error {
	msg, err := EncodeProfileEvent(ev)
	if err != nil {
		return err
	}
	if err := c.LabourEventsWriter.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("write profile event: %w", err)
	}
	c.logger.Debug("Published profile event", zap.String("event_type", string(ev.EventType)), zap.String("user_id", ev.UserID))
	return nil
}

func (c *KafkaProducerClient) Close() {
	if c.LabourEventsWriter != nil {
		if err := c.LabourEventsWriter.Close(); err != nil {
			c.logger.Warn("Failed to close Kafka producer", zap.Error(err))
		}
	}
	c.logger.Info("Closed Kafka Producer")
}

// NopPublisher drops events. Used when no brokers are configured.
type NopPublisher struct{}

func (NopPublisher) PublishProfileEvent(context.Context, service.ProfileEvent) error { return nil }
