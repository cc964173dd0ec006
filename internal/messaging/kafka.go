package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"

	"github.com/temcen/cinerec/internal/config"
	"github.com/temcen/cinerec/internal/validation"
	"github.com/temcen/cinerec/pkg/models"
)

const DigestEventType = "recommendation.digest.v1"

// MessageWriter is the part of kafka.Writer used by the publisher.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// DigestPublisher publishes recommendation digests for the notification
// service. Events are keyed by user so one user's digests stay ordered.
type DigestPublisher struct {
	writer       MessageWriter
	validator    *validation.SchemaValidator
	topic        string
	writeTimeout time.Duration
	logger       *logrus.Logger
}

func NewDigestPublisher(cfg *config.Config, validator *validation.SchemaValidator, logger *logrus.Logger) *DigestPublisher {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Kafka.Brokers...),
		Topic:        cfg.Kafka.Topics.RecommendationDigests,
		Balancer:     &kafka.Hash{}, // Key by user id
		RequiredAcks: kafka.RequireOne,
		Async:        false,
		BatchTimeout: 10 * time.Millisecond,
		BatchSize:    cfg.Kafka.BatchSize,
		WriteTimeout: cfg.Kafka.WriteTimeout,
	}

	return NewDigestPublisherWithWriter(writer, cfg.Kafka.Topics.RecommendationDigests, cfg.Kafka.WriteTimeout, validator, logger)
}

func NewDigestPublisherWithWriter(writer MessageWriter, topic string, writeTimeout time.Duration, validator *validation.SchemaValidator, logger *logrus.Logger) *DigestPublisher {
	if writeTimeout <= 0 {
		writeTimeout = 10 * time.Second
	}
	return &DigestPublisher{
		writer:       writer,
		validator:    validator,
		topic:        topic,
		writeTimeout: writeTimeout,
		logger:       logger,
	}
}

// PublishDigest validates event against the digest schema and writes it.
func (p *DigestPublisher) PublishDigest(ctx context.Context, event models.DigestEvent) error {
	eventBytes, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal digest: %w", err)
	}

	if p.validator != nil {
		if err := p.validator.ValidateDigest(eventBytes).Err(); err != nil {
			return fmt.Errorf("digest for user %s rejected: %w", event.UserID, err)
		}
	}

	message := kafka.Message{
		Key:   []byte(event.UserID.String()),
		Value: eventBytes,
		Headers: []kafka.Header{
			{Key: "event_id", Value: []byte(event.EventID.String())},
			{Key: "event_type", Value: []byte(DigestEventType)},
			{Key: "timestamp", Value: []byte(event.GeneratedAt.Format(time.RFC3339))},
		},
	}

	writeCtx, cancel := context.WithTimeout(ctx, p.writeTimeout)
	defer cancel()

	if err := p.writer.WriteMessages(writeCtx, message); err != nil {
		p.logger.WithError(err).WithField("user_id", event.UserID).Error("Failed to publish digest to Kafka")
		return fmt.Errorf("failed to write digest to Kafka: %w", err)
	}

	p.logger.WithFields(logrus.Fields{
		"event_id": event.EventID,
		"user_id":  event.UserID,
		"movies":   len(event.Movies),
		"topic":    p.topic,
	}).Debug("Digest published to Kafka")

	return nil
}

func (p *DigestPublisher) Close() error {
	if err := p.writer.Close(); err != nil {
		return fmt.Errorf("failed to close digest writer: %w", err)
	}
	return nil
}
