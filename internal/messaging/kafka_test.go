package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/temcen/cinerec/internal/config"
	"github.com/temcen/cinerec/internal/validation"
	"github.com/temcen/cinerec/pkg/models"
)

type MockWriter struct {
	mock.Mock
}

func (m *MockWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	args := m.Called(ctx, msgs)
	return args.Error(0)
}

func (m *MockWriter) Close() error {
	return m.Called().Error(0)
}

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func testDigest() models.DigestEvent {
	return models.DigestEvent{
		EventID: uuid.New(),
		UserID:  uuid.New(),
		Movies: []models.DigestMovie{{
			MovieID:       uuid.New(),
			Title:         "Alien",
			Genres:        []string{"Sci-Fi", "Horror"},
			AverageRating: 4.8,
			Votes:         3,
		}},
		GeneratedAt: time.Now().UTC(),
	}
}

func TestDigestPublisher_Publish(t *testing.T) {
	validator, err := validation.NewDefaultSchemaValidator()
	require.NoError(t, err)

	writer := &MockWriter{}
	publisher := NewDigestPublisherWithWriter(writer, "recommendation-digests", time.Second, validator, testLogger())
	event := testDigest()

	writer.On("WriteMessages", mock.Anything, mock.MatchedBy(func(msgs []kafka.Message) bool {
		if len(msgs) != 1 || string(msgs[0].Key) != event.UserID.String() {
			return false
		}
		var decoded models.DigestEvent
		if err := json.Unmarshal(msgs[0].Value, &decoded); err != nil {
			return false
		}
		return decoded.EventID == event.EventID && len(decoded.Movies) == 1
	})).Return(nil).Once()

	require.NoError(t, publisher.PublishDigest(context.Background(), event))
	writer.AssertExpectations(t)
}

func TestDigestPublisher_RejectsInvalidEvent(t *testing.T) {
	validator, err := validation.NewDefaultSchemaValidator()
	require.NoError(t, err)

	writer := &MockWriter{}
	publisher := NewDigestPublisherWithWriter(writer, "recommendation-digests", time.Second, validator, testLogger())

	event := testDigest()
	event.Movies = nil

	err = publisher.PublishDigest(context.Background(), event)
	assert.Error(t, err)
	writer.AssertNotCalled(t, "WriteMessages", mock.Anything, mock.Anything)
}

func TestDigestPublisher_WriteFailure(t *testing.T) {
	writer := &MockWriter{}
	publisher := NewDigestPublisherWithWriter(writer, "recommendation-digests", 0, nil, testLogger())

	boom := errors.New("leader not available")
	writer.On("WriteMessages", mock.Anything, mock.Anything).Return(boom).Once()

	err := publisher.PublishDigest(context.Background(), testDigest())
	assert.ErrorIs(t, err, boom)
	writer.AssertExpectations(t)
}

func TestDigestPublisher_Close(t *testing.T) {
	writer := &MockWriter{}
	writer.On("Close").Return(nil).Once()

	publisher := NewDigestPublisherWithWriter(writer, "t", time.Second, nil, testLogger())
	require.NoError(t, publisher.Close())
	writer.AssertExpectations(t)
}

func TestNewDigestPublisher_UsesConfiguredTopic(t *testing.T) {
	cfg := &config.Config{}
	cfg.Kafka.Brokers = []string{"localhost:9092"}
	cfg.Kafka.Topics.RecommendationDigests = "digests"
	cfg.Kafka.WriteTimeout = 3 * time.Second

	publisher := NewDigestPublisher(cfg, nil, testLogger())
	writer, ok := publisher.writer.(*kafka.Writer)
	require.True(t, ok)
	assert.Equal(t, "digests", writer.Topic)
	assert.Equal(t, 3*time.Second, publisher.writeTimeout)
	require.NoError(t, publisher.Close())
}
