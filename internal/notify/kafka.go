// Package notify publishes booking notifications to Kafka. Publishing is
// fire-and-forget from the booking engine's point of view: every failure here
// is logged and swallowed.
package notify

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

const publishTimeout = 5 * time.Second

// notification is the message payload consumed by the notification service.
type notification struct {
	NotificationType string `json:"notificationType"`
	EventTime        string `json:"eventTime"`
	Owner            string `json:"owner"`
	Message          string `json:"message"`
	SourceID         string `json:"sourceID"`
}

// KafkaNotifier implements booking.Notifier on top of a Kafka topic.
type KafkaNotifier struct {
	writer *kafka.Writer
	logger *zap.Logger
}

func NewKafkaNotifier(brokers []string, topic string, logger *zap.Logger) *KafkaNotifier {
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.LeastBytes{},
		AllowAutoTopicCreation: true,
	}
	return &KafkaNotifier{
		writer: writer,
		logger: logger,
	}
}

// Notify publishes a cancellation notice carrying the manager's reason.
func (n *KafkaNotifier) Notify(ctx context.Context, bookingID, owner, reason string) {
	payload := notification{
		NotificationType: "booking_cancelled",
		EventTime:        time.Now().UTC().Format(time.RFC3339),
		Owner:            owner,
		Message:          reason,
		SourceID:         bookingID,
	}

	value, err := json.Marshal(payload)
	if err != nil {
		n.logger.Error("failed to marshal notification",
			zap.String("booking_id", bookingID),
			zap.Error(err),
		)
		return
	}

	writeCtx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	msg := kafka.Message{
		Key:   []byte(bookingID),
		Value: value,
	}
	if err := n.writer.WriteMessages(writeCtx, msg); err != nil {
		n.logger.Error("failed to publish notification",
			zap.String("booking_id", bookingID),
			zap.Error(err),
		)
		return
	}

	n.logger.Info("notification published",
		zap.String("booking_id", bookingID),
		zap.String("topic", n.writer.Topic),
	)
}

// Close flushes and closes the underlying writer.
func (n *KafkaNotifier) Close() error {
	return n.writer.Close()
}
