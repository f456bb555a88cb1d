package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"praxis/internal/profile/models"
	id "praxis/pkg/domain"

	"github.com/twmb/franz-go/pkg/kgo"
)

// LogSender writes deliveries to the log instead of sending them. It stands
// in for real channel workers on dev instances.
type LogSender struct {
	logger *slog.Logger
}

func NewLogSender(logger *slog.Logger) *LogSender {
	return &LogSender{logger: logger}
}

func (s *LogSender) Send(ctx context.Context, recipientID id.RecipientID, payload Payload, channel models.Channel) error {
	s.logger.InfoContext(ctx, "notification delivered (log sender)",
		"recipient_id", recipientID,
		"channel", channel,
		"operation_id", payload.OperationID,
		"title", payload.Title,
	)
	return nil
}

type notificationProducer interface {
	ProduceSync(ctx context.Context, rs ...*kgo.Record) kgo.ProduceResults
}

// KafkaSender publishes deliveries to the outbound notifications topic,
// where the per-channel workers (mailer, in-app inbox) consume them. Records
// are keyed by recipient so one stakeholder's notifications stay ordered.
type KafkaSender struct {
	producer notificationProducer
	topic    string
}

func NewKafkaSender(producer notificationProducer, topic string) *KafkaSender {
	return &KafkaSender{producer: producer, topic: topic}
}

type notificationEnvelope struct {
	RecipientID id.RecipientID `json:"recipient_id"`
	Channel     models.Channel `json:"channel"`
	Payload     Payload        `json:"payload"`
}

func (s *KafkaSender) Send(ctx context.Context, recipientID id.RecipientID, payload Payload, channel models.Channel) error {
	value, err := json.Marshal(notificationEnvelope{
		RecipientID: recipientID,
		Channel:     channel,
		Payload:     payload,
	})
	if err != nil {
		return fmt.Errorf("marshal notification envelope: %w", err)
	}

	record := &kgo.Record{
		Topic: s.topic,
		Key:   []byte(recipientID.String()),
		Value: value,
	}
	if err := s.producer.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("produce notification to %s: %w", s.topic, err)
	}
	return nil
}
