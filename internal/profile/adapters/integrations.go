package adapters

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/twmb/franz-go/pkg/kgo"

	"praxis/internal/profile/models"
)

// changeProducer is the slice of the Kafka client the adapter needs.
type changeProducer interface {
	ProduceSync(ctx context.Context, rs ...*kgo.Record) kgo.ProduceResults
}

// IntegrationsAdapter publishes accepted changes to the integrations topic
// for external partners. Records are keyed by subject so consumers observe
// each subject's changes in order; the envelope carries the operation ID for
// consumer-side deduplication.
type IntegrationsAdapter struct {
	producer changeProducer
	topic    string
}

// NewIntegrationsAdapter constructs the Kafka synchronizer.
func NewIntegrationsAdapter(producer changeProducer, topic string) *IntegrationsAdapter {
	return &IntegrationsAdapter{producer: producer, topic: topic}
}

func (a *IntegrationsAdapter) System() models.System {
	return models.SystemIntegrations
}

func (a *IntegrationsAdapter) Apply(ctx context.Context, change models.SectionChange) error {
	payload, err := json.Marshal(change)
	if err != nil {
		return fmt.Errorf("failed to encode change: %w", err)
	}

	record := &kgo.Record{
		Topic: a.topic,
		Key:   []byte(change.SubjectID.String()),
		Value: payload,
	}
	if err := a.producer.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("integrations publish failed: %w", err)
	}
	return nil
}
