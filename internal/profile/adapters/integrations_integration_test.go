//go:build integration

package adapters

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"

	"praxis/internal/profile/models"
	id "praxis/pkg/domain"
	"praxis/pkg/testutil/containers"
)

// TestIntegrationsAdapterRoundTrip produces a change through the adapter and
// consumes it back off the topic, checking key and envelope.
func TestIntegrationsAdapterRoundTrip(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	rp := containers.GetManager().GetRedpanda(t)
	ctx := context.Background()
	topic := "profile.changes.test." + uuid.NewString()

	producer, err := kgo.NewClient(kgo.SeedBrokers(rp.Brokers...), kgo.AllowAutoTopicCreation())
	require.NoError(t, err)
	defer producer.Close()

	adapter := NewIntegrationsAdapter(producer, topic)
	require.Equal(t, models.SystemIntegrations, adapter.System())

	change := models.SectionChange{
		OperationID: id.NewOperationID(),
		SubjectID:   id.SubjectID(uuid.New()),
		Section:     models.SectionServiceOffering,
		Value:       json.RawMessage(`{"modes":["video","chat"]}`),
		OccurredAt:  time.Now().UTC().Truncate(time.Millisecond),
	}
	require.NoError(t, adapter.Apply(ctx, change))

	consumer, err := kgo.NewClient(
		kgo.SeedBrokers(rp.Brokers...),
		kgo.ConsumeTopics(topic),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	require.NoError(t, err)
	defer consumer.Close()

	fetchCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	fetches := consumer.PollFetches(fetchCtx)
	require.NoError(t, fetches.Err())

	records := fetches.Records()
	require.Len(t, records, 1)
	require.Equal(t, change.SubjectID.String(), string(records[0].Key))

	var decoded models.SectionChange
	require.NoError(t, json.Unmarshal(records[0].Value, &decoded))
	require.Equal(t, change.OperationID, decoded.OperationID)
	require.Equal(t, change.Section, decoded.Section)
	require.JSONEq(t, string(change.Value), string(decoded.Value))
}

// TestCacheAdapterRoundTrip writes a section into the profile hash and checks
// idempotent re-application.
func TestCacheAdapterRoundTrip(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	rc := containers.GetManager().GetRedis(t)
	ctx := context.Background()

	adapter := NewCacheAdapter(rc.Client, time.Hour)
	require.Equal(t, models.SystemCache, adapter.System())

	change := models.SectionChange{
		OperationID: id.NewOperationID(),
		SubjectID:   id.SubjectID(uuid.New()),
		Section:     models.SectionLanguages,
		Value:       json.RawMessage(`["en","fr"]`),
		OccurredAt:  time.Now().UTC(),
	}
	require.NoError(t, adapter.Apply(ctx, change))
	// Idempotence: re-applying converges on the same downstream state.
	require.NoError(t, adapter.Apply(ctx, change))

	stored, err := rc.Client.HGet(ctx, "profile:"+change.SubjectID.String(), change.Section.String()).Result()
	require.NoError(t, err)
	require.JSONEq(t, `["en","fr"]`, stored)

	ttl, err := rc.Client.TTL(ctx, "profile:"+change.SubjectID.String()).Result()
	require.NoError(t, err)
	require.Greater(t, ttl, time.Duration(0))
}
