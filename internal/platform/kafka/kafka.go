// Package kafka wires the franz-go client used by the integrations adapter
// and the notification sender.
package kafka

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"

	"praxis/internal/platform/config"
)

const kafkaBootTimeout = 10 * time.Second

// Client wraps the kgo client with topic bootstrap and health checking.
type Client struct {
	*kgo.Client
}

// New creates a Kafka client from the provided configuration.
// Returns nil if no brokers are configured.
func New(cfg config.KafkaConfig) (*Client, error) {
	if len(cfg.Brokers) == 0 {
		return nil, nil
	}

	client, err := kgo.NewClient(
		kgo.SeedBrokers(cfg.Brokers...),
		kgo.RequiredAcks(kgo.AllISRAcks()),
		kgo.ProducerBatchCompression(kgo.SnappyCompression()),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), kafkaBootTimeout)
	defer cancel()
	if err := client.Ping(ctx); err != nil {
		client.Close()
		return nil, fmt.Errorf("kafka ping failed: %w", err)
	}

	return &Client{Client: client}, nil
}

// EnsureTopics creates the given topics if they do not exist yet. Single
// partition, replication factor 1: profile change volume is modest and the
// ordering guarantee comes from keying by subject anyway.
func (c *Client) EnsureTopics(ctx context.Context, topics ...string) error {
	adm := kadm.NewClient(c.Client)
	resps, err := adm.CreateTopics(ctx, 1, 1, nil, topics...)
	if err != nil {
		return fmt.Errorf("create topics: %w", err)
	}
	for _, resp := range resps.Sorted() {
		if resp.Err != nil && !errors.Is(resp.Err, kerr.TopicAlreadyExists) {
			return fmt.Errorf("create topic %s: %w", resp.Topic, resp.Err)
		}
	}
	return nil
}

// Health checks broker reachability.
func (c *Client) Health(ctx context.Context) error {
	return c.Ping(ctx)
}

// Close flushes buffered records and closes the client.
func (c *Client) Close() {
	c.Client.Close()
}
