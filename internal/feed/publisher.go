package feed

import (
	"context"
	"log/slog"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/go-jose/go-jose/v4/json"
	models "github.com/nearscan/explorer-api/pkg/db/models/indexer"
	"github.com/redis/go-redis/v9"
)

// Publisher publishes new-transaction batches to a Redis stream.
type Publisher struct {
	pub         message.Publisher
	redisClient redis.UniversalClient
	topic       string
}

// NewPublisher creates a new Publisher.
func NewPublisher(redisClient redis.UniversalClient, topic string) (*Publisher, error) {
	logger := watermill.NewSlogLogger(nil)

	pub, err := redisstream.NewPublisher(
		redisstream.PublisherConfig{
			Client: redisClient,
		},
		logger,
	)
	if err != nil {
		return nil, err
	}

	return &Publisher{
		pub:         pub,
		redisClient: redisClient,
		topic:       topic,
	}, nil
}

// PublishTxns publishes a batch of transactions as one JSON message.
func (p *Publisher) PublishTxns(ctx context.Context, txns []models.Txn) error {
	start := time.Now()

	payload, err := json.Marshal(txns)
	if err != nil {
		return err
	}

	msgUUID := watermill.NewUUID()
	msg := message.NewMessage(msgUUID, payload)

	err = p.pub.Publish(p.topic, msg)
	duration := time.Since(start)

	if err != nil {
		slog.Error("redis publish failed",
			"txns", len(txns),
			"msg_uuid", msgUUID,
			"duration_ms", duration.Milliseconds(),
			"err", err,
		)
		return err
	}

	slog.Debug("redis publish ok",
		"txns", len(txns),
		"msg_uuid", msgUUID,
		"duration_ms", duration.Milliseconds(),
	)
	return nil
}

// Close closes the publisher.
func (p *Publisher) Close() error {
	return p.pub.Close()
}

// QueueLength returns the number of messages in the Redis stream.
func (p *Publisher) QueueLength(ctx context.Context) (int64, error) {
	return p.redisClient.XLen(ctx, p.topic).Result()
}
