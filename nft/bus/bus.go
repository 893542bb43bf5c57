// Package bus is the Job Bus Client (Component E): a partitioned,
// SASL/PLAIN-authenticated wrapper around Kafka that produces and consumes
// the MintJob message type, keyed by contract address so that every job
// for one contract is ordered relative to the others.
package bus

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/Shopify/sarama"
	"github.com/ethereum/go-ethereum/log"

	"github.com/samsondavid964/nft-wikepedia/nft"
)

// Config holds the connection and authentication parameters for the
// broker. GroupID is only consulted by consumers.
type Config struct {
	Brokers          []string
	Topic            string
	GroupID          string
	Username         string
	Password         string
	SecurityProtocol string // not consulted: SASL and TLS are both enabled whenever Username is set
	SASLMechanism    string // default "PLAIN"
	SessionTimeoutMs int    // default 45000
}

// DefaultTopic and DefaultGroupID mirror the defaults in the configuration
// surface this package implements.
const (
	DefaultTopic   = "nft_mint_jobs"
	DefaultGroupID = "metadata_worker_group"
)

func (c Config) saramaConfig() *sarama.Config {
	cfg := sarama.NewConfig()
	cfg.Version = sarama.V2_6_0_0
	cfg.Producer.Return.Successes = true
	cfg.Producer.Return.Errors = true
	cfg.Consumer.Offsets.Initial = sarama.OffsetOldest // auto.offset.reset=earliest
	if c.SessionTimeoutMs > 0 {
		cfg.Consumer.Group.Session.Timeout = time.Duration(c.SessionTimeoutMs) * time.Millisecond
	} else {
		cfg.Consumer.Group.Session.Timeout = 45 * time.Second
	}

	if c.Username != "" {
		cfg.Net.SASL.Enable = true
		cfg.Net.SASL.User = c.Username
		cfg.Net.SASL.Password = c.Password
		cfg.Net.SASL.Mechanism = sarama.SASLMechanism(saslMechanismOrDefault(c.SASLMechanism))
		cfg.Net.TLS.Enable = true
	}
	return cfg
}

func saslMechanismOrDefault(m string) string {
	if m == "" {
		return string(sarama.SASLTypePlaintext)
	}
	return m
}

// Producer publishes MintJobs, partitioned by contract address.
type Producer struct {
	topic string
	inner sarama.SyncProducer
}

// NewProducer dials the broker and returns a Producer. Delivery
// acknowledgment is synchronous from sarama's perspective, but the Event
// Ingestor that calls Produce treats it as fire-and-forget by running it
// in a detached goroutine (see nft.EventIngestor.emit).
func NewProducer(cfg Config) (*Producer, error) {
	sc := cfg.saramaConfig()
	inner, err := sarama.NewSyncProducer(cfg.Brokers, sc)
	if err != nil {
		return nil, fmt.Errorf("bus: new producer: %w", err)
	}
	topic := cfg.Topic
	if topic == "" {
		topic = DefaultTopic
	}
	return &Producer{topic: topic, inner: inner}, nil
}

// Produce serializes job as JSON and publishes it with the contract
// address as the partition key.
func (p *Producer) Produce(_ context.Context, job nft.MintJob) error {
	payload, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("bus: marshal job: %w", err)
	}
	msg := &sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(job.ContractAddress),
		Value: sarama.ByteEncoder(payload),
	}
	_, _, err = p.inner.SendMessage(msg)
	if err != nil {
		return fmt.Errorf("bus: send message: %w", err)
	}
	return nil
}

// Close releases the underlying broker connection.
func (p *Producer) Close() error {
	return p.inner.Close()
}

// JobHandler processes one delivered MintJob. Returning an error only logs;
// it never stops consumption, matching the broker-consume-failure
// disposition in the ingestion design's error table.
type JobHandler func(ctx context.Context, job nft.MintJob) error

// Consumer wraps a sarama consumer group, deserializing each delivered
// record into a MintJob before calling the handler.
type Consumer struct {
	group   sarama.ConsumerGroup
	topic   string
	handler JobHandler
}

// NewConsumer dials the broker as a member of cfg.GroupID (defaulting to
// DefaultGroupID) and returns a Consumer ready to Run.
func NewConsumer(cfg Config, handler JobHandler) (*Consumer, error) {
	sc := cfg.saramaConfig()
	groupID := cfg.GroupID
	if groupID == "" {
		groupID = DefaultGroupID
	}
	group, err := sarama.NewConsumerGroup(cfg.Brokers, groupID, sc)
	if err != nil {
		return nil, fmt.Errorf("bus: new consumer group: %w", err)
	}
	topic := cfg.Topic
	if topic == "" {
		topic = DefaultTopic
	}
	return &Consumer{group: group, topic: topic, handler: handler}, nil
}

// Run joins the consumer group and processes records sequentially until
// ctx is cancelled. Handler calls are serialized across every partition
// this member claims, so one job is processed at a time; within a
// partition, jobs are handled in delivery order.
func (c *Consumer) Run(ctx context.Context) error {
	for {
		if err := c.group.Consume(ctx, []string{c.topic}, &groupHandler{handler: c.handler}); err != nil {
			log.Warn("job bus: consume failed, retrying", "err", err)
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}

// Close releases the underlying broker connection.
func (c *Consumer) Close() error {
	return c.group.Close()
}

type groupHandler struct {
	mu      sync.Mutex // sarama calls ConsumeClaim concurrently, one goroutine per partition
	handler JobHandler
}

func (*groupHandler) Setup(sarama.ConsumerGroupSession) error   { return nil }
func (*groupHandler) Cleanup(sarama.ConsumerGroupSession) error { return nil }

func (h *groupHandler) ConsumeClaim(sess sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for msg := range claim.Messages() {
		var job nft.MintJob
		if err := json.Unmarshal(msg.Value, &job); err != nil {
			log.Warn("job bus: job deserialization failed", "partition", msg.Partition, "offset", msg.Offset, "err", err)
			sess.MarkMessage(msg, "")
			continue
		}
		h.mu.Lock()
		if err := h.handler(sess.Context(), job); err != nil {
			log.Warn("job bus: handler returned error", "contract", job.ContractAddress, "tokenID", job.TokenID, "err", err)
		}
		h.mu.Unlock()
		sess.MarkMessage(msg, "")
	}
	return nil
}
