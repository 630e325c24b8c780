package ingestion

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// NATSSubscriber subscribes to NATS JetStream subjects and feeds inbound
// pool messages into the engine loop via msgChan. Each subject carries one
// message kind, so the subject token doubles as the parser dispatch key.
type NATSSubscriber struct {
	js        jetstream.JetStream
	msgChan   chan<- RawMessage
	consumers []jetstream.ConsumeContext
}

// RawMessage is the unparsed inbound message from NATS, ready for the
// engine loop to parse and apply.
type RawMessage struct {
	Subject   string
	Kind      string
	Data      []byte
	Timestamp time.Time
	AckFunc   func() // Call to ACK the NATS message after successful processing
	NakFunc   func() // Call to NAK on failure (will be redelivered)
}

// SubjectConfig maps NATS subjects to message kinds.
type SubjectConfig struct {
	Subject      string
	Kind         string
	ConsumerName string
	StreamName   string
}

// DefaultSubjects returns the standard subject configuration.
func DefaultSubjects() []SubjectConfig {
	return []SubjectConfig{
		{Subject: "aswap.msgs.instantiate.>", Kind: "Instantiate", ConsumerName: "pool-instantiate", StreamName: "ASWAP_MSGS"},
		{Subject: "aswap.msgs.liquidity.>", Kind: "AddLiquidity", ConsumerName: "pool-liquidity", StreamName: "ASWAP_MSGS"},
		{Subject: "aswap.msgs.config.>", Kind: "UpdateConfig", ConsumerName: "pool-config", StreamName: "ASWAP_MSGS"},
		{Subject: "aswap.msgs.receive.>", Kind: "Receive", ConsumerName: "pool-receive", StreamName: "ASWAP_MSGS"},
		{Subject: "aswap.msgs.reply.>", Kind: "Reply", ConsumerName: "pool-reply", StreamName: "ASWAP_MSGS"},
		{Subject: "aswap.msgs.migrate.>", Kind: "Migrate", ConsumerName: "pool-migrate", StreamName: "ASWAP_MSGS"},
	}
}

func NewNATSSubscriber(js jetstream.JetStream, msgChan chan<- RawMessage) *NATSSubscriber {
	return &NATSSubscriber{
		js:      js,
		msgChan: msgChan,
	}
}

// Subscribe creates JetStream consumers for all configured subjects.
// Consumers use explicit ACK, max_deliver=5, ack_wait=30s.
func (ns *NATSSubscriber) Subscribe(ctx context.Context, subjects []SubjectConfig) error {
	for _, cfg := range subjects {
		kind := cfg.Kind
		consumer, err := ns.js.CreateOrUpdateConsumer(ctx, cfg.StreamName, jetstream.ConsumerConfig{
			Durable:       cfg.ConsumerName,
			FilterSubject: cfg.Subject,
			AckPolicy:     jetstream.AckExplicitPolicy,
			AckWait:       30 * time.Second,
			MaxDeliver:    5,
			DeliverPolicy: jetstream.DeliverAllPolicy,
		})
		if err != nil {
			return fmt.Errorf("create consumer %s: %w", cfg.ConsumerName, err)
		}

		consumerContext, err := consumer.Consume(func(msg jetstream.Msg) {
			raw := RawMessage{
				Subject:   msg.Subject(),
				Kind:      kind,
				Data:      msg.Data(),
				Timestamp: time.Now(),
				AckFunc:   func() { msg.Ack() },
				NakFunc:   func() { msg.Nak() },
			}

			select {
			case ns.msgChan <- raw:
				// Successfully queued for processing
			case <-ctx.Done():
				msg.Nak()
			}
		})
		if err != nil {
			return fmt.Errorf("consume %s: %w", cfg.ConsumerName, err)
		}

		ns.consumers = append(ns.consumers, consumerContext)
		log.Printf("INFO: subscribed to %s (consumer=%s)", cfg.Subject, cfg.ConsumerName)
	}

	return nil
}

// EnsureStreams creates the required JetStream streams if they don't exist.
// Streams use FileStorage, retention=Limits, max_age=72h.
func EnsureStreams(ctx context.Context, js jetstream.JetStream) error {
	streams := []jetstream.StreamConfig{
		{
			Name:      "ASWAP_MSGS",
			Subjects:  []string{"aswap.msgs.>"},
			Storage:   jetstream.FileStorage,
			Retention: jetstream.LimitsPolicy,
			MaxAge:    72 * time.Hour,
			Replicas:  1,
		},
	}

	for _, cfg := range streams {
		if _, err := js.CreateOrUpdateStream(ctx, cfg); err != nil {
			return fmt.Errorf("create stream %s: %w", cfg.Name, err)
		}
		log.Printf("INFO: ensured stream %s", cfg.Name)
	}

	return nil
}

// Stop gracefully stops all consumers.
func (ns *NATSSubscriber) Stop() {
	for _, cc := range ns.consumers {
		cc.Stop()
	}
	log.Println("INFO: NATS subscribers stopped")
}

// ConnectNATS establishes a NATS connection and returns a JetStream context.
func ConnectNATS(url string) (*nats.Conn, jetstream.JetStream, error) {
	nc, err := nats.Connect(url,
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			log.Printf("WARN: NATS disconnected: %v", err)
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			log.Println("INFO: NATS reconnected")
		}),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("nats connect: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, nil, fmt.Errorf("jetstream: %w", err)
	}

	return nc, js, nil
}
