package ingestion

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/zenopie/animal-swap/internal/token"
)

// InstructionPublisher publishes the engine's outbound token instructions to
// NATS for the execution layer to sign and submit. Instructions are published
// only after the originating invocation has committed.
// Subjects follow the pattern: aswap.pool.out.instructions.{kind}
type InstructionPublisher struct {
	js        jetstream.JetStream
	inputChan <-chan PublishableInstruction
}

// PublishableInstruction is a committed instruction ready for publishing.
type PublishableInstruction struct {
	MessageID   string            `json:"message_id"`
	Action      string            `json:"action"`
	Instruction token.Instruction `json:"instruction"`
	Timestamp   time.Time         `json:"timestamp"`
}

func NewInstructionPublisher(js jetstream.JetStream, inputChan <-chan PublishableInstruction) *InstructionPublisher {
	return &InstructionPublisher{
		js:        js,
		inputChan: inputChan,
	}
}

// Run starts the publisher loop.
func (ip *InstructionPublisher) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case instr, ok := <-ip.inputChan:
			if !ok {
				return nil
			}

			if err := ip.publish(ctx, instr); err != nil {
				log.Printf("WARN: instruction publish failed id=%s: %v", instr.Instruction.ID, err)
				// Non-fatal: the execution layer can replay from the message log
			}
		}
	}
}

func (ip *InstructionPublisher) publish(ctx context.Context, instr PublishableInstruction) error {
	data, err := json.Marshal(instr)
	if err != nil {
		return fmt.Errorf("marshal instruction: %w", err)
	}

	subject := fmt.Sprintf("aswap.pool.out.instructions.%s", instr.Instruction.Kind)
	_, err = ip.js.Publish(ctx, subject, data)
	return err
}

// EnsureOutboundStream creates the outbound instructions stream.
func EnsureOutboundStream(ctx context.Context, js jetstream.JetStream) error {
	_, err := js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:      "ASWAP_POOL_OUT",
		Subjects:  []string{"aswap.pool.out.>"},
		Storage:   jetstream.FileStorage,
		Retention: jetstream.LimitsPolicy,
		MaxAge:    72 * time.Hour,
		Replicas:  1,
	})
	if err != nil {
		return fmt.Errorf("create outbound stream: %w", err)
	}
	log.Println("INFO: ensured outbound stream ASWAP_POOL_OUT")
	return nil
}
