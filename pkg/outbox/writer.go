package outbox

import (
	"context"

	"github.com/segmentio/kafka-go"
)

// Writer is the Kafka-backed Producer used by every relay. The hash
// balancer keeps all messages with the same key on one partition,
// which is what makes the aggregate-id ordering guarantee hold.
type Writer struct {
	*kafka.Writer
}

func NewWriter(brokers []string) *Writer {
	return &Writer{
		Writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
		},
	}
}

func (w *Writer) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	return w.Writer.WriteMessages(ctx, msgs...)
}
