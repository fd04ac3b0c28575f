package kafka

import (
	"github.com/segmentio/kafka-go"
)

// Writer publishes order lifecycle events with full-replica acks so a
// dispatched outbox row is never lost to a broker failover.
type Writer struct {
	*kafka.Writer
}

func NewWriter(brokers []string) *Writer {
	return &Writer{
		Writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Balancer:     &kafka.LeastBytes{},
			RequiredAcks: kafka.RequireAll,
		},
	}
}
