package queue

import (
	"context"
	"strings"

	"github.com/kursadbilgin/funnel-engine/internal/domain"
)

// Publisher publishes communication events to a queue.
type Publisher interface {
	Publish(ctx context.Context, queue string, msg CommunicationMessage) error
	Close() error
}

var supportedKinds = []domain.CommKind{
	domain.CommWhatsApp,
	domain.CommEmail,
}

// QueueName returns the work queue for a communication kind, e.g. whatsapp.
func QueueName(kind domain.CommKind) string {
	return strings.ToLower(kind.String())
}

// WorkQueueNames returns all communication work queues.
func WorkQueueNames() []string {
	queues := make([]string, 0, len(supportedKinds))
	for _, kind := range supportedKinds {
		queues = append(queues, QueueName(kind))
	}
	return queues
}
