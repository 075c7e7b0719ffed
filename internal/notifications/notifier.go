package notifications

import (
	"context"

	"github.com/geocoder89/fleetreg/internal/domain/event"
)

type Notifier interface {
	NotifyRegistrationCreated(ctx context.Context, evt event.RegistrationCreated) error
}

// Transport names, used for NOTIFY_TRANSPORT and as the metrics label.
const (
	TransportLog  = "log"
	TransportSQS  = "sqs"
	TransportAMQP = "amqp"
	TransportSES  = "ses"
)
