package notifications

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/geocoder89/fleetreg/internal/domain/event"
)

// LogNotifier simulates delivery by logging the event payload.
type LogNotifier struct {
	log *slog.Logger
}

func NewLogNotifier(log *slog.Logger) *LogNotifier {
	if log == nil {
		log = slog.Default()
	}
	return &LogNotifier{log: log}
}

func (n *LogNotifier) NotifyRegistrationCreated(ctx context.Context, evt event.RegistrationCreated) error {
	// Optional: simulate slow provider
	if msStr := os.Getenv("NOTIFIER_SLEEP_MS"); msStr != "" {
		ms, _ := strconv.Atoi(msStr)
		if ms > 0 {
			select {
			case <-time.After(time.Duration(ms) * time.Millisecond):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}

	// Optional: simulate provider outage
	if os.Getenv("NOTIFIER_FAIL") == "1" {
		return fmt.Errorf("provider down (simulated)")
	}

	payload, err := evt.JSON()
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}

	n.log.InfoContext(ctx, "event.simulated",
		"event_type", evt.EventType,
		"registration_id", evt.RegistrationID,
		"plate", evt.Plate,
		"payload", string(payload),
	)
	return nil
}
