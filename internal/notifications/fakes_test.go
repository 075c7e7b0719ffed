package notifications

import (
	"context"
	"sync"

	"github.com/geocoder89/fleetreg/internal/domain/event"
)

type fakeNotifier struct {
	mu    sync.Mutex
	calls []event.RegistrationCreated
	fn    func(ctx context.Context, evt event.RegistrationCreated) error
}

func (f *fakeNotifier) NotifyRegistrationCreated(ctx context.Context, evt event.RegistrationCreated) error {
	f.mu.Lock()
	f.calls = append(f.calls, evt)
	f.mu.Unlock()

	if f.fn != nil {
		return f.fn(ctx, evt)
	}
	return nil
}

func (f *fakeNotifier) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func sampleEvent(id string) event.RegistrationCreated {
	return event.RegistrationCreated{
		RegistrationID: id,
		Plate:          "ABCD12",
		OwnerName:      "Juan Perez",
		TaxID:          "123456785",
		Email:          "juan@example.com",
		EventType:      event.TypeRegistrationCreated,
	}
}
