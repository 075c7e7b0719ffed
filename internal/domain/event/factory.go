package event

import (
	"time"

	"github.com/geocoder89/fleetreg/internal/domain/registration"
)

func NewRegistrationCreated(r registration.Registration, now time.Time) RegistrationCreated {
	return RegistrationCreated{
		RegistrationID: r.ID,
		Plate:          r.Plate,
		OwnerName:      r.OwnerName,
		TaxID:          r.TaxID,
		Email:          r.Email,
		OccurredAt:     now.UTC(),
		EventType:      TypeRegistrationCreated,
	}
}
