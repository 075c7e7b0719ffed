package event

import (
	"encoding/json"
	"time"
)

const TypeRegistrationCreated = "REGISTRATION_CREATED"

// RegistrationCreated is emitted once per successful creation. It is never persisted here.
type RegistrationCreated struct {
	RegistrationID string    `json:"registrationId"`
	Plate          string    `json:"plate"`
	OwnerName      string    `json:"ownerName"`
	TaxID          string    `json:"taxId"`
	Email          string    `json:"email"`
	OccurredAt     time.Time `json:"occurredAt"`
	EventType      string    `json:"eventType"`
}

func (e RegistrationCreated) JSON() (json.RawMessage, error) {
	b, err := json.Marshal(e)

	if err != nil {
		return nil, err
	}
	return json.RawMessage(b), nil
}
