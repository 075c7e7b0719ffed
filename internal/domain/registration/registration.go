package registration

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusPending  Status = "PENDING"
	StatusApproved Status = "APPROVED"
	StatusRejected Status = "REJECTED"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	default:
		return false
	}
}

// Registration is the persisted record. Version, CreatedAt and UpdatedAt are owned by the store.
type Registration struct {
	ID          string
	OwnerName   string
	TaxID       string
	Email       string
	Phone       *string
	Plate       string
	Make        string
	Model       string
	Year        int
	Color       *string
	VehicleType *string
	Notes       *string
	Status      Status
	Version     int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type CreateRegistrationRequest struct {
	OwnerName   string  `json:"ownerName" binding:"required,min=3,max=200"`
	TaxID       string  `json:"taxId" binding:"required,taxid"`
	Email       string  `json:"email" binding:"required,email,max=100"`
	Phone       *string `json:"phone" binding:"omitempty,max=20,phone"`
	Plate       string  `json:"plate" binding:"required,plate"`
	Make        string  `json:"make" binding:"required,min=2,max=50"`
	Model       string  `json:"model" binding:"required,min=1,max=50"`
	Year        int     `json:"year" binding:"required,min=1900"`
	Color       *string `json:"color" binding:"omitempty,max=30"`
	VehicleType *string `json:"vehicleType" binding:"omitempty,max=50"`
	Notes       *string `json:"notes" binding:"omitempty,max=500"`
}

// Normalize trims every text field so size rules see what will be stored.
// Optional fields left blank become absent.
func (r *CreateRegistrationRequest) Normalize() {
	r.OwnerName = strings.TrimSpace(r.OwnerName)
	r.TaxID = strings.TrimSpace(r.TaxID)
	r.Email = strings.TrimSpace(r.Email)
	r.Plate = strings.TrimSpace(r.Plate)
	r.Make = strings.TrimSpace(r.Make)
	r.Model = strings.TrimSpace(r.Model)
	r.Phone = blankToNil(trimOptional(r.Phone))
	r.Color = blankToNil(trimOptional(r.Color))
	r.VehicleType = blankToNil(trimOptional(r.VehicleType))
	r.Notes = blankToNil(trimOptional(r.Notes))
}

// NewFromCreateRequest builds a pending record from already normalized identifiers.
// Free text is trimmed; absent optional fields stay nil.
func NewFromCreateRequest(req CreateRegistrationRequest, plate, taxID string) Registration {
	return Registration{
		ID:          uuid.NewString(),
		OwnerName:   strings.TrimSpace(req.OwnerName),
		TaxID:       taxID,
		Email:       strings.TrimSpace(req.Email),
		Phone:       trimOptional(req.Phone),
		Plate:       plate,
		Make:        strings.TrimSpace(req.Make),
		Model:       strings.TrimSpace(req.Model),
		Year:        req.Year,
		Color:       trimOptional(req.Color),
		VehicleType: trimOptional(req.VehicleType),
		Notes:       trimOptional(req.Notes),
		Status:      StatusPending,
	}
}

func trimOptional(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}

func blankToNil(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	return s
}
