package registration

import "time"

type Response struct {
	ID          string    `json:"id"`
	OwnerName   string    `json:"ownerName"`
	TaxID       string    `json:"taxId"`
	Email       string    `json:"email"`
	Phone       *string   `json:"phone,omitempty"`
	Plate       string    `json:"plate"`
	Make        string    `json:"make"`
	Model       string    `json:"model"`
	Year        int       `json:"year"`
	Color       *string   `json:"color,omitempty"`
	VehicleType *string   `json:"vehicleType,omitempty"`
	Status      Status    `json:"status"`
	Notes       *string   `json:"notes,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func ToResponse(r Registration) Response {
	return Response{
		ID:          r.ID,
		OwnerName:   r.OwnerName,
		TaxID:       r.TaxID,
		Email:       r.Email,
		Phone:       r.Phone,
		Plate:       r.Plate,
		Make:        r.Make,
		Model:       r.Model,
		Year:        r.Year,
		Color:       r.Color,
		VehicleType: r.VehicleType,
		Status:      r.Status,
		Notes:       r.Notes,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

// Page is a 0-based page of results plus totals for the whole listing.
type Page[T any] struct {
	Items      []T   `json:"items"`
	Page       int   `json:"page"`
	Size       int   `json:"size"`
	TotalItems int64 `json:"totalItems"`
	TotalPages int   `json:"totalPages"`
}

func NewPage[T any](items []T, page, size int, total int64) Page[T] {
	if items == nil {
		items = []T{}
	}
	pages := 0
	if size > 0 {
		pages = int((total + int64(size) - 1) / int64(size))
	}
	return Page[T]{
		Items:      items,
		Page:       page,
		Size:       size,
		TotalItems: total,
		TotalPages: pages,
	}
}

func MapPage[A, B any](p Page[A], fn func(A) B) Page[B] {
	out := make([]B, 0, len(p.Items))
	for _, it := range p.Items {
		out = append(out, fn(it))
	}
	return Page[B]{
		Items:      out,
		Page:       p.Page,
		Size:       p.Size,
		TotalItems: p.TotalItems,
		TotalPages: p.TotalPages,
	}
}
