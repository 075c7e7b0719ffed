package registration

import "strings"

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
	DefaultSortBy   = "createdAt"
)

type SortDir string

const (
	SortAsc  SortDir = "ASC"
	SortDesc SortDir = "DESC"
)

// sortable maps API field names to storage columns.
var sortable = map[string]string{
	"createdAt": "created_at",
	"updatedAt": "updated_at",
	"plate":     "plate",
	"ownerName": "owner_name",
	"make":      "make",
	"year":      "year",
	"status":    "status",
}

type ListParams struct {
	Page    int
	Size    int
	SortBy  string
	SortDir SortDir
}

// SortColumn returns the storage column for SortBy, or false when the field is not sortable.
func (p ListParams) SortColumn() (string, bool) {
	col, ok := sortable[p.SortBy]
	return col, ok
}

func (p ListParams) Offset() int {
	return p.Page * p.Size
}

// Normalize applies defaults and limits: page >= 0, size in 1..MaxPageSize, DESC unless ASC.
func (p ListParams) Normalize() ListParams {
	if p.Page < 0 {
		p.Page = 0
	}
	if p.Size <= 0 {
		p.Size = DefaultPageSize
	}
	if p.Size > MaxPageSize {
		p.Size = MaxPageSize
	}
	if strings.TrimSpace(p.SortBy) == "" {
		p.SortBy = DefaultSortBy
	}
	if strings.EqualFold(string(p.SortDir), string(SortAsc)) {
		p.SortDir = SortAsc
	} else {
		p.SortDir = SortDesc
	}
	return p
}
