package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/geocoder89/fleetreg/internal/domain/registration"
	"github.com/geocoder89/fleetreg/internal/storage"
	"github.com/geocoder89/fleetreg/internal/utils"
	"github.com/gin-gonic/gin"
)

const storeTimeout = 2 * time.Second

type RegistrationService interface {
	Create(ctx context.Context, req registration.CreateRegistrationRequest) (registration.Response, error)
	GetByID(ctx context.Context, id string) (registration.Response, error)
	List(ctx context.Context, params registration.ListParams) (registration.Page[registration.Response], error)
	IssueUploadURL(ctx context.Context, id, documentType string) (storage.UploadURL, error)
}

type RegistrationsHandler struct {
	svc RegistrationService
}

func NewRegistrationsHandler(svc RegistrationService) *RegistrationsHandler {
	return &RegistrationsHandler{svc: svc}
}

func (h *RegistrationsHandler) Create(ctx *gin.Context) {
	var req registration.CreateRegistrationRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), storeTimeout)
	defer cancel()

	resp, err := h.svc.Create(cctx, req)
	if err != nil {
		RespondServiceError(ctx, err)
		return
	}

	ctx.Header("Location", "/api/v1/registrations/"+resp.ID)
	ctx.JSON(http.StatusCreated, resp)
}

func (h *RegistrationsHandler) List(ctx *gin.Context) {
	page, err := utils.QueryInt(ctx.Query("page"), 0)
	if err != nil {
		RespondBadRequest(ctx, "invalid page", gin.H{"page": err.Error()})
		return
	}
	size, err := utils.QueryInt(ctx.Query("size"), registration.DefaultPageSize)
	if err != nil {
		RespondBadRequest(ctx, "invalid size", gin.H{"size": err.Error()})
		return
	}

	params := registration.ListParams{
		Page:    page,
		Size:    size,
		SortBy:  ctx.Query("sortBy"),
		SortDir: registration.SortDir(ctx.Query("sortDir")),
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), storeTimeout)
	defer cancel()

	result, err := h.svc.List(cctx, params)
	if err != nil {
		RespondServiceError(ctx, err)
		return
	}

	RespondJSONWithETag(ctx, http.StatusOK, result)
}

func (h *RegistrationsHandler) GetByID(ctx *gin.Context) {
	id := ctx.Param("id")

	if !utils.IsUUID(id) {
		RespondBadRequest(ctx, "registration id must be a valid UUID", gin.H{"id": id})
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), storeTimeout)
	defer cancel()

	resp, err := h.svc.GetByID(cctx, id)
	if err != nil {
		RespondServiceError(ctx, err)
		return
	}

	RespondRegistration(ctx, resp)
}
