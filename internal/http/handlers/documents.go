package handlers

import (
	"context"
	"net/http"

	"github.com/geocoder89/fleetreg/internal/utils"
	"github.com/gin-gonic/gin"
)

// IssueUploadURL returns a presigned PUT URL for a PDF attached to a registration.
func (h *RegistrationsHandler) IssueUploadURL(ctx *gin.Context) {
	id := ctx.Param("id")

	if !utils.IsUUID(id) {
		RespondBadRequest(ctx, "registration id must be a valid UUID", gin.H{"id": id})
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), storeTimeout)
	defer cancel()

	out, err := h.svc.IssueUploadURL(cctx, id, ctx.Query("documentType"))
	if err != nil {
		RespondServiceError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, out)
}
