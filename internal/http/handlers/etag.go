package handlers

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/geocoder89/fleetreg/internal/domain/registration"
	"github.com/gin-gonic/gin"
)

// RespondRegistration writes r with a weak ETag derived from id and updatedAt, and
// answers 304 when the client already holds that representation.
func RespondRegistration(ctx *gin.Context, r registration.Response) {
	respondWithETag(ctx, http.StatusOK, registrationETag(r), r)
}

// RespondJSONWithETag hashes the encoded payload; used where no version field exists.
func RespondJSONWithETag(ctx *gin.Context, status int, payload interface{}) {
	b, err := json.Marshal(payload)
	if err != nil {
		ctx.JSON(status, payload)
		return
	}

	sum := sha256.Sum256(b)
	respondWithETag(ctx, status, `"`+hex.EncodeToString(sum[:16])+`"`, payload)
}

func respondWithETag(ctx *gin.Context, status int, etag string, payload interface{}) {
	ctx.Header("ETag", etag)

	if ifNoneMatchMatches(ctx.GetHeader("If-None-Match"), etag) {
		ctx.Status(http.StatusNotModified)
		return
	}

	ctx.JSON(status, payload)
}

func registrationETag(r registration.Response) string {
	return `W/"` + r.ID + "-" + strconv.FormatInt(r.UpdatedAt.UnixNano(), 36) + `"`
}

func ifNoneMatchMatches(headerValue, currentETag string) bool {
	headerValue = strings.TrimSpace(headerValue)
	if headerValue == "" || currentETag == "" {
		return false
	}

	if headerValue == "*" {
		return true
	}

	current := normalizeETag(currentETag)

	for _, part := range strings.Split(headerValue, ",") {
		if normalizeETag(part) == current {
			return true
		}
	}

	return false
}

// normalizeETag drops the weak prefix; If-None-Match uses weak comparison.
func normalizeETag(raw string) string {
	v := strings.TrimSpace(raw)
	return strings.TrimSpace(strings.TrimPrefix(v, "W/"))
}
