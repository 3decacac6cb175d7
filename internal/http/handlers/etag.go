package handlers

import (
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strconv"
	"strings"

	"github.com/geocoder89/accounthub/internal/domain/account"
	"github.com/gin-gonic/gin"
)

// respondAccountWithETag answers 304 when the client already holds the
// current version of the account.
func respondAccountWithETag(ctx *gin.Context, a account.Account) {
	etag := accountETag(a)

	ctx.Header("ETag", etag)

	if ifNoneMatchMatches(ctx.GetHeader("If-None-Match"), etag) {
		ctx.Status(http.StatusNotModified)
		return
	}

	ctx.JSON(http.StatusOK, a)
}

// accountETag is derived from id and updatedAt; every mutation advances updatedAt.
func accountETag(a account.Account) string {
	sum := sha256.Sum256([]byte(a.ID + ":" + strconv.FormatInt(a.UpdatedAt.UnixMicro(), 10)))

	return `W/"` + hex.EncodeToString(sum[:16]) + `"`
}

func ifNoneMatchMatches(headerValue, currentETag string) bool {
	if strings.TrimSpace(headerValue) == "" || strings.TrimSpace(currentETag) == "" {
		return false
	}

	if strings.TrimSpace(headerValue) == "*" {
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

func normalizeETag(raw string) string {
	v := strings.TrimSpace(raw)

	if strings.HasPrefix(v, "W/") {
		v = strings.TrimSpace(strings.TrimPrefix(v, "W/"))
	}

	return v
}
