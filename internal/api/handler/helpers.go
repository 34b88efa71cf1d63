package handler

import (
	"encoding/hex"
	"strconv"

	"github.com/gin-gonic/gin"
)

// operatorAddress is the wallet identity residual pool drains are credited
// to at finish. The deployment runs a single admin principal (§4.5); there
// is no multi-operator routing.
const operatorAddress = "operator"

func decodeHex(s string) ([]byte, error) {
	return hex.DecodeString(s)
}

// parsePagination reads page/limit query params with sane defaults and
// bounds, matching the teacher's pagination convention.
func parsePagination(c *gin.Context) (page, limit int) {
	page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ = strconv.Atoi(c.DefaultQuery("limit", "20"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return
}
