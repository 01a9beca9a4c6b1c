package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/agentscrape/models"
)

// respondError maps err to the correct HTTP status code and writes a
// structured JSON error response. prefix names the failed operation.
func respondError(c *gin.Context, err error, prefix string) {
	var scrapeErr *models.ScrapeError
	if !errors.As(err, &scrapeErr) {
		scrapeErr = models.NewScrapeError(models.ErrCodeInternal, err.Error(), nil)
	}

	detail := scrapeErr.ToDetail()
	if prefix != "" {
		detail.Message = prefix + ": " + detail.Message
	}
	c.JSON(mapErrorToStatus(scrapeErr), models.ErrorResponse{
		Success: false,
		Error:   detail,
	})
}

// mapErrorToStatus translates error codes to HTTP status codes. Transport
// failures (timeouts, navigation, extraction) all surface as 500.
func mapErrorToStatus(e *models.ScrapeError) int {
	switch e.Code {
	case models.ErrCodeInvalidInput:
		return http.StatusBadRequest // 400
	case models.ErrCodeNotFound:
		return http.StatusNotFound // 404
	case models.ErrCodeTransportUnavailable:
		return http.StatusServiceUnavailable // 503
	default:
		return http.StatusInternalServerError // 500
	}
}

var errTransportDisabled = models.NewScrapeError(
	models.ErrCodeTransportUnavailable,
	"Playwright MCP transport is disabled; set AGENTSCRAPE_MCP_ENABLED=true",
	nil,
)
