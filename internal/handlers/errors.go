package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SscSPs/herd_ledger/internal/apperrors"
)

// respondError maps a service error to a status and logs it at a level matching its cause.
// Internal failures are reported with fallback instead of the raw error.
func respondError(c *gin.Context, logger *slog.Logger, err error, fallback string) {
	status := apperrors.HTTPStatus(err)
	switch {
	case status >= http.StatusInternalServerError:
		logger.Error(fallback, slog.String("error", err.Error()))
		c.JSON(status, gin.H{"error": fallback})
	case errors.Is(err, apperrors.ErrCalculation):
		logger.Error("Calculation invariant violated", slog.String("error", err.Error()))
		c.JSON(status, gin.H{"error": err.Error()})
	default:
		logger.Warn(fallback, slog.String("error", err.Error()))
		c.JSON(status, gin.H{"error": err.Error()})
	}
}
