package handler

import (
	"coinflip/backend/internal/coinflip"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// writeError maps engine errors to the documented status codes and bodies.
func writeError(c *gin.Context, err error) {
	var mismatch *coinflip.ValueMismatchError
	switch {
	case errors.As(err, &mismatch):
		c.JSON(http.StatusBadRequest, gin.H{
			"error":         "Value mismatch",
			"expectedRange": gin.H{"min": mismatch.Min, "max": mismatch.Max},
		})
	case errors.Is(err, coinflip.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	case errors.Is(err, coinflip.ErrInvalidState), errors.Is(err, coinflip.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		logrus.WithError(err).WithField("path", c.FullPath()).Error("Unhandled error")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
