package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// getHealth godoc
// @Summary Liveness check.
// @Tags root
// @Produce plain
// @Success 200 {string} string "OK"
// @Router /health [get]
func getHealth(c *gin.Context) {
	c.String(http.StatusOK, "OK")
}

// getHome reports the service name.
func getHome(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "herd ledger api v1"})
}
