package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func respondError(c *gin.Context, status int, message string, err error) {
	detail := message
	if err != nil {
		detail = err.Error()
	}
	c.JSON(status, gin.H{
		"status":  "error",
		"message": message,
		"error":   detail,
	})
}

func respondSuccess(c *gin.Context, status int, message string, data interface{}) {
	c.JSON(status, gin.H{
		"status":  "success",
		"message": message,
		"data":    data,
	})
}

// respondLookupError maps a repository error to 404 or 500.
func respondLookupError(c *gin.Context, resource string, err error) {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		respondError(c, http.StatusNotFound, resource+" not found", err)
		return
	}
	respondError(c, http.StatusInternalServerError, "Failed to retrieve "+resource, err)
}
