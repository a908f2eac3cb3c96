package api

import "github.com/gin-gonic/gin"

// respondError sends the panel's JSON error envelope and aborts the
// handler chain. Per-TV command failures never go through here; those
// are data in the bulk report.
func respondError(c *gin.Context, code int, message string) {
	c.JSON(code, gin.H{
		"error": gin.H{
			"message": message,
			"status":  code,
		},
	})
	c.Abort()
}
