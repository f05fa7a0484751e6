package response

import "github.com/gin-gonic/gin"

type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type Violation struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func Success(c *gin.Context, status int, data interface{}) {
	c.JSON(status, gin.H{"data": data})
}

func Error(c *gin.Context, status int, code, message string) {
	c.JSON(status, gin.H{"error": APIError{Code: code, Message: message}})
}

// ValidationError carries the per-field violation list alongside the error
// envelope; only 422 responses use it.
func ValidationError(c *gin.Context, status int, message string, violations []Violation) {
	c.JSON(status, gin.H{
		"error":      APIError{Code: "validation_failed", Message: message},
		"violations": violations,
	})
}
