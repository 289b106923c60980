package respond

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// JSON writes a JSON response with the given status.
func JSON(c *gin.Context, status int, payload any) {
	c.JSON(status, payload)
}

// OK writes a 200 OK JSON response.
func OK(c *gin.Context, payload any) {
	JSON(c, http.StatusOK, payload)
}

// BadRequest writes a 400 error with the bad_request code.
func BadRequest(c *gin.Context, message string, details any) {
	Error(c, http.StatusBadRequest, "bad_request", message, details)
}
