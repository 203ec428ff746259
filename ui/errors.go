package ui

import (
	"net/http"

	"assessr/internal/errors"

	"github.com/gin-gonic/gin"
)

// respondError maps err to its HTTP status and writes a JSON error body.
// Internal failures are logged and reported without their cause.
func (s *Server) respondError(c *gin.Context, err error) {
	status := errors.HTTPStatus(err)
	code := errors.GetCode(err)

	message := err.Error()
	if status >= http.StatusInternalServerError {
		s.logger.Error("%s %s failed: %v", c.Request.Method, c.FullPath(), err)
		message = "The request could not be completed"
		if status == http.StatusServiceUnavailable {
			message = "The database is unavailable, try again shortly"
		}
	}
	c.AbortWithStatusJSON(status, gin.H{"error": message, "code": code})
}
