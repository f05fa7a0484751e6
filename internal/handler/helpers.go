package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"snapfeed/internal/middleware"
	appErr "snapfeed/internal/pkg/errors"
	"snapfeed/internal/pkg/response"
)

func getUserID(c *gin.Context) string {
	value, _ := c.Get(middleware.ContextUserIDKey)
	userID, _ := value.(string)
	return userID
}

// handleError is the single place service errors become HTTP statuses.
// Conflict maps to 422 alongside validation failures; anything unclassified
// is a 500 and never leaks its cause.
func handleError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	requestID, _ := c.Get("request_id")
	logutil.GetLogger(c.Request.Context()).Warn("request failed",
		zap.Any("request_id", requestID),
		zap.String("method", c.Request.Method),
		zap.String("path", c.Request.URL.Path),
		zap.String("user_id", getUserID(c)),
		zap.Error(err),
	)
	switch {
	case errors.Is(err, appErr.ErrUnauthorized):
		response.Error(c, http.StatusUnauthorized, "unauthorized", "unauthorized")
	case errors.Is(err, appErr.ErrForbidden):
		response.Error(c, http.StatusForbidden, "forbidden", "not authorized")
	case errors.Is(err, appErr.ErrNotFound):
		response.Error(c, http.StatusNotFound, "not_found", "not found")
	case errors.Is(err, appErr.ErrConflict):
		response.ValidationError(c, http.StatusUnprocessableEntity, "email already exists", nil)
	case errors.Is(err, appErr.ErrInvalid):
		response.ValidationError(c, http.StatusUnprocessableEntity, "validation failed", nil)
	default:
		response.Error(c, http.StatusInternalServerError, "internal", "internal error")
	}
}

// bindingViolations flattens a validator error into the per-field list the
// 422 envelope carries.
func bindingViolations(err error) []response.Violation {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return nil
	}
	violations := make([]response.Violation, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		violations = append(violations, response.Violation{
			Field:   fe.Field(),
			Message: violationMessage(fe),
		})
	}
	return violations
}

func violationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "must not be empty"
	case "email":
		return "must be a valid email address"
	case "min":
		return "must be at least " + fe.Param() + " characters"
	default:
		return "is invalid"
	}
}

func invalidInput(c *gin.Context, err error) {
	response.ValidationError(c, http.StatusUnprocessableEntity, "validation failed", bindingViolations(err))
}
