package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/festy23/reviewdesk/internal/review/model"
)

// ErrorResponse represents the error body shared by all endpoints.
type ErrorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func errorResponse(c *gin.Context, code string, message string, statusCode int) {
	resp := ErrorResponse{}
	resp.Error.Code = code
	resp.Error.Message = message
	c.JSON(statusCode, resp)
}

type errorMapping struct {
	err    error
	code   string
	status int
}

var errorMappings = []errorMapping{
	{model.ErrReviewNotFound, "NOT_FOUND", http.StatusNotFound},
	{model.ErrTitleRequired, "INVALID_REQUEST", http.StatusBadRequest},
	{model.ErrAssigneesRequired, "INVALID_REQUEST", http.StatusBadRequest},
	{model.ErrUnknownAssignee, "INVALID_REQUEST", http.StatusBadRequest},
	{model.ErrReasonRequired, "INVALID_REQUEST", http.StatusBadRequest},
	{model.ErrGuestNameRequired, "INVALID_REQUEST", http.StatusBadRequest},
	{model.ErrContentRequired, "INVALID_REQUEST", http.StatusBadRequest},
	{model.ErrInvalidStatus, "INVALID_REQUEST", http.StatusBadRequest},
	{model.ErrRecipientsRequired, "INVALID_REQUEST", http.StatusBadRequest},
	{model.ErrNotRequester, "FORBIDDEN", http.StatusForbidden},
	{model.ErrNotAssignee, "FORBIDDEN", http.StatusForbidden},
	{model.ErrForbidden, "FORBIDDEN", http.StatusForbidden},
	{model.ErrLocked, "LOCKED", http.StatusLocked},
	{model.ErrInvalidTransition, "INVALID_TRANSITION", http.StatusConflict},
	{model.ErrAlreadySent, "ALREADY_SENT", http.StatusConflict},
}

// serviceError writes the response for a service error. Unknown errors are
// logged and reported as internal.
func serviceError(c *gin.Context, logger *zap.SugaredLogger, op string, err error) {
	for _, m := range errorMappings {
		if errors.Is(err, m.err) {
			errorResponse(c, m.code, m.err.Error(), m.status)
			return
		}
	}
	logger.Errorw("failed to "+op, "path", c.FullPath(), "error", err)
	errorResponse(c, "INTERNAL_ERROR", "internal server error", http.StatusInternalServerError)
}

// bindOptionalJSON binds a body that may be absent.
func bindOptionalJSON(c *gin.Context, dst any) bool {
	if c.Request.ContentLength == 0 {
		return true
	}
	if err := c.ShouldBindJSON(dst); err != nil {
		errorResponse(c, "INVALID_REQUEST", "invalid request body", http.StatusBadRequest)
		return false
	}
	return true
}

func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		errorResponse(c, "INVALID_REQUEST", "invalid request body", http.StatusBadRequest)
		return false
	}
	return true
}
