package api

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/gin-gonic/gin"
)

// APIError is the body of every failed request
type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// ErrorEnvelope wraps APIError as {"error": {...}}
type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

// Error codes reported to clients
const (
	CodeInvalidArgument = "invalid_argument"
	CodeNotFound        = "not_found"
	CodeAlreadyExists   = "already_exists"
	CodeTimeout         = "timeout"
	CodeInternal        = "internal"
)

// RespondError writes an error envelope with the given status
func RespondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = errorMessage(err)
	}
	c.JSON(status, ErrorEnvelope{
		Error: APIError{
			Message: msg,
			Code:    code,
		},
	})
}

// RespondOK writes payload as 200 JSON
func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

// respondServiceError maps a classified service error to its HTTP status
func respondServiceError(c *gin.Context, err error) {
	status, code := statusForError(err)
	c.Error(err)
	RespondError(c, status, code, err)
}

func statusForError(err error) (int, string) {
	if errors.Is(err, context.DeadlineExceeded) {
		return http.StatusGatewayTimeout, CodeTimeout
	}
	switch errbuilder.CodeOf(err) {
	case errbuilder.CodeInvalidArgument:
		return http.StatusBadRequest, CodeInvalidArgument
	case errbuilder.CodeNotFound:
		return http.StatusNotFound, CodeNotFound
	case errbuilder.CodeAlreadyExists:
		return http.StatusConflict, CodeAlreadyExists
	default:
		return http.StatusInternalServerError, CodeInternal
	}
}

func errorMessage(err error) string {
	var builder *errbuilder.ErrBuilder
	if errors.As(err, &builder) && strings.TrimSpace(builder.Msg) != "" {
		return builder.Msg
	}
	return err.Error()
}
