package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
	apperrors "github.com/lk2023060901/perspectize-backend/internal/pkg/errors"
)

// Response is the envelope every JSON endpoint returns
type Response struct {
	Code    int         `json:"code"`              // business code, 0 on success
	Message string      `json:"message,omitempty"` // human readable message
	Data    interface{} `json:"data"`
}

// Success writes 200 with data
func Success(c *gin.Context, data interface{}) {
	write(c, http.StatusOK, apperrors.Success, "", data)
}

// SuccessWithMessage writes 200 with a message
func SuccessWithMessage(c *gin.Context, message string, data interface{}) {
	write(c, http.StatusOK, apperrors.Success, message, data)
}

// Created writes 201 with data
func Created(c *gin.Context, data interface{}) {
	write(c, http.StatusCreated, apperrors.Success, "", data)
}

// Error writes an error using the HTTP status as code
func Error(c *gin.Context, httpStatus int, message string) {
	write(c, httpStatus, httpStatus, message, nil)
}

func BadRequest(c *gin.Context, message string) {
	Error(c, http.StatusBadRequest, message)
}

func NotFound(c *gin.Context, message string) {
	Error(c, http.StatusNotFound, message)
}

func InternalError(c *gin.Context, message string) {
	Error(c, http.StatusInternalServerError, message)
}

// HandleError renders an AppError (or anything wrapping one)
func HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	code := apperrors.ExtractCode(err)
	write(c, apperrors.GetHTTPStatus(code), code, apperrors.FormatError(code, apperrors.GetDetails(err)), nil)
}

// ErrorWithCode renders a business code with an explicit message.
// An empty message falls back to the code's default text.
func ErrorWithCode(c *gin.Context, code int, message string) {
	if message == "" {
		message = apperrors.GetMessage(code)
	}
	write(c, apperrors.GetHTTPStatus(code), code, message, nil)
}

func write(c *gin.Context, status, code int, message string, data interface{}) {
	if data == nil {
		data = struct{}{}
	}
	c.JSON(status, Response{Code: code, Message: message, Data: data})
}
