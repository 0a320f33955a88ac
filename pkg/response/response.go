// Package response writes the JSON envelope shared by every endpoint.
package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"spinwheel/pkg/logger"
)

const (
	Success = "success"
	Error   = "error"
)

/* Envelope
{
    "status": "success",
    "data": {},
    "error": "",
    "message": "",
}
*/

// Response is the envelope of every JSON reply.
type Response struct {
	Status  string      `json:"status"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
	Message string      `json:"message,omitempty"`
}

// Data responds 200 with data.
func Data(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Status: Success,
		Data:   data,
	})
}

// JSON responds 200 with data as is.
func JSON(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, data)
}

// Created responds 201.
func Created(c *gin.Context, data interface{}, msg ...string) {
	c.JSON(http.StatusCreated, Response{
		Status:  Success,
		Data:    data,
		Message: getMsg("created", msg...),
	})
}

func Abort400(c *gin.Context, msg ...string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, Response{
		Status:  Error,
		Message: getMsg("bad request", msg...),
	})
}

func Abort401(c *gin.Context, msg ...string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, Response{
		Status:  Error,
		Message: getMsg("unauthorized", msg...),
	})
}

func Abort404(c *gin.Context, msg ...string) {
	c.AbortWithStatusJSON(http.StatusNotFound, Response{
		Status:  Error,
		Message: getMsg("not found", msg...),
	})
}

func Abort429(c *gin.Context, msg ...string) {
	c.AbortWithStatusJSON(http.StatusTooManyRequests, Response{
		Status:  Error,
		Message: getMsg("too many requests, slow down", msg...),
		Error:   "Too Many Requests",
	})
}

func Abort500(c *gin.Context, msg ...string) {
	c.AbortWithStatusJSON(http.StatusInternalServerError, Response{
		Status:  Error,
		Message: getMsg("internal server error", msg...),
	})
}

// BadRequest responds 400 with err.
func BadRequest(c *gin.Context, err error, msg ...string) {
	logger.LogIf(err)
	c.AbortWithStatusJSON(http.StatusBadRequest, Response{
		Status:  Error,
		Message: getMsg("malformed request", msg...),
		Error:   err.Error(),
	})
}

// Fail responds status with err, optionally carrying data.
func Fail(c *gin.Context, status int, err error, data interface{}, msg ...string) {
	c.AbortWithStatusJSON(status, Response{
		Status:  Error,
		Data:    data,
		Message: getMsg(http.StatusText(status), msg...),
		Error:   err.Error(),
	})
}

// ServerError responds 500 and logs err.
func ServerError(c *gin.Context, err error, msg ...string) {
	logger.LogIf(err)
	c.AbortWithStatusJSON(http.StatusInternalServerError, Response{
		Status:  Error,
		Message: getMsg("internal server error", msg...),
	})
}

// ValidationError responds 422 with the failing fields.
func ValidationError(c *gin.Context, errors map[string][]string) {
	c.AbortWithStatusJSON(http.StatusUnprocessableEntity, Response{
		Status:  Error,
		Message: "validation failed",
		Data:    errors,
	})
}

func getMsg(defaultMsg string, msg ...string) string {
	if len(msg) > 0 {
		return msg[0]
	}
	return defaultMsg
}
