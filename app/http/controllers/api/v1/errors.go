// Package v1 holds what the version 1 controllers share.
package v1

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"spinwheel/app/requests"
	"spinwheel/app/services"
	"spinwheel/pkg/response"
)

// StatusFor maps a service error to its HTTP status. 0 means unexpected.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrNoSpinsAvailable),
		errors.Is(err, services.ErrDuplicateTransaction),
		errors.Is(err, services.ErrShareTaskCooldown):
		return http.StatusConflict
	case errors.Is(err, services.ErrTransactionVerificationFailed),
		errors.Is(err, services.ErrUnknownPack),
		errors.Is(err, services.ErrInvalidWallet),
		errors.Is(err, services.ErrInvalidTxHash):
		return http.StatusUnprocessableEntity
	case errors.Is(err, services.ErrUserNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrTransferSubmissionFailed):
		return http.StatusBadGateway
	}
	return 0
}

// Fail writes err with its mapped status; unexpected errors are logged and
// answered with 500.
func Fail(c *gin.Context, err error, data interface{}) {
	var verr requests.ValidationError
	if errors.As(err, &verr) {
		response.ValidationError(c, verr.Errors)
		return
	}
	if status := StatusFor(err); status != 0 {
		response.Fail(c, status, err, data)
		return
	}
	response.ServerError(c, err)
}

// Invalid answers a request that could not be bound or validated.
func Invalid(c *gin.Context, err error) {
	var verr requests.ValidationError
	if errors.As(err, &verr) {
		response.ValidationError(c, verr.Errors)
		return
	}
	response.BadRequest(c, err)
}
