package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ritvika/paintshop/internal/common"
)

// statusFor maps domain sentinels onto HTTP status codes. Anything
// unrecognized is an internal error; its text never reaches the client.
func statusFor(err error) int {
	switch {
	case errors.Is(err, common.ErrValidation), errors.Is(err, common.ErrEmptyCart):
		return http.StatusUnprocessableEntity
	case errors.Is(err, common.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, common.ErrUnauthorized),
		errors.Is(err, common.ErrInvalidToken),
		errors.Is(err, common.ErrTokenExpired),
		errors.Is(err, common.ErrRefreshTokenExpired),
		errors.Is(err, common.ErrResetTokenExpired):
		return http.StatusUnauthorized
	case errors.Is(err, common.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, common.ErrAlreadyExists),
		errors.Is(err, common.ErrVersionConflict),
		errors.Is(err, common.ErrCheckoutInProgress):
		return http.StatusConflict
	case errors.Is(err, common.ErrPaymentRejected):
		return http.StatusPaymentRequired
	case errors.Is(err, common.ErrChargeUnconfirmed):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = "internal error"
	}
	c.AbortWithStatusJSON(status, gin.H{"error": msg})
}
