package httpapi

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/ritvika/paintshop/internal/common"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{common.ErrEmptyCart, http.StatusUnprocessableEntity},
		{fmt.Errorf("title is required: %w", common.ErrValidation), http.StatusUnprocessableEntity},
		{common.ErrNotFound, http.StatusNotFound},
		{fmt.Errorf("db error: %w", common.ErrNotFound), http.StatusNotFound},
		{common.ErrUnauthorized, http.StatusUnauthorized},
		{common.ErrRefreshTokenExpired, http.StatusUnauthorized},
		{common.ErrResetTokenExpired, http.StatusUnauthorized},
		{common.ErrForbidden, http.StatusForbidden},
		{common.ErrAlreadyExists, http.StatusConflict},
		{common.ErrCheckoutInProgress, http.StatusConflict},
		{common.ErrPaymentRejected, http.StatusPaymentRequired},
		{common.ErrChargeUnconfirmed, http.StatusGatewayTimeout},
		{errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		if got := statusFor(tt.err); got != tt.want {
			t.Errorf("statusFor(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}
