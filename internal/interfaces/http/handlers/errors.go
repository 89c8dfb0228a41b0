package handlers

import (
	stderrors "errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/orris-inc/coinpayable/internal/application/payment/blockchain"
	"github.com/orris-inc/coinpayable/internal/application/payment/exchangerate"
	"github.com/orris-inc/coinpayable/internal/domain/payment"
	"github.com/orris-inc/coinpayable/internal/shared/errors"
	"github.com/orris-inc/coinpayable/internal/shared/utils"
)

// toAppError maps payment engine errors onto AppError kinds. Unknown errors pass through.
func toAppError(err error) error {
	if errors.IsAppError(err) {
		return err
	}

	var transitionErr *payment.InvalidTransitionError
	var adapterErr *blockchain.AdapterError
	switch {
	case stderrors.As(err, &transitionErr):
		return errors.NewConflictError("payment cannot change state", transitionErr.Error())
	case stderrors.Is(err, payment.ErrAddressAlreadyAssigned):
		return errors.NewConflictError("payment address already assigned")
	case stderrors.As(err, &adapterErr):
		return errors.NewUpstreamError("blockchain api request failed", adapterErr.Error())
	case stderrors.Is(err, exchangerate.ErrConversionUnavailable):
		return errors.NewUnavailableError("conversion rate unavailable", err.Error())
	default:
		return err
	}
}

func respondError(c *gin.Context, err error) {
	utils.ErrorResponseWithError(c, toAppError(err))
}

// statusOf is the HTTP status respondError would write for err
func statusOf(err error) int {
	if appErr := errors.GetAppError(toAppError(err)); appErr != nil {
		return appErr.Code
	}
	return http.StatusInternalServerError
}
