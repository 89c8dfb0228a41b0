package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/orris-inc/coinpayable/internal/application/payment/usecases"
	"github.com/orris-inc/coinpayable/internal/shared/errors"
	"github.com/orris-inc/coinpayable/internal/shared/logger"
	"github.com/orris-inc/coinpayable/internal/shared/utils"
)

type PaymentHandler struct {
	createPaymentUC  createPaymentUseCase
	getPaymentUC     getPaymentUseCase
	listPaymentsUC   listPaymentsUseCase
	refreshPaymentUC refreshPaymentUseCase
	compPaymentUC    compPaymentUseCase
	logger           logger.Interface
}

func NewPaymentHandler(
	createPaymentUC createPaymentUseCase,
	getPaymentUC getPaymentUseCase,
	listPaymentsUC listPaymentsUseCase,
	refreshPaymentUC refreshPaymentUseCase,
	compPaymentUC compPaymentUseCase,
	logger logger.Interface,
) *PaymentHandler {
	if err := RegisterBindingValidations(); err != nil {
		logger.Errorw("failed to register binding validations", "error", err)
	}
	return &PaymentHandler{
		createPaymentUC:  createPaymentUC,
		getPaymentUC:     getPaymentUC,
		listPaymentsUC:   listPaymentsUC,
		refreshPaymentUC: refreshPaymentUC,
		compPaymentUC:    compPaymentUC,
		logger:           logger,
	}
}

type CreatePaymentRequest struct {
	PayableType string `json:"payable_type" binding:"required,max=64"`
	PayableID   string `json:"payable_id" binding:"required,max=64"`
	CoinType    string `json:"coin_type" binding:"required,coin_type"`
	Price       int64  `json:"price" binding:"required,gt=0"`
	Currency    string `json:"currency" binding:"omitempty,len=3,alpha"`
	Reason      string `json:"reason" binding:"required,max=255"`
}

type RefreshPaymentRequest struct {
	// Rate overrides the stored conversion rate, in fiat cents per coin
	Rate string `json:"rate"`
}

// CreatePayment handles POST /api/payments
func (h *PaymentHandler) CreatePayment(c *gin.Context) {
	var req CreatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warnw("invalid create payment request", "error", err)
		utils.ErrorResponseWithError(c, utils.TranslateValidationError(err))
		return
	}

	result, err := h.createPaymentUC.Execute(c.Request.Context(), usecases.CreatePaymentCommand{
		PayableType: req.PayableType,
		PayableID:   req.PayableID,
		CoinType:    req.CoinType,
		Price:       req.Price,
		Currency:    req.Currency,
		Reason:      req.Reason,
	})
	if err != nil {
		h.logFailure("failed to create payment", err, "payable_type", req.PayableType, "payable_id", req.PayableID)
		respondError(c, err)
		return
	}

	utils.CreatedResponse(c, result, "payment created successfully")
}

// GetPayment handles GET /api/payments/:id
func (h *PaymentHandler) GetPayment(c *gin.Context) {
	paymentID, err := utils.ParseUintParam(c, "id", "payment")
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}
	h.get(c, usecases.GetPaymentQuery{ID: paymentID})
}

// GetPaymentByAddress handles GET /api/payments/address/:address
func (h *PaymentHandler) GetPaymentByAddress(c *gin.Context) {
	h.get(c, usecases.GetPaymentQuery{Address: c.Param("address")})
}

// GetPaymentByTransaction handles GET /api/payments/tx/:hash
func (h *PaymentHandler) GetPaymentByTransaction(c *gin.Context) {
	h.get(c, usecases.GetPaymentQuery{TransactionHash: c.Param("hash")})
}

func (h *PaymentHandler) get(c *gin.Context, query usecases.GetPaymentQuery) {
	result, err := h.getPaymentUC.Execute(c.Request.Context(), query)
	if err != nil {
		h.logFailure("failed to get payment", err)
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", result)
}

// ListPayments handles GET /api/payments?scope=unconfirmed|unpaid|stale
func (h *PaymentHandler) ListPayments(c *gin.Context) {
	result, err := h.listPaymentsUC.Execute(c.Request.Context(), usecases.ListPaymentsQuery{Scope: c.Query("scope")})
	if err != nil {
		h.logFailure("failed to list payments", err, "scope", c.Query("scope"))
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", result)
}

// RefreshPayment handles POST /api/payments/:id/refresh
func (h *PaymentHandler) RefreshPayment(c *gin.Context) {
	paymentID, err := utils.ParseUintParam(c, "id", "payment")
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	cmd := usecases.RefreshPaymentCommand{PaymentID: paymentID}

	// The body is optional
	var req RefreshPaymentRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.ErrorResponseWithError(c, utils.TranslateValidationError(err))
			return
		}
	}
	if raw := strings.TrimSpace(req.Rate); raw != "" {
		rate, err := decimal.NewFromString(raw)
		if err != nil || !rate.IsPositive() {
			utils.ErrorResponseWithError(c, errors.NewValidationError("rate must be a positive decimal"))
			return
		}
		cmd.Rate = &rate
	}

	result, err := h.refreshPaymentUC.Execute(c.Request.Context(), cmd)
	if err != nil {
		h.logFailure("failed to refresh payment", err, "payment_id", paymentID)
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "payment refreshed", result)
}

// CompPayment handles POST /api/payments/:id/comp
func (h *PaymentHandler) CompPayment(c *gin.Context) {
	paymentID, err := utils.ParseUintParam(c, "id", "payment")
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	result, err := h.compPaymentUC.Execute(c.Request.Context(), usecases.CompPaymentCommand{PaymentID: paymentID})
	if err != nil {
		h.logFailure("failed to comp payment", err, "payment_id", paymentID)
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "payment comped", result)
}

// logFailure logs client errors at warn and everything else at error
func (h *PaymentHandler) logFailure(msg string, err error, keysAndValues ...interface{}) {
	keysAndValues = append(keysAndValues, "error", err)
	if statusOf(err) < http.StatusInternalServerError {
		h.logger.Warnw(msg, keysAndValues...)
		return
	}
	h.logger.Errorw(msg, keysAndValues...)
}
