package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/quincena/quincena-backend/internal/domain"
	"github.com/quincena/quincena-backend/internal/service"
)

// PaymentHandler handles payment-related HTTP requests
type PaymentHandler struct {
	paymentService *service.PaymentService
}

// NewPaymentHandler creates a new PaymentHandler
func NewPaymentHandler(paymentService *service.PaymentService) *PaymentHandler {
	return &PaymentHandler{paymentService: paymentService}
}

// PaymentRequest represents the create/update payment request body
type PaymentRequest struct {
	LoanID        string  `json:"loanId"`
	PaymentDate   string  `json:"paymentDate"`
	InterestPaid  string  `json:"interestPaid"`
	CapitalPaid   string  `json:"capitalPaid"`
	PaymentMethod *string `json:"paymentMethod,omitempty"`
	Notes         *string `json:"notes,omitempty"`
}

// PaymentResponse represents a payment in API responses
type PaymentResponse struct {
	ID            string  `json:"id"`
	LoanID        string  `json:"loanId"`
	PaymentDate   string  `json:"paymentDate"`
	InterestPaid  string  `json:"interestPaid"`
	CapitalPaid   string  `json:"capitalPaid"`
	PaymentMethod *string `json:"paymentMethod,omitempty"`
	Notes         *string `json:"notes,omitempty"`
	CreatedAt     string  `json:"createdAt"`
}

// PaymentWithNamesResponse adds the customer and investor names
type PaymentWithNamesResponse struct {
	PaymentResponse
	CustomerName string `json:"customerName"`
	InvestorName string `json:"investorName"`
}

// PaymentListResponse is the paginated payment listing
type PaymentListResponse struct {
	Payments []PaymentWithNamesResponse `json:"payments"`
	Total    int                        `json:"total"`
}

func toPaymentResponse(payment *domain.Payment) PaymentResponse {
	resp := PaymentResponse{
		ID:           payment.ID.String(),
		LoanID:       payment.LoanID.String(),
		PaymentDate:  payment.PaymentDate.Format(dateLayout),
		InterestPaid: payment.InterestPaid.StringFixed(2),
		CapitalPaid:  payment.CapitalPaid.StringFixed(2),
		Notes:        payment.Notes,
		CreatedAt:    payment.CreatedAt.Format(timeLayout),
	}
	if payment.PaymentMethod != nil {
		method := string(*payment.PaymentMethod)
		resp.PaymentMethod = &method
	}
	return resp
}

func toPaymentWithNamesResponse(payment *domain.PaymentWithNames) PaymentWithNamesResponse {
	return PaymentWithNamesResponse{
		PaymentResponse: toPaymentResponse(&payment.Payment),
		CustomerName:    payment.CustomerName,
		InvestorName:    payment.InvestorName,
	}
}

func (h *PaymentHandler) bindInput(c echo.Context) (service.PaymentInput, error) {
	var req PaymentRequest
	if err := c.Bind(&req); err != nil {
		return service.PaymentInput{}, NewValidationError(c, "Invalid request body", nil)
	}

	loanID, err := uuid.Parse(req.LoanID)
	if err != nil {
		return service.PaymentInput{}, NewValidationError(c, "Invalid loan ID", []ValidationError{
			{Field: "loanId", Message: "Must be a valid UUID"},
		})
	}
	paymentDate, err := time.Parse(dateLayout, req.PaymentDate)
	if err != nil {
		return service.PaymentInput{}, NewValidationError(c, "Invalid payment date", []ValidationError{
			{Field: "paymentDate", Message: "Must be in YYYY-MM-DD format"},
		})
	}
	interest, err := decimal.NewFromString(req.InterestPaid)
	if err != nil {
		return service.PaymentInput{}, NewValidationError(c, "Invalid interest amount", []ValidationError{
			{Field: "interestPaid", Message: "Must be a valid decimal number"},
		})
	}
	capital, err := decimal.NewFromString(req.CapitalPaid)
	if err != nil {
		return service.PaymentInput{}, NewValidationError(c, "Invalid capital amount", []ValidationError{
			{Field: "capitalPaid", Message: "Must be a valid decimal number"},
		})
	}
	method, err := parseMethod(req.PaymentMethod)
	if err != nil {
		return service.PaymentInput{}, NewValidationError(c, "Invalid payment method", []ValidationError{
			{Field: "paymentMethod", Message: "Must be one of TJ, TM, T, EFECTIVO"},
		})
	}

	return service.PaymentInput{
		LoanID:        loanID,
		PaymentDate:   paymentDate,
		InterestPaid:  interest,
		CapitalPaid:   capital,
		PaymentMethod: method,
		Notes:         req.Notes,
	}, nil
}

// paymentServiceError maps service errors to HTTP responses
func paymentServiceError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, domain.ErrLoanNotFound):
		return NewNotFoundError(c, "Loan not found")
	case errors.Is(err, domain.ErrPaymentNotFound):
		return NewNotFoundError(c, "Payment not found")
	case errors.Is(err, domain.ErrPaymentLoanRequired):
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "loanId", Message: "Loan is required"},
		})
	case errors.Is(err, domain.ErrPaymentDateRequired):
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "paymentDate", Message: "Payment date is required"},
		})
	case errors.Is(err, domain.ErrPaymentAmountsInvalid):
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "interestPaid", Message: "Amounts must be non-negative and at least one positive"},
		})
	default:
		log.Error().Err(err).Msg("Payment operation failed")
		return NewInternalError(c, "Payment operation failed")
	}
}

// CreatePayment handles POST /api/payments
func (h *PaymentHandler) CreatePayment(c echo.Context) error {
	input, err := h.bindInput(c)
	if err != nil {
		return err
	}

	payment, err := h.paymentService.CreatePayment(input)
	if err != nil {
		return paymentServiceError(c, err)
	}

	log.Info().
		Str("payment_id", payment.ID.String()).
		Str("loan_id", payment.LoanID.String()).
		Msg("Payment recorded")

	return c.JSON(http.StatusCreated, toPaymentResponse(payment))
}

// GetPayments handles GET /api/payments
func (h *PaymentHandler) GetPayments(c echo.Context) error {
	loanID, err := parseUUIDQuery(c, "loanId")
	if err != nil {
		return NewValidationError(c, "Invalid loan ID filter", nil)
	}
	customerID, err := parseUUIDQuery(c, "customerId")
	if err != nil {
		return NewValidationError(c, "Invalid customer ID filter", nil)
	}
	investorID, err := parseUUIDQuery(c, "investorId")
	if err != nil {
		return NewValidationError(c, "Invalid investor ID filter", nil)
	}
	startDate, err := parseDateQuery(c, "startDate")
	if err != nil {
		return NewValidationError(c, "Invalid start date", nil)
	}
	endDate, err := parseDateQuery(c, "endDate")
	if err != nil {
		return NewValidationError(c, "Invalid end date", nil)
	}
	page, pageSize := parsePagination(c)

	payments, total, err := h.paymentService.ListPayments(domain.PaymentFilter{
		Search:     c.QueryParam("search"),
		LoanID:     loanID,
		CustomerID: customerID,
		InvestorID: investorID,
		StartDate:  startDate,
		EndDate:    endDate,
		Page:       page,
		PageSize:   pageSize,
	})
	if err != nil {
		log.Error().Err(err).Msg("Failed to list payments")
		return NewInternalError(c, "Failed to list payments")
	}

	resp := PaymentListResponse{
		Payments: make([]PaymentWithNamesResponse, 0, len(payments)),
		Total:    total,
	}
	for _, payment := range payments {
		resp.Payments = append(resp.Payments, toPaymentWithNamesResponse(payment))
	}
	return c.JSON(http.StatusOK, resp)
}

// GetPayment handles GET /api/payments/:id
func (h *PaymentHandler) GetPayment(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return NewValidationError(c, "Invalid payment ID", nil)
	}

	payment, err := h.paymentService.GetPayment(id)
	if err != nil {
		return paymentServiceError(c, err)
	}
	return c.JSON(http.StatusOK, toPaymentResponse(payment))
}

// GetLoanPayments handles GET /api/payments/loan/:loanId
func (h *PaymentHandler) GetLoanPayments(c echo.Context) error {
	loanID, err := parseIDParam(c, "loanId")
	if err != nil {
		return NewValidationError(c, "Invalid loan ID", nil)
	}

	payments, err := h.paymentService.ListLoanPayments(loanID)
	if err != nil {
		return paymentServiceError(c, err)
	}

	resp := make([]PaymentResponse, 0, len(payments))
	for _, payment := range payments {
		resp = append(resp, toPaymentResponse(payment))
	}
	return c.JSON(http.StatusOK, resp)
}

// UpdatePayment handles PUT /api/payments/:id
func (h *PaymentHandler) UpdatePayment(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return NewValidationError(c, "Invalid payment ID", nil)
	}

	input, err := h.bindInput(c)
	if err != nil {
		return err
	}

	payment, err := h.paymentService.UpdatePayment(id, input)
	if err != nil {
		return paymentServiceError(c, err)
	}

	log.Info().Str("payment_id", id.String()).Msg("Payment amended")

	return c.JSON(http.StatusOK, toPaymentResponse(payment))
}

// DeletePayment handles DELETE /api/payments/:id
func (h *PaymentHandler) DeletePayment(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return NewValidationError(c, "Invalid payment ID", nil)
	}

	if err := h.paymentService.DeletePayment(id); err != nil {
		return paymentServiceError(c, err)
	}

	log.Info().Str("payment_id", id.String()).Msg("Payment deleted")

	return c.NoContent(http.StatusNoContent)
}
