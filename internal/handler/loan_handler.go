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

// LoanHandler handles loan-related HTTP requests
type LoanHandler struct {
	loanService *service.LoanService
}

// NewLoanHandler creates a new LoanHandler
func NewLoanHandler(loanService *service.LoanService) *LoanHandler {
	return &LoanHandler{loanService: loanService}
}

// CreateLoanRequest represents the create loan request body
type CreateLoanRequest struct {
	CustomerID     string  `json:"customerId"`
	InvestorID     string  `json:"investorId"`
	OriginalAmount string  `json:"originalAmount"`
	LoanDate       string  `json:"loanDate"`
	PaymentMethod  *string `json:"paymentMethod,omitempty"`
	Notes          *string `json:"notes,omitempty"`
}

// UpdateLoanRequest represents the update loan request body.
// Amounts are locked after creation; corrections go through payments.
type UpdateLoanRequest struct {
	LoanDate      string  `json:"loanDate"`
	PaymentMethod *string `json:"paymentMethod,omitempty"`
	Notes         *string `json:"notes,omitempty"`
}

// LoanResponse represents a loan in API responses
type LoanResponse struct {
	ID             string  `json:"id"`
	CustomerID     string  `json:"customerId"`
	InvestorID     string  `json:"investorId"`
	OriginalAmount string  `json:"originalAmount"`
	CurrentBalance string  `json:"currentBalance"`
	LoanDate       string  `json:"loanDate"`
	PaymentMethod  *string `json:"paymentMethod,omitempty"`
	Notes          *string `json:"notes,omitempty"`
	IsSettled      bool    `json:"isSettled"`
	SettledAt      *string `json:"settledAt,omitempty"`
	CreatedAt      string  `json:"createdAt"`
}

// LoanWithStatsResponse represents a loan with payment totals in listings
type LoanWithStatsResponse struct {
	LoanResponse
	CustomerName      string `json:"customerName"`
	InvestorName      string `json:"investorName"`
	TotalPaidInterest string `json:"totalPaidInterest"`
	TotalPaidCapital  string `json:"totalPaidCapital"`
}

// LoanDetailResponse represents a loan with its journal and derived figures
type LoanDetailResponse struct {
	Loan             LoanResponse      `json:"loan"`
	Payments         []PaymentResponse `json:"payments"`
	ExpectedInterest string            `json:"expectedInterest"`
	TotalInterest    string            `json:"totalInterest"`
	TotalCapital     string            `json:"totalCapital"`
	CurrentCycle     CycleResponse     `json:"currentCycle"`
}

// CycleResponse describes the semi-monthly billing period the expected
// interest applies to
type CycleResponse struct {
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
	Label     string `json:"label"`
}

// LoanListResponse is the paginated loan listing
type LoanListResponse struct {
	Loans []LoanWithStatsResponse `json:"loans"`
	Total int                     `json:"total"`
}

func toLoanResponse(loan *domain.Loan) LoanResponse {
	resp := LoanResponse{
		ID:             loan.ID.String(),
		CustomerID:     loan.CustomerID.String(),
		InvestorID:     loan.InvestorID.String(),
		OriginalAmount: loan.OriginalAmount.StringFixed(2),
		CurrentBalance: loan.CurrentBalance.StringFixed(2),
		LoanDate:       loan.LoanDate.Format(dateLayout),
		Notes:          loan.Notes,
		IsSettled:      loan.IsSettled,
		CreatedAt:      loan.CreatedAt.Format(timeLayout),
	}
	if loan.PaymentMethod != nil {
		method := string(*loan.PaymentMethod)
		resp.PaymentMethod = &method
	}
	if loan.SettledAt != nil {
		settledAt := loan.SettledAt.Format(timeLayout)
		resp.SettledAt = &settledAt
	}
	return resp
}

func toLoanWithStatsResponse(loan *domain.LoanWithStats) LoanWithStatsResponse {
	return LoanWithStatsResponse{
		LoanResponse:      toLoanResponse(&loan.Loan),
		CustomerName:      loan.CustomerName,
		InvestorName:      loan.InvestorName,
		TotalPaidInterest: loan.TotalPaidInterest.StringFixed(2),
		TotalPaidCapital:  loan.TotalPaidCapital.StringFixed(2),
	}
}

// parseMethod validates an optional payment method string
func parseMethod(method *string) (*domain.PaymentMethod, error) {
	if method == nil || *method == "" {
		return nil, nil
	}
	m := domain.PaymentMethod(*method)
	if !m.Valid() {
		return nil, domain.ErrInvalidInput
	}
	return &m, nil
}

// CreateLoan handles POST /api/loans
func (h *LoanHandler) CreateLoan(c echo.Context) error {
	var req CreateLoanRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	customerID, err := uuid.Parse(req.CustomerID)
	if err != nil {
		return NewValidationError(c, "Invalid customer ID", []ValidationError{
			{Field: "customerId", Message: "Must be a valid UUID"},
		})
	}
	investorID, err := uuid.Parse(req.InvestorID)
	if err != nil {
		return NewValidationError(c, "Invalid investor ID", []ValidationError{
			{Field: "investorId", Message: "Must be a valid UUID"},
		})
	}
	amount, err := decimal.NewFromString(req.OriginalAmount)
	if err != nil {
		return NewValidationError(c, "Invalid amount", []ValidationError{
			{Field: "originalAmount", Message: "Must be a valid decimal number"},
		})
	}
	loanDate, err := time.Parse(dateLayout, req.LoanDate)
	if err != nil {
		return NewValidationError(c, "Invalid loan date", []ValidationError{
			{Field: "loanDate", Message: "Must be in YYYY-MM-DD format"},
		})
	}
	method, err := parseMethod(req.PaymentMethod)
	if err != nil {
		return NewValidationError(c, "Invalid payment method", []ValidationError{
			{Field: "paymentMethod", Message: "Must be one of TJ, TM, T, EFECTIVO"},
		})
	}

	loan, err := h.loanService.CreateLoan(service.CreateLoanInput{
		CustomerID:     customerID,
		InvestorID:     investorID,
		OriginalAmount: amount,
		LoanDate:       loanDate,
		PaymentMethod:  method,
		Notes:          req.Notes,
	})
	if err != nil {
		if errors.Is(err, domain.ErrLoanCustomerInvalid) {
			return NewValidationError(c, "Validation failed", []ValidationError{
				{Field: "customerId", Message: "Unknown customer"},
			})
		}
		if errors.Is(err, domain.ErrLoanInvestorInvalid) {
			return NewValidationError(c, "Validation failed", []ValidationError{
				{Field: "investorId", Message: "Unknown investor"},
			})
		}
		if errors.Is(err, domain.ErrLoanAmountInvalid) {
			return NewValidationError(c, "Validation failed", []ValidationError{
				{Field: "originalAmount", Message: "Amount must be positive"},
			})
		}
		log.Error().Err(err).Msg("Failed to create loan")
		return NewInternalError(c, "Failed to create loan")
	}

	log.Info().
		Str("loan_id", loan.ID.String()).
		Str("amount", loan.OriginalAmount.StringFixed(2)).
		Msg("Loan created")

	return c.JSON(http.StatusCreated, toLoanResponse(loan))
}

// GetLoans handles GET /api/loans
func (h *LoanHandler) GetLoans(c echo.Context) error {
	customerID, err := parseUUIDQuery(c, "customerId")
	if err != nil {
		return NewValidationError(c, "Invalid customer ID filter", nil)
	}
	investorID, err := parseUUIDQuery(c, "investorId")
	if err != nil {
		return NewValidationError(c, "Invalid investor ID filter", nil)
	}
	isSettled, err := parseBoolQuery(c, "isSettled")
	if err != nil {
		return NewValidationError(c, "Invalid isSettled filter", nil)
	}
	page, pageSize := parsePagination(c)

	loans, total, err := h.loanService.ListLoans(domain.LoanFilter{
		Search:     c.QueryParam("search"),
		CustomerID: customerID,
		InvestorID: investorID,
		IsSettled:  isSettled,
		Page:       page,
		PageSize:   pageSize,
	})
	if err != nil {
		log.Error().Err(err).Msg("Failed to list loans")
		return NewInternalError(c, "Failed to list loans")
	}

	resp := LoanListResponse{
		Loans: make([]LoanWithStatsResponse, 0, len(loans)),
		Total: total,
	}
	for _, loan := range loans {
		resp.Loans = append(resp.Loans, toLoanWithStatsResponse(loan))
	}
	return c.JSON(http.StatusOK, resp)
}

// GetLoan handles GET /api/loans/:id
func (h *LoanHandler) GetLoan(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return NewValidationError(c, "Invalid loan ID", nil)
	}

	detail, err := h.loanService.GetLoan(id)
	if err != nil {
		if errors.Is(err, domain.ErrLoanNotFound) {
			return NewNotFoundError(c, "Loan not found")
		}
		if errors.Is(err, domain.ErrBalanceMismatch) {
			return NewInternalError(c, "Loan balance does not match its payment journal")
		}
		log.Error().Err(err).Str("loan_id", id.String()).Msg("Failed to load loan")
		return NewInternalError(c, "Failed to load loan")
	}

	resp := LoanDetailResponse{
		Loan:             toLoanResponse(detail.Loan),
		Payments:         make([]PaymentResponse, 0, len(detail.Payments)),
		ExpectedInterest: detail.ExpectedInterest.StringFixed(2),
		TotalInterest:    detail.TotalInterest.StringFixed(2),
		TotalCapital:     detail.TotalCapital.StringFixed(2),
		CurrentCycle: CycleResponse{
			StartDate: detail.CurrentCycle.StartDate.Format(dateLayout),
			EndDate:   detail.CurrentCycle.EndDate.Format(dateLayout),
			Label:     detail.CurrentCycle.Label,
		},
	}
	for _, payment := range detail.Payments {
		resp.Payments = append(resp.Payments, toPaymentResponse(payment))
	}
	return c.JSON(http.StatusOK, resp)
}

// UpdateLoan handles PUT /api/loans/:id
func (h *LoanHandler) UpdateLoan(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return NewValidationError(c, "Invalid loan ID", nil)
	}

	var req UpdateLoanRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	loanDate, err := time.Parse(dateLayout, req.LoanDate)
	if err != nil {
		return NewValidationError(c, "Invalid loan date", []ValidationError{
			{Field: "loanDate", Message: "Must be in YYYY-MM-DD format"},
		})
	}
	method, err := parseMethod(req.PaymentMethod)
	if err != nil {
		return NewValidationError(c, "Invalid payment method", []ValidationError{
			{Field: "paymentMethod", Message: "Must be one of TJ, TM, T, EFECTIVO"},
		})
	}

	loan, err := h.loanService.UpdateLoan(id, service.UpdateLoanInput{
		LoanDate:      loanDate,
		PaymentMethod: method,
		Notes:         req.Notes,
	})
	if err != nil {
		if errors.Is(err, domain.ErrLoanNotFound) {
			return NewNotFoundError(c, "Loan not found")
		}
		log.Error().Err(err).Str("loan_id", id.String()).Msg("Failed to update loan")
		return NewInternalError(c, "Failed to update loan")
	}
	return c.JSON(http.StatusOK, toLoanResponse(loan))
}

// SettleLoan handles PATCH /api/loans/:id/settle
func (h *LoanHandler) SettleLoan(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return NewValidationError(c, "Invalid loan ID", nil)
	}

	loan, err := h.loanService.SettleLoan(id)
	if err != nil {
		if errors.Is(err, domain.ErrLoanNotFound) {
			return NewNotFoundError(c, "Loan not found")
		}
		if errors.Is(err, domain.ErrLoanAlreadySettled) {
			return NewConflictError(c, "Loan is already settled")
		}
		log.Error().Err(err).Str("loan_id", id.String()).Msg("Failed to settle loan")
		return NewInternalError(c, "Failed to settle loan")
	}

	log.Info().Str("loan_id", id.String()).Msg("Loan settled")

	return c.JSON(http.StatusOK, toLoanResponse(loan))
}

// ReopenLoan handles PATCH /api/loans/:id/reopen
func (h *LoanHandler) ReopenLoan(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return NewValidationError(c, "Invalid loan ID", nil)
	}

	loan, err := h.loanService.ReopenLoan(id)
	if err != nil {
		if errors.Is(err, domain.ErrLoanNotFound) {
			return NewNotFoundError(c, "Loan not found")
		}
		if errors.Is(err, domain.ErrLoanNotSettled) {
			return NewConflictError(c, "Loan is not settled")
		}
		log.Error().Err(err).Str("loan_id", id.String()).Msg("Failed to reopen loan")
		return NewInternalError(c, "Failed to reopen loan")
	}

	log.Info().Str("loan_id", id.String()).Msg("Loan reopened")

	return c.JSON(http.StatusOK, toLoanResponse(loan))
}

// RecomputeBalance handles POST /api/loans/:id/recompute-balance
func (h *LoanHandler) RecomputeBalance(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return NewValidationError(c, "Invalid loan ID", nil)
	}

	loan, err := h.loanService.RecomputeBalance(id)
	if err != nil {
		if errors.Is(err, domain.ErrLoanNotFound) {
			return NewNotFoundError(c, "Loan not found")
		}
		log.Error().Err(err).Str("loan_id", id.String()).Msg("Failed to recompute balance")
		return NewInternalError(c, "Failed to recompute balance")
	}
	return c.JSON(http.StatusOK, toLoanResponse(loan))
}
