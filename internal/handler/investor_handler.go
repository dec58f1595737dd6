package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/quincena/quincena-backend/internal/domain"
	"github.com/quincena/quincena-backend/internal/service"
)

// InvestorHandler handles investor-related HTTP requests
type InvestorHandler struct {
	investorService *service.InvestorService
}

// NewInvestorHandler creates a new InvestorHandler
func NewInvestorHandler(investorService *service.InvestorService) *InvestorHandler {
	return &InvestorHandler{investorService: investorService}
}

// InvestorRequest represents the create/update investor request body
type InvestorRequest struct {
	Name             string `json:"name"`
	ProfitPercentage string `json:"profitPercentage"`
	IsActive         *bool  `json:"isActive,omitempty"`
}

// InvestorResponse represents an investor in API responses
type InvestorResponse struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	ProfitPercentage string `json:"profitPercentage"`
	IsActive         bool   `json:"isActive"`
	CreatedAt        string `json:"createdAt"`
}

// InvestorWithStatsResponse represents an investor with loan statistics
type InvestorWithStatsResponse struct {
	InvestorResponse
	ActiveLoansCount int    `json:"activeLoansCount"`
	TotalInvested    string `json:"totalInvested"`
}

// InvestorListResponse is the paginated investor listing
type InvestorListResponse struct {
	Investors []InvestorWithStatsResponse `json:"investors"`
	Total     int                         `json:"total"`
}

func toInvestorResponse(investor *domain.Investor) InvestorResponse {
	return InvestorResponse{
		ID:               investor.ID.String(),
		Name:             investor.Name,
		ProfitPercentage: investor.ProfitPercentage.StringFixed(2),
		IsActive:         investor.IsActive,
		CreatedAt:        investor.CreatedAt.Format(timeLayout),
	}
}

func toInvestorWithStatsResponse(investor *domain.InvestorWithStats) InvestorWithStatsResponse {
	return InvestorWithStatsResponse{
		InvestorResponse: toInvestorResponse(&investor.Investor),
		ActiveLoansCount: investor.ActiveLoansCount,
		TotalInvested:    investor.TotalInvested.StringFixed(2),
	}
}

func (h *InvestorHandler) bindInput(c echo.Context) (service.InvestorInput, error) {
	var req InvestorRequest
	if err := c.Bind(&req); err != nil {
		return service.InvestorInput{}, NewValidationError(c, "Invalid request body", nil)
	}

	pct, err := decimal.NewFromString(req.ProfitPercentage)
	if err != nil {
		return service.InvestorInput{}, NewValidationError(c, "Invalid profit percentage", []ValidationError{
			{Field: "profitPercentage", Message: "Must be a valid decimal number"},
		})
	}

	return service.InvestorInput{
		Name:             req.Name,
		ProfitPercentage: pct,
		IsActive:         req.IsActive,
	}, nil
}

// CreateInvestor handles POST /api/investors
func (h *InvestorHandler) CreateInvestor(c echo.Context) error {
	input, err := h.bindInput(c)
	if err != nil {
		return err
	}

	investor, err := h.investorService.CreateInvestor(input)
	if err != nil {
		if errors.Is(err, domain.ErrNameRequired) || errors.Is(err, domain.ErrNameTooLong) {
			return NewValidationError(c, "Validation failed", []ValidationError{
				{Field: "name", Message: err.Error()},
			})
		}
		if errors.Is(err, domain.ErrProfitPercentageInvalid) {
			return NewValidationError(c, "Validation failed", []ValidationError{
				{Field: "profitPercentage", Message: "Must be between 0 and 100"},
			})
		}
		log.Error().Err(err).Msg("Failed to create investor")
		return NewInternalError(c, "Failed to create investor")
	}

	log.Info().Str("investor_id", investor.ID.String()).Str("name", investor.Name).Msg("Investor created")

	return c.JSON(http.StatusCreated, toInvestorResponse(investor))
}

// GetInvestors handles GET /api/investors
func (h *InvestorHandler) GetInvestors(c echo.Context) error {
	isActive, err := parseBoolQuery(c, "isActive")
	if err != nil {
		return NewValidationError(c, "Invalid isActive filter", nil)
	}
	page, pageSize := parsePagination(c)

	investors, total, err := h.investorService.ListInvestors(domain.InvestorFilter{
		Search:   c.QueryParam("search"),
		IsActive: isActive,
		Page:     page,
		PageSize: pageSize,
	})
	if err != nil {
		log.Error().Err(err).Msg("Failed to list investors")
		return NewInternalError(c, "Failed to list investors")
	}

	resp := InvestorListResponse{
		Investors: make([]InvestorWithStatsResponse, 0, len(investors)),
		Total:     total,
	}
	for _, investor := range investors {
		resp.Investors = append(resp.Investors, toInvestorWithStatsResponse(investor))
	}
	return c.JSON(http.StatusOK, resp)
}

// GetInvestor handles GET /api/investors/:id
func (h *InvestorHandler) GetInvestor(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return NewValidationError(c, "Invalid investor ID", nil)
	}

	investor, err := h.investorService.GetInvestor(id)
	if err != nil {
		if errors.Is(err, domain.ErrInvestorNotFound) {
			return NewNotFoundError(c, "Investor not found")
		}
		log.Error().Err(err).Str("investor_id", id.String()).Msg("Failed to load investor")
		return NewInternalError(c, "Failed to load investor")
	}
	return c.JSON(http.StatusOK, toInvestorResponse(investor))
}

// GetInvestorLoans handles GET /api/investors/:id/loans
func (h *InvestorHandler) GetInvestorLoans(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return NewValidationError(c, "Invalid investor ID", nil)
	}

	loans, err := h.investorService.GetInvestorLoans(id)
	if err != nil {
		if errors.Is(err, domain.ErrInvestorNotFound) {
			return NewNotFoundError(c, "Investor not found")
		}
		log.Error().Err(err).Str("investor_id", id.String()).Msg("Failed to list investor loans")
		return NewInternalError(c, "Failed to list investor loans")
	}

	resp := make([]LoanResponse, 0, len(loans))
	for _, loan := range loans {
		resp = append(resp, toLoanResponse(loan))
	}
	return c.JSON(http.StatusOK, resp)
}

// UpdateInvestor handles PUT /api/investors/:id
func (h *InvestorHandler) UpdateInvestor(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return NewValidationError(c, "Invalid investor ID", nil)
	}

	input, err := h.bindInput(c)
	if err != nil {
		return err
	}

	investor, err := h.investorService.UpdateInvestor(id, input)
	if err != nil {
		if errors.Is(err, domain.ErrInvestorNotFound) {
			return NewNotFoundError(c, "Investor not found")
		}
		if errors.Is(err, domain.ErrNameRequired) || errors.Is(err, domain.ErrNameTooLong) {
			return NewValidationError(c, "Validation failed", []ValidationError{
				{Field: "name", Message: err.Error()},
			})
		}
		if errors.Is(err, domain.ErrProfitPercentageInvalid) {
			return NewValidationError(c, "Validation failed", []ValidationError{
				{Field: "profitPercentage", Message: "Must be between 0 and 100"},
			})
		}
		log.Error().Err(err).Str("investor_id", id.String()).Msg("Failed to update investor")
		return NewInternalError(c, "Failed to update investor")
	}
	return c.JSON(http.StatusOK, toInvestorResponse(investor))
}
