package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/quincena/quincena-backend/internal/domain"
	"github.com/quincena/quincena-backend/internal/service"
)

// CustomerHandler handles customer-related HTTP requests
type CustomerHandler struct {
	customerService *service.CustomerService
}

// NewCustomerHandler creates a new CustomerHandler
func NewCustomerHandler(customerService *service.CustomerService) *CustomerHandler {
	return &CustomerHandler{customerService: customerService}
}

// CustomerRequest represents the create/update customer request body
type CustomerRequest struct {
	Name  string  `json:"name"`
	Phone *string `json:"phone,omitempty"`
	Notes *string `json:"notes,omitempty"`
}

// CustomerResponse represents a customer in API responses
type CustomerResponse struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Phone     *string `json:"phone,omitempty"`
	Notes     *string `json:"notes,omitempty"`
	IsActive  bool    `json:"isActive"`
	CreatedAt string  `json:"createdAt"`
	UpdatedAt string  `json:"updatedAt"`
}

// CustomerWithStatsResponse represents a customer with loan statistics
type CustomerWithStatsResponse struct {
	CustomerResponse
	ActiveLoansCount int    `json:"activeLoansCount"`
	TotalOwed        string `json:"totalOwed"`
}

// CustomerListResponse is the paginated customer listing
type CustomerListResponse struct {
	Customers []CustomerWithStatsResponse `json:"customers"`
	Total     int                         `json:"total"`
}

func toCustomerResponse(customer *domain.Customer) CustomerResponse {
	return CustomerResponse{
		ID:        customer.ID.String(),
		Name:      customer.Name,
		Phone:     customer.Phone,
		Notes:     customer.Notes,
		IsActive:  customer.IsActive,
		CreatedAt: customer.CreatedAt.Format(timeLayout),
		UpdatedAt: customer.UpdatedAt.Format(timeLayout),
	}
}

func toCustomerWithStatsResponse(customer *domain.CustomerWithStats) CustomerWithStatsResponse {
	return CustomerWithStatsResponse{
		CustomerResponse: toCustomerResponse(&customer.Customer),
		ActiveLoansCount: customer.ActiveLoansCount,
		TotalOwed:        customer.TotalOwed.StringFixed(2),
	}
}

// CreateCustomer handles POST /api/customers
func (h *CustomerHandler) CreateCustomer(c echo.Context) error {
	var req CustomerRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	customer, err := h.customerService.CreateCustomer(service.CustomerInput{
		Name:  req.Name,
		Phone: req.Phone,
		Notes: req.Notes,
	})
	if err != nil {
		if errors.Is(err, domain.ErrNameRequired) || errors.Is(err, domain.ErrNameTooLong) {
			return NewValidationError(c, "Validation failed", []ValidationError{
				{Field: "name", Message: err.Error()},
			})
		}
		log.Error().Err(err).Msg("Failed to create customer")
		return NewInternalError(c, "Failed to create customer")
	}

	log.Info().Str("customer_id", customer.ID.String()).Str("name", customer.Name).Msg("Customer created")

	return c.JSON(http.StatusCreated, toCustomerResponse(customer))
}

// GetCustomers handles GET /api/customers
func (h *CustomerHandler) GetCustomers(c echo.Context) error {
	isActive, err := parseBoolQuery(c, "isActive")
	if err != nil {
		return NewValidationError(c, "Invalid isActive filter", nil)
	}
	page, pageSize := parsePagination(c)

	customers, total, err := h.customerService.ListCustomers(domain.CustomerFilter{
		Search:   c.QueryParam("search"),
		IsActive: isActive,
		Page:     page,
		PageSize: pageSize,
	})
	if err != nil {
		log.Error().Err(err).Msg("Failed to list customers")
		return NewInternalError(c, "Failed to list customers")
	}

	resp := CustomerListResponse{
		Customers: make([]CustomerWithStatsResponse, 0, len(customers)),
		Total:     total,
	}
	for _, customer := range customers {
		resp.Customers = append(resp.Customers, toCustomerWithStatsResponse(customer))
	}
	return c.JSON(http.StatusOK, resp)
}

// GetCustomer handles GET /api/customers/:id
func (h *CustomerHandler) GetCustomer(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return NewValidationError(c, "Invalid customer ID", nil)
	}

	customer, err := h.customerService.GetCustomer(id)
	if err != nil {
		if errors.Is(err, domain.ErrCustomerNotFound) {
			return NewNotFoundError(c, "Customer not found")
		}
		log.Error().Err(err).Str("customer_id", id.String()).Msg("Failed to load customer")
		return NewInternalError(c, "Failed to load customer")
	}
	return c.JSON(http.StatusOK, toCustomerResponse(customer))
}

// GetCustomerLoans handles GET /api/customers/:id/loans
func (h *CustomerHandler) GetCustomerLoans(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return NewValidationError(c, "Invalid customer ID", nil)
	}

	loans, err := h.customerService.GetCustomerLoans(id)
	if err != nil {
		if errors.Is(err, domain.ErrCustomerNotFound) {
			return NewNotFoundError(c, "Customer not found")
		}
		log.Error().Err(err).Str("customer_id", id.String()).Msg("Failed to list customer loans")
		return NewInternalError(c, "Failed to list customer loans")
	}

	resp := make([]LoanResponse, 0, len(loans))
	for _, loan := range loans {
		resp = append(resp, toLoanResponse(loan))
	}
	return c.JSON(http.StatusOK, resp)
}

// UpdateCustomer handles PUT /api/customers/:id
func (h *CustomerHandler) UpdateCustomer(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return NewValidationError(c, "Invalid customer ID", nil)
	}

	var req CustomerRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	customer, err := h.customerService.UpdateCustomer(id, service.CustomerInput{
		Name:  req.Name,
		Phone: req.Phone,
		Notes: req.Notes,
	})
	if err != nil {
		if errors.Is(err, domain.ErrCustomerNotFound) {
			return NewNotFoundError(c, "Customer not found")
		}
		if errors.Is(err, domain.ErrNameRequired) || errors.Is(err, domain.ErrNameTooLong) {
			return NewValidationError(c, "Validation failed", []ValidationError{
				{Field: "name", Message: err.Error()},
			})
		}
		log.Error().Err(err).Str("customer_id", id.String()).Msg("Failed to update customer")
		return NewInternalError(c, "Failed to update customer")
	}
	return c.JSON(http.StatusOK, toCustomerResponse(customer))
}

// ActivateCustomer handles PATCH /api/customers/:id/activate
func (h *CustomerHandler) ActivateCustomer(c echo.Context) error {
	return h.setActive(c, true)
}

// DeactivateCustomer handles PATCH /api/customers/:id/deactivate
func (h *CustomerHandler) DeactivateCustomer(c echo.Context) error {
	return h.setActive(c, false)
}

func (h *CustomerHandler) setActive(c echo.Context, active bool) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return NewValidationError(c, "Invalid customer ID", nil)
	}

	customer, err := h.customerService.SetCustomerActive(id, active)
	if err != nil {
		if errors.Is(err, domain.ErrCustomerNotFound) {
			return NewNotFoundError(c, "Customer not found")
		}
		log.Error().Err(err).Str("customer_id", id.String()).Bool("active", active).Msg("Failed to change customer state")
		return NewInternalError(c, "Failed to change customer state")
	}

	log.Info().Str("customer_id", id.String()).Bool("active", active).Msg("Customer state changed")

	return c.JSON(http.StatusOK, toCustomerResponse(customer))
}
