package handler

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/quincena/quincena-backend/internal/domain"
	"github.com/quincena/quincena-backend/internal/middleware"
)

// Handlers bundles everything RegisterRoutes wires up
type Handlers struct {
	Auth       *AuthHandler
	Customer   *CustomerHandler
	Investor   *InvestorHandler
	Loan       *LoanHandler
	Payment    *PaymentHandler
	Report     *ReportHandler
	Attachment *AttachmentHandler
	WebSocket  *WebSocketHandler
}

// RegisterRoutes sets up all API routes. Reports and exports are
// restricted to admins and operators; collectors can record payments
// but not restructure loans.
func RegisterRoutes(e *echo.Echo, authMiddleware *middleware.AuthMiddleware, rateLimiter *middleware.RateLimiter, h Handlers) {
	e.GET("/health", healthCheck)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// WebSocket authenticates via query token inside the handler
	e.GET("/ws", h.WebSocket.HandleWS)

	api := e.Group("/api")

	// Login is the only unauthenticated API route
	api.POST("/auth/login", h.Auth.Login)

	protected := api.Group("")
	protected.Use(authMiddleware.Authenticate())
	protected.Use(middleware.RateLimitMiddleware(rateLimiter))

	protected.GET("/auth/me", h.Auth.Me)

	staff := middleware.RequireRole(domain.RoleAdmin, domain.RoleOperator)
	anyStaff := middleware.RequireRole(domain.RoleAdmin, domain.RoleOperator, domain.RoleCollector)

	// Customer routes
	customers := protected.Group("/customers")
	customers.POST("", h.Customer.CreateCustomer, staff)
	customers.GET("", h.Customer.GetCustomers, anyStaff)
	customers.GET("/:id", h.Customer.GetCustomer, anyStaff)
	customers.GET("/:id/loans", h.Customer.GetCustomerLoans, anyStaff)
	customers.PUT("/:id", h.Customer.UpdateCustomer, staff)
	customers.PATCH("/:id/activate", h.Customer.ActivateCustomer, staff)
	customers.PATCH("/:id/deactivate", h.Customer.DeactivateCustomer, staff)

	// Investor routes
	investors := protected.Group("/investors")
	investors.POST("", h.Investor.CreateInvestor, staff)
	investors.GET("", h.Investor.GetInvestors, staff)
	investors.GET("/:id", h.Investor.GetInvestor, staff)
	investors.GET("/:id/loans", h.Investor.GetInvestorLoans, staff)
	investors.PUT("/:id", h.Investor.UpdateInvestor, staff)

	// Loan routes
	loans := protected.Group("/loans")
	loans.POST("", h.Loan.CreateLoan, staff)
	loans.GET("", h.Loan.GetLoans, anyStaff)
	loans.GET("/:id", h.Loan.GetLoan, anyStaff)
	loans.PUT("/:id", h.Loan.UpdateLoan, staff)
	loans.PATCH("/:id/settle", h.Loan.SettleLoan, staff)
	loans.PATCH("/:id/reopen", h.Loan.ReopenLoan, staff)
	loans.POST("/:id/recompute-balance", h.Loan.RecomputeBalance, staff)

	// Payment routes
	payments := protected.Group("/payments")
	payments.POST("", h.Payment.CreatePayment, anyStaff)
	payments.GET("", h.Payment.GetPayments, anyStaff)
	payments.GET("/:id", h.Payment.GetPayment, anyStaff)
	payments.GET("/loan/:loanId", h.Payment.GetLoanPayments, anyStaff)
	payments.PUT("/:id", h.Payment.UpdatePayment, staff)
	payments.DELETE("/:id", h.Payment.DeletePayment, staff)

	// Report routes
	reports := protected.Group("/reports", staff)
	reports.GET("/investors", h.Report.GetInvestorReport)
	reports.GET("/investors/export", h.Report.ExportInvestorReport)
	reports.GET("/payments", h.Report.GetPaymentSummary)
	reports.GET("/payments/export", h.Report.ExportPaymentSummary)
	reports.GET("/portfolio", h.Report.GetPortfolioSummary)

	// Attachment routes
	attachments := protected.Group("/attachments")
	attachments.POST("", h.Attachment.UploadAttachment, anyStaff)
	attachments.GET("/:entityType/:entityId", h.Attachment.GetAttachments, anyStaff)
	attachments.GET("/:id/download", h.Attachment.DownloadAttachment, anyStaff)
	attachments.GET("/:id/url", h.Attachment.GetPresignedURL, anyStaff)
	attachments.DELETE("/:id", h.Attachment.DeleteAttachment, staff)
}

func healthCheck(c echo.Context) error {
	return c.JSON(200, map[string]string{"status": "ok"})
}
