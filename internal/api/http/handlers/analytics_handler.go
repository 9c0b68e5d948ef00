package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-service/internal/api/dto"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/service"
)

// AnalyticsHandler exposes company rollups to the superadmin.
type AnalyticsHandler struct {
	service *service.AnalyticsService
}

// NewAnalyticsHandler constructs handler.
func NewAnalyticsHandler(analyticsService *service.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{service: analyticsService}
}

// Refresh POST /admin/analytics/refresh recomputes every rollup.
func (h *AnalyticsHandler) Refresh(c *fiber.Ctx) error {
	companies, err := h.service.Refresh(c.Context())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": companyResponses(companies)})
}

// ListCompanies GET /admin/analytics/companies returns the cached rollups.
func (h *AnalyticsHandler) ListCompanies(c *fiber.Ctx) error {
	companies, err := h.service.List(c.Context())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": companyResponses(companies)})
}

// GetCompany GET /admin/analytics/companies/:domain.
func (h *AnalyticsHandler) GetCompany(c *fiber.Ctx) error {
	company, err := h.service.Get(c.Context(), c.Params("domain"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewCompanyResponse(company)})
}

func companyResponses(companies []domain.Company) []dto.CompanyResponse {
	items := make([]dto.CompanyResponse, 0, len(companies))
	for i := range companies {
		items = append(items, dto.NewCompanyResponse(&companies[i]))
	}
	return items
}
