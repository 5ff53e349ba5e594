package handlers

import (
	"strconv"

	"nagarseva/internal/core/domain"
	"nagarseva/internal/core/services"
	"nagarseva/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// DashboardHandler handles dashboard endpoints
type DashboardHandler struct {
	dashboardService *services.DashboardService
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(dashboardService *services.DashboardService) *DashboardHandler {
	return &DashboardHandler{dashboardService: dashboardService}
}

// AdminDashboard returns system-wide statistics
// @Summary Admin dashboard
// @Description Get system-wide complaint and user statistics (Admin only)
// @Tags Dashboard
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /dashboard/admin [get]
func (h *DashboardHandler) AdminDashboard(c *fiber.Ctx) error {
	data, err := h.dashboardService.GetAdminDashboard(c.Context())
	if err != nil {
		return response.InternalServerError(c, "Failed to load dashboard")
	}
	return response.Success(c, "Dashboard retrieved successfully", data)
}

// OfficerDashboard returns ward-scoped statistics
// @Summary Officer dashboard
// @Description Get complaint statistics for the officer's ward
// @Tags Dashboard
// @Produce json
// @Security BearerAuth
// @Param ward_id query int false "Ward ID (admin only)"
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /dashboard/officer [get]
func (h *DashboardHandler) OfficerDashboard(c *fiber.Ctx) error {
	role, _ := c.Locals("role").(string)

	var wardID uint
	if role == string(domain.RoleWardOfficer) {
		id, ok := c.Locals("wardID").(uint)
		if !ok {
			return response.Forbidden(c, "Officer has no ward assigned")
		}
		wardID = id
	} else {
		id, err := strconv.ParseUint(c.Query("ward_id"), 10, 32)
		if err != nil {
			return response.BadRequest(c, "ward_id is required")
		}
		wardID = uint(id)
	}

	data, err := h.dashboardService.GetOfficerDashboard(c.Context(), wardID)
	if err != nil {
		return response.InternalServerError(c, "Failed to load dashboard")
	}
	return response.Success(c, "Dashboard retrieved successfully", data)
}
