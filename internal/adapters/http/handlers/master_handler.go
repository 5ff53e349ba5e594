package handlers

import (
	"nagarseva/internal/adapters/persistence/repositories"
	"nagarseva/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// MasterHandler handles master data endpoints
type MasterHandler struct {
	wardRepo repositories.WardRepository
	typeRepo repositories.ComplaintTypeRepository
}

// NewMasterHandler creates a new master handler
func NewMasterHandler(wardRepo repositories.WardRepository, typeRepo repositories.ComplaintTypeRepository) *MasterHandler {
	return &MasterHandler{
		wardRepo: wardRepo,
		typeRepo: typeRepo,
	}
}

// ListWards lists all active wards with their sub-zones
// @Summary List wards
// @Description Get active wards with embedded sub-zones for the location step
// @Tags Master
// @Produce json
// @Success 200 {object} response.Response
// @Router /wards [get]
func (h *MasterHandler) ListWards(c *fiber.Ctx) error {
	wards, err := h.wardRepo.ListActive(c.Context())
	if err != nil {
		return response.InternalServerError(c, "Failed to list wards")
	}

	return response.Success(c, "Wards retrieved successfully", fiber.Map{
		"wards": wards,
	})
}

// ListComplaintTypes lists all active complaint types
// @Summary List complaint types
// @Description Get active complaint categories with default priority and SLA hours
// @Tags Master
// @Produce json
// @Success 200 {object} response.Response
// @Router /complaint-types [get]
func (h *MasterHandler) ListComplaintTypes(c *fiber.Ctx) error {
	types, err := h.typeRepo.ListActive(c.Context())
	if err != nil {
		return response.InternalServerError(c, "Failed to list complaint types")
	}

	return response.Success(c, "Complaint types retrieved successfully", fiber.Map{
		"complaint_types": types,
	})
}
