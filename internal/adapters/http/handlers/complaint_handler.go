package handlers

import (
	"errors"
	"strconv"
	"strings"

	"nagarseva/internal/adapters/persistence/models"
	"nagarseva/internal/adapters/persistence/repositories"
	"nagarseva/internal/config"
	"nagarseva/internal/core/domain"
	"nagarseva/internal/core/services"
	"nagarseva/internal/pkg/pagination"
	"nagarseva/internal/pkg/response"
	"nagarseva/internal/pkg/upload"

	"github.com/gofiber/fiber/v2"
)

// ComplaintHandler handles complaint endpoints
type ComplaintHandler struct {
	complaintService *services.ComplaintService
	cfg              *config.Config
}

// NewComplaintHandler creates a new complaint handler
func NewComplaintHandler(complaintService *services.ComplaintService, cfg *config.Config) *ComplaintHandler {
	return &ComplaintHandler{
		complaintService: complaintService,
		cfg:              cfg,
	}
}

// Submit handles an authenticated citizen complaint submission
// @Summary Submit a complaint
// @Description Register a complaint for the authenticated citizen, with optional photo attachments
// @Tags Complaints
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param category formData string true "Complaint category code"
// @Param description formData string true "Complaint description"
// @Param ward_id formData int true "Ward ID"
// @Param area formData string true "Area / locality"
// @Param landmark formData string true "Nearby landmark"
// @Param address formData string true "Full address"
// @Param attachments formData file false "Photo attachments"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 401 {object} response.Response
// @Router /complaints [post]
func (h *ComplaintHandler) Submit(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	draft, err := draftFromForm(c)
	if err != nil {
		return response.BadRequest(c, err.Error())
	}

	policy := upload.Policy{
		MaxFiles:     h.cfg.Upload.CitizenMaxFiles,
		MaxFileSize:  int64(h.cfg.Upload.CitizenMaxFileMB) << 20,
		AllowedMimes: upload.DefaultAllowedMimes,
	}
	mgr, rejections, err := stageFormFiles(c, h.cfg.Upload.StagingDir, policy)
	if err != nil {
		return response.InternalServerError(c, "Failed to stage attachments")
	}
	defer mgr.ReleaseAll()

	complaint, err := h.complaintService.Register(c.Context(), userID, draft, domain.ModeCitizen)
	if err != nil {
		return h.mapRegisterError(c, err)
	}

	if mgr.Count() > 0 {
		if err := h.complaintService.AttachFiles(c.Context(), complaint, mgr, &userID); err != nil {
			return response.InternalServerError(c, "Complaint registered but attachments failed")
		}
	}

	data := fiber.Map{"complaint": complaint.ToResponse()}
	if len(rejections) > 0 {
		data["rejected_files"] = rejections
	}
	return response.Created(c, "Complaint registered successfully", data)
}

// ListMine lists the authenticated user's complaints
// @Summary List own complaints
// @Description List complaints submitted by the authenticated user
// @Tags Complaints
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number"
// @Param limit query int false "Items per page"
// @Param status query string false "Filter by status"
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Router /complaints [get]
func (h *ComplaintHandler) ListMine(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	params := pagination.GetParams(c)
	filter := repositories.ComplaintFilter{
		UserID: &userID,
		Status: strings.ToUpper(c.Query("status")),
	}

	complaints, total, err := h.complaintService.List(c.Context(), filter, params.Offset, params.Limit)
	if err != nil {
		return response.InternalServerError(c, "Failed to list complaints")
	}

	return response.Success(c, "Complaints retrieved successfully", fiber.Map{
		"complaints": toResponses(complaints),
		"meta":       pagination.GetMeta(params, total),
	})
}

// Get fetches a single complaint
// @Summary Get complaint
// @Description Get a complaint by id. Citizens can only access their own complaints.
// @Tags Complaints
// @Produce json
// @Security BearerAuth
// @Param id path int true "Complaint ID"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /complaints/{id} [get]
func (h *ComplaintHandler) Get(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	role, _ := c.Locals("role").(string)

	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid complaint id")
	}

	complaint, err := h.complaintService.GetByID(c.Context(), uint(id))
	if err != nil {
		if errors.Is(err, services.ErrComplaintNotFound) {
			return response.NotFound(c, err.Error())
		}
		return response.InternalServerError(c, "Failed to get complaint")
	}

	// Citizens see only their own rows
	if role == string(domain.RoleCitizen) && complaint.UserID != userID {
		return response.Forbidden(c, "Access denied")
	}

	return response.Success(c, "Complaint retrieved successfully", complaint.ToResponse())
}

// Track returns the public tracking view of a complaint
// @Summary Track complaint
// @Description Public status lookup by tracking number, no authentication required
// @Tags Complaints
// @Produce json
// @Param trackingNumber path string true "Tracking number (NGS-YYYY-XXXXXXXX)"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /complaints/track/{trackingNumber} [get]
func (h *ComplaintHandler) Track(c *fiber.Ctx) error {
	tracking, err := h.complaintService.Track(c.Context(), c.Params("trackingNumber"))
	if err != nil {
		if errors.Is(err, services.ErrComplaintNotFound) {
			return response.NotFound(c, "No complaint found for this tracking number")
		}
		return response.InternalServerError(c, "Failed to track complaint")
	}
	return response.Success(c, "Complaint status retrieved", tracking)
}

// ListWard lists complaints in the officer's ward
// @Summary List ward complaints
// @Description List complaints scoped to the officer's ward, with filters
// @Tags Officer
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number"
// @Param limit query int false "Items per page"
// @Param status query string false "Filter by status"
// @Param category query string false "Filter by category code"
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Router /officer/complaints [get]
func (h *ComplaintHandler) ListWard(c *fiber.Ctx) error {
	role, _ := c.Locals("role").(string)

	params := pagination.GetParams(c)
	filter := repositories.ComplaintFilter{
		Status:   strings.ToUpper(c.Query("status")),
		Category: strings.ToUpper(c.Query("category")),
	}

	// Officers are pinned to their ward; admins may pass ward_id
	if role == string(domain.RoleWardOfficer) {
		wardID, ok := c.Locals("wardID").(uint)
		if !ok {
			return response.Forbidden(c, "Officer has no ward assigned")
		}
		filter.WardID = &wardID
	} else if v := c.Query("ward_id"); v != "" {
		id, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			return response.BadRequest(c, "ward_id must be a number")
		}
		wardID := uint(id)
		filter.WardID = &wardID
	}

	complaints, total, err := h.complaintService.List(c.Context(), filter, params.Offset, params.Limit)
	if err != nil {
		return response.InternalServerError(c, "Failed to list complaints")
	}

	return response.Success(c, "Complaints retrieved successfully", fiber.Map{
		"complaints": toResponses(complaints),
		"meta":       pagination.GetMeta(params, total),
	})
}

// AssignRequest represents the assignment request body
type AssignRequest struct {
	AssigneeID uint `json:"assignee_id"`
}

// Assign assigns a complaint to maintenance staff
// @Summary Assign complaint
// @Description Assign a registered complaint to a maintenance user
// @Tags Officer
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Complaint ID"
// @Param body body AssignRequest true "Assignee"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /officer/complaints/{id}/assign [post]
func (h *ComplaintHandler) Assign(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid complaint id")
	}

	var req AssignRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if req.AssigneeID == 0 {
		return response.BadRequest(c, "Assignee is required")
	}

	complaint, err := h.complaintService.Assign(c.Context(), uint(id), req.AssigneeID, userID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrComplaintNotFound):
			return response.NotFound(c, err.Error())
		case errors.Is(err, services.ErrUserNotFound):
			return response.NotFound(c, "Assignee not found")
		case errors.Is(err, services.ErrInvalidStatusTransition):
			return response.Conflict(c, err.Error())
		default:
			return response.InternalServerError(c, "Failed to assign complaint")
		}
	}

	return response.Success(c, "Complaint assigned successfully", complaint.ToResponse())
}

// UpdateStatusRequest represents the status update request body
type UpdateStatusRequest struct {
	Status string `json:"status"`
	Note   string `json:"note"`
}

// UpdateStatus moves a complaint along its lifecycle
// @Summary Update complaint status
// @Description Apply a status transition with an optional note; illegal transitions are rejected
// @Tags Officer
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Complaint ID"
// @Param body body UpdateStatusRequest true "Target status"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /officer/complaints/{id}/status [patch]
func (h *ComplaintHandler) UpdateStatus(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid complaint id")
	}

	var req UpdateStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	to := domain.ComplaintStatus(strings.ToUpper(strings.TrimSpace(req.Status)))
	if to == "" {
		return response.BadRequest(c, "Status is required")
	}

	complaint, err := h.complaintService.UpdateStatus(c.Context(), uint(id), to, userID, req.Note)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrComplaintNotFound):
			return response.NotFound(c, err.Error())
		case errors.Is(err, services.ErrInvalidStatusTransition):
			return response.Conflict(c, err.Error())
		default:
			return response.InternalServerError(c, "Failed to update status")
		}
	}

	return response.Success(c, "Status updated successfully", complaint.ToResponse())
}

// ListAssigned lists complaints assigned to the maintenance user
// @Summary List assigned complaints
// @Description List complaints assigned to the authenticated maintenance user
// @Tags Maintenance
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number"
// @Param limit query int false "Items per page"
// @Param status query string false "Filter by status"
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Router /maintenance/complaints [get]
func (h *ComplaintHandler) ListAssigned(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	params := pagination.GetParams(c)
	filter := repositories.ComplaintFilter{
		AssignedToID: &userID,
		Status:       strings.ToUpper(c.Query("status")),
	}

	complaints, total, err := h.complaintService.List(c.Context(), filter, params.Offset, params.Limit)
	if err != nil {
		return response.InternalServerError(c, "Failed to list complaints")
	}

	return response.Success(c, "Complaints retrieved successfully", fiber.Map{
		"complaints": toResponses(complaints),
		"meta":       pagination.GetMeta(params, total),
	})
}

// UploadWorkPhotos attaches maintenance photos to an assigned complaint
// @Summary Upload work photos
// @Description Attach before/after photos to a complaint assigned to the authenticated maintenance user
// @Tags Maintenance
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param id path int true "Complaint ID"
// @Param attachments formData file true "Work photos"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /maintenance/complaints/{id}/photos [post]
func (h *ComplaintHandler) UploadWorkPhotos(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid complaint id")
	}

	policy := upload.Policy{
		MaxFiles:     h.cfg.Upload.MaintMaxFiles,
		MaxFileSize:  int64(h.cfg.Upload.MaintMaxFileMB) << 20,
		AllowedMimes: upload.DefaultAllowedMimes,
	}
	mgr, rejections, err := stageFormFiles(c, h.cfg.Upload.StagingDir, policy)
	if err != nil {
		return response.InternalServerError(c, "Failed to stage photos")
	}
	defer mgr.ReleaseAll()

	if mgr.Count() == 0 {
		return response.BadRequest(c, "At least one photo is required")
	}

	complaint, err := h.complaintService.AddWorkPhotos(c.Context(), uint(id), userID, mgr)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrComplaintNotFound):
			return response.NotFound(c, err.Error())
		case errors.Is(err, services.ErrNotAssignee):
			return response.Forbidden(c, err.Error())
		case errors.Is(err, services.ErrAttachmentCapReached):
			return response.BadRequest(c, err.Error())
		default:
			return response.InternalServerError(c, "Failed to upload photos")
		}
	}

	data := fiber.Map{"complaint": complaint.ToResponse()}
	if len(rejections) > 0 {
		data["rejected_files"] = rejections
	}
	return response.Success(c, "Photos uploaded successfully", data)
}

// UpdateWorkStatus lets the assigned maintenance user progress their complaint
// @Summary Update work status
// @Description Move an assigned complaint to IN_PROGRESS or RESOLVED
// @Tags Maintenance
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Complaint ID"
// @Param request body UpdateStatusRequest true "Target status"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /maintenance/complaints/{id}/status [patch]
func (h *ComplaintHandler) UpdateWorkStatus(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid complaint id")
	}

	var req UpdateStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	to := domain.ComplaintStatus(strings.ToUpper(strings.TrimSpace(req.Status)))
	if to == "" {
		return response.BadRequest(c, "Status is required")
	}

	complaint, err := h.complaintService.UpdateStatusByAssignee(c.Context(), uint(id), userID, to, req.Note)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrComplaintNotFound):
			return response.NotFound(c, err.Error())
		case errors.Is(err, services.ErrNotAssignee):
			return response.Forbidden(c, err.Error())
		case errors.Is(err, services.ErrInvalidStatusTransition):
			return response.Conflict(c, err.Error())
		default:
			return response.InternalServerError(c, "Failed to update status")
		}
	}

	return response.Success(c, "Status updated successfully", complaint.ToResponse())
}

// mapRegisterError maps complaint registration errors to responses
func (h *ComplaintHandler) mapRegisterError(c *fiber.Ctx, err error) error {
	var vErr *services.DraftValidationError
	switch {
	case errors.As(err, &vErr):
		return response.ValidationFailed(c, vErr.Fields)
	case errors.Is(err, services.ErrWardNotFound),
		errors.Is(err, services.ErrSubZoneNotFound),
		errors.Is(err, services.ErrComplaintTypeNotFound):
		return response.BadRequest(c, err.Error())
	default:
		return response.InternalServerError(c, "Failed to register complaint")
	}
}

// toResponses maps complaint models to their DTOs
func toResponses(complaints []*models.Complaint) []*models.ComplaintResponse {
	out := make([]*models.ComplaintResponse, len(complaints))
	for i, m := range complaints {
		out[i] = m.ToResponse()
	}
	return out
}
