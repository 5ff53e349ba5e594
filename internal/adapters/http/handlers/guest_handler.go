package handlers

import (
	"errors"
	"strconv"
	"strings"

	"nagarseva/internal/config"
	"nagarseva/internal/core/domain"
	"nagarseva/internal/core/services"
	"nagarseva/internal/pkg/response"
	"nagarseva/internal/pkg/upload"

	"github.com/gofiber/fiber/v2"
)

// GuestHandler handles the guest complaint workflow endpoints
type GuestHandler struct {
	guestService   *services.GuestService
	captchaService *services.CaptchaService
	cfg            *config.Config
}

// NewGuestHandler creates a new guest handler
func NewGuestHandler(guestService *services.GuestService, captchaService *services.CaptchaService, cfg *config.Config) *GuestHandler {
	return &GuestHandler{
		guestService:   guestService,
		captchaService: captchaService,
		cfg:            cfg,
	}
}

// GetCaptcha issues a captcha challenge
// @Summary Get captcha challenge
// @Description Issue a fresh captcha challenge for guest intake. Calling again refreshes the challenge.
// @Tags Guest
// @Produce json
// @Success 200 {object} response.Response
// @Router /captcha [get]
func (h *GuestHandler) GetCaptcha(c *fiber.Ctx) error {
	challenge, err := h.captchaService.Generate()
	if err != nil {
		return response.InternalServerError(c, "Failed to generate captcha")
	}
	return response.Success(c, "Captcha generated", challenge)
}

// GuestIntakeRequest represents the guest intake request body
type GuestIntakeRequest struct {
	FullName     string `json:"full_name"`
	Email        string `json:"email"`
	PhoneNumber  string `json:"phone_number"`
	CaptchaID    string `json:"captcha_id"`
	CaptchaValue string `json:"captcha_value"`
}

// BeginIntake starts a guest submission session
// @Summary Start guest complaint submission
// @Description Validate identity and captcha, open an OTP session and mail the code
// @Tags Guest
// @Accept json
// @Produce json
// @Param body body GuestIntakeRequest true "Intake data"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 502 {object} response.Response
// @Router /guest/complaints [post]
func (h *GuestHandler) BeginIntake(c *fiber.Ctx) error {
	var req GuestIntakeRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	result, err := h.guestService.BeginIntake(c.Context(), &services.GuestIntakeInput{
		FullName:     req.FullName,
		Email:        req.Email,
		PhoneNumber:  req.PhoneNumber,
		CaptchaID:    req.CaptchaID,
		CaptchaValue: req.CaptchaValue,
	})
	if err != nil {
		var vErr *services.DraftValidationError
		switch {
		case errors.As(err, &vErr):
			return response.ValidationFailed(c, vErr.Fields)
		case errors.Is(err, services.ErrCaptchaRequired):
			return response.BadRequest(c, err.Error())
		case errors.Is(err, services.ErrCaptchaInvalid):
			return response.BadRequest(c, err.Error())
		case errors.Is(err, services.ErrMailDelivery):
			return response.Error(c, fiber.StatusBadGateway, err.Error())
		default:
			return response.InternalServerError(c, "Failed to start submission")
		}
	}

	return response.Success(c, "Verification code sent", result)
}

// VerifyComplaint completes a guest submission
// @Summary Verify OTP and register the complaint
// @Description Check the emailed code; on success provision the account, register the complaint and attach files
// @Tags Guest
// @Accept multipart/form-data
// @Produce json
// @Param email formData string true "Email the session was opened for"
// @Param otp_code formData string true "6-digit verification code"
// @Param category formData string true "Complaint category code"
// @Param description formData string true "Complaint description"
// @Param ward_id formData int true "Ward ID"
// @Param area formData string true "Area / locality"
// @Param attachments formData file false "Photo attachments"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 410 {object} response.Response
// @Failure 429 {object} response.Response
// @Router /guest/complaints/verify [post]
func (h *GuestHandler) VerifyComplaint(c *fiber.Ctx) error {
	email := c.FormValue("email")
	code := c.FormValue("otp_code")
	if strings.TrimSpace(email) == "" {
		return response.BadRequest(c, "Email is required")
	}
	if strings.TrimSpace(code) == "" {
		return response.BadRequest(c, "Verification code is required")
	}

	draft, err := draftFromForm(c)
	if err != nil {
		return response.BadRequest(c, err.Error())
	}

	policy := upload.Policy{
		MaxFiles:     h.cfg.Upload.GuestMaxFiles,
		MaxFileSize:  int64(h.cfg.Upload.GuestMaxFileMB) << 20,
		AllowedMimes: upload.DefaultAllowedMimes,
	}
	mgr, rejections, err := stageFormFiles(c, h.cfg.Upload.StagingDir, policy)
	if err != nil {
		return response.InternalServerError(c, "Failed to stage attachments")
	}
	// Staged files are released on every path that does not commit them
	defer mgr.ReleaseAll()

	result, err := h.guestService.VerifyOTP(c.Context(), email, code, draft, mgr)
	if err != nil {
		var vErr *services.DraftValidationError
		switch {
		case errors.As(err, &vErr):
			return response.ValidationFailed(c, vErr.Fields)
		case errors.Is(err, services.ErrSessionNotFound):
			return response.NotFound(c, err.Error())
		case errors.Is(err, services.ErrVerifyNotPending):
			return response.Conflict(c, err.Error())
		case errors.Is(err, services.ErrOTPExpired):
			return response.Gone(c, err.Error())
		case errors.Is(err, services.ErrOTPMalformed):
			return response.ValidationFailed(c, map[string]string{"otp_code": err.Error()})
		case errors.Is(err, services.ErrOTPInvalid):
			return response.BadRequest(c, err.Error())
		case errors.Is(err, services.ErrTooManyAttempts):
			return response.TooManyRequests(c, err.Error())
		case errors.Is(err, services.ErrWardNotFound),
			errors.Is(err, services.ErrSubZoneNotFound),
			errors.Is(err, services.ErrComplaintTypeNotFound):
			return response.BadRequest(c, err.Error())
		default:
			return response.InternalServerError(c, "Failed to verify submission")
		}
	}

	data := fiber.Map{
		"complaint":     result.Complaint,
		"user":          result.User,
		"access_token":  result.AccessToken,
		"refresh_token": result.RefreshToken,
		"is_new_user":   result.IsNewUser,
	}
	if len(rejections) > 0 {
		data["rejected_files"] = rejections
	}
	if result.AttachmentsError != "" {
		data["attachments_error"] = result.AttachmentsError
	}
	return response.Created(c, "Complaint registered successfully", data)
}

// ResendOTPRequest represents the resend request body
type ResendOTPRequest struct {
	Email string `json:"email"`
}

// ResendOTP issues a fresh verification code
// @Summary Resend verification code
// @Description Issue a new code for a session awaiting verification
// @Tags Guest
// @Accept json
// @Produce json
// @Param body body ResendOTPRequest true "Session email"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 429 {object} response.Response
// @Router /guest/complaints/resend-otp [post]
func (h *GuestHandler) ResendOTP(c *fiber.Ctx) error {
	var req ResendOTPRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if strings.TrimSpace(req.Email) == "" {
		return response.BadRequest(c, "Email is required")
	}

	result, err := h.guestService.ResendOTP(c.Context(), req.Email)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrSessionNotFound):
			return response.NotFound(c, err.Error())
		case errors.Is(err, services.ErrVerifyNotPending):
			return response.Conflict(c, err.Error())
		case errors.Is(err, services.ErrResendCooldown):
			return response.TooManyRequests(c, err.Error())
		case errors.Is(err, services.ErrTooManyResends):
			return response.TooManyRequests(c, err.Error())
		case errors.Is(err, services.ErrMailDelivery):
			return response.Error(c, fiber.StatusBadGateway, err.Error())
		default:
			return response.InternalServerError(c, "Failed to resend code")
		}
	}

	return response.Success(c, "Verification code resent", result)
}

// CancelSession abandons a pending guest session
// @Summary Cancel a pending guest submission
// @Description Drop the OTP session for the given email
// @Tags Guest
// @Accept json
// @Produce json
// @Param body body ResendOTPRequest true "Session email"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /guest/complaints/cancel [post]
func (h *GuestHandler) CancelSession(c *fiber.Ctx) error {
	var req ResendOTPRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if strings.TrimSpace(req.Email) == "" {
		return response.BadRequest(c, "Email is required")
	}

	if err := h.guestService.Cancel(c.Context(), req.Email); err != nil {
		return response.NotFound(c, err.Error())
	}
	return response.Success(c, "Submission cancelled", nil)
}

// draftFromForm builds a complaint draft from multipart form fields
func draftFromForm(c *fiber.Ctx) (*domain.ComplaintDraft, error) {
	draft := &domain.ComplaintDraft{
		Category:    domain.ComplaintCategory(strings.TrimSpace(c.FormValue("category"))),
		Description: c.FormValue("description"),
		Priority:    domain.Priority(strings.TrimSpace(c.FormValue("priority"))),
		Area:        c.FormValue("area"),
		Landmark:    c.FormValue("landmark"),
		Address:     c.FormValue("address"),
	}

	if v := c.FormValue("ward_id"); v != "" {
		wardID, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			return nil, errors.New("ward_id must be a number")
		}
		draft.WardID = uint(wardID)
	}
	if v := c.FormValue("sub_zone_id"); v != "" {
		subZoneID, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			return nil, errors.New("sub_zone_id must be a number")
		}
		id := uint(subZoneID)
		draft.SubZoneID = &id
	}

	lat, lng := c.FormValue("latitude"), c.FormValue("longitude")
	if lat != "" || lng != "" {
		latF, err := strconv.ParseFloat(lat, 64)
		if err != nil {
			return nil, errors.New("latitude must be a number")
		}
		lngF, err := strconv.ParseFloat(lng, 64)
		if err != nil {
			return nil, errors.New("longitude must be a number")
		}
		draft.Coordinates = &domain.Coordinates{Latitude: latF, Longitude: lngF}
	}

	return draft, nil
}

// stageFormFiles stages every "attachments" form file through an upload
// manager under the given policy
func stageFormFiles(c *fiber.Ctx, stagingDir string, policy upload.Policy) (*upload.Manager, []upload.Rejection, error) {
	mgr, err := upload.NewManager(stagingDir, policy)
	if err != nil {
		return nil, nil, err
	}

	form, err := c.MultipartForm()
	if err != nil {
		// No multipart body at all; an empty manager is fine
		return mgr, nil, nil
	}

	files := form.File["attachments"]
	if len(files) == 0 {
		return mgr, nil, nil
	}

	batch := make([]upload.Incoming, 0, len(files))
	for _, fh := range files {
		batch = append(batch, upload.FromMultipart(fh))
	}
	_, rejections := mgr.Add(batch)
	return mgr, rejections, nil
}
