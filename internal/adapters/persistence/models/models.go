package models

import (
	"time"

	"gorm.io/gorm"
)

// ============================================================
// Auth & User Tables
// ============================================================

// User represents users table. Guest submissions auto-provision a
// CITIZEN row on successful OTP verification.
type User struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	FullName  string         `gorm:"size:100;not null" json:"full_name"`
	Email     string         `gorm:"uniqueIndex;size:100;not null" json:"email"`
	Phone     string         `gorm:"size:20;not null" json:"phone"`
	Password  string         `gorm:"size:255;not null" json:"-"`
	Role      string         `gorm:"size:20;default:'CITIZEN'" json:"role"`
	WardID    *uint          `gorm:"index" json:"ward_id"`
	IsActive  bool           `gorm:"default:true" json:"is_active"`
	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (User) TableName() string {
	return "users"
}

// UserResponse DTO
type UserResponse struct {
	ID        uint      `json:"id"`
	FullName  string    `json:"full_name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Role      string    `json:"role"`
	WardID    *uint     `json:"ward_id,omitempty"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

func (u *User) ToResponse() *UserResponse {
	return &UserResponse{
		ID:        u.ID,
		FullName:  u.FullName,
		Email:     u.Email,
		Phone:     u.Phone,
		Role:      u.Role,
		WardID:    u.WardID,
		IsActive:  u.IsActive,
		CreatedAt: u.CreatedAt,
	}
}

// RefreshToken represents refresh_tokens table
type RefreshToken struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	UserID    uint       `gorm:"index;not null" json:"user_id"`
	TokenHash string     `gorm:"size:255;not null;index" json:"-"`
	ExpiresAt time.Time  `gorm:"not null" json:"expires_at"`
	CreatedAt time.Time  `gorm:"autoCreateTime" json:"created_at"`
	RevokedAt *time.Time `gorm:"index" json:"revoked_at"`
	User      User       `gorm:"foreignKey:UserID" json:"-"`
}

func (RefreshToken) TableName() string {
	return "refresh_tokens"
}

func (rt *RefreshToken) IsRevoked() bool {
	return rt.RevokedAt != nil
}

func (rt *RefreshToken) IsExpired() bool {
	return time.Now().After(rt.ExpiresAt)
}

// ============================================================
// Master Tables: Wards, Sub-zones, Complaint Types
// ============================================================

// Ward represents a geographic jurisdiction unit used to route complaints
type Ward struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Code      string         `gorm:"size:20;uniqueIndex;not null" json:"code"`
	Name      string         `gorm:"size:100;not null" json:"name"`
	IsActive  bool           `gorm:"default:true" json:"is_active"`
	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	SubZones []SubZone `gorm:"foreignKey:WardID" json:"sub_zones,omitempty"`
}

func (Ward) TableName() string {
	return "wards"
}

// HasSubZones reports whether the ward exposes sub-zones (which makes the
// sub-zone field mandatory on complaint forms)
func (w *Ward) HasSubZones() bool {
	return len(w.SubZones) > 0
}

// SubZone represents a sub-division of a ward
type SubZone struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	WardID    uint           `gorm:"index;not null" json:"ward_id"`
	Code      string         `gorm:"size:20;not null" json:"code"`
	Name      string         `gorm:"size:100;not null" json:"name"`
	IsActive  bool           `gorm:"default:true" json:"is_active"`
	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (SubZone) TableName() string {
	return "sub_zones"
}

// ComplaintType master: fixed categories with default priority and SLA hours
type ComplaintType struct {
	ID              uint           `gorm:"primaryKey" json:"id"`
	Code            string         `gorm:"size:30;uniqueIndex;not null" json:"code"`
	Name            string         `gorm:"size:100;not null" json:"name"`
	Description     string         `gorm:"type:text" json:"description"`
	DefaultPriority string         `gorm:"size:20;default:'MEDIUM'" json:"default_priority"`
	SLAHours        int            `gorm:"not null;default:72" json:"sla_hours"`
	IsActive        bool           `gorm:"default:true" json:"is_active"`
	CreatedAt       time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`
}

func (ComplaintType) TableName() string {
	return "complaint_types"
}

// ============================================================
// Complaint Tables
// ============================================================

// Complaint represents complaints table
type Complaint struct {
	ID             uint     `gorm:"primaryKey" json:"id"`
	TrackingNumber string   `gorm:"size:30;uniqueIndex;not null" json:"tracking_number"`
	UserID         uint     `gorm:"index;not null" json:"user_id"`
	TypeID         uint     `gorm:"not null" json:"type_id"`
	Description    string   `gorm:"type:text;not null" json:"description"`
	Priority       string   `gorm:"size:20;not null" json:"priority"`
	Status         string   `gorm:"size:20;not null;index;default:'REGISTERED'" json:"status"`
	WardID         uint     `gorm:"index;not null" json:"ward_id"`
	SubZoneID      *uint    `gorm:"index" json:"sub_zone_id"`
	Area           string   `gorm:"size:200;not null" json:"area"`
	Landmark       string   `gorm:"size:200" json:"landmark"`
	Address        string   `gorm:"size:255" json:"address"`
	Latitude       *float64 `json:"latitude"`
	Longitude      *float64 `json:"longitude"`
	GuestSubmitted bool     `gorm:"default:false" json:"guest_submitted"`

	AssignedToID *uint      `gorm:"index" json:"assigned_to_id"`
	SLADueAt     time.Time  `gorm:"index" json:"sla_due_at"`
	SLABreached  bool       `gorm:"default:false" json:"sla_breached"`
	ResolvedAt   *time.Time `json:"resolved_at"`
	ClosedAt     *time.Time `json:"closed_at"`

	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	User        *User                 `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Type        *ComplaintType        `gorm:"foreignKey:TypeID" json:"type,omitempty"`
	Ward        *Ward                 `gorm:"foreignKey:WardID" json:"ward,omitempty"`
	SubZone     *SubZone              `gorm:"foreignKey:SubZoneID" json:"sub_zone,omitempty"`
	AssignedTo  *User                 `gorm:"foreignKey:AssignedToID" json:"assigned_to,omitempty"`
	Attachments []ComplaintAttachment `gorm:"foreignKey:ComplaintID" json:"attachments,omitempty"`
	StatusLogs  []ComplaintStatusLog  `gorm:"foreignKey:ComplaintID" json:"status_logs,omitempty"`
}

func (Complaint) TableName() string {
	return "complaints"
}

// ComplaintResponse DTO
type ComplaintResponse struct {
	ID             uint                  `json:"id"`
	TrackingNumber string                `json:"tracking_number"`
	TypeCode       string                `json:"type_code,omitempty"`
	TypeName       string                `json:"type_name,omitempty"`
	Description    string                `json:"description"`
	Priority       string                `json:"priority"`
	Status         string                `json:"status"`
	WardID         uint                  `json:"ward_id"`
	WardName       string                `json:"ward_name,omitempty"`
	SubZoneID      *uint                 `json:"sub_zone_id,omitempty"`
	SubZoneName    string                `json:"sub_zone_name,omitempty"`
	Area           string                `json:"area"`
	Landmark       string                `json:"landmark,omitempty"`
	Address        string                `json:"address,omitempty"`
	Latitude       *float64              `json:"latitude,omitempty"`
	Longitude      *float64              `json:"longitude,omitempty"`
	AssignedToName string                `json:"assigned_to_name,omitempty"`
	SLADueAt       time.Time             `json:"sla_due_at"`
	SLABreached    bool                  `json:"sla_breached"`
	Attachments    []ComplaintAttachment `json:"attachments,omitempty"`
	CreatedAt      time.Time             `json:"created_at"`
	UpdatedAt      time.Time             `json:"updated_at"`
}

func (m *Complaint) ToResponse() *ComplaintResponse {
	resp := &ComplaintResponse{
		ID:             m.ID,
		TrackingNumber: m.TrackingNumber,
		Description:    m.Description,
		Priority:       m.Priority,
		Status:         m.Status,
		WardID:         m.WardID,
		SubZoneID:      m.SubZoneID,
		Area:           m.Area,
		Landmark:       m.Landmark,
		Address:        m.Address,
		Latitude:       m.Latitude,
		Longitude:      m.Longitude,
		SLADueAt:       m.SLADueAt,
		SLABreached:    m.SLABreached,
		Attachments:    m.Attachments,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}

	if m.Type != nil {
		resp.TypeCode = m.Type.Code
		resp.TypeName = m.Type.Name
	}
	if m.Ward != nil {
		resp.WardName = m.Ward.Name
	}
	if m.SubZone != nil {
		resp.SubZoneName = m.SubZone.Name
	}
	if m.AssignedTo != nil {
		resp.AssignedToName = m.AssignedTo.FullName
	}

	return resp
}

// TrackingResponse is the public (unauthenticated) view of a complaint
type TrackingResponse struct {
	TrackingNumber string    `json:"tracking_number"`
	TypeName       string    `json:"type_name,omitempty"`
	Status         string    `json:"status"`
	WardName       string    `json:"ward_name,omitempty"`
	Area           string    `json:"area"`
	SLADueAt       time.Time `json:"sla_due_at"`
	CreatedAt      time.Time `json:"created_at"`
}

func (m *Complaint) ToTrackingResponse() *TrackingResponse {
	resp := &TrackingResponse{
		TrackingNumber: m.TrackingNumber,
		Status:         m.Status,
		Area:           m.Area,
		SLADueAt:       m.SLADueAt,
		CreatedAt:      m.CreatedAt,
	}
	if m.Type != nil {
		resp.TypeName = m.Type.Name
	}
	if m.Ward != nil {
		resp.WardName = m.Ward.Name
	}
	return resp
}

// ComplaintAttachment represents complaint_attachments table
type ComplaintAttachment struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	ComplaintID uint      `gorm:"index;not null" json:"complaint_id"`
	FileName    string    `gorm:"size:255;not null" json:"file_name"`
	StoredPath  string    `gorm:"size:500;not null" json:"-"`
	MimeType    string    `gorm:"size:100;not null" json:"mime_type"`
	SizeBytes   int64     `gorm:"not null" json:"size_bytes"`
	UploadedBy  *uint     `json:"uploaded_by,omitempty"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (ComplaintAttachment) TableName() string {
	return "complaint_attachments"
}

// ComplaintStatusLog is the audit trail of status transitions
type ComplaintStatusLog struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	ComplaintID uint      `gorm:"index;not null" json:"complaint_id"`
	FromStatus  string    `gorm:"size:20" json:"from_status"`
	ToStatus    string    `gorm:"size:20;not null" json:"to_status"`
	ChangedBy   *uint     `json:"changed_by,omitempty"`
	Note        string    `gorm:"type:text" json:"note"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (ComplaintStatusLog) TableName() string {
	return "complaint_status_logs"
}

// AutoMigrate creates/updates all tables
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&User{},
		&RefreshToken{},
		&Ward{},
		&SubZone{},
		&ComplaintType{},
		&Complaint{},
		&ComplaintAttachment{},
		&ComplaintStatusLog{},
	)
}
