package services

import (
	"context"
	"time"

	"gorm.io/gorm"
)

// DashboardService handles dashboard operations
type DashboardService struct {
	db *gorm.DB
}

// NewDashboardService creates a new dashboard service
func NewDashboardService(db *gorm.DB) *DashboardService {
	return &DashboardService{db: db}
}

// ============================================================
// Admin Dashboard
// ============================================================

// AdminDashboardData represents admin dashboard data
type AdminDashboardData struct {
	// User Statistics
	TotalUsers       int64 `json:"total_users"`
	TotalCitizens    int64 `json:"total_citizens"`
	TotalOfficers    int64 `json:"total_officers"`
	TotalMaintenance int64 `json:"total_maintenance"`

	// Complaint Statistics
	TotalComplaints      int64 `json:"total_complaints"`
	RegisteredComplaints int64 `json:"registered_complaints"`
	InProgressComplaints int64 `json:"in_progress_complaints"`
	ResolvedComplaints   int64 `json:"resolved_complaints"`
	ReopenedComplaints   int64 `json:"reopened_complaints"`
	SLABreached          int64 `json:"sla_breached"`
	GuestSubmitted       int64 `json:"guest_submitted"`

	// Monthly Statistics
	ComplaintsThisMonth int64 `json:"complaints_this_month"`
	ResolvedThisMonth   int64 `json:"resolved_this_month"`

	// Recent Activity
	RecentComplaints []ComplaintSummary `json:"recent_complaints"`

	// Ward Load
	WardLoad []WardStats `json:"ward_load"`
}

// ComplaintSummary represents complaint summary
type ComplaintSummary struct {
	ID             uint      `json:"id"`
	TrackingNumber string    `json:"tracking_number"`
	TypeName       string    `json:"type_name"`
	WardName       string    `json:"ward_name"`
	Priority       string    `json:"priority"`
	Status         string    `json:"status"`
	CreatedAt      time.Time `json:"created_at"`
}

// WardStats represents per-ward complaint statistics
type WardStats struct {
	WardID      uint   `json:"ward_id"`
	WardName    string `json:"ward_name"`
	Total       int64  `json:"total"`
	Open        int64  `json:"open"`
	Resolved    int64  `json:"resolved"`
	SLABreached int64  `json:"sla_breached"`
}

// GetAdminDashboard returns admin dashboard data
func (s *DashboardService) GetAdminDashboard(ctx context.Context) (*AdminDashboardData, error) {
	data := &AdminDashboardData{}

	// User counts by role
	s.db.WithContext(ctx).Table("users").Where("deleted_at IS NULL").Count(&data.TotalUsers)
	s.db.WithContext(ctx).Table("users").Where("role = ? AND deleted_at IS NULL", "CITIZEN").Count(&data.TotalCitizens)
	s.db.WithContext(ctx).Table("users").Where("role = ? AND deleted_at IS NULL", "WARD_OFFICER").Count(&data.TotalOfficers)
	s.db.WithContext(ctx).Table("users").Where("role = ? AND deleted_at IS NULL", "MAINTENANCE").Count(&data.TotalMaintenance)

	// Complaint counts by status
	s.db.WithContext(ctx).Table("complaints").Where("deleted_at IS NULL").Count(&data.TotalComplaints)
	s.db.WithContext(ctx).Table("complaints").Where("status = ? AND deleted_at IS NULL", "REGISTERED").Count(&data.RegisteredComplaints)
	s.db.WithContext(ctx).Table("complaints").Where("status = ? AND deleted_at IS NULL", "IN_PROGRESS").Count(&data.InProgressComplaints)
	s.db.WithContext(ctx).Table("complaints").Where("status = ? AND deleted_at IS NULL", "RESOLVED").Count(&data.ResolvedComplaints)
	s.db.WithContext(ctx).Table("complaints").Where("status = ? AND deleted_at IS NULL", "REOPENED").Count(&data.ReopenedComplaints)
	s.db.WithContext(ctx).Table("complaints").Where("sla_breached = ? AND deleted_at IS NULL", true).Count(&data.SLABreached)
	s.db.WithContext(ctx).Table("complaints").Where("guest_submitted = ? AND deleted_at IS NULL", true).Count(&data.GuestSubmitted)

	// This month statistics
	startOfMonth := time.Now().AddDate(0, 0, -time.Now().Day()+1).Truncate(24 * time.Hour)
	s.db.WithContext(ctx).Table("complaints").
		Where("created_at >= ? AND deleted_at IS NULL", startOfMonth).
		Count(&data.ComplaintsThisMonth)

	s.db.WithContext(ctx).Table("complaints").
		Where("resolved_at >= ? AND deleted_at IS NULL", startOfMonth).
		Count(&data.ResolvedThisMonth)

	// Recent complaints
	data.RecentComplaints = s.recentComplaints(ctx, nil)

	// Ward load
	var wardLoad []struct {
		WardID      uint
		WardName    string
		Total       int64
		Open        int64
		Resolved    int64
		SLABreached int64
	}
	s.db.WithContext(ctx).Table("complaints").
		Select(`
			complaints.ward_id,
			wards.name as ward_name,
			COUNT(*) as total,
			SUM(CASE WHEN complaints.status NOT IN ('RESOLVED', 'CLOSED') THEN 1 ELSE 0 END) as open,
			SUM(CASE WHEN complaints.status = 'RESOLVED' THEN 1 ELSE 0 END) as resolved,
			SUM(CASE WHEN complaints.sla_breached = 1 THEN 1 ELSE 0 END) as sla_breached
		`).
		Joins("LEFT JOIN wards ON complaints.ward_id = wards.id").
		Where("complaints.deleted_at IS NULL").
		Group("complaints.ward_id, wards.name").
		Order("total DESC").
		Scan(&wardLoad)

	data.WardLoad = make([]WardStats, len(wardLoad))
	for i, w := range wardLoad {
		data.WardLoad[i] = WardStats{
			WardID:      w.WardID,
			WardName:    w.WardName,
			Total:       w.Total,
			Open:        w.Open,
			Resolved:    w.Resolved,
			SLABreached: w.SLABreached,
		}
	}

	return data, nil
}

// ============================================================
// Officer Dashboard
// ============================================================

// OfficerDashboardData represents ward officer dashboard data
type OfficerDashboardData struct {
	WardID           uint  `json:"ward_id"`
	TotalComplaints  int64 `json:"total_complaints"`
	Unassigned       int64 `json:"unassigned"`
	InProgress       int64 `json:"in_progress"`
	Resolved         int64 `json:"resolved"`
	Overdue          int64 `json:"overdue"`
	ResolvedThisWeek int64 `json:"resolved_this_week"`

	RecentComplaints []ComplaintSummary `json:"recent_complaints"`
}

// GetOfficerDashboard returns dashboard data scoped to the officer's ward
func (s *DashboardService) GetOfficerDashboard(ctx context.Context, wardID uint) (*OfficerDashboardData, error) {
	data := &OfficerDashboardData{WardID: wardID}

	base := func() *gorm.DB {
		return s.db.WithContext(ctx).Table("complaints").
			Where("ward_id = ? AND deleted_at IS NULL", wardID)
	}

	base().Count(&data.TotalComplaints)
	base().Where("status = ? AND assigned_to_id IS NULL", "REGISTERED").Count(&data.Unassigned)
	base().Where("status = ?", "IN_PROGRESS").Count(&data.InProgress)
	base().Where("status = ?", "RESOLVED").Count(&data.Resolved)
	base().Where("sla_breached = ? AND status NOT IN ('RESOLVED', 'CLOSED')", true).Count(&data.Overdue)

	weekAgo := time.Now().AddDate(0, 0, -7)
	base().Where("resolved_at >= ?", weekAgo).Count(&data.ResolvedThisWeek)

	data.RecentComplaints = s.recentComplaints(ctx, &wardID)
	return data, nil
}

// recentComplaints fetches the latest complaints, optionally ward-scoped
func (s *DashboardService) recentComplaints(ctx context.Context, wardID *uint) []ComplaintSummary {
	var rows []struct {
		ID             uint
		TrackingNumber string
		TypeName       string
		WardName       string
		Priority       string
		Status         string
		CreatedAt      time.Time
	}

	q := s.db.WithContext(ctx).Table("complaints").
		Select("complaints.id, complaints.tracking_number, complaint_types.name as type_name, wards.name as ward_name, complaints.priority, complaints.status, complaints.created_at").
		Joins("LEFT JOIN complaint_types ON complaints.type_id = complaint_types.id").
		Joins("LEFT JOIN wards ON complaints.ward_id = wards.id").
		Where("complaints.deleted_at IS NULL")
	if wardID != nil {
		q = q.Where("complaints.ward_id = ?", *wardID)
	}
	q.Order("complaints.created_at DESC").Limit(10).Scan(&rows)

	out := make([]ComplaintSummary, len(rows))
	for i, r := range rows {
		out[i] = ComplaintSummary{
			ID:             r.ID,
			TrackingNumber: r.TrackingNumber,
			TypeName:       r.TypeName,
			WardName:       r.WardName,
			Priority:       r.Priority,
			Status:         r.Status,
			CreatedAt:      r.CreatedAt,
		}
	}
	return out
}
