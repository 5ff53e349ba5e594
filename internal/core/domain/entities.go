package domain

// Role represents user role in the system
type Role string

const (
	RoleCitizen     Role = "CITIZEN"
	RoleWardOfficer Role = "WARD_OFFICER"
	RoleMaintenance Role = "MAINTENANCE"
	RoleAdmin       Role = "ADMIN"
)

// ComplaintStatus represents the lifecycle status of a complaint
type ComplaintStatus string

const (
	StatusRegistered ComplaintStatus = "REGISTERED"
	StatusAssigned   ComplaintStatus = "ASSIGNED"
	StatusInProgress ComplaintStatus = "IN_PROGRESS"
	StatusResolved   ComplaintStatus = "RESOLVED"
	StatusClosed     ComplaintStatus = "CLOSED"
	StatusReopened   ComplaintStatus = "REOPENED"
)

// statusTransitions maps each status to the statuses it may move to
var statusTransitions = map[ComplaintStatus][]ComplaintStatus{
	StatusRegistered: {StatusAssigned},
	StatusAssigned:   {StatusInProgress, StatusRegistered},
	StatusInProgress: {StatusResolved},
	StatusResolved:   {StatusClosed, StatusReopened},
	StatusClosed:     {StatusReopened},
	StatusReopened:   {StatusAssigned},
}

// CanTransition reports whether a complaint may move from one status to another
func CanTransition(from, to ComplaintStatus) bool {
	for _, allowed := range statusTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// Priority represents complaint priority
type Priority string

const (
	PriorityLow      Priority = "LOW"
	PriorityMedium   Priority = "MEDIUM"
	PriorityHigh     Priority = "HIGH"
	PriorityCritical Priority = "CRITICAL"
)

// ValidPriority reports whether p is a known priority value
func ValidPriority(p Priority) bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical:
		return true
	}
	return false
}

// ComplaintCategory represents the fixed complaint type categories
type ComplaintCategory string

const (
	CategoryWaterSupply ComplaintCategory = "WATER_SUPPLY"
	CategoryElectricity ComplaintCategory = "ELECTRICITY"
	CategoryRoadRepair  ComplaintCategory = "ROAD_REPAIR"
	CategoryGarbage     ComplaintCategory = "GARBAGE_COLLECTION"
	CategoryStreetLight ComplaintCategory = "STREET_LIGHTING"
	CategoryDrainage    ComplaintCategory = "DRAINAGE"
	CategorySewerage    ComplaintCategory = "SEWERAGE"
	CategoryOthers      ComplaintCategory = "OTHERS"
)

// Categories lists all known complaint categories
func Categories() []ComplaintCategory {
	return []ComplaintCategory{
		CategoryWaterSupply,
		CategoryElectricity,
		CategoryRoadRepair,
		CategoryGarbage,
		CategoryStreetLight,
		CategoryDrainage,
		CategorySewerage,
		CategoryOthers,
	}
}

// ValidCategory reports whether c is a known category
func ValidCategory(c ComplaintCategory) bool {
	for _, known := range Categories() {
		if c == known {
			return true
		}
	}
	return false
}

// Coordinates represents an optional GPS location
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}
