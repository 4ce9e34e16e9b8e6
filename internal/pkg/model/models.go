package model

import "time"

type OrderStatus string

const (
	StatusPending    OrderStatus = "Pending"
	StatusInProgress OrderStatus = "In Progress"
	StatusOnHold     OrderStatus = "On Hold"
	StatusCompleted  OrderStatus = "Completed"
	StatusClosed     OrderStatus = "Closed"
)

// ActiveStatuses are the statuses listed by the assignment and view menus.
var ActiveStatuses = []OrderStatus{StatusPending, StatusInProgress, StatusOnHold}

func (s OrderStatus) Active() bool {
	for _, status := range ActiveStatuses {
		if s == status {
			return true
		}
	}
	return false
}

type TTIStatus string

const (
	TTIPending   TTIStatus = "pending"
	TTIComply    TTIStatus = "comply"
	TTINotComply TTIStatus = "not_comply"
)

// Decided reports whether a compliance verdict has been recorded.
func (s TTIStatus) Decided() bool {
	return s == TTIComply || s == TTINotComply
}

type Order struct {
	ID                 string
	CustomerName       string
	CustomerAddress    string
	Contact            string
	STO                string
	TransactionType    string
	ServiceType        string
	Status             OrderStatus
	AssignedTechnician *int64
	CreatedBy          *int64
	CreatedAt          *time.Time
	UpdatedAt          *time.Time
	SODAt              *time.Time
	E2EAt              *time.Time
	LMEPT2StartAt      *time.Time
	LMEPT2EndAt        *time.Time
	ClosedAt           *time.Time
	TTIDeadline        *time.Time
	TTIStatus          TTIStatus
	TTIDuration        *time.Duration
}

// Marker names a milestone timestamp recorded on an order.
type Marker string

const (
	MarkerSOD         Marker = "sod"
	MarkerE2E         Marker = "e2e"
	MarkerLMEPT2Start Marker = "lme_pt2_start"
	MarkerLMEPT2End   Marker = "lme_pt2_end"
)

var Markers = []Marker{MarkerSOD, MarkerE2E, MarkerLMEPT2Start, MarkerLMEPT2End}

func ParseMarker(s string) (Marker, bool) {
	for _, m := range Markers {
		if string(m) == s {
			return m, true
		}
	}
	return "", false
}

func (m Marker) Label() string {
	switch m {
	case MarkerSOD:
		return "SOD"
	case MarkerE2E:
		return "E2E"
	case MarkerLMEPT2Start:
		return "LME-PT2 Mulai"
	case MarkerLMEPT2End:
		return "LME-PT2 Selesai"
	default:
		return string(m)
	}
}

type Role string

const (
	RoleHD         Role = "HD"
	RoleTechnician Role = "Teknisi"
)

func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RoleHD, RoleTechnician:
		return Role(s), true
	default:
		return "", false
	}
}

type User struct {
	ID         int64
	TelegramID int64
	ChatID     *int64
	Name       string
	Username   string
	Role       Role
	CreatedAt  time.Time
}

type AssignmentStatus string

const (
	AssignmentAssigned   AssignmentStatus = "assigned"
	AssignmentInProgress AssignmentStatus = "in_progress"
	AssignmentCompleted  AssignmentStatus = "completed"
	AssignmentBlocked    AssignmentStatus = "blocked"
	AssignmentPending    AssignmentStatus = "pending"
)

// ProgressStatuses are the statuses a technician may report for a stage.
var ProgressStatuses = []AssignmentStatus{AssignmentInProgress, AssignmentCompleted, AssignmentBlocked}

func ParseAssignmentStatus(s string) (AssignmentStatus, bool) {
	switch AssignmentStatus(s) {
	case AssignmentAssigned, AssignmentInProgress, AssignmentCompleted, AssignmentBlocked, AssignmentPending:
		return AssignmentStatus(s), true
	default:
		return "", false
	}
}

type StageAssignment struct {
	ID             int64
	OrderID        string
	Stage          Stage
	TechnicianID   int64
	TechnicianName string
	Status         AssignmentStatus
	AssignedAt     time.Time
}

type Progress struct {
	ID        int64
	OrderID   string
	Stage     Stage
	Status    AssignmentStatus
	Note      string
	UpdatedBy int64
	CreatedAt time.Time
}

type Evidence struct {
	OrderID      string
	ODPName      string
	SerialNumber string
	// Photos maps an EvidenceSlot field to its storage key.
	Photos    map[string]string
	UpdatedAt *time.Time
}

func (e *Evidence) PhotoCount() int {
	count := 0
	for _, slot := range EvidenceSlots {
		if e.Photos[slot.Field] != "" {
			count++
		}
	}
	return count
}

// NextSlot returns the first slot without a stored photo.
func (e *Evidence) NextSlot() (EvidenceSlot, bool) {
	for _, slot := range EvidenceSlots {
		if e.Photos[slot.Field] == "" {
			return slot, true
		}
	}
	return EvidenceSlot{}, false
}

type Notification struct {
	ID        int64
	UserID    int64
	OrderID   string
	Kind      string
	Message   string
	CreatedAt time.Time
}
