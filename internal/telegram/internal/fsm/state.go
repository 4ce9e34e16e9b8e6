package fsm

import (
	"time"

	"isp-order-bot/internal/pkg/model"
)

type Flow int

const (
	FlowNone Flow = iota
	FlowRegistration
	FlowCreateOrder
	FlowEvidence
	FlowProgress
)

func (f Flow) String() string {
	switch f {
	case FlowRegistration:
		return "registration"
	case FlowCreateOrder:
		return "create_order"
	case FlowEvidence:
		return "evidence_upload"
	case FlowProgress:
		return "progress_update"
	default:
		return "none"
	}
}

type ConversationStep int

const (
	StepIdle ConversationStep = iota
	StepRegistrationName
	StepRegistrationRole
	StepRegistrationSTO
	StepAwaitingOrderID
	StepAwaitingCustomerName
	StepAwaitingCustomerAddress
	StepAwaitingContact
	StepAwaitingSTO
	StepAwaitingTransactionType
	StepAwaitingServiceType
	StepAwaitingAssignChoice
	StepAwaitingODPName
	StepAwaitingSerialNumber
	StepAwaitingEvidencePhoto
	StepEvidenceComplete
	StepAwaitingProgressStage
	StepAwaitingProgressStatus
	StepAwaitingProgressNote
)

var stepNames = map[ConversationStep]string{
	StepIdle:                    "idle",
	StepRegistrationName:        "registration_name",
	StepRegistrationRole:        "registration_role",
	StepRegistrationSTO:         "registration_sto",
	StepAwaitingOrderID:         "order_id",
	StepAwaitingCustomerName:    "customer_name",
	StepAwaitingCustomerAddress: "customer_address",
	StepAwaitingContact:         "contact",
	StepAwaitingSTO:             "sto_selection",
	StepAwaitingTransactionType: "transaction_type",
	StepAwaitingServiceType:     "service_type",
	StepAwaitingAssignChoice:    "assign_choice",
	StepAwaitingODPName:         "odp_name",
	StepAwaitingSerialNumber:    "ont_serial",
	StepAwaitingEvidencePhoto:   "evidence_photo",
	StepEvidenceComplete:        "evidence_complete",
	StepAwaitingProgressStage:   "progress_stage",
	StepAwaitingProgressStatus:  "progress_status",
	StepAwaitingProgressNote:    "progress_note",
}

func (s ConversationStep) String() string {
	if name, ok := stepNames[s]; ok {
		return name
	}
	return "unknown"
}

func (s ConversationStep) Flow() Flow {
	switch s {
	case StepRegistrationName, StepRegistrationRole, StepRegistrationSTO:
		return FlowRegistration
	case StepAwaitingOrderID, StepAwaitingCustomerName, StepAwaitingCustomerAddress,
		StepAwaitingContact, StepAwaitingSTO, StepAwaitingTransactionType,
		StepAwaitingServiceType, StepAwaitingAssignChoice:
		return FlowCreateOrder
	case StepAwaitingODPName, StepAwaitingSerialNumber, StepAwaitingEvidencePhoto, StepEvidenceComplete:
		return FlowEvidence
	case StepAwaitingProgressStage, StepAwaitingProgressStatus, StepAwaitingProgressNote:
		return FlowProgress
	default:
		return FlowNone
	}
}

type EventKind int

const (
	EventText EventKind = iota
	EventCallback
	EventPhoto
)

func (k EventKind) String() string {
	switch k {
	case EventText:
		return "text"
	case EventCallback:
		return "callback"
	case EventPhoto:
		return "photo"
	default:
		return "unknown"
	}
}

type State struct {
	Flow      Flow
	Step      ConversationStep
	Data      StateData
	UpdatedAt time.Time
}

func IdleState() State {
	return State{Flow: FlowNone, Step: StepIdle, Data: &IdleData{}}
}

type StateData interface {
	StateData()
}

type IdleData struct{}

func (data *IdleData) StateData() {}

type RegistrationData struct {
	Name string
	// UserID is set once the user row exists.
	UserID int64
}

func (data *RegistrationData) StateData() {}

type OrderDraftData struct {
	OrderID         string
	CustomerName    string
	CustomerAddress string
	Contact         string
	STO             string
	TransactionType string
	ServiceType     string
}

func (data *OrderDraftData) StateData() {}

type EvidenceData struct {
	OrderID      string
	ODPName      string
	SerialNumber string
	// Filled holds the slot fields already stored for the order.
	Filled map[string]bool
	// Seen holds the file_unique_id of every photo handled this session.
	Seen map[string]bool
}

func (data *EvidenceData) StateData() {}

func NewEvidenceData(orderID string) *EvidenceData {
	return &EvidenceData{
		OrderID: orderID,
		Filled:  map[string]bool{},
		Seen:    map[string]bool{},
	}
}

// NextSlot is the first slot not yet filled.
func (data *EvidenceData) NextSlot() (model.EvidenceSlot, int, bool) {
	for i, slot := range model.EvidenceSlots {
		if !data.Filled[slot.Field] {
			return slot, i, true
		}
	}
	return model.EvidenceSlot{}, len(model.EvidenceSlots), false
}

func (data *EvidenceData) FilledCount() int {
	count := 0
	for _, slot := range model.EvidenceSlots {
		if data.Filled[slot.Field] {
			count++
		}
	}
	return count
}

type ProgressData struct {
	OrderID string
	Stage   model.Stage
	Status  model.AssignmentStatus
}

func (data *ProgressData) StateData() {}
