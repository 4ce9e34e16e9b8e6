package order

import (
	"time"

	"isp-order-bot/internal/pkg/model"
)

type DBOrder struct {
	OrderID            string            `db:"order_id"`
	CustomerName       string            `db:"customer_name"`
	CustomerAddress    string            `db:"customer_address"`
	Contact            string            `db:"contact"`
	STO                string            `db:"sto"`
	TransactionType    string            `db:"transaction_type"`
	ServiceType        string            `db:"service_type"`
	Status             model.OrderStatus `db:"status"`
	AssignedTechnician *int64            `db:"assigned_technician"`
	CreatedBy          *int64            `db:"created_by"`
	CreatedAt          *time.Time        `db:"created_at"`
	UpdatedAt          *time.Time        `db:"updated_at"`
	SODAt              *time.Time        `db:"sod_at"`
	E2EAt              *time.Time        `db:"e2e_at"`
	LMEPT2StartAt      *time.Time        `db:"lme_pt2_start_at"`
	LMEPT2EndAt        *time.Time        `db:"lme_pt2_end_at"`
	ClosedAt           *time.Time        `db:"closed_at"`
	TTIDeadline        *time.Time        `db:"tti_comply_deadline"`
	TTIStatus          model.TTIStatus   `db:"tti_comply_status"`
	TTISeconds         *int64            `db:"tti_comply_seconds"`
}

var orderColumns = []string{
	"order_id", "customer_name", "customer_address", "contact", "sto",
	"transaction_type", "service_type", "status", "assigned_technician",
	"created_by", "created_at", "updated_at", "sod_at", "e2e_at",
	"lme_pt2_start_at", "lme_pt2_end_at", "closed_at",
	"tti_comply_deadline", "tti_comply_status", "tti_comply_seconds",
}

// Patch carries a partial order update; nil fields are left untouched.
type Patch struct {
	CustomerName       *string
	CustomerAddress    *string
	Contact            *string
	STO                *string
	TransactionType    *string
	ServiceType        *string
	Status             *model.OrderStatus
	AssignedTechnician *int64
}

func (p Patch) fields() map[string]any {
	fields := map[string]any{}
	if p.CustomerName != nil {
		fields["customer_name"] = *p.CustomerName
	}
	if p.CustomerAddress != nil {
		fields["customer_address"] = *p.CustomerAddress
	}
	if p.Contact != nil {
		fields["contact"] = *p.Contact
	}
	if p.STO != nil {
		fields["sto"] = *p.STO
	}
	if p.TransactionType != nil {
		fields["transaction_type"] = *p.TransactionType
	}
	if p.ServiceType != nil {
		fields["service_type"] = *p.ServiceType
	}
	if p.Status != nil {
		fields["status"] = string(*p.Status)
	}
	if p.AssignedTechnician != nil {
		fields["assigned_technician"] = *p.AssignedTechnician
	}
	return fields
}

func markerColumn(m model.Marker) (string, bool) {
	switch m {
	case model.MarkerSOD:
		return "sod_at", true
	case model.MarkerE2E:
		return "e2e_at", true
	case model.MarkerLMEPT2Start:
		return "lme_pt2_start_at", true
	case model.MarkerLMEPT2End:
		return "lme_pt2_end_at", true
	default:
		return "", false
	}
}

func toModel(o DBOrder) model.Order {
	order := model.Order{
		ID:                 o.OrderID,
		CustomerName:       o.CustomerName,
		CustomerAddress:    o.CustomerAddress,
		Contact:            o.Contact,
		STO:                o.STO,
		TransactionType:    o.TransactionType,
		ServiceType:        o.ServiceType,
		Status:             o.Status,
		AssignedTechnician: o.AssignedTechnician,
		CreatedBy:          o.CreatedBy,
		CreatedAt:          o.CreatedAt,
		UpdatedAt:          o.UpdatedAt,
		SODAt:              o.SODAt,
		E2EAt:              o.E2EAt,
		LMEPT2StartAt:      o.LMEPT2StartAt,
		LMEPT2EndAt:        o.LMEPT2EndAt,
		ClosedAt:           o.ClosedAt,
		TTIDeadline:        o.TTIDeadline,
		TTIStatus:          o.TTIStatus,
	}
	if o.TTISeconds != nil {
		d := time.Duration(*o.TTISeconds) * time.Second
		order.TTIDuration = &d
	}
	return order
}
