package evidence

import (
	"time"

	"isp-order-bot/internal/pkg/model"
)

type DBEvidence struct {
	OrderID        string     `db:"order_id"`
	ODPName        string     `db:"odp_name"`
	SerialNumber   string     `db:"ont_sn"`
	PhotoODP       string     `db:"photo_odp"`
	PhotoSNONT     string     `db:"photo_sn_ont"`
	PhotoTopology  string     `db:"photo_topology"`
	PhotoCable     string     `db:"photo_cable"`
	PhotoCustomer  string     `db:"photo_customer"`
	PhotoReport    string     `db:"photo_report"`
	PhotoSpeedtest string     `db:"photo_speedtest"`
	UpdatedAt      *time.Time `db:"updated_at"`
}

var evidenceColumns = []string{
	"order_id", "odp_name", "ont_sn",
	"photo_odp", "photo_sn_ont", "photo_topology", "photo_cable",
	"photo_customer", "photo_report", "photo_speedtest", "updated_at",
}

const (
	columnODPName      = "odp_name"
	columnSerialNumber = "ont_sn"
)

// writableColumn guards the column names interpolated into upserts.
func writableColumn(column string) bool {
	if column == columnODPName || column == columnSerialNumber {
		return true
	}
	_, ok := model.EvidenceSlotByField(column)
	return ok
}

func toModel(e DBEvidence) *model.Evidence {
	return &model.Evidence{
		OrderID:      e.OrderID,
		ODPName:      e.ODPName,
		SerialNumber: e.SerialNumber,
		Photos: map[string]string{
			"photo_odp":       e.PhotoODP,
			"photo_sn_ont":    e.PhotoSNONT,
			"photo_topology":  e.PhotoTopology,
			"photo_cable":     e.PhotoCable,
			"photo_customer":  e.PhotoCustomer,
			"photo_report":    e.PhotoReport,
			"photo_speedtest": e.PhotoSpeedtest,
		},
		UpdatedAt: e.UpdatedAt,
	}
}

// NextSlot returns the slot the next photo fills.
func NextSlot(ev *model.Evidence) (model.EvidenceSlot, error) {
	slot, ok := ev.NextSlot()
	if !ok {
		return model.EvidenceSlot{}, ErrAlreadyComplete
	}
	return slot, nil
}
