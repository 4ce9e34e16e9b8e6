package model

import "strings"

// STOCodes lists the service-territory codes an order may be filed under.
var STOCodes = []string{
	"BJA", "BTJ", "CBB", "CCD", "CJA",
	"CKW", "CLL", "CMI", "DGO", "GGK",
	"HGM", "KOP", "LBG", "MJY", "NJG",
	"PDL", "RCK", "SOR", "TAS", "UBR",
}

var TransactionTypes = []string{"New install", "Migrate", "Modify", "Disconnect"}

var ServiceTypes = []string{"Astinet", "VPN IP", "Metro-E", "IP Transit", "SIP Trunk"}

func ParseSTO(s string) (string, bool) {
	return matchCanonical(STOCodes, s)
}

func ParseTransactionType(s string) (string, bool) {
	return matchCanonical(TransactionTypes, s)
}

func ParseServiceType(s string) (string, bool) {
	return matchCanonical(ServiceTypes, s)
}

func matchCanonical(values []string, s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}
	for _, v := range values {
		if strings.EqualFold(v, s) {
			return v, true
		}
	}
	return "", false
}

type Stage string

const (
	StageSurvey    Stage = "survey"
	StagePenarikan Stage = "penarikan"
	StageInstalasi Stage = "instalasi"
	StageP2P       Stage = "p2p"
	StageEvidence  Stage = "evidence"
)

// Stages is the fixed, ordered set of workflow stages of an order.
var Stages = []Stage{StageSurvey, StagePenarikan, StageInstalasi, StageP2P, StageEvidence}

func ParseStage(s string) (Stage, bool) {
	for _, stage := range Stages {
		if string(stage) == s {
			return stage, true
		}
	}
	return "", false
}

func (s Stage) Label() string {
	switch s {
	case StageSurvey:
		return "Survey"
	case StagePenarikan:
		return "Penarikan"
	case StageInstalasi:
		return "Instalasi"
	case StageP2P:
		return "P2P"
	case StageEvidence:
		return "Evidence"
	default:
		return string(s)
	}
}

type EvidenceSlot struct {
	Field string
	Label string
}

// EvidenceSlots are the photos an evidence upload collects, in prompt order.
var EvidenceSlots = []EvidenceSlot{
	{Field: "photo_odp", Label: "Foto ODP"},
	{Field: "photo_sn_ont", Label: "Foto SN ONT"},
	{Field: "photo_topology", Label: "Foto Topologi"},
	{Field: "photo_cable", Label: "Foto Penarikan Kabel"},
	{Field: "photo_customer", Label: "Foto Pelanggan"},
	{Field: "photo_report", Label: "Foto Berita Acara"},
	{Field: "photo_speedtest", Label: "Foto Speedtest"},
}

func EvidenceSlotByField(field string) (EvidenceSlot, bool) {
	for _, slot := range EvidenceSlots {
		if slot.Field == field {
			return slot, true
		}
	}
	return EvidenceSlot{}, false
}
