package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseCanonical(t *testing.T) {
	tests := []struct {
		name   string
		parse  func(string) (string, bool)
		input  string
		want   string
		wantOK bool
	}{
		{"sto exact", ParseSTO, "CBB", "CBB", true},
		{"sto lower with spaces", ParseSTO, "  cbb ", "CBB", true},
		{"sto unknown", ParseSTO, "XYZ", "", false},
		{"sto empty", ParseSTO, "", "", false},
		{"transaction case-insensitive", ParseTransactionType, "new INSTALL", "New install", true},
		{"transaction unknown", ParseTransactionType, "upgrade", "", false},
		{"service mixed case", ParseServiceType, "astinet", "Astinet", true},
		{"service with space", ParseServiceType, "vpn ip", "VPN IP", true},
		{"service unknown", ParseServiceType, "dial-up", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.parse(tt.input)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSTOCodesCount(t *testing.T) {
	assert.Len(t, STOCodes, 20)
	seen := map[string]bool{}
	for _, code := range STOCodes {
		assert.False(t, seen[code], "duplicate STO %s", code)
		seen[code] = true
	}
}

func TestEvidenceNextSlot(t *testing.T) {
	ev := &Evidence{Photos: map[string]string{}}
	slot, ok := ev.NextSlot()
	assert.True(t, ok)
	assert.Equal(t, EvidenceSlots[0], slot)

	for _, s := range EvidenceSlots[:3] {
		ev.Photos[s.Field] = "key"
	}
	slot, ok = ev.NextSlot()
	assert.True(t, ok)
	assert.Equal(t, EvidenceSlots[3], slot)
	assert.Equal(t, 3, ev.PhotoCount())

	for _, s := range EvidenceSlots {
		ev.Photos[s.Field] = "key"
	}
	_, ok = ev.NextSlot()
	assert.False(t, ok)
	assert.Equal(t, 7, ev.PhotoCount())
}

func TestOrderStatusActive(t *testing.T) {
	assert.True(t, StatusPending.Active())
	assert.True(t, StatusOnHold.Active())
	assert.False(t, StatusClosed.Active())
	assert.False(t, StatusCompleted.Active())
}
