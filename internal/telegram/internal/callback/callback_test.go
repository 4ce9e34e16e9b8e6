package callback

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		data   string
		action Action
		args   []string
	}{
		{"cancel", Cancel, nil},
		{"asg_orders", AssignOrders, nil},
		{"asg_order_ORD_2024_01", AssignOrder, []string{"ORD_2024_01"}},
		{"asg_stage_survey_ORD-1", AssignStage, []string{"survey", "ORD-1"}},
		{"asg_tech_p2p_42_SC_99", AssignTech, []string{"p2p", "42", "SC_99"}},
		{"asg_allto_42_ORD-1", AssignAllTo, []string{"42", "ORD-1"}},
		{"asg_all_ORD-1", AssignAll, []string{"ORD-1"}},
		{"prg_status_in_progress", ProgressStatus, []string{"in_progress"}},
		{"ts_lmee_ORD-7", MarkLMEEnd, []string{"ORD-7"}},
		{"sto_CBB", STO, []string{"CBB"}},
	}
	for _, tt := range tests {
		t.Run(tt.data, func(t *testing.T) {
			cb, err := Parse(tt.data)
			require.NoError(t, err)
			assert.Equal(t, tt.action, cb.Action)
			assert.Equal(t, tt.args, cb.Args)
		})
	}
}

func TestParseErrors(t *testing.T) {
	_, err := Parse("unknown_thing")
	assert.ErrorIs(t, err, ErrUnknownAction)

	_, err = Parse("asg_tech_p2p")
	assert.ErrorIs(t, err, ErrArity)

	_, err = Parse("asg_order")
	assert.ErrorIs(t, err, ErrArity)

	_, err = Parse("cancel_now")
	assert.ErrorIs(t, err, ErrArity)
}

func TestDataRoundTrip(t *testing.T) {
	data := Data(AssignTech, "instalasi", "17", "ORD_5")
	assert.Equal(t, "asg_tech_instalasi_17_ORD_5", data)

	cb, err := Parse(data)
	require.NoError(t, err)
	assert.Equal(t, "ORD_5", cb.Arg(2))
	assert.Equal(t, "", cb.Arg(3))
	assert.LessOrEqual(t, len(data), MaxLen)
}
