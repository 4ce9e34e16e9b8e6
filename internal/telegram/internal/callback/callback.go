package callback

import (
	"errors"
	"fmt"
	"strings"
)

// MaxLen is the Bot API limit on callback_data.
const MaxLen = 64

var (
	ErrUnknownAction = errors.New("unknown callback action")
	ErrArity         = errors.New("wrong number of callback arguments")
)

type Action string

const (
	Noop           Action = "noop"
	Cancel         Action = "cancel"
	Role           Action = "role"
	STO            Action = "sto"
	Transaction    Action = "trx"
	Service        Action = "svc"
	AssignNow      Action = "assign_now"
	AssignLater    Action = "assign_later"
	AssignOrders   Action = "asg_orders"
	AssignOrder    Action = "asg_order"
	AssignStage    Action = "asg_stage"
	AssignTech     Action = "asg_tech"
	AssignAll      Action = "asg_all"
	AssignAllTo    Action = "asg_allto"
	EvidenceOrders Action = "evd_orders"
	EvidenceOrder  Action = "evd_order"
	ProgressOrder  Action = "prg_order"
	ProgressStage  Action = "prg_stage"
	ProgressStatus Action = "prg_status"
	ProgressSkip   Action = "prg_skip"
	ViewOrders     Action = "view_orders"
	ViewOrder      Action = "view_order"
	MarkSOD        Action = "ts_sod"
	MarkE2E        Action = "ts_e2e"
	MarkLMEStart   Action = "ts_lmes"
	MarkLMEEnd     Action = "ts_lmee"
	Hold           Action = "st_hold"
	Resume         Action = "st_resume"
)

// arity is the argument count of every action. The last argument may
// itself contain underscores.
var arity = map[Action]int{
	Noop:           0,
	Cancel:         0,
	Role:           1,
	STO:            1,
	Transaction:    1,
	Service:        1,
	AssignNow:      1,
	AssignLater:    0,
	AssignOrders:   0,
	AssignOrder:    1,
	AssignStage:    2,
	AssignTech:     3,
	AssignAll:      1,
	AssignAllTo:    2,
	EvidenceOrders: 0,
	EvidenceOrder:  1,
	ProgressOrder:  1,
	ProgressStage:  1,
	ProgressStatus: 1,
	ProgressSkip:   0,
	ViewOrders:     0,
	ViewOrder:      1,
	MarkSOD:        1,
	MarkE2E:        1,
	MarkLMEStart:   1,
	MarkLMEEnd:     1,
	Hold:           1,
	Resume:         1,
}

type Callback struct {
	Action Action
	Args   []string
}

func (c Callback) Arg(i int) string {
	if i < 0 || i >= len(c.Args) {
		return ""
	}
	return c.Args[i]
}

func Data(action Action, args ...string) string {
	if len(args) == 0 {
		return string(action)
	}
	return string(action) + "_" + strings.Join(args, "_")
}

// Parse resolves data against the longest matching action.
func Parse(data string) (Callback, error) {
	var matched Action
	for action := range arity {
		a := string(action)
		if (data == a || strings.HasPrefix(data, a+"_")) && len(a) > len(matched) {
			matched = action
		}
	}
	if matched == "" {
		return Callback{}, fmt.Errorf("%w: %q", ErrUnknownAction, data)
	}

	n := arity[matched]
	rest := strings.TrimPrefix(strings.TrimPrefix(data, string(matched)), "_")
	if n == 0 {
		if rest != "" {
			return Callback{}, fmt.Errorf("%w: %q", ErrArity, data)
		}
		return Callback{Action: matched}, nil
	}
	if rest == "" {
		return Callback{}, fmt.Errorf("%w: %q", ErrArity, data)
	}
	args := strings.SplitN(rest, "_", n)
	if len(args) != n {
		return Callback{}, fmt.Errorf("%w: %q", ErrArity, data)
	}
	for _, arg := range args {
		if arg == "" {
			return Callback{}, fmt.Errorf("%w: %q", ErrArity, data)
		}
	}
	return Callback{Action: matched, Args: args}, nil
}
