package telegram

import (
	"context"
	"strings"
	"sync"
	"time"

	"isp-order-bot/internal/assignment"
	"isp-order-bot/internal/order"
	"isp-order-bot/internal/pkg/model"
	"isp-order-bot/internal/user"
	"isp-order-bot/pkg"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

type sentMessage struct {
	chatID int64
	text   string
	markup models.ReplyMarkup
}

type recordingMessenger struct {
	mu       sync.Mutex
	sent     []sentMessage
	answered []string
}

func (m *recordingMessenger) SendMessage(_ context.Context, params *bot.SendMessageParams) (*models.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	chatID, _ := params.ChatID.(int64)
	m.sent = append(m.sent, sentMessage{chatID: chatID, text: params.Text, markup: params.ReplyMarkup})
	return &models.Message{ID: len(m.sent)}, nil
}

func (m *recordingMessenger) AnswerCallbackQuery(_ context.Context, params *bot.AnswerCallbackQueryParams) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.answered = append(m.answered, params.CallbackQueryID)
	return true, nil
}

func (m *recordingMessenger) last() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.sent) == 0 {
		return ""
	}
	return m.sent[len(m.sent)-1].text
}

func (m *recordingMessenger) contains(substr string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.sent {
		if strings.Contains(s.text, substr) {
			return true
		}
	}
	return false
}

type fakeOrders struct {
	mu     sync.Mutex
	orders map[string]*model.Order
	// assigned maps technician user id to order ids.
	assigned map[int64][]string
}

func newFakeOrders() *fakeOrders {
	return &fakeOrders{orders: map[string]*model.Order{}, assigned: map[int64][]string{}}
}

func (f *fakeOrders) CreateOrder(_ context.Context, orderID string, createdBy int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.orders[orderID]; ok {
		return order.ErrDuplicateOrder
	}
	now := time.Now()
	f.orders[orderID] = &model.Order{ID: orderID, Status: model.StatusPending, CreatedBy: &createdBy, CreatedAt: &now, TTIStatus: model.TTIPending}
	return nil
}

func (f *fakeOrders) OrderExists(_ context.Context, orderID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.orders[orderID]
	return ok, nil
}

func (f *fakeOrders) UpdateOrder(_ context.Context, orderID string, patch order.Patch) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[orderID]
	if !ok {
		return pkg.ErrNotFound
	}
	set := func(dst *string, v *string) {
		if v != nil {
			*dst = *v
		}
	}
	set(&o.CustomerName, patch.CustomerName)
	set(&o.CustomerAddress, patch.CustomerAddress)
	set(&o.Contact, patch.Contact)
	set(&o.STO, patch.STO)
	set(&o.TransactionType, patch.TransactionType)
	set(&o.ServiceType, patch.ServiceType)
	if patch.Status != nil {
		o.Status = *patch.Status
	}
	if patch.AssignedTechnician != nil {
		tech := *patch.AssignedTechnician
		o.AssignedTechnician = &tech
	}
	return nil
}

func (f *fakeOrders) GetOrder(_ context.Context, orderID string) (*model.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[orderID]
	if !ok {
		return nil, pkg.ErrNotFound
	}
	cp := *o
	return &cp, nil
}

func (f *fakeOrders) ActiveOrders(_ context.Context) ([]model.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Order
	for _, o := range f.orders {
		if o.Status.Active() {
			out = append(out, *o)
		}
	}
	order.SortActive(out)
	return out, nil
}

func (f *fakeOrders) TechnicianOrders(_ context.Context, technicianID int64) ([]model.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Order
	for _, id := range f.assigned[technicianID] {
		if o, ok := f.orders[id]; ok && o.Status != model.StatusClosed {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (f *fakeOrders) SetStatus(_ context.Context, orderID string, status model.OrderStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if o, ok := f.orders[orderID]; ok {
		o.Status = status
		return nil
	}
	return pkg.ErrNotFound
}

func (f *fakeOrders) CloseOrder(_ context.Context, orderID string, at time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[orderID]
	if !ok {
		return false, pkg.ErrNotFound
	}
	if o.Status == model.StatusClosed {
		return false, nil
	}
	o.Status = model.StatusClosed
	o.ClosedAt = &at
	return true, nil
}

func (f *fakeOrders) RecordMarker(_ context.Context, orderID string, marker model.Marker, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[orderID]
	if !ok {
		return pkg.ErrNotFound
	}
	switch marker {
	case model.MarkerSOD:
		o.SODAt = &at
	case model.MarkerE2E:
		o.E2EAt = &at
	case model.MarkerLMEPT2Start:
		o.LMEPT2StartAt = &at
	case model.MarkerLMEPT2End:
		o.LMEPT2EndAt = &at
	}
	return nil
}

func (f *fakeOrders) SetDeadline(_ context.Context, orderID string, deadline time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o := f.orders[orderID]
	if o.TTIDeadline != nil {
		return false, nil
	}
	o.TTIDeadline = &deadline
	return true, nil
}

func (f *fakeOrders) SetCompliance(_ context.Context, orderID string, status model.TTIStatus, elapsed time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	o := f.orders[orderID]
	o.TTIStatus = status
	o.TTIDuration = &elapsed
	return nil
}

type fakeUsers struct {
	mu     sync.Mutex
	byTG   map[int64]*model.User
	nextID int64
	stos   map[int64][]string
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{byTG: map[int64]*model.User{}, nextID: 1}
}

func (f *fakeUsers) add(telegramID int64, name string, role model.Role) *model.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	chatID := telegramID
	u := &model.User{ID: f.nextID, TelegramID: telegramID, ChatID: &chatID, Name: name, Role: role}
	f.nextID++
	f.byTG[telegramID] = u
	return u
}

func (f *fakeUsers) FindByTelegramID(_ context.Context, telegramID int64) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.byTG[telegramID]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, nil
}

func (f *fakeUsers) GetUser(_ context.Context, id int64) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.byTG {
		if u.ID == id {
			cp := *u
			return &cp, nil
		}
	}
	return nil, pkg.ErrNotFound
}

func (f *fakeUsers) Register(_ context.Context, req user.RegisterRequest) (*model.User, error) {
	u := f.add(req.TelegramID, req.Name, req.Role)
	return u, nil
}

func (f *fakeUsers) ByRole(_ context.Context, role model.Role) ([]model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.User
	for _, u := range f.byTG {
		if u.Role == role {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (f *fakeUsers) Technicians(ctx context.Context, _ string) ([]model.User, error) {
	return f.ByRole(ctx, model.RoleTechnician)
}

func (f *fakeUsers) SetSTOs(_ context.Context, userID int64, stos []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.stos == nil {
		f.stos = map[int64][]string{}
	}
	f.stos[userID] = stos
	return nil
}

type fakeAssignments struct {
	mu          sync.Mutex
	orders      *fakeOrders
	assignments []model.StageAssignment
	progress    []model.Progress
}

func (f *fakeAssignments) Assign(_ context.Context, orderID string, stage model.Stage, technicianID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.assignments = append(f.assignments, model.StageAssignment{OrderID: orderID, Stage: stage, TechnicianID: technicianID, Status: model.AssignmentAssigned})
	f.orders.mu.Lock()
	f.orders.assigned[technicianID] = append(f.orders.assigned[technicianID], orderID)
	f.orders.mu.Unlock()
	return nil
}

func (f *fakeAssignments) AssignAll(ctx context.Context, orderID string, technicianID int64) assignment.BulkResult {
	result := assignment.BulkResult{Errors: map[model.Stage]error{}}
	for _, stage := range model.Stages {
		if err := f.Assign(ctx, orderID, stage, technicianID); err != nil {
			result.Failed++
			result.Errors[stage] = err
			continue
		}
		result.Succeeded++
	}
	return result
}

func (f *fakeAssignments) StageBoard(_ context.Context, _ string) ([]assignment.StageView, error) {
	board := make([]assignment.StageView, 0, len(model.Stages))
	for _, stage := range model.Stages {
		board = append(board, assignment.StageView{Stage: stage, Status: model.AssignmentPending})
	}
	return board, nil
}

func (f *fakeAssignments) RecordProgress(_ context.Context, progress model.Progress) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.progress = append(f.progress, progress)
	return nil
}

func (f *fakeAssignments) TechnicianAssignments(_ context.Context, technicianID int64) ([]model.StageAssignment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.StageAssignment
	for _, a := range f.assignments {
		if a.TechnicianID == technicianID {
			out = append(out, a)
		}
	}
	return out, nil
}

type fakeEvidence struct {
	mu       sync.Mutex
	evidence map[string]*model.Evidence
	stored   []string
}

func newFakeEvidence() *fakeEvidence {
	return &fakeEvidence{evidence: map[string]*model.Evidence{}}
}

func (f *fakeEvidence) get(orderID string) *model.Evidence {
	ev, ok := f.evidence[orderID]
	if !ok {
		ev = &model.Evidence{OrderID: orderID, Photos: map[string]string{}}
		f.evidence[orderID] = ev
	}
	return ev
}

func (f *fakeEvidence) Load(_ context.Context, orderID string) (*model.Evidence, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ev := *f.get(orderID)
	return &ev, nil
}

func (f *fakeEvidence) SetODPName(_ context.Context, orderID, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.get(orderID).ODPName = name
	return nil
}

func (f *fakeEvidence) SetSerialNumber(_ context.Context, orderID, serial string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.get(orderID).SerialNumber = serial
	return nil
}

func (f *fakeEvidence) StorePhoto(_ context.Context, orderID string, slot model.EvidenceSlot, fileID string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := orderID + "/" + slot.Field
	f.get(orderID).Photos[slot.Field] = key
	f.stored = append(f.stored, slot.Field+"="+fileID)
	return key, nil
}

func (f *fakeEvidence) storedPhotos() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.stored...)
}

type notice struct {
	to   string
	kind string
	text string
}

type fakeNotifier struct {
	mu      sync.Mutex
	notices []notice
}

func (f *fakeNotifier) NotifyUser(_ context.Context, u model.User, _ string, kind, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.notices = append(f.notices, notice{to: u.Name, kind: kind, text: text})
	return nil
}

func (f *fakeNotifier) NotifyRole(_ context.Context, role model.Role, _ string, kind, text string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.notices = append(f.notices, notice{to: string(role), kind: kind, text: text})
	return 1, nil
}

func (f *fakeNotifier) kinds() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, n := range f.notices {
		out = append(out, n.to+":"+n.kind)
	}
	return out
}

type fakeTracker struct {
	mu       sync.Mutex
	orders   *fakeOrders
	assigned []string
	markers  []model.Marker
	closes   int
}

func (f *fakeTracker) OnAssigned(_ context.Context, orderID string, _ time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.assigned = append(f.assigned, orderID)
	return nil
}

func (f *fakeTracker) RecordMarker(ctx context.Context, orderID string, marker model.Marker, at time.Time) error {
	f.mu.Lock()
	f.markers = append(f.markers, marker)
	f.mu.Unlock()
	return f.orders.RecordMarker(ctx, orderID, marker, at)
}

func (f *fakeTracker) Close(ctx context.Context, orderID string, at time.Time) (bool, error) {
	closed, err := f.orders.CloseOrder(ctx, orderID, at)
	if closed {
		f.mu.Lock()
		f.closes++
		f.mu.Unlock()
	}
	return closed, err
}
