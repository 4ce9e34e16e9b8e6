package order

import (
	"context"
	"testing"
	"time"

	"isp-order-bot/internal/pkg/model"
	"isp-order-bot/pkg"

	sq "github.com/Masterminds/squirrel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRepo struct {
	orders map[string]*DBOrder
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{orders: map[string]*DBOrder{}}
}

func (f *fakeRepo) InsertOrder(_ context.Context, order DBOrder) error {
	if _, ok := f.orders[order.OrderID]; ok {
		return ErrDuplicateOrder
	}
	f.orders[order.OrderID] = &order
	return nil
}

func (f *fakeRepo) OrderExists(_ context.Context, orderID string) (bool, error) {
	_, ok := f.orders[orderID]
	return ok, nil
}

func (f *fakeRepo) GetOrderByID(_ context.Context, orderID string) (*DBOrder, error) {
	o, ok := f.orders[orderID]
	if !ok {
		return nil, pkg.ErrNotFound
	}
	c := *o
	return &c, nil
}

func (f *fakeRepo) UpdateOrder(ctx context.Context, orderID string, fields map[string]any) error {
	_, err := f.UpdateOrderWhere(ctx, orderID, fields, nil)
	return err
}

func (f *fakeRepo) UpdateOrderWhere(_ context.Context, orderID string, fields map[string]any, cond sq.Sqlizer) (bool, error) {
	o, ok := f.orders[orderID]
	if !ok {
		return false, nil
	}
	switch c := cond.(type) {
	case sq.NotEq:
		if string(o.Status) == c["status"] {
			return false, nil
		}
	case sq.Eq:
		if o.TTIDeadline != nil {
			return false, nil
		}
	}
	for k, v := range fields {
		switch k {
		case "status":
			o.Status = model.OrderStatus(v.(string))
		case "closed_at":
			t := v.(time.Time)
			o.ClosedAt = &t
		case "tti_comply_deadline":
			t := v.(time.Time)
			o.TTIDeadline = &t
		case "sod_at":
			t := v.(time.Time)
			o.SODAt = &t
		case "e2e_at":
			t := v.(time.Time)
			o.E2EAt = &t
		case "customer_name":
			o.CustomerName = v.(string)
		case "sto":
			o.STO = v.(string)
		case "tti_comply_status":
			o.TTIStatus = model.TTIStatus(v.(string))
		case "tti_comply_seconds":
			s := v.(int64)
			o.TTISeconds = &s
		}
	}
	return true, nil
}

func (f *fakeRepo) GetOrdersByStatus(_ context.Context, statuses []model.OrderStatus) ([]DBOrder, error) {
	var out []DBOrder
	for _, o := range f.orders {
		for _, s := range statuses {
			if o.Status == s {
				out = append(out, *o)
			}
		}
	}
	return out, nil
}

func (f *fakeRepo) GetTechnicianOrders(context.Context, int64) ([]DBOrder, error) {
	return nil, nil
}

func TestCreateOrderRejectsDuplicate(t *testing.T) {
	ctx := context.Background()
	svc := NewDefaultService(newFakeRepo())

	require.NoError(t, svc.CreateOrder(ctx, "ORD-1", 10))
	assert.ErrorIs(t, svc.CreateOrder(ctx, "ORD-1", 11), ErrDuplicateOrder)

	order, err := svc.GetOrder(ctx, "ORD-1")
	require.NoError(t, err)
	assert.Equal(t, model.StatusPending, order.Status)
	assert.Equal(t, int64(10), *order.CreatedBy)
	assert.NotNil(t, order.CreatedAt)
}

func TestUpdateOrderWritesOnlyGivenFields(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepo()
	svc := NewDefaultService(repo)
	require.NoError(t, svc.CreateOrder(ctx, "ORD-2", 1))

	name := "PT Maju"
	require.NoError(t, svc.UpdateOrder(ctx, "ORD-2", Patch{CustomerName: &name}))
	sto := "CBB"
	require.NoError(t, svc.UpdateOrder(ctx, "ORD-2", Patch{STO: &sto}))

	assert.Equal(t, "PT Maju", repo.orders["ORD-2"].CustomerName)
	assert.Equal(t, "CBB", repo.orders["ORD-2"].STO)
}

func TestCloseOrderOnce(t *testing.T) {
	ctx := context.Background()
	svc := NewDefaultService(newFakeRepo())
	require.NoError(t, svc.CreateOrder(ctx, "ORD-3", 1))

	at := time.Now()
	closed, err := svc.CloseOrder(ctx, "ORD-3", at)
	require.NoError(t, err)
	assert.True(t, closed)

	closed, err = svc.CloseOrder(ctx, "ORD-3", at.Add(time.Minute))
	require.NoError(t, err)
	assert.False(t, closed)

	order, err := svc.GetOrder(ctx, "ORD-3")
	require.NoError(t, err)
	assert.Equal(t, model.StatusClosed, order.Status)
	assert.True(t, order.ClosedAt.Equal(at))
}

func TestSetDeadlineOnlyWhenUnset(t *testing.T) {
	ctx := context.Background()
	svc := NewDefaultService(newFakeRepo())
	require.NoError(t, svc.CreateOrder(ctx, "ORD-4", 1))

	first := time.Now().Add(72 * time.Hour)
	applied, err := svc.SetDeadline(ctx, "ORD-4", first)
	require.NoError(t, err)
	assert.True(t, applied)

	applied, err = svc.SetDeadline(ctx, "ORD-4", first.Add(time.Hour))
	require.NoError(t, err)
	assert.False(t, applied)

	order, err := svc.GetOrder(ctx, "ORD-4")
	require.NoError(t, err)
	assert.True(t, order.TTIDeadline.Equal(first))
}

func TestSetComplianceStoresDuration(t *testing.T) {
	ctx := context.Background()
	svc := NewDefaultService(newFakeRepo())
	require.NoError(t, svc.CreateOrder(ctx, "ORD-5", 1))

	require.NoError(t, svc.SetCompliance(ctx, "ORD-5", model.TTIComply, 69*time.Hour))

	order, err := svc.GetOrder(ctx, "ORD-5")
	require.NoError(t, err)
	assert.Equal(t, model.TTIComply, order.TTIStatus)
	assert.Equal(t, 69*time.Hour, *order.TTIDuration)
}

func TestRecordMarkerRejectsUnknown(t *testing.T) {
	svc := NewDefaultService(newFakeRepo())
	assert.Error(t, svc.RecordMarker(context.Background(), "ORD-6", model.Marker("bogus"), time.Now()))
}

func TestActiveOrdersExcludesClosed(t *testing.T) {
	ctx := context.Background()
	svc := NewDefaultService(newFakeRepo())
	require.NoError(t, svc.CreateOrder(ctx, "ORD-1", 1))
	require.NoError(t, svc.CreateOrder(ctx, "ORD-2", 1))
	_, err := svc.CloseOrder(ctx, "ORD-1", time.Now())
	require.NoError(t, err)

	orders, err := svc.ActiveOrders(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"ORD-2"}, ids(orders))
}
