package telegram

import (
	"isp-order-bot/internal/pkg/model"
	"isp-order-bot/internal/telegram/internal/callback"
	"isp-order-bot/internal/telegram/internal/presentation"
)

func (b *Bot) showViewOrders(cc *idleCtx) error {
	u, err := requireRole(b, cc, model.RoleHD)
	if u == nil {
		return err
	}
	orders, err := b.orderService.ActiveOrders(cc.Ctx)
	if err != nil {
		return err
	}
	if len(orders) == 0 {
		return cc.SendMessage(presentation.NoActiveOrdersMsg(), nil)
	}
	return cc.SendMessage(presentation.ChooseViewOrderMsg(len(orders)), presentation.OrderListKbd(orders, callback.ViewOrder))
}

func (b *Bot) showOrderDetail(cc *idleCtx, orderID string) error {
	u, err := requireRole(b, cc, model.RoleHD)
	if u == nil {
		return err
	}
	o, err := b.loadOrder(cc, orderID)
	if o == nil {
		return err
	}
	board, err := b.assignmentService.StageBoard(cc.Ctx, orderID)
	if err != nil {
		return err
	}
	return cc.SendMessage(presentation.OrderDetailMsg(*o, board, b.loc), presentation.OrderDetailKbd(*o))
}

func (b *Bot) recordMarker(cc *idleCtx, orderID string, marker model.Marker) error {
	u, err := requireRole(b, cc, model.RoleHD)
	if u == nil {
		return err
	}
	o, err := b.loadOrder(cc, orderID)
	if o == nil {
		return err
	}
	if o.Status == model.StatusClosed {
		return cc.SendMessage(presentation.OrderClosedMsg(orderID), nil)
	}

	at := b.now()
	if err := b.tracker.RecordMarker(cc.Ctx, orderID, marker, at); err != nil {
		return err
	}
	if err := cc.SendMessage(presentation.MarkerSetMsg(orderID, marker, at, b.loc), nil); err != nil {
		return err
	}
	return b.showOrderDetail(cc, orderID)
}

func (b *Bot) changeStatus(cc *idleCtx, orderID string, status model.OrderStatus) error {
	u, err := requireRole(b, cc, model.RoleHD)
	if u == nil {
		return err
	}
	o, err := b.loadOrder(cc, orderID)
	if o == nil {
		return err
	}
	if !o.Status.Active() {
		return cc.SendMessage(presentation.OrderClosedMsg(orderID), nil)
	}
	if o.Status != status {
		if err := b.orderService.SetStatus(cc.Ctx, orderID, status); err != nil {
			return err
		}
	}
	if err := cc.SendMessage(presentation.StatusChangedMsg(orderID, status), nil); err != nil {
		return err
	}
	return b.showOrderDetail(cc, orderID)
}
