package telegram

import (
	"errors"
	"log/slog"
	"strings"

	"isp-order-bot/internal/order"
	"isp-order-bot/internal/pkg/model"
	"isp-order-bot/internal/telegram/internal/callback"
	"isp-order-bot/internal/telegram/internal/fsm"
	"isp-order-bot/internal/telegram/internal/presentation"

	"github.com/go-telegram/bot/models"
)

type draftCtx = fsm.ConversationContext[*fsm.OrderDraftData]

func (b *Bot) registerOrderCreation() {
	fsm.Chain[*fsm.OrderDraftData](b.router, "create_order", fsm.StepAwaitingOrderID).
		OnText(b.handleOrderID).
		Then(fsm.StepAwaitingCustomerName).
		OnText(b.draftField(func(d *fsm.OrderDraftData, v string) order.Patch {
			d.CustomerName = v
			return order.Patch{CustomerName: &v}
		}, fsm.StepAwaitingCustomerAddress, presentation.AskCustomerAddressMsg, nil)).
		Then(fsm.StepAwaitingCustomerAddress).
		OnText(b.draftField(func(d *fsm.OrderDraftData, v string) order.Patch {
			d.CustomerAddress = v
			return order.Patch{CustomerAddress: &v}
		}, fsm.StepAwaitingContact, presentation.AskContactMsg, nil)).
		Then(fsm.StepAwaitingContact).
		OnText(b.draftField(func(d *fsm.OrderDraftData, v string) order.Patch {
			d.Contact = v
			return order.Patch{Contact: &v}
		}, fsm.StepAwaitingSTO, presentation.AskSTOMsg, presentation.STOKbd())).
		Then(fsm.StepAwaitingSTO).
		OnText(b.handleSTO).
		OnCallback(func(cc *draftCtx, data string) error {
			return b.handleSTO(cc, callbackArg(data, callback.STO))
		}).
		Then(fsm.StepAwaitingTransactionType).
		OnText(b.handleTransactionType).
		OnCallback(func(cc *draftCtx, data string) error {
			value, _ := parseIndex(callbackArg(data, callback.Transaction), model.TransactionTypes)
			return b.handleTransactionType(cc, value)
		}).
		Then(fsm.StepAwaitingServiceType).
		OnText(b.handleServiceType).
		OnCallback(func(cc *draftCtx, data string) error {
			value, _ := parseIndex(callbackArg(data, callback.Service), model.ServiceTypes)
			return b.handleServiceType(cc, value)
		}).
		Then(fsm.StepAwaitingAssignChoice).
		OnCallback(b.handleAssignChoice)
}

// callbackArg returns the single argument of data when it encodes action.
func callbackArg(data string, action callback.Action) string {
	cb, err := callback.Parse(data)
	if err != nil || cb.Action != action {
		return ""
	}
	return cb.Arg(0)
}

func (b *Bot) startOrderCreation(cc *idleCtx) error {
	u, err := requireRole(b, cc, model.RoleHD)
	if u == nil {
		return err
	}
	if err := cc.Transition(fsm.StepAwaitingOrderID, &fsm.OrderDraftData{}); err != nil {
		return err
	}
	return cc.SendMessage(presentation.AskOrderIDMsg(), presentation.CancelKbd())
}

func (b *Bot) handleOrderID(cc *draftCtx, text string) error {
	orderID := strings.TrimSpace(text)
	if orderID == "" {
		return cc.SendMessage(presentation.EmptyInputMsg(), presentation.CancelKbd())
	}
	if len(orderID) > presentation.MaxOrderIDLen {
		return cc.SendMessage(presentation.OrderIDTooLongMsg(presentation.MaxOrderIDLen), presentation.CancelKbd())
	}

	u, err := requireRole(b, cc, model.RoleHD)
	if u == nil {
		return err
	}
	if err := b.orderService.CreateOrder(cc.Ctx, orderID, u.ID); err != nil {
		if errors.Is(err, order.ErrDuplicateOrder) {
			return cc.SendMessage(presentation.DuplicateOrderMsg(orderID), presentation.CancelKbd())
		}
		return err
	}

	cc.Data.OrderID = orderID
	if err := cc.Transition(fsm.StepAwaitingCustomerName, cc.Data); err != nil {
		return err
	}
	return cc.SendMessage(presentation.AskCustomerNameMsg(), presentation.CancelKbd())
}

// draftField persists one free-text field, then asks for the next one.
func (b *Bot) draftField(apply func(*fsm.OrderDraftData, string) order.Patch, next fsm.ConversationStep, ask func() string, markup models.ReplyMarkup) fsm.TextHandler[*fsm.OrderDraftData] {
	return func(cc *draftCtx, text string) error {
		value := strings.TrimSpace(text)
		if value == "" {
			return cc.SendMessage(presentation.EmptyInputMsg(), presentation.CancelKbd())
		}
		if err := b.orderService.UpdateOrder(cc.Ctx, cc.Data.OrderID, apply(cc.Data, value)); err != nil {
			return err
		}
		if err := cc.Transition(next, cc.Data); err != nil {
			return err
		}
		if markup != nil {
			return cc.SendMessage(ask(), markup)
		}
		return cc.SendMessage(ask(), presentation.CancelKbd())
	}
}

func (b *Bot) handleSTO(cc *draftCtx, raw string) error {
	sto, ok := model.ParseSTO(raw)
	if !ok {
		return cc.SendMessage(presentation.InvalidSTOMsg(), presentation.STOKbd())
	}
	if err := b.orderService.UpdateOrder(cc.Ctx, cc.Data.OrderID, order.Patch{STO: &sto}); err != nil {
		return err
	}
	cc.Data.STO = sto
	if err := cc.Transition(fsm.StepAwaitingTransactionType, cc.Data); err != nil {
		return err
	}
	return cc.SendMessage(presentation.AskTransactionTypeMsg(), presentation.TransactionTypeKbd())
}

func (b *Bot) handleTransactionType(cc *draftCtx, raw string) error {
	value, ok := model.ParseTransactionType(raw)
	if !ok {
		return cc.SendMessage(presentation.InvalidTransactionTypeMsg(), presentation.TransactionTypeKbd())
	}
	if err := b.orderService.UpdateOrder(cc.Ctx, cc.Data.OrderID, order.Patch{TransactionType: &value}); err != nil {
		return err
	}
	cc.Data.TransactionType = value
	if err := cc.Transition(fsm.StepAwaitingServiceType, cc.Data); err != nil {
		return err
	}
	return cc.SendMessage(presentation.AskServiceTypeMsg(), presentation.ServiceTypeKbd())
}

func (b *Bot) handleServiceType(cc *draftCtx, raw string) error {
	value, ok := model.ParseServiceType(raw)
	if !ok {
		return cc.SendMessage(presentation.InvalidServiceTypeMsg(), presentation.ServiceTypeKbd())
	}
	if err := b.orderService.UpdateOrder(cc.Ctx, cc.Data.OrderID, order.Patch{ServiceType: &value}); err != nil {
		return err
	}
	cc.Data.ServiceType = value
	if err := cc.Transition(fsm.StepAwaitingAssignChoice, cc.Data); err != nil {
		return err
	}
	slog.Info("Order created", "orderID", cc.Data.OrderID, "chatID", cc.ChatID)
	return cc.SendMessage(presentation.OrderSummaryMsg(cc.Data), presentation.AssignChoiceKbd(cc.Data.OrderID))
}

func (b *Bot) handleAssignChoice(cc *draftCtx, data string) error {
	cb, err := callback.Parse(data)
	if err != nil {
		return cc.SendMessage(presentation.InvalidSelectionMsg(), presentation.AssignChoiceKbd(cc.Data.OrderID))
	}
	orderID := cc.Data.OrderID
	switch cb.Action {
	case callback.AssignNow:
		if err := cc.Complete(); err != nil {
			return err
		}
		return b.showStageBoard(cc.Generic(), orderID)
	case callback.AssignLater:
		if err := cc.Complete(); err != nil {
			return err
		}
		return cc.SendMessage(presentation.AssignLaterMsg(), presentation.RoleMenuKbd(model.RoleHD))
	default:
		return cc.SendMessage(presentation.InvalidSelectionMsg(), presentation.AssignChoiceKbd(orderID))
	}
}
