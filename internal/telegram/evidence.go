package telegram

import (
	"log/slog"
	"strings"

	"isp-order-bot/internal/notification"
	"isp-order-bot/internal/pkg/model"
	"isp-order-bot/internal/telegram/internal/callback"
	"isp-order-bot/internal/telegram/internal/fsm"
	"isp-order-bot/internal/telegram/internal/presentation"

	"github.com/go-telegram/bot/models"
)

type evidenceCtx = fsm.ConversationContext[*fsm.EvidenceData]

func (b *Bot) registerEvidence() {
	fsm.Chain[*fsm.EvidenceData](b.router, "evidence_upload", fsm.StepAwaitingODPName).
		OnText(b.handleODPName).
		Then(fsm.StepAwaitingSerialNumber).
		OnText(b.handleSerialNumber).
		Then(fsm.StepAwaitingEvidencePhoto).
		OnPhoto(b.handleEvidencePhoto).
		OnText(func(cc *evidenceCtx, _ string) error {
			slot, _, _ := cc.Data.NextSlot()
			return cc.SendMessage(presentation.PhotoExpectedMsg(slot), presentation.CancelKbd())
		}).
		Then(fsm.StepEvidenceComplete).
		OnPhoto(func(cc *evidenceCtx, _ *models.Message) error {
			return cc.SendMessage(presentation.EvidenceAlreadyCompleteMsg(cc.Data.OrderID), nil)
		}).
		OnText(func(cc *evidenceCtx, _ string) error {
			if err := cc.Complete(); err != nil {
				return err
			}
			return b.handleIdleText(cc.Generic())
		})
}

func (b *Bot) showEvidenceOrders(cc *idleCtx) error {
	u, err := requireRole(b, cc, model.RoleTechnician)
	if u == nil {
		return err
	}
	orders, err := b.orderService.TechnicianOrders(cc.Ctx, u.ID)
	if err != nil {
		return err
	}
	if len(orders) == 0 {
		return cc.SendMessage(presentation.NoAssignedOrdersMsg(), nil)
	}
	return cc.SendMessage(presentation.ChooseEvidenceOrderMsg(), presentation.OrderListKbd(orders, callback.EvidenceOrder))
}

// startEvidence opens an upload session, resuming at the first missing
// item when some evidence is already stored.
func (b *Bot) startEvidence(cc *idleCtx, orderID string) error {
	u, err := requireRole(b, cc, model.RoleTechnician)
	if u == nil {
		return err
	}
	o, err := b.loadOrder(cc, orderID)
	if o == nil {
		return err
	}
	stages, err := b.technicianStages(cc, u.ID, orderID)
	if err != nil {
		return err
	}
	if len(stages) == 0 {
		return cc.SendMessage(presentation.NoAssignedStagesMsg(orderID), nil)
	}
	if o.Status == model.StatusClosed {
		return cc.SendMessage(presentation.EvidenceAlreadyCompleteMsg(orderID), nil)
	}
	ev, err := b.evidenceService.Load(cc.Ctx, orderID)
	if err != nil {
		return err
	}

	data := fsm.NewEvidenceData(orderID)
	data.ODPName = ev.ODPName
	data.SerialNumber = ev.SerialNumber
	for field, key := range ev.Photos {
		if key != "" {
			data.Filled[field] = true
		}
	}

	switch {
	case data.ODPName == "":
		if err := cc.Transition(fsm.StepAwaitingODPName, data); err != nil {
			return err
		}
		return cc.SendMessage(presentation.AskODPNameMsg(orderID), presentation.CancelKbd())
	case data.SerialNumber == "":
		if err := cc.Transition(fsm.StepAwaitingSerialNumber, data); err != nil {
			return err
		}
		if err := cc.SendMessage(presentation.EvidenceResumeMsg(orderID, data.FilledCount()), nil); err != nil {
			return err
		}
		return cc.SendMessage(presentation.AskSerialNumberMsg(), presentation.CancelKbd())
	}

	slot, idx, ok := data.NextSlot()
	if !ok {
		return cc.SendMessage(presentation.EvidenceAlreadyCompleteMsg(orderID), nil)
	}
	if err := cc.Transition(fsm.StepAwaitingEvidencePhoto, data); err != nil {
		return err
	}
	if data.FilledCount() > 0 {
		if err := cc.SendMessage(presentation.EvidenceResumeMsg(orderID, data.FilledCount()), nil); err != nil {
			return err
		}
	}
	return cc.SendMessage(presentation.AskPhotoMsg(slot, idx), presentation.CancelKbd())
}

func (b *Bot) handleODPName(cc *evidenceCtx, text string) error {
	name := strings.TrimSpace(text)
	if name == "" {
		return cc.SendMessage(presentation.EmptyInputMsg(), presentation.CancelKbd())
	}
	if err := b.evidenceService.SetODPName(cc.Ctx, cc.Data.OrderID, name); err != nil {
		return err
	}
	cc.Data.ODPName = name
	if err := cc.Transition(fsm.StepAwaitingSerialNumber, cc.Data); err != nil {
		return err
	}
	return cc.SendMessage(presentation.AskSerialNumberMsg(), presentation.CancelKbd())
}

func (b *Bot) handleSerialNumber(cc *evidenceCtx, text string) error {
	serial := strings.TrimSpace(text)
	if serial == "" {
		return cc.SendMessage(presentation.EmptyInputMsg(), presentation.CancelKbd())
	}
	if err := b.evidenceService.SetSerialNumber(cc.Ctx, cc.Data.OrderID, serial); err != nil {
		return err
	}
	cc.Data.SerialNumber = serial

	slot, idx, ok := cc.Data.NextSlot()
	if !ok {
		return b.completeEvidence(cc)
	}
	if err := cc.Transition(fsm.StepAwaitingEvidencePhoto, cc.Data); err != nil {
		return err
	}
	return cc.SendMessage(presentation.AskPhotoMsg(slot, idx), presentation.CancelKbd())
}

func (b *Bot) handleEvidencePhoto(cc *evidenceCtx, _ *models.Message) error {
	photo := cc.Event.Photo
	if photo == nil {
		slot, _, _ := cc.Data.NextSlot()
		return cc.SendMessage(presentation.PhotoExpectedMsg(slot), presentation.CancelKbd())
	}
	if cc.Data.Seen[photo.FileUniqueID] {
		slog.Debug("Duplicate evidence photo skipped", "orderID", cc.Data.OrderID, "fileUniqueID", photo.FileUniqueID)
		return cc.SendMessage(presentation.DuplicatePhotoMsg(), nil)
	}

	slot, _, ok := cc.Data.NextSlot()
	if !ok {
		return cc.SendMessage(presentation.EvidenceAlreadyCompleteMsg(cc.Data.OrderID), nil)
	}

	if _, err := b.evidenceService.StorePhoto(cc.Ctx, cc.Data.OrderID, slot, photo.FileID); err != nil {
		slog.Error("Evidence photo not stored", "error", err, "orderID", cc.Data.OrderID, "slot", slot.Field)
		if sendErr := cc.SendMessage(presentation.GenericErrorMsg(), nil); sendErr != nil {
			return sendErr
		}
		return cc.Stay()
	}
	cc.Data.Seen[photo.FileUniqueID] = true
	cc.Data.Filled[slot.Field] = true

	if err := cc.SendMessage(presentation.PhotoSavedMsg(slot, cc.Data.FilledCount()), nil); err != nil {
		return err
	}
	next, idx, ok := cc.Data.NextSlot()
	if !ok {
		return b.completeEvidence(cc)
	}
	if err := cc.Stay(); err != nil {
		return err
	}
	return cc.SendMessage(presentation.AskPhotoMsg(next, idx), presentation.CancelKbd())
}

// completeEvidence closes the order once all photos are stored and tells
// the helpdesk.
func (b *Bot) completeEvidence(cc *evidenceCtx) error {
	orderID := cc.Data.OrderID
	if err := cc.Transition(fsm.StepEvidenceComplete, cc.Data); err != nil {
		return err
	}

	closed, err := b.tracker.Close(cc.Ctx, orderID, b.now())
	if err != nil {
		return err
	}
	o, err := b.orderService.GetOrder(cc.Ctx, orderID)
	if err != nil {
		return err
	}
	if err := cc.SendMessage(presentation.EvidenceCompleteMsg(orderID, o), presentation.RoleMenuKbd(model.RoleTechnician)); err != nil {
		return err
	}
	if !closed {
		return nil
	}

	u, err := b.userService.FindByTelegramID(cc.Ctx, cc.UserID)
	if err != nil {
		return err
	}
	technician := cc.Event.FirstName
	if u != nil {
		technician = u.Name
		if err := b.assignmentService.RecordProgress(cc.Ctx, model.Progress{
			OrderID:   orderID,
			Stage:     model.StageEvidence,
			Status:    model.AssignmentCompleted,
			UpdatedBy: u.ID,
			CreatedAt: b.now(),
		}); err != nil {
			slog.Warn("Failed to record evidence stage", "error", err, "orderID", orderID)
		}
	}
	if _, err := b.notifier.NotifyRole(cc.Ctx, model.RoleHD, orderID, notification.KindClosed,
		presentation.OrderClosedNotificationMsg(*o, technician)); err != nil {
		slog.Warn("Helpdesk not notified of closed order", "error", err, "orderID", orderID)
	}
	return nil
}
