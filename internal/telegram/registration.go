package telegram

import (
	"strings"

	"isp-order-bot/internal/pkg/model"
	"isp-order-bot/internal/telegram/internal/callback"
	"isp-order-bot/internal/telegram/internal/fsm"
	"isp-order-bot/internal/telegram/internal/presentation"
	"isp-order-bot/internal/user"
)

type registrationCtx = fsm.ConversationContext[*fsm.RegistrationData]

func (b *Bot) registerRegistration() {
	fsm.Chain[*fsm.RegistrationData](b.router, "registration", fsm.StepRegistrationName).
		OnText(b.handleRegistrationName).
		Then(fsm.StepRegistrationRole).
		OnCallback(func(cc *registrationCtx, data string) error {
			cb, err := callback.Parse(data)
			if err != nil || cb.Action != callback.Role {
				return cc.SendMessage(presentation.InvalidSelectionMsg(), presentation.RoleChoiceKbd())
			}
			return b.handleRegistrationRole(cc, cb.Arg(0))
		}).
		OnText(b.handleRegistrationRole).
		Then(fsm.StepRegistrationSTO).
		OnText(b.handleRegistrationSTO)
}

func (b *Bot) handleRegistrationName(cc *registrationCtx, text string) error {
	name := strings.TrimSpace(text)
	if name == "" {
		return cc.SendMessage(presentation.EmptyInputMsg(), nil)
	}
	cc.Data.Name = name
	if err := cc.Transition(fsm.StepRegistrationRole, cc.Data); err != nil {
		return err
	}
	return cc.SendMessage(presentation.AskRegistrationRoleMsg(name), presentation.RoleChoiceKbd())
}

func (b *Bot) handleRegistrationRole(cc *registrationCtx, raw string) error {
	role, ok := model.ParseRole(strings.TrimSpace(raw))
	if !ok {
		return cc.SendMessage(presentation.InvalidSelectionMsg(), presentation.RoleChoiceKbd())
	}

	u, err := b.userService.Register(cc.Ctx, user.RegisterRequest{
		TelegramID: cc.UserID,
		ChatID:     cc.ChatID,
		Name:       cc.Data.Name,
		Username:   cc.Event.Username,
		Role:       role,
	})
	if err != nil {
		return err
	}
	if u.Role == model.RoleTechnician {
		cc.Data.UserID = u.ID
		if err := cc.Transition(fsm.StepRegistrationSTO, cc.Data); err != nil {
			return err
		}
		return cc.SendMessage(presentation.AskTechnicianSTOMsg(), nil)
	}
	return b.finishRegistration(cc)
}

func (b *Bot) handleRegistrationSTO(cc *registrationCtx, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return cc.SendMessage(presentation.EmptyInputMsg(), nil)
	}

	var stos, unknown []string
	if text != "-" {
		for _, raw := range strings.Split(text, ",") {
			if strings.TrimSpace(raw) == "" {
				continue
			}
			code, ok := model.ParseSTO(raw)
			if !ok {
				unknown = append(unknown, strings.TrimSpace(raw))
				continue
			}
			stos = append(stos, code)
		}
	}
	if len(unknown) > 0 {
		return cc.SendMessage(presentation.InvalidTechnicianSTOMsg(unknown), nil)
	}

	if err := b.userService.SetSTOs(cc.Ctx, cc.Data.UserID, stos); err != nil {
		return err
	}
	return b.finishRegistration(cc)
}

func (b *Bot) finishRegistration(cc *registrationCtx) error {
	u, err := b.userService.FindByTelegramID(cc.Ctx, cc.UserID)
	if err != nil {
		return err
	}
	if u == nil {
		return cc.SendMessage(presentation.NotRegisteredMsg(), nil)
	}
	if err := cc.Complete(); err != nil {
		return err
	}
	return cc.SendMessage(presentation.RegisteredMsg(*u), presentation.RoleMenuKbd(u.Role))
}
