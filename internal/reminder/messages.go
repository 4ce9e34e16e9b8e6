package reminder

import (
	"fmt"
	"html"
	"strings"
	"time"

	"isp-order-bot/internal/pkg/model"
)

func Message(order model.Order, kind Kind, loc *time.Location) string {
	var b strings.Builder
	switch kind {
	case KindExpired:
		b.WriteString("🚨 <b>Batas TTI Comply Terlewati</b>\n\n")
		fmt.Fprintf(&b, "Order <code>%s</code> telah melewati batas waktu 72 jam.\n", html.EscapeString(order.ID))
	default:
		b.WriteString("⏰ <b>Pengingat TTI Comply</b>\n\n")
		fmt.Fprintf(&b, "Order <code>%s</code> tersisa <b>%s</b> sebelum batas waktu.\n",
			html.EscapeString(order.ID), remainingLabel(kind))
	}
	if order.CustomerName != "" {
		fmt.Fprintf(&b, "Pelanggan: %s\n", html.EscapeString(order.CustomerName))
	}
	if order.STO != "" {
		fmt.Fprintf(&b, "STO: %s\n", html.EscapeString(order.STO))
	}
	if order.TTIDeadline != nil {
		fmt.Fprintf(&b, "Batas: %s\n", order.TTIDeadline.In(loc).Format("02/01/2006 15:04 MST"))
	}
	return b.String()
}

func remainingLabel(kind Kind) string {
	switch kind {
	case Kind48h:
		return "48 jam"
	case Kind24h:
		return "24 jam"
	case Kind6h:
		return "6 jam"
	default:
		return strings.TrimPrefix(string(kind), "h") + " jam"
	}
}
