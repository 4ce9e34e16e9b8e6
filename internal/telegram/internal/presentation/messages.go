package presentation

import (
	"fmt"
	"strings"
	"time"

	"isp-order-bot/internal/assignment"
	"isp-order-bot/internal/compliance"
	"isp-order-bot/internal/pkg/model"
	"isp-order-bot/internal/telegram/internal/fsm"
)

func GenericErrorMsg() string {
	return "<b>❌ Terjadi kesalahan. Silakan coba lagi nanti.</b>"
}

func CancelledMsg() string {
	return "❎ Proses dibatalkan."
}

func ForbiddenMsg() string {
	return "⛔ Menu ini tidak tersedia untuk peran Anda."
}

func UnknownInputMsg() string {
	return "🤔 Perintah tidak dikenali. Ketik /help untuk melihat menu."
}

func EmptyInputMsg() string {
	return "⚠️ Isian tidak boleh kosong. Silakan coba lagi."
}

func WelcomeBackMsg(user model.User) string {
	return fmt.Sprintf("👋 Halo, <b>%s</b>!\nPeran: <b>%s</b>\n\nSilakan pilih menu di bawah.", esc(user.Name), esc(string(user.Role)))
}

func AskRegistrationNameMsg() string {
	return "👋 Selamat datang di <b>Bot Order ISP</b>.\n\nAnda belum terdaftar. Silakan ketik <b>nama lengkap</b> Anda:"
}

func AskRegistrationRoleMsg(name string) string {
	return fmt.Sprintf("Terima kasih, <b>%s</b>.\nPilih peran Anda:", esc(name))
}

func RegisteredMsg(user model.User) string {
	return fmt.Sprintf("✅ Registrasi berhasil!\nNama: <b>%s</b>\nPeran: <b>%s</b>", esc(user.Name), esc(string(user.Role)))
}

func AskTechnicianSTOMsg() string {
	return "📍 Ketik kode <b>STO</b> wilayah kerja Anda, pisahkan dengan koma (contoh: <code>CBB, BJA</code>).\nKetik <code>-</code> untuk melewati."
}

func InvalidTechnicianSTOMsg(codes []string) string {
	return fmt.Sprintf("⚠️ STO tidak dikenal: <b>%s</b>\nDaftar STO: %s", esc(strings.Join(codes, ", ")), strings.Join(model.STOCodes, ", "))
}

func NotRegisteredMsg() string {
	return "⚠️ Anda belum terdaftar. Ketik /start untuk registrasi."
}

func AskOrderIDMsg() string {
	return "📝 <b>Buat Order Baru</b>\n\nMasukkan <b>Order ID</b>:"
}

func OrderIDTooLongMsg(max int) string {
	return fmt.Sprintf("⚠️ Order ID terlalu panjang. Maksimal <b>%d</b> karakter, silakan masukkan ulang:", max)
}

func DuplicateOrderMsg(orderID string) string {
	return fmt.Sprintf("⚠️ Order <code>%s</code> sudah terdaftar. Masukkan Order ID lain:", esc(orderID))
}

func AskCustomerNameMsg() string {
	return "👤 Masukkan <b>nama pelanggan</b>:"
}

func AskCustomerAddressMsg() string {
	return "🏠 Masukkan <b>alamat pelanggan</b>:"
}

func AskContactMsg() string {
	return "📞 Masukkan <b>kontak pelanggan</b> (nomor telepon):"
}

func AskSTOMsg() string {
	return "🏢 Pilih <b>STO</b> atau ketik kodenya:"
}

func InvalidSTOMsg() string {
	return "⚠️ STO tidak valid. Pilih salah satu STO dari daftar:"
}

func AskTransactionTypeMsg() string {
	return "🔁 Pilih <b>jenis transaksi</b>:"
}

func InvalidTransactionTypeMsg() string {
	return "⚠️ Jenis transaksi tidak valid. Pilihan: " + esc(strings.Join(model.TransactionTypes, ", "))
}

func AskServiceTypeMsg() string {
	return "🌐 Pilih <b>jenis layanan</b>:"
}

func InvalidServiceTypeMsg() string {
	return "⚠️ Jenis layanan tidak valid. Pilihan: " + esc(strings.Join(model.ServiceTypes, ", "))
}

func OrderSummaryMsg(draft *fsm.OrderDraftData) string {
	var b strings.Builder
	b.WriteString("✅ <b>Order berhasil dibuat</b>\n\n")
	fmt.Fprintf(&b, "🆔 Order ID: <code>%s</code>\n", esc(draft.OrderID))
	fmt.Fprintf(&b, "👤 Pelanggan: %s\n", orDash(draft.CustomerName))
	fmt.Fprintf(&b, "🏠 Alamat: %s\n", orDash(draft.CustomerAddress))
	fmt.Fprintf(&b, "📞 Kontak: %s\n", orDash(draft.Contact))
	fmt.Fprintf(&b, "🏢 STO: %s\n", orDash(draft.STO))
	fmt.Fprintf(&b, "🔁 Transaksi: %s\n", orDash(draft.TransactionType))
	fmt.Fprintf(&b, "🌐 Layanan: %s\n\n", orDash(draft.ServiceType))
	b.WriteString("Assign teknisi sekarang?")
	return b.String()
}

func AssignLaterMsg() string {
	return "👌 Order disimpan. Assign teknisi kapan saja lewat menu <b>" + MenuAssign + "</b>."
}

func NoActiveOrdersMsg() string {
	return "📭 Tidak ada order aktif."
}

func ChooseAssignOrderMsg(count int) string {
	return fmt.Sprintf("👷 <b>Assign Teknisi</b>\n\n%d order aktif. Pilih order:", count)
}

func StageBoardMsg(order model.Order, board []assignment.StageView) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📋 <b>Order %s</b> %s %s\n", esc(order.ID), StatusEmoji(order.Status), esc(string(order.Status)))
	if order.CustomerName != "" {
		fmt.Fprintf(&b, "👤 %s · 🏢 %s\n", esc(order.CustomerName), orDash(order.STO))
	}
	b.WriteString("\n<b>Tahapan:</b>\n")
	for _, view := range board {
		tech := "belum ada"
		if view.TechnicianName != "" {
			tech = esc(view.TechnicianName)
		}
		fmt.Fprintf(&b, "%s %s: %s (%s)\n", StageStatusEmoji(view.Status), view.Stage.Label(), StageStatusLabel(view.Status), tech)
	}
	b.WriteString("\nPilih tahap untuk assign teknisi:")
	return b.String()
}

func ChooseTechnicianMsg(stage model.Stage, orderID string) string {
	return fmt.Sprintf("🔧 Pilih teknisi untuk tahap <b>%s</b> order <code>%s</code>:", stage.Label(), esc(orderID))
}

func ChooseTechnicianAllMsg(orderID string) string {
	return fmt.Sprintf("👥 Pilih teknisi untuk <b>semua tahap</b> order <code>%s</code>:", esc(orderID))
}

func InvalidTechnicianMsg() string {
	return "⚠️ Pengguna yang dipilih bukan teknisi terdaftar."
}

func NoTechniciansMsg() string {
	return "📭 Belum ada teknisi terdaftar."
}

func AssignedMsg(orderID string, stage model.Stage, technician string) string {
	return fmt.Sprintf("✅ Tahap <b>%s</b> order <code>%s</code> di-assign ke <b>%s</b>.", stage.Label(), esc(orderID), esc(technician))
}

func BulkAssignedMsg(orderID, technician string, result assignment.BulkResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "👥 <b>Assign semua tahap</b> order <code>%s</code> ke <b>%s</b>\n\n", esc(orderID), esc(technician))
	fmt.Fprintf(&b, "✅ Berhasil: %d\n❌ Gagal: %d", result.Succeeded, result.Failed)
	if result.Failed > 0 {
		var failed []string
		for _, stage := range model.Stages {
			if _, ok := result.Errors[stage]; ok {
				failed = append(failed, stage.Label())
			}
		}
		fmt.Fprintf(&b, " (%s)", strings.Join(failed, ", "))
	}
	return b.String()
}

func AssignmentNotificationMsg(order model.Order, stages []model.Stage) string {
	labels := make([]string, len(stages))
	for i, s := range stages {
		labels[i] = s.Label()
	}
	var b strings.Builder
	b.WriteString("🔔 <b>Tugas Baru</b>\n\n")
	fmt.Fprintf(&b, "🆔 Order: <code>%s</code>\n", esc(order.ID))
	fmt.Fprintf(&b, "📍 Tahap: %s\n", esc(strings.Join(labels, ", ")))
	fmt.Fprintf(&b, "👤 Pelanggan: %s\n", orDash(order.CustomerName))
	fmt.Fprintf(&b, "🏠 Alamat: %s\n", orDash(order.CustomerAddress))
	fmt.Fprintf(&b, "📞 Kontak: %s\n", orDash(order.Contact))
	fmt.Fprintf(&b, "🏢 STO: %s", orDash(order.STO))
	return b.String()
}

func ChooseEvidenceOrderMsg() string {
	return "📸 <b>Upload Evidence</b>\n\nPilih order:"
}

func NoAssignedOrdersMsg() string {
	return "📭 Belum ada order yang di-assign ke Anda."
}

func AskODPNameMsg(orderID string) string {
	return fmt.Sprintf("📸 Evidence order <code>%s</code>\n\nMasukkan <b>nama ODP</b>:", esc(orderID))
}

func AskSerialNumberMsg() string {
	return "🔢 Masukkan <b>Serial Number ONT</b>:"
}

func AskPhotoMsg(slot model.EvidenceSlot, index int) string {
	return fmt.Sprintf("📷 Kirim foto %d/%d: <b>%s</b>", index+1, len(model.EvidenceSlots), esc(slot.Label))
}

func PhotoSavedMsg(slot model.EvidenceSlot, stored int) string {
	return fmt.Sprintf("✅ %s tersimpan (%d/%d).", esc(slot.Label), stored, len(model.EvidenceSlots))
}

func DuplicatePhotoMsg() string {
	return "♻️ Foto ini sudah diterima sebelumnya, dilewati."
}

func PhotoExpectedMsg(slot model.EvidenceSlot) string {
	return fmt.Sprintf("⚠️ Mohon kirim <b>foto</b> untuk %s.", esc(slot.Label))
}

func EvidenceResumeMsg(orderID string, stored int) string {
	return fmt.Sprintf("🔁 Melanjutkan evidence order <code>%s</code> (%d/%d foto tersimpan).", esc(orderID), stored, len(model.EvidenceSlots))
}

func EvidenceCompleteMsg(orderID string, order *model.Order) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🎉 <b>Evidence lengkap!</b>\n\nOrder <code>%s</code> telah ditutup (Closed).", esc(orderID))
	if order != nil && order.TTIStatus.Decided() {
		fmt.Fprintf(&b, "\nTTI Comply: %s", TTILabel(order.TTIStatus))
		if order.TTIDuration != nil {
			fmt.Fprintf(&b, " (%s)", FormatDuration(*order.TTIDuration))
		}
	}
	return b.String()
}

func EvidenceAlreadyCompleteMsg(orderID string) string {
	return fmt.Sprintf("ℹ️ Evidence order <code>%s</code> sudah lengkap. Foto tambahan tidak disimpan.", esc(orderID))
}

func OrderClosedNotificationMsg(order model.Order, technician string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🔒 <b>Order Closed</b>\n\nOrder <code>%s</code> selesai, evidence diunggah oleh %s.", esc(order.ID), esc(technician))
	if order.TTIStatus.Decided() {
		fmt.Fprintf(&b, "\nTTI Comply: %s", TTILabel(order.TTIStatus))
		if order.TTIDuration != nil {
			fmt.Fprintf(&b, " (%s)", FormatDuration(*order.TTIDuration))
		}
	}
	return b.String()
}

func ChooseProgressOrderMsg() string {
	return "📈 <b>Update Progress</b>\n\nPilih order:"
}

func AskProgressStageMsg(orderID string) string {
	return fmt.Sprintf("📍 Pilih tahap order <code>%s</code>:", esc(orderID))
}

func NoAssignedStagesMsg(orderID string) string {
	return fmt.Sprintf("📭 Anda tidak memiliki tahap di order <code>%s</code>.", esc(orderID))
}

func InvalidSelectionMsg() string {
	return "⚠️ Pilihan tidak valid. Silakan pilih dari tombol yang tersedia."
}

func AskProgressStatusMsg(stage model.Stage) string {
	return fmt.Sprintf("🔄 Status tahap <b>%s</b>:", stage.Label())
}

func AskProgressNoteMsg() string {
	return "📝 Tambahkan catatan (atau lewati):"
}

func ProgressSavedMsg(progress model.Progress) string {
	return fmt.Sprintf("✅ Progress <b>%s</b> order <code>%s</code>: %s %s",
		progress.Stage.Label(), esc(progress.OrderID), StageStatusEmoji(progress.Status), StageStatusLabel(progress.Status))
}

func ProgressNotificationMsg(progress model.Progress, technician string) string {
	var b strings.Builder
	b.WriteString("📈 <b>Update Progress</b>\n\n")
	fmt.Fprintf(&b, "🆔 Order: <code>%s</code>\n", esc(progress.OrderID))
	fmt.Fprintf(&b, "📍 Tahap: %s\n", progress.Stage.Label())
	fmt.Fprintf(&b, "%s Status: %s\n", StageStatusEmoji(progress.Status), StageStatusLabel(progress.Status))
	fmt.Fprintf(&b, "🔧 Teknisi: %s", esc(technician))
	if progress.Note != "" {
		fmt.Fprintf(&b, "\n📝 Catatan: %s", esc(progress.Note))
	}
	return b.String()
}

func ChooseViewOrderMsg(count int) string {
	return fmt.Sprintf("📋 <b>Daftar Order Aktif</b> (%d)\n\nPilih order untuk melihat detail:", count)
}

func OrderDetailMsg(order model.Order, board []assignment.StageView, loc *time.Location) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📋 <b>Detail Order %s</b>\n\n", esc(order.ID))
	fmt.Fprintf(&b, "%s Status: <b>%s</b>\n", StatusEmoji(order.Status), esc(string(order.Status)))
	fmt.Fprintf(&b, "👤 Pelanggan: %s\n", orDash(order.CustomerName))
	fmt.Fprintf(&b, "🏠 Alamat: %s\n", orDash(order.CustomerAddress))
	fmt.Fprintf(&b, "📞 Kontak: %s\n", orDash(order.Contact))
	fmt.Fprintf(&b, "🏢 STO: %s\n", orDash(order.STO))
	fmt.Fprintf(&b, "🔁 Transaksi: %s\n", orDash(order.TransactionType))
	fmt.Fprintf(&b, "🌐 Layanan: %s\n\n", orDash(order.ServiceType))

	b.WriteString("<b>Waktu:</b>\n")
	fmt.Fprintf(&b, "Dibuat: %s\n", FormatTime(order.CreatedAt, loc))
	fmt.Fprintf(&b, "SOD: %s\n", FormatTime(order.SODAt, loc))
	fmt.Fprintf(&b, "E2E: %s\n", FormatTime(order.E2EAt, loc))
	fmt.Fprintf(&b, "LME-PT2 Mulai: %s\n", FormatTime(order.LMEPT2StartAt, loc))
	fmt.Fprintf(&b, "LME-PT2 Selesai: %s\n", FormatTime(order.LMEPT2EndAt, loc))
	if order.ClosedAt != nil {
		fmt.Fprintf(&b, "Closed: %s\n", FormatTime(order.ClosedAt, loc))
	}

	b.WriteString("\n<b>TTI Comply:</b>\n")
	fmt.Fprintf(&b, "Batas: %s\n", FormatTime(order.TTIDeadline, loc))
	fmt.Fprintf(&b, "Status: %s", TTILabel(order.TTIStatus))
	if order.TTIDuration != nil {
		fmt.Fprintf(&b, " (%s)", FormatDuration(*order.TTIDuration))
	} else if order.TTIDeadline != nil && !order.TTIStatus.Decided() {
		remaining := time.Until(*order.TTIDeadline)
		if remaining > 0 {
			fmt.Fprintf(&b, " · sisa %s", FormatDuration(remaining))
		} else {
			b.WriteString(" · lewat batas")
		}
	}
	b.WriteString("\n")

	if len(board) > 0 {
		b.WriteString("\n<b>Tahapan:</b>\n")
		for _, view := range board {
			tech := "-"
			if view.TechnicianName != "" {
				tech = esc(view.TechnicianName)
			}
			fmt.Fprintf(&b, "%s %s: %s (%s)\n", StageStatusEmoji(view.Status), view.Stage.Label(), StageStatusLabel(view.Status), tech)
		}
	}
	return b.String()
}

func MarkerSetMsg(orderID string, marker model.Marker, at time.Time, loc *time.Location) string {
	return fmt.Sprintf("🕐 %s order <code>%s</code> diset ke %s.", marker.Label(), esc(orderID), FormatTime(&at, loc))
}

func StatusChangedMsg(orderID string, status model.OrderStatus) string {
	return fmt.Sprintf("%s Status order <code>%s</code> menjadi <b>%s</b>.", StatusEmoji(status), esc(orderID), esc(string(status)))
}

func OrderNotFoundMsg(orderID string) string {
	return fmt.Sprintf("⚠️ Order <code>%s</code> tidak ditemukan.", esc(orderID))
}

func OrderClosedMsg(orderID string) string {
	return fmt.Sprintf("🔒 Order <code>%s</code> sudah ditutup.", esc(orderID))
}

func MyOrdersMsg(orders []model.Order, assignments []model.StageAssignment) string {
	if len(orders) == 0 {
		return NoAssignedOrdersMsg()
	}
	stages := map[string][]string{}
	for _, a := range assignments {
		stages[a.OrderID] = append(stages[a.OrderID], fmt.Sprintf("%s %s", StageStatusEmoji(a.Status), a.Stage.Label()))
	}
	var b strings.Builder
	fmt.Fprintf(&b, "📋 <b>Order Saya</b> (%d)\n", len(orders))
	for _, o := range orders {
		fmt.Fprintf(&b, "\n%s <code>%s</code> · %s\n", StatusEmoji(o.Status), esc(o.ID), orDash(o.CustomerName))
		fmt.Fprintf(&b, "🏠 %s\n", orDash(o.CustomerAddress))
		if s := stages[o.ID]; len(s) > 0 {
			fmt.Fprintf(&b, "📍 %s\n", strings.Join(s, ", "))
		}
	}
	return b.String()
}

func HelpMsg(role model.Role) string {
	var b strings.Builder
	b.WriteString("❓ <b>Bantuan</b>\n\n")
	b.WriteString("/start - mulai atau registrasi\n")
	b.WriteString("/help - tampilkan bantuan\n")
	b.WriteString("/cancel - batalkan proses berjalan\n\n")
	switch role {
	case model.RoleHD:
		b.WriteString("<b>Menu HD:</b>\n")
		fmt.Fprintf(&b, "%s - input order baru\n", MenuCreateOrder)
		fmt.Fprintf(&b, "%s - assign teknisi per tahap\n", MenuAssign)
		fmt.Fprintf(&b, "%s - detail order, set SOD/E2E/LME-PT2\n", MenuViewOrders)
	case model.RoleTechnician:
		b.WriteString("<b>Menu Teknisi:</b>\n")
		fmt.Fprintf(&b, "%s - order yang di-assign ke Anda\n", MenuMyOrders)
		fmt.Fprintf(&b, "%s - laporkan status tahap\n", MenuProgress)
		fmt.Fprintf(&b, "%s - unggah 7 foto evidence\n", MenuEvidence)
	}
	fmt.Fprintf(&b, "\nBatas TTI Comply: %d jam sejak SOD/LME-PT2/assign.", int(compliance.Window.Hours()))
	return b.String()
}
