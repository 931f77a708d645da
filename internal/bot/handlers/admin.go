package handlers

import (
	"context"
	"fmt"
	"strings"

	botservice "appointment_bot/internal/bot/service"
	"appointment_bot/internal/validation"
	"appointment_bot/pkg/logger"

	tgmodels "github.com/go-telegram/bot/models"
)

// AdminHandler обрабатывает команды администратора:
// /schedule, /block, /unblock, /audit
type AdminHandler struct {
	deps *Deps
}

// NewAdminHandler создает обработчик команд администратора
func NewAdminHandler(deps *Deps) *AdminHandler {
	return &AdminHandler{deps: deps}
}

// Handle обрабатывает команду администратора.
// Возвращает false, если сообщение не является командой администратора
func (h *AdminHandler) Handle(ctx context.Context, update *tgmodels.Update) bool {
	text := update.Message.Text
	chatID := update.Message.Chat.ID
	userID := update.Message.From.ID

	var cmd string
	switch {
	case strings.HasPrefix(text, "/schedule"):
		cmd = "schedule"
	case strings.HasPrefix(text, "/block"):
		cmd = "block"
	case strings.HasPrefix(text, "/unblock"):
		cmd = "unblock"
	case strings.HasPrefix(text, "/audit"):
		cmd = "audit"
	default:
		return false
	}

	if !h.deps.Cfg.IsAdmin(userID) {
		h.deps.Log.Warn("Admin command from non-admin",
			logger.Int64("user_id", userID),
			logger.String("command", cmd),
		)
		h.deps.Service.SendText(ctx, chatID, "Эта команда доступна только администратору.")
		return true
	}

	switch cmd {
	case "schedule":
		h.handleSchedule(ctx, chatID)
	case "unblock":
		h.handleUnblock(ctx, chatID, userID, text)
	case "block":
		h.handleBlock(ctx, chatID, userID, text)
	case "audit":
		h.handleAudit(ctx, chatID)
	}

	return true
}

// handleSchedule отправляет расписание на неделю вперед
func (h *AdminHandler) handleSchedule(ctx context.Context, chatID int64) {
	bookings, err := h.deps.Engine.WeekSchedule(ctx, 7)
	if err != nil {
		h.deps.Log.Error("Failed to get week schedule", logger.Error(err))
		h.deps.Service.SendText(ctx, chatID, botservice.ReasonText(err))
		return
	}

	blocked, err := h.deps.Engine.BlockedSlotsRange(ctx, 7)
	if err != nil {
		h.deps.Log.Error("Failed to get blocked slots", logger.Error(err))
		h.deps.Service.SendText(ctx, chatID, botservice.ReasonText(err))
		return
	}

	if len(bookings) == 0 && len(blocked) == 0 {
		h.deps.Service.SendText(ctx, chatID, "На ближайшую неделю записей нет.")
		return
	}

	var sb strings.Builder
	sb.WriteString("📅 Расписание на неделю:\n")

	currentDate := ""
	for _, b := range bookings {
		if b.Date != currentDate {
			currentDate = b.Date
			sb.WriteString(fmt.Sprintf("\n%s:\n", b.Date))
		}
		name := b.Username
		if name == "" {
			name = fmt.Sprintf("id%d", b.UserID)
		}
		sb.WriteString(fmt.Sprintf("  %s — @%s\n", b.Time, name))
	}

	if len(blocked) > 0 {
		sb.WriteString("\n🚫 Заблокированные слоты:\n")
		for _, s := range blocked {
			if s.Reason != "" {
				sb.WriteString(fmt.Sprintf("  %s %s — %s\n", s.Date, s.Time, s.Reason))
			} else {
				sb.WriteString(fmt.Sprintf("  %s %s\n", s.Date, s.Time))
			}
		}
	}

	h.deps.Service.SendText(ctx, chatID, sb.String())
}

// handleAudit отправляет последние события журнала действий
func (h *AdminHandler) handleAudit(ctx context.Context, chatID int64) {
	events, err := h.deps.Engine.RecentAuditEvents(ctx, 20)
	if err != nil {
		h.deps.Log.Error("Failed to get audit events", logger.Error(err))
		h.deps.Service.SendText(ctx, chatID, botservice.ReasonText(err))
		return
	}

	if len(events) == 0 {
		h.deps.Service.SendText(ctx, chatID, "Журнал событий пуст.")
		return
	}

	var sb strings.Builder
	sb.WriteString("📖 Последние события:\n\n")
	for _, ev := range events {
		sb.WriteString(fmt.Sprintf("%s  %s  id%d  %s\n",
			ev.Timestamp.Format("2006-01-02 15:04"), ev.Event, ev.UserID, ev.Data))
	}

	h.deps.Service.SendText(ctx, chatID, sb.String())
}

// handleBlock закрывает слот: /block YYYY-MM-DD HH:MM [причина]
func (h *AdminHandler) handleBlock(ctx context.Context, chatID, adminID int64, text string) {
	parts := strings.Fields(text)
	if len(parts) < 3 {
		h.deps.Service.SendText(ctx, chatID, "Формат: /block YYYY-MM-DD HH:MM [причина]")
		return
	}

	date, timeOfDay := parts[1], parts[2]
	if validation.ValidateDate(date) != nil || validation.ValidateTime(timeOfDay) != nil {
		h.deps.Service.SendText(ctx, chatID, "Неверные дата или время. Формат: /block YYYY-MM-DD HH:MM [причина]")
		return
	}

	reason := strings.Join(parts[3:], " ")

	if err := h.deps.Engine.BlockSlot(ctx, date, timeOfDay, reason, adminID); err != nil {
		h.deps.Log.Error("Failed to block slot",
			logger.String("slot", date+" "+timeOfDay), logger.Error(err))
		h.deps.Service.SendText(ctx, chatID, botservice.ReasonText(err))
		return
	}

	h.deps.Service.SendText(ctx, chatID,
		fmt.Sprintf("🚫 Слот %s %s закрыт для записи.", date, timeOfDay))
}

// handleUnblock открывает слот: /unblock YYYY-MM-DD HH:MM
func (h *AdminHandler) handleUnblock(ctx context.Context, chatID, adminID int64, text string) {
	parts := strings.Fields(text)
	if len(parts) != 3 {
		h.deps.Service.SendText(ctx, chatID, "Формат: /unblock YYYY-MM-DD HH:MM")
		return
	}

	date, timeOfDay := parts[1], parts[2]
	if validation.ValidateDate(date) != nil || validation.ValidateTime(timeOfDay) != nil {
		h.deps.Service.SendText(ctx, chatID, "Неверные дата или время. Формат: /unblock YYYY-MM-DD HH:MM")
		return
	}

	unblocked, err := h.deps.Engine.UnblockSlot(ctx, date, timeOfDay, adminID)
	if err != nil {
		h.deps.Log.Error("Failed to unblock slot",
			logger.String("slot", date+" "+timeOfDay), logger.Error(err))
		h.deps.Service.SendText(ctx, chatID, botservice.ReasonText(err))
		return
	}

	if !unblocked {
		h.deps.Service.SendText(ctx, chatID,
			fmt.Sprintf("Слот %s %s не был заблокирован.", date, timeOfDay))
		return
	}

	h.deps.Service.SendText(ctx, chatID,
		fmt.Sprintf("✅ Слот %s %s снова открыт для записи.", date, timeOfDay))
}
