package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"finmec/internal/models"
	"finmec/internal/store"
)

type ReminderService struct {
	reminders ReminderStore
	scheduler Scheduler
	logger    *slog.Logger
	now       func() time.Time
}

type ReminderStore interface {
	Create(ctx context.Context, input store.ReminderInput) (models.Reminder, error)
	GetByID(ctx context.Context, userID, reminderID int64) (models.Reminder, error)
	ListByUser(ctx context.Context, userID int64, activeOnly bool) ([]models.Reminder, error)
	Update(ctx context.Context, userID, reminderID int64, patch store.ReminderPatch) (models.Reminder, error)
	SetExtraData(ctx context.Context, reminderID int64, extra string) error
	Delete(ctx context.Context, userID, reminderID int64) (int64, error)
	MarkSent(ctx context.Context, reminderID int64) (int64, error)
}

// Scheduler hands delayed delivery to the messaging provider.
type Scheduler interface {
	ScheduleText(ctx context.Context, number, text string, at time.Time, info string) error
}

func NewReminderService(reminders ReminderStore, scheduler Scheduler, logger *slog.Logger) *ReminderService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReminderService{reminders: reminders, scheduler: scheduler, logger: logger, now: time.Now}
}

type CreateReminderInput struct {
	User         models.User
	Title        string
	Description  *string
	ReminderDate time.Time
	ExtraData    *string
}

// ReminderText is the scheduled WhatsApp message body.
func ReminderText(description string) string {
	return "🔔 **Lembrete**\n\n" + description + "\n\n_Este é um lembrete agendado pelo sistema FinMec_"
}

// Create stores the reminder and schedules it. A scheduling failure is
// recorded in extra_data and does not fail the call.
func (s *ReminderService) Create(ctx context.Context, in CreateReminderInput) (models.Reminder, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return models.Reminder{}, ErrInvalidTitle
	}
	if !in.ReminderDate.After(s.now()) {
		return models.Reminder{}, ErrReminderInPast
	}
	reminder, err := s.reminders.Create(ctx, store.ReminderInput{
		UserID:       in.User.ID,
		Title:        title,
		Description:  in.Description,
		ReminderDate: in.ReminderDate,
		IsActive:     true,
		ExtraData:    in.ExtraData,
	})
	if err != nil {
		return models.Reminder{}, err
	}
	if s.scheduler == nil {
		return reminder, nil
	}
	body := title
	if in.Description != nil && strings.TrimSpace(*in.Description) != "" {
		body = *in.Description
	}
	info := fmt.Sprintf("Lembrete ID: %d", reminder.ID)
	if err := s.scheduler.ScheduleText(ctx, Handle(in.User.RemoteJID), ReminderText(body), in.ReminderDate, info); err != nil {
		s.logger.Warn("reminder scheduling failed",
			slog.Int64("reminder_id", reminder.ID),
			slog.String("error", err.Error()),
		)
		extra := "agendamento falhou: " + err.Error()
		if setErr := s.reminders.SetExtraData(ctx, reminder.ID, extra); setErr != nil {
			s.logger.Error("reminder extra data update failed", slog.Int64("reminder_id", reminder.ID), slog.String("error", setErr.Error()))
		} else {
			reminder.ExtraData = &extra
		}
	}
	return reminder, nil
}

func (s *ReminderService) List(ctx context.Context, userID int64) ([]models.Reminder, error) {
	return s.reminders.ListByUser(ctx, userID, false)
}

func (s *ReminderService) Active(ctx context.Context, userID int64) ([]models.Reminder, error) {
	return s.reminders.ListByUser(ctx, userID, true)
}

func (s *ReminderService) Get(ctx context.Context, userID, reminderID int64) (models.Reminder, error) {
	reminder, err := s.reminders.GetByID(ctx, userID, reminderID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Reminder{}, ErrReminderNotFound
	}
	return reminder, err
}

func (s *ReminderService) Update(ctx context.Context, userID, reminderID int64, patch store.ReminderPatch) (models.Reminder, error) {
	if patch.Title != nil {
		title := strings.TrimSpace(*patch.Title)
		if title == "" {
			return models.Reminder{}, ErrInvalidTitle
		}
		patch.Title = &title
	}
	reminder, err := s.reminders.Update(ctx, userID, reminderID, patch)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Reminder{}, ErrReminderNotFound
	}
	return reminder, err
}

func (s *ReminderService) Delete(ctx context.Context, userID, reminderID int64) error {
	deleted, err := s.reminders.Delete(ctx, userID, reminderID)
	if err != nil {
		return err
	}
	if deleted == 0 {
		return ErrReminderNotFound
	}
	return nil
}

// MarkSent is idempotent.
func (s *ReminderService) MarkSent(ctx context.Context, reminderID int64) error {
	updated, err := s.reminders.MarkSent(ctx, reminderID)
	if err != nil {
		return err
	}
	if updated == 0 {
		return ErrReminderNotFound
	}
	return nil
}
