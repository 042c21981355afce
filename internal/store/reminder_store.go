package store

import (
	"context"
	"time"

	"finmec/internal/models"
)

type ReminderStore struct {
	db DB
}

func NewReminderStore(db DB) *ReminderStore {
	return &ReminderStore{db: db}
}

type ReminderInput struct {
	UserID       int64
	Title        string
	Description  *string
	ReminderDate time.Time
	IsActive     bool
	ExtraData    *string
}

type ReminderPatch struct {
	Title        *string
	Description  *string
	ReminderDate *time.Time
	IsActive     *bool
	ExtraData    *string
}

const reminderColumns = `id, user_id, title, description, reminder_date, is_sent, is_active, sent_at, extra_data, created_at, updated_at`

func (s *ReminderStore) Create(ctx context.Context, input ReminderInput) (models.Reminder, error) {
	var row models.Reminder
	err := s.db.GetContext(ctx, &row, `
		INSERT INTO reminders (user_id, title, description, reminder_date, is_active, extra_data)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+reminderColumns,
		input.UserID, input.Title, input.Description, input.ReminderDate, input.IsActive, input.ExtraData)
	if err != nil {
		return models.Reminder{}, err
	}
	return row, nil
}

func (s *ReminderStore) GetByID(ctx context.Context, userID, reminderID int64) (models.Reminder, error) {
	var row models.Reminder
	err := s.db.GetContext(ctx, &row, `
		SELECT `+reminderColumns+`
		FROM reminders
		WHERE id = $1 AND user_id = $2
	`, reminderID, userID)
	if err != nil {
		return models.Reminder{}, err
	}
	return row, nil
}

func (s *ReminderStore) ListByUser(ctx context.Context, userID int64, activeOnly bool) ([]models.Reminder, error) {
	var rows []models.Reminder
	query := `
		SELECT ` + reminderColumns + `
		FROM reminders
		WHERE user_id = $1`
	if activeOnly {
		query += " AND is_active = TRUE AND is_sent = FALSE"
	}
	query += " ORDER BY reminder_date ASC, id ASC"
	if err := s.db.SelectContext(ctx, &rows, query, userID); err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *ReminderStore) Update(ctx context.Context, userID, reminderID int64, patch ReminderPatch) (models.Reminder, error) {
	var row models.Reminder
	err := s.db.GetContext(ctx, &row, `
		UPDATE reminders
		SET title = COALESCE($1, title),
		    description = COALESCE($2, description),
		    reminder_date = COALESCE($3, reminder_date),
		    is_active = COALESCE($4, is_active),
		    extra_data = COALESCE($5, extra_data),
		    updated_at = NOW()
		WHERE id = $6 AND user_id = $7
		RETURNING `+reminderColumns,
		patch.Title, patch.Description, patch.ReminderDate, patch.IsActive, patch.ExtraData, reminderID, userID)
	if err != nil {
		return models.Reminder{}, err
	}
	return row, nil
}

func (s *ReminderStore) SetExtraData(ctx context.Context, reminderID int64, extra string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE reminders SET extra_data = $1, updated_at = NOW() WHERE id = $2`, extra, reminderID)
	return err
}

func (s *ReminderStore) Delete(ctx context.Context, userID, reminderID int64) (int64, error) {
	return affected(s.db.ExecContext(ctx, `DELETE FROM reminders WHERE id = $1 AND user_id = $2`, reminderID, userID))
}

// MarkSent is keyed by id only; it is called by the provider's delivery callback.
// An already sent reminder keeps its original sent_at.
func (s *ReminderStore) MarkSent(ctx context.Context, reminderID int64) (int64, error) {
	return affected(s.db.ExecContext(ctx, `
		UPDATE reminders
		SET is_sent = TRUE, sent_at = COALESCE(sent_at, NOW()), updated_at = NOW()
		WHERE id = $1
	`, reminderID))
}
