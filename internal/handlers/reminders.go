package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"finmec/internal/services"
	"finmec/internal/store"
	"finmec/internal/validator"
)

var errReminderDateRequired = errors.New("reminder_date is required")

type reminderRequest struct {
	Title        *string `json:"title"`
	Description  *string `json:"description"`
	ReminderDate *string `json:"reminder_date"`
	IsActive     *bool   `json:"is_active"`
	ExtraData    *string `json:"extra_data"`
}

func (h *Handler) reminderDate(raw *string) (*time.Time, error) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil, nil
	}
	at, err := validator.ParseDateTime(*raw, h.loc)
	if err != nil {
		return nil, err
	}
	return &at, nil
}

func (h *Handler) CreateReminder(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req reminderRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	at, err := h.reminderDate(req.ReminderDate)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if at == nil {
		respondError(w, http.StatusBadRequest, errReminderDateRequired.Error())
		return
	}
	var title string
	if req.Title != nil {
		title = *req.Title
	}
	reminder, err := h.reminders.Create(r.Context(), services.CreateReminderInput{
		User:         user,
		Title:        title,
		Description:  optionalString(req.Description),
		ReminderDate: *at,
		ExtraData:    optionalString(req.ExtraData),
	})
	if err != nil {
		h.respondServiceError(w, r, err, "unable to create reminder")
		return
	}
	respondJSON(w, http.StatusCreated, reminder)
}

func (h *Handler) ListReminders(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	rows, err := h.reminders.List(r.Context(), user.ID)
	if err != nil {
		h.respondServiceError(w, r, err, "unable to load reminders")
		return
	}
	respondJSON(w, http.StatusOK, rows)
}

func (h *Handler) ActiveReminders(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	rows, err := h.reminders.Active(r.Context(), user.ID)
	if err != nil {
		h.respondServiceError(w, r, err, "unable to load reminders")
		return
	}
	respondJSON(w, http.StatusOK, rows)
}

func (h *Handler) GetReminder(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, err := pathID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	reminder, err := h.reminders.Get(r.Context(), user.ID, id)
	if err != nil {
		h.respondServiceError(w, r, err, "unable to load reminder")
		return
	}
	respondJSON(w, http.StatusOK, reminder)
}

func (h *Handler) UpdateReminder(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, err := pathID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	var req reminderRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	at, err := h.reminderDate(req.ReminderDate)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	reminder, err := h.reminders.Update(r.Context(), user.ID, id, store.ReminderPatch{
		Title:        req.Title,
		Description:  req.Description,
		ReminderDate: at,
		IsActive:     req.IsActive,
		ExtraData:    req.ExtraData,
	})
	if err != nil {
		h.respondServiceError(w, r, err, "unable to update reminder")
		return
	}
	respondJSON(w, http.StatusOK, reminder)
}

func (h *Handler) DeleteReminder(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, err := pathID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.reminders.Delete(r.Context(), user.ID, id); err != nil {
		h.respondServiceError(w, r, err, "unable to delete reminder")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
