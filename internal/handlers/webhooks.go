package handlers

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"finmec/internal/processor"
	"finmec/internal/services"
)

const inactiveUserMessage = "👋 Olá! Obrigado por entrar em contato.\n\n" +
	"Para usar o sistema de controle financeiro, você precisa ativar sua conta primeiro.\n\n" +
	"Entre em contato conosco para mais informações sobre como ativar."

const defaultActivationMessage = "Sua conta foi ativada com sucesso!"

type webhookMessage struct {
	ID           string `json:"id"`
	FromMe       bool   `json:"fromMe"`
	Type         string `json:"type"`
	Body         string `json:"body"`
	Conversation string `json:"conversation"`
}

type webhookRequest struct {
	RemoteJID  string         `json:"remoteJid"`
	InstanceID string         `json:"instanceId"`
	Message    webhookMessage `json:"message"`
}

// MessageWebhook receives every inbound WhatsApp message. Processing happens in
// the request; the reply is delivered in the background.
func (h *Handler) MessageWebhook(w http.ResponseWriter, r *http.Request) {
	var req webhookRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	remoteJID := strings.TrimSpace(req.RemoteJID)
	if remoteJID == "" || strings.TrimSpace(req.Message.Type) == "" {
		respondError(w, http.StatusBadRequest, "remoteJid and message.type are required")
		return
	}
	ctx := r.Context()
	logger := h.logger.With(
		slog.String("remote_jid", remoteJID),
		slog.String("message_type", req.Message.Type),
		slog.String("message_id", req.Message.ID),
	)

	user, created, err := h.users.GetOrCreate(ctx, remoteJID)
	if err != nil {
		logger.ErrorContext(ctx, "webhook user lookup failed", slog.Any("error", err))
		respondError(w, http.StatusInternalServerError, "Erro ao processar webhook: "+err.Error())
		return
	}
	if created {
		logger.InfoContext(ctx, "new user provisioned", slog.Int64("user_id", user.ID))
	}
	if !user.IsActive {
		h.sendInBackground(ctx, remoteJID, inactiveUserMessage)
		respondJSON(w, http.StatusOK, map[string]string{
			"status":  "user_inactive",
			"message": "Usuário inativo",
		})
		return
	}

	text := h.processor.Process(ctx, processor.Message{
		ID:           req.Message.ID,
		Type:         req.Message.Type,
		Body:         req.Message.Body,
		Conversation: req.Message.Conversation,
	})
	reply := h.agent.Reply(ctx, user, text)
	h.sendInBackground(ctx, remoteJID, reply)

	respondJSON(w, http.StatusOK, map[string]any{
		"status":    "success",
		"message":   "Mensagem processada com sucesso",
		"user_id":   user.ID,
		"processed": true,
	})
}

func (h *Handler) sendInBackground(ctx context.Context, remoteJID, text string) {
	err := h.dispatcher.Go(ctx, "send_text", func(ctx context.Context) error {
		return h.messenger.SendText(ctx, remoteJID, text)
	})
	if err != nil {
		h.logger.WarnContext(ctx, "reply not dispatched",
			slog.String("remote_jid", remoteJID),
			slog.Any("error", err),
		)
	}
}

type webCredentials struct {
	Username string `json:"usuario"`
	Password string `json:"senha"`
}

type activationRequest struct {
	Phone   string         `json:"telefone"`
	Domain  *string        `json:"dominio"`
	Message *string        `json:"mensagem_ativacao"`
	Access  webCredentials `json:"acesso_web"`
}

func activationJID(phone string) string {
	phone = strings.TrimSpace(phone)
	if strings.Contains(phone, "@") {
		return phone
	}
	return phone + "@s.whatsapp.net"
}

func welcomeMessage(intro, domain string, access webCredentials) string {
	var b strings.Builder
	b.WriteString(intro)
	b.WriteString("\n\nSegue abaixo as credenciais de acesso 👇🏼\n\n")
	b.WriteString("Acesse a plataforma pelo link abaixo:\n")
	b.WriteString(domain)
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "*Usuario*: %s\n", access.Username)
	fmt.Fprintf(&b, "*Senha*: %s\n\n", access.Password)
	b.WriteString("Acesse o sistema e faça a troca do seu E-mail e Senha.\n\n")
	b.WriteString("Agora você pode começar a usar o sistema de controle financeiro via WhatsApp! 🎉\n\n")
	b.WriteString("Digite *ajuda* para ver os comandos disponíveis.")
	return b.String()
}

// ActivationWebhook is called by the sales flow once a customer pays.
func (h *Handler) ActivationWebhook(w http.ResponseWriter, r *http.Request) {
	var req activationRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if strings.TrimSpace(req.Phone) == "" {
		respondError(w, http.StatusBadRequest, "telefone is required")
		return
	}
	ctx := r.Context()
	remoteJID := activationJID(req.Phone)
	domain := h.cfg.ActivationDomain
	if v := optionalString(req.Domain); v != nil {
		domain = *v
	}
	intro := defaultActivationMessage
	if v := optionalString(req.Message); v != nil {
		intro = *v
	}

	user, _, err := h.users.GetOrCreate(ctx, remoteJID)
	if err != nil {
		h.logger.ErrorContext(ctx, "activation lookup failed", slog.String("remote_jid", remoteJID), slog.Any("error", err))
		respondError(w, http.StatusInternalServerError, "Erro ao ativar usuário: "+err.Error())
		return
	}
	activated, err := h.users.Activate(ctx, user.ID, services.ActivateInput{
		Username: req.Access.Username,
		Password: req.Access.Password,
		Domain:   domain,
	})
	if err != nil {
		h.logger.ErrorContext(ctx, "activation failed", slog.Int64("user_id", user.ID), slog.Any("error", err))
		respondError(w, http.StatusInternalServerError, "Erro ao ativar usuário: "+err.Error())
		return
	}
	h.logger.InfoContext(ctx, "user activated", slog.Int64("user_id", activated.ID), slog.String("remote_jid", remoteJID))
	h.sendInBackground(ctx, remoteJID, welcomeMessage(intro, domain, req.Access))

	respondJSON(w, http.StatusOK, map[string]any{
		"status":     "success",
		"message":    "Usuário ativado com sucesso",
		"user_id":    activated.ID,
		"remote_jid": activated.RemoteJID,
	})
}

// ReminderSent is the delivery callback for scheduled reminders.
func (h *Handler) ReminderSent(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.reminders.MarkSent(r.Context(), id); err != nil {
		h.respondServiceError(w, r, err, "unable to mark reminder as sent")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"status":      "success",
		"reminder_id": id,
	})
}

func (h *Handler) WebhookTest(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"message": "Webhook está funcionando!",
		"endpoints": []string{
			"/webhook/finmec",
			"/webhook/ativacao",
			"/webhook/reminders/{id}/sent",
			"/webhook/test",
		},
	})
}
