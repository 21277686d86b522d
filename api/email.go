package api

import (
	"context"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/garnizeh/pawfect/internal/mail"
	"github.com/garnizeh/pawfect/internal/metrics"
)

// Mailer sends the transactional emails. *mail.Notifier implements it.
type Mailer interface {
	AdoptionEmail(ctx context.Context, e mail.AdoptionEmail) (string, error)
	AppointmentEmail(ctx context.Context, e mail.AppointmentEmail) (string, error)
}

// EmailHandler exposes the notification sender directly, for the
// front-end's manual approve/reject and booking confirmations.
type EmailHandler struct {
	mailer Mailer
}

func NewEmailHandler(m Mailer) *EmailHandler {
	return &EmailHandler{mailer: m}
}

type emailResponse struct {
	Success   bool   `json:"success"`
	MessageID string `json:"messageId,omitempty"`
	Error     string `json:"error,omitempty"`
}

func (h *EmailHandler) AdoptionEmail(w http.ResponseWriter, r *http.Request) {
	var req mail.AdoptionEmail
	err := decodeJSON(r, &req)
	if bodyTooLarge(w, err) {
		return
	}
	if err != nil || strings.TrimSpace(req.To) == "" {
		writeJSON(w, http.StatusBadRequest, emailResponse{Error: "Recipient address (to) is required"})
		return
	}

	id, err := h.mailer.AdoptionEmail(r.Context(), req)
	metrics.RecordNotification(req.Type, err)
	if err != nil {
		logger.Error("email error", zap.String("to", req.To), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, emailResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, emailResponse{Success: true, MessageID: id})
}

func (h *EmailHandler) AppointmentEmail(w http.ResponseWriter, r *http.Request) {
	var req mail.AppointmentEmail
	err := decodeJSON(r, &req)
	if bodyTooLarge(w, err) {
		return
	}
	if err != nil || strings.TrimSpace(req.To) == "" {
		writeJSON(w, http.StatusBadRequest, emailResponse{Error: "Recipient address (to) is required"})
		return
	}

	id, err := h.mailer.AppointmentEmail(r.Context(), req)
	metrics.RecordNotification("appointment", err)
	if err != nil {
		logger.Error("email error", zap.String("to", req.To), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, emailResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, emailResponse{Success: true, MessageID: id})
}
