package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/garnizeh/pawfect/internal/adoption"
	"github.com/garnizeh/pawfect/pkg/models"
	"github.com/garnizeh/pawfect/pkg/repository"
)

// AdoptionSubmitter runs the adoption decision. *adoption.Service
// implements it.
type AdoptionSubmitter interface {
	Submit(ctx context.Context, req adoption.Request) (*adoption.Outcome, error)
}

// ProcessHandler serves adoption submissions and appointment reviews.
type ProcessHandler struct {
	submitter    AdoptionSubmitter
	appointments repository.AppointmentRepo
	adoptions    repository.AdoptionRepo
}

func NewProcessHandler(s AdoptionSubmitter, appointments repository.AppointmentRepo, adoptions repository.AdoptionRepo) *ProcessHandler {
	return &ProcessHandler{submitter: s, appointments: appointments, adoptions: adoptions}
}

type adoptionRequest struct {
	// PetID accepts both 3 and "3".
	PetID   json.Number `json:"pet_id"`
	Purpose string      `json:"purpose_of_adoption"`
}

type adoptionRejected struct {
	Status  string  `json:"status"`
	Message string  `json:"message"`
	PetName *string `json:"petName"`
}

type adoptionAccepted struct {
	Message    string  `json:"message"`
	AdoptionID int64   `json:"adoption_id"`
	PetName    *string `json:"petName"`
}

func (h *ProcessHandler) SubmitAdoption(w http.ResponseWriter, r *http.Request) {
	claims, ok := ClaimsFromContext(r.Context())
	if !ok {
		writeMessage(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req adoptionRequest
	err := decodeJSON(r, &req)
	if bodyTooLarge(w, err) {
		return
	}
	if err != nil {
		writeError(w, http.StatusBadRequest, adoption.MsgMissingFields)
		return
	}
	// zero or unparsable ids are reported by Submit as missing fields
	petID, _ := req.PetID.Int64()

	out, err := h.submitter.Submit(r.Context(), adoption.Request{
		PetID:   petID,
		Purpose: req.Purpose,
		UserID:  claims.UserID,
	})
	if err != nil {
		writeAppError(w, err)
		return
	}

	if !out.Accepted {
		writeJSON(w, http.StatusOK, adoptionRejected{
			Status:  "INVALID",
			Message: adoption.MsgRejected,
			PetName: out.PetName,
		})
		return
	}
	writeJSON(w, http.StatusOK, adoptionAccepted{
		Message:    adoption.MsgSubmitted,
		AdoptionID: out.AdoptionID,
		PetName:    out.PetName,
	})
}

// ListAdoptions returns the requests of the bearer of the token.
func (h *ProcessHandler) ListAdoptions(w http.ResponseWriter, r *http.Request) {
	claims, ok := ClaimsFromContext(r.Context())
	if !ok {
		writeMessage(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	list, err := h.adoptions.ListAdoptionsByUser(r.Context(), claims.UserID)
	if err != nil {
		logger.Error("list adoptions", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to fetch adoption requests")
		return
	}
	if list == nil {
		list = []models.Adoption{}
	}
	writeJSON(w, http.StatusOK, list)
}

type reviewRequest struct {
	Review string `json:"review"`
}

func (h *ProcessHandler) UpdateReview(w http.ResponseWriter, r *http.Request) {
	var req reviewRequest
	err := decodeJSON(r, &req)
	if bodyTooLarge(w, err) {
		return
	}
	if err != nil || strings.TrimSpace(req.Review) == "" {
		writeError(w, http.StatusBadRequest, "Review is required")
		return
	}

	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		writeError(w, http.StatusNotFound, "Appointment not found")
		return
	}

	n, err := h.appointments.UpdateReview(r.Context(), id, req.Review)
	if err != nil {
		logger.Error("update review", zap.Int64("appointment_id", id), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to update review")
		return
	}
	if n == 0 {
		writeError(w, http.StatusNotFound, "Appointment not found")
		return
	}
	writeMessage(w, http.StatusOK, "Review updated successfully")
}

func (h *ProcessHandler) ListAppointments(w http.ResponseWriter, r *http.Request) {
	list, err := h.appointments.ListAppointments(r.Context())
	if err != nil {
		logger.Error("list appointments", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to fetch appointments")
		return
	}
	if list == nil {
		list = []models.AppointmentView{}
	}
	writeJSON(w, http.StatusOK, list)
}
