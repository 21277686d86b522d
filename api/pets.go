package api

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/garnizeh/pawfect/pkg/models"
	"github.com/garnizeh/pawfect/pkg/repository"
)

type PetHandler struct {
	pets repository.PetRepo
}

func NewPetHandler(pets repository.PetRepo) *PetHandler {
	return &PetHandler{pets: pets}
}

func (h *PetHandler) ListPets(w http.ResponseWriter, r *http.Request) {
	list, err := h.pets.ListPets(r.Context())
	if err != nil {
		logger.Error("list pets", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to fetch pets")
		return
	}
	if list == nil {
		list = []models.Pet{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *PetHandler) GetPet(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		writeError(w, http.StatusNotFound, "Pet not found")
		return
	}

	p, err := h.pets.GetPet(r.Context(), id)
	if err != nil {
		logger.Error("get pet", zap.Int64("pet_id", id), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to fetch pet details")
		return
	}
	if p == nil {
		writeError(w, http.StatusNotFound, "Pet not found")
		return
	}
	writeJSON(w, http.StatusOK, p)
}
