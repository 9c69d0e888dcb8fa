package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/hometender/internal/apperror"
	"github.com/sakif/hometender/internal/service"
	"github.com/sakif/hometender/internal/validation"
)

type ingredientRequest struct {
	Name string `json:"name" validate:"notblank,max=30"`
	Unit string `json:"unit" validate:"notblank,max=10"`
}

func (req *ingredientRequest) normalize() { trim(&req.Name, &req.Unit) }

func (req ingredientRequest) input() service.IngredientInput {
	return service.IngredientInput{Name: req.Name, Unit: req.Unit}
}

// IngredientHandler serves /api/ingredient. Every route sits behind the
// session middleware.
type IngredientHandler struct {
	ingredients *service.IngredientService
	validator   *validation.Validator
	logger      *slog.Logger
}

func NewIngredientHandler(ingredients *service.IngredientService, validator *validation.Validator, logger *slog.Logger) *IngredientHandler {
	return &IngredientHandler{ingredients: ingredients, validator: validator, logger: logger}
}

// HTTP: POST /api/ingredient
func (h *IngredientHandler) HandlePost(w http.ResponseWriter, r *http.Request) {
	memberID, err := currentMember(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	var req ingredientRequest
	if err := bind(w, r, h.validator, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	ing, err := h.ingredients.Post(r.Context(), memberID, req.input())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, ing)
}

// HTTP: GET /api/ingredient
func (h *IngredientHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	memberID, err := currentMember(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	list, err := h.ingredients.GetList(r.Context(), memberID)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, list)
}

// HTTP: GET /api/ingredient/{id}
func (h *IngredientHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	memberID, err := currentMember(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	id, err := pathID(r, apperror.ErrIngredientNotFound)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	ing, err := h.ingredients.Get(r.Context(), id, memberID)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, ing)
}

// HTTP: PUT /api/ingredient/{id}
func (h *IngredientHandler) HandlePut(w http.ResponseWriter, r *http.Request) {
	memberID, err := currentMember(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	id, err := pathID(r, apperror.ErrIngredientNotFound)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	var req ingredientRequest
	if err := bind(w, r, h.validator, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	ing, err := h.ingredients.Put(r.Context(), id, memberID, req.input())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, ing)
}

// HTTP: DELETE /api/ingredient/{id}
func (h *IngredientHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	memberID, err := currentMember(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	id, err := pathID(r, apperror.ErrIngredientNotFound)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	if err := h.ingredients.Delete(r.Context(), id, memberID); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, nil)
}
