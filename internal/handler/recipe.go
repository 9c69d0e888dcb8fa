package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/hometender/internal/apperror"
	"github.com/sakif/hometender/internal/service"
	"github.com/sakif/hometender/internal/validation"
)

type recipeLineRequest struct {
	IngredientID int64   `json:"ingredientId" validate:"gt=0"`
	Quantity     float64 `json:"quantity" validate:"gt=0"`
}

// recipeRequest is the body of both POST and PUT. A missing
// ingredientLines decodes to nil and is rejected like an empty one.
type recipeRequest struct {
	Name  string              `json:"name" validate:"notblank,max=50"`
	Lines []recipeLineRequest `json:"ingredientLines" validate:"unique=IngredientID,dive"`
}

func (req *recipeRequest) normalize() { trim(&req.Name) }

func (req recipeRequest) input() service.RecipeInput {
	lines := make([]service.RecipeLineInput, len(req.Lines))
	for i, l := range req.Lines {
		lines[i] = service.RecipeLineInput{IngredientID: l.IngredientID, Quantity: l.Quantity}
	}
	return service.RecipeInput{Name: req.Name, Lines: lines}
}

type recipeCreatedResponse struct {
	ID int64 `json:"id"`
}

// RecipeHandler serves /api/recipe. Every route sits behind the session
// middleware.
type RecipeHandler struct {
	recipes   *service.RecipeService
	validator *validation.Validator
	logger    *slog.Logger
}

func NewRecipeHandler(recipes *service.RecipeService, validator *validation.Validator, logger *slog.Logger) *RecipeHandler {
	return &RecipeHandler{recipes: recipes, validator: validator, logger: logger}
}

// HTTP: POST /api/recipe
func (h *RecipeHandler) HandlePost(w http.ResponseWriter, r *http.Request) {
	memberID, err := currentMember(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	req, err := h.bindRecipe(w, r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	recipe, err := h.recipes.Post(r.Context(), memberID, req.input())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, recipeCreatedResponse{ID: recipe.ID})
}

// HTTP: GET /api/recipe
func (h *RecipeHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	memberID, err := currentMember(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	list, err := h.recipes.GetList(r.Context(), memberID)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, list)
}

// HTTP: GET /api/recipe/{id}
func (h *RecipeHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	memberID, err := currentMember(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	id, err := pathID(r, apperror.ErrRecipeNotFound)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	recipe, err := h.recipes.Get(r.Context(), id, memberID)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, recipe)
}

// HTTP: PUT /api/recipe/{id}
func (h *RecipeHandler) HandlePut(w http.ResponseWriter, r *http.Request) {
	memberID, err := currentMember(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	id, err := pathID(r, apperror.ErrRecipeNotFound)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	req, err := h.bindRecipe(w, r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	if err := h.recipes.Put(r.Context(), id, memberID, req.input()); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, nil)
}

// HTTP: DELETE /api/recipe/{id}
func (h *RecipeHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	memberID, err := currentMember(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	id, err := pathID(r, apperror.ErrRecipeNotFound)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	if err := h.recipes.Delete(r.Context(), id, memberID); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, nil)
}

// bindRecipe decodes and validates a recipe body. Field validation runs first;
// an empty line list is then rejected before the service is called.
func (h *RecipeHandler) bindRecipe(w http.ResponseWriter, r *http.Request) (*recipeRequest, error) {
	var req recipeRequest
	if err := bind(w, r, h.validator, &req); err != nil {
		return nil, err
	}
	if len(req.Lines) == 0 {
		return nil, apperror.ErrRecipeIngredientIsEmpty
	}
	return &req, nil
}
