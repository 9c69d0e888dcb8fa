package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/hometender/internal/apperror"
	"github.com/sakif/hometender/internal/model"
	"github.com/sakif/hometender/internal/repository"
)

// RecipeService manages each member's recipes. Like IngredientService it
// reports foreign recipes as missing.
type RecipeService struct {
	store  repository.Transactor
	logger *slog.Logger
}

func NewRecipeService(store repository.Transactor, logger *slog.Logger) *RecipeService {
	return &RecipeService{store: store, logger: logger}
}

type RecipeLineInput struct {
	IngredientID int64
	Quantity     float64
}

// RecipeInput is used for both post and put. Lines keep the order given.
type RecipeInput struct {
	Name  string
	Lines []RecipeLineInput
}

// Post creates a recipe and its lines in one transaction.
//
// Checks, in order: at least one line (before touching the database), a
// free name, and every line's ingredient existing and belonging to
// memberID.
func (s *RecipeService) Post(ctx context.Context, memberID int64, in RecipeInput) (*model.Recipe, error) {
	if len(in.Lines) == 0 {
		return nil, apperror.ErrRecipeIngredientIsEmpty
	}

	recipe := &model.Recipe{
		MemberID: memberID,
		Name:     strings.TrimSpace(in.Name),
		Lines:    toLines(in.Lines),
	}

	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		if err := ensureRecipeNameFree(ctx, tx, memberID, recipe.Name, 0); err != nil {
			return err
		}
		if err := checkLines(ctx, tx, memberID, in.Lines); err != nil {
			return err
		}

		if err := tx.Recipes().Create(ctx, recipe); err != nil {
			return translateRecipeWrite(err)
		}
		return nil
	})
	if err != nil {
		return nil, wrapUnlessDomain(err, "posting recipe")
	}

	s.logger.Info("recipe created",
		slog.Int64("memberId", memberID),
		slog.Int64("recipeId", recipe.ID),
		slog.String("name", recipe.Name),
		slog.Int("lines", len(recipe.Lines)),
	)
	return recipe, nil
}

// GetList returns summaries of memberID's recipes in insertion order.
func (s *RecipeService) GetList(ctx context.Context, memberID int64) ([]model.RecipeSummary, error) {
	list, err := s.store.Recipes().ListByOwner(ctx, memberID)
	if err != nil {
		return nil, fmt.Errorf("listing recipes: %w", err)
	}
	return list, nil
}

// Get returns the recipe with its lines resolved to ingredient names and
// units.
func (s *RecipeService) Get(ctx context.Context, id, memberID int64) (*model.Recipe, error) {
	recipe, err := ownedRecipe(ctx, s.store, id, memberID)
	if err != nil {
		return nil, wrapUnlessDomain(err, "getting recipe")
	}
	return recipe, nil
}

// Put replaces the recipe's name and all of its lines. The same rules as
// Post apply to the new content.
func (s *RecipeService) Put(ctx context.Context, id, memberID int64, in RecipeInput) error {
	if len(in.Lines) == 0 {
		return apperror.ErrRecipeIngredientIsEmpty
	}

	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		recipe, err := ownedRecipe(ctx, tx, id, memberID)
		if err != nil {
			return err
		}

		recipe.Name = strings.TrimSpace(in.Name)
		recipe.Lines = toLines(in.Lines)

		if err := ensureRecipeNameFree(ctx, tx, memberID, recipe.Name, recipe.ID); err != nil {
			return err
		}
		if err := checkLines(ctx, tx, memberID, in.Lines); err != nil {
			return err
		}

		if err := tx.Recipes().Update(ctx, recipe); err != nil {
			return translateRecipeWrite(err)
		}
		return nil
	})
	if err != nil {
		return wrapUnlessDomain(err, "putting recipe")
	}

	s.logger.Info("recipe replaced",
		slog.Int64("memberId", memberID),
		slog.Int64("recipeId", id),
	)
	return nil
}

// Delete removes the recipe; its lines cascade.
func (s *RecipeService) Delete(ctx context.Context, id, memberID int64) error {
	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		if _, err := ownedRecipe(ctx, tx, id, memberID); err != nil {
			return err
		}
		if err := tx.Recipes().Delete(ctx, id); err != nil {
			if errors.Is(err, apperror.ErrNotFound) {
				return apperror.ErrRecipeNotFound
			}
			return err
		}
		return nil
	})
	if err != nil {
		return wrapUnlessDomain(err, "deleting recipe")
	}

	s.logger.Info("recipe deleted",
		slog.Int64("memberId", memberID),
		slog.Int64("recipeId", id),
	)
	return nil
}

func toLines(in []RecipeLineInput) []model.RecipeIngredient {
	lines := make([]model.RecipeIngredient, len(in))
	for i, l := range in {
		lines[i] = model.RecipeIngredient{IngredientID: l.IngredientID, Quantity: l.Quantity}
	}
	return lines
}

// duplicateLineMessage matches the request validator's message for the
// same rule, so clients see one wording whichever layer catches it.
const duplicateLineMessage = "같은 재료를 한 레시피에 두 번 넣을 수 없습니다."

// checkLines verifies every line before anything is written: quantities
// are positive, no ingredient repeats, and each ingredient belongs to
// memberID.
func checkLines(ctx context.Context, store repository.Store, memberID int64, lines []RecipeLineInput) error {
	seen := make(map[int64]struct{}, len(lines))
	for _, l := range lines {
		if l.Quantity <= 0 {
			return apperror.ValidationFailed("quantity", "수량은 0보다 커야 합니다.")
		}
		if _, dup := seen[l.IngredientID]; dup {
			return apperror.ValidationFailed("ingredientLines", duplicateLineMessage)
		}
		seen[l.IngredientID] = struct{}{}

		if _, err := ownedIngredient(ctx, store, l.IngredientID, memberID); err != nil {
			return err
		}
	}
	return nil
}

func ownedRecipe(ctx context.Context, store repository.Store, id, memberID int64) (*model.Recipe, error) {
	recipe, err := store.Recipes().GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.ErrRecipeNotFound
		}
		return nil, err
	}
	if recipe.MemberID != memberID {
		return nil, apperror.ErrRecipeNotFound
	}
	return recipe, nil
}

func ensureRecipeNameFree(ctx context.Context, store repository.Store, memberID int64, name string, selfID int64) error {
	existing, err := store.Recipes().GetByName(ctx, memberID, name)
	switch {
	case err == nil && existing.ID != selfID:
		return apperror.ErrDuplicateRecipe
	case err == nil, errors.Is(err, apperror.ErrNotFound):
		return nil
	default:
		return err
	}
}

func translateRecipeWrite(err error) error {
	switch {
	case errors.Is(err, apperror.ErrConflict):
		return apperror.ErrDuplicateRecipe
	case errors.Is(err, apperror.ErrNotFound):
		// A line's ingredient row is gone.
		return apperror.ErrIngredientNotFound
	}
	return err
}
