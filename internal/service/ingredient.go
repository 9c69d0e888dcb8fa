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

// IngredientService manages each member's ingredient catalog. Every method
// takes the acting member id and treats someone else's ingredient exactly
// like a missing one.
type IngredientService struct {
	store  repository.Transactor
	logger *slog.Logger
}

func NewIngredientService(store repository.Transactor, logger *slog.Logger) *IngredientService {
	return &IngredientService{store: store, logger: logger}
}

type IngredientInput struct {
	Name string
	Unit string
}

func (s *IngredientService) Post(ctx context.Context, memberID int64, in IngredientInput) (*model.Ingredient, error) {
	ing := &model.Ingredient{
		MemberID: memberID,
		Name:     strings.TrimSpace(in.Name),
		Unit:     strings.TrimSpace(in.Unit),
	}

	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		if _, err := tx.Members().GetByID(ctx, memberID); err != nil {
			if errors.Is(err, apperror.ErrNotFound) {
				return apperror.ErrMemberNotFound
			}
			return err
		}

		if err := ensureIngredientNameFree(ctx, tx, memberID, ing.Name, 0); err != nil {
			return err
		}

		if err := tx.Ingredients().Create(ctx, ing); err != nil {
			if errors.Is(err, apperror.ErrNotFound) {
				return apperror.ErrMemberNotFound
			}
			return translateIngredientWrite(err)
		}
		return nil
	})
	if err != nil {
		return nil, wrapUnlessDomain(err, "posting ingredient")
	}

	s.logger.Info("ingredient created",
		slog.Int64("memberId", memberID),
		slog.Int64("ingredientId", ing.ID),
		slog.String("name", ing.Name),
	)
	return ing, nil
}

func (s *IngredientService) Get(ctx context.Context, id, memberID int64) (*model.Ingredient, error) {
	ing, err := ownedIngredient(ctx, s.store, id, memberID)
	if err != nil {
		return nil, wrapUnlessDomain(err, "getting ingredient")
	}
	return ing, nil
}

func (s *IngredientService) GetList(ctx context.Context, memberID int64) ([]model.Ingredient, error) {
	list, err := s.store.Ingredients().ListByOwner(ctx, memberID)
	if err != nil {
		return nil, fmt.Errorf("listing ingredients: %w", err)
	}
	return list, nil
}

// Put replaces name and unit. Renaming onto another of the member's
// ingredients returns apperror.ErrDuplicateIngredient.
func (s *IngredientService) Put(ctx context.Context, id, memberID int64, in IngredientInput) (*model.Ingredient, error) {
	var ing *model.Ingredient

	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		var err error
		ing, err = ownedIngredient(ctx, tx, id, memberID)
		if err != nil {
			return err
		}

		ing.Name = strings.TrimSpace(in.Name)
		ing.Unit = strings.TrimSpace(in.Unit)

		if err := ensureIngredientNameFree(ctx, tx, memberID, ing.Name, ing.ID); err != nil {
			return err
		}

		if err := tx.Ingredients().Update(ctx, ing); err != nil {
			return translateIngredientWrite(err)
		}
		return nil
	})
	if err != nil {
		return nil, wrapUnlessDomain(err, "putting ingredient")
	}
	return ing, nil
}

// Delete removes the ingredient unless a recipe still uses it, in which
// case apperror.ErrIngredientInUse is returned.
func (s *IngredientService) Delete(ctx context.Context, id, memberID int64) error {
	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		if _, err := ownedIngredient(ctx, tx, id, memberID); err != nil {
			return err
		}

		if err := tx.Ingredients().Delete(ctx, id); err != nil {
			switch {
			case errors.Is(err, apperror.ErrConflict):
				return apperror.ErrIngredientInUse
			case errors.Is(err, apperror.ErrNotFound):
				return apperror.ErrIngredientNotFound
			}
			return err
		}
		return nil
	})
	if err != nil {
		return wrapUnlessDomain(err, "deleting ingredient")
	}

	s.logger.Info("ingredient deleted",
		slog.Int64("memberId", memberID),
		slog.Int64("ingredientId", id),
	)
	return nil
}

// ownedIngredient loads an ingredient and checks its owner. Absent and
// foreign ingredients both yield apperror.ErrIngredientNotFound.
func ownedIngredient(ctx context.Context, store repository.Store, id, memberID int64) (*model.Ingredient, error) {
	ing, err := store.Ingredients().GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.ErrIngredientNotFound
		}
		return nil, err
	}
	if ing.MemberID != memberID {
		return nil, apperror.ErrIngredientNotFound
	}
	return ing, nil
}

// ensureIngredientNameFree fails if memberID already has an ingredient
// called name, other than selfID.
func ensureIngredientNameFree(ctx context.Context, store repository.Store, memberID int64, name string, selfID int64) error {
	existing, err := store.Ingredients().GetByName(ctx, memberID, name)
	switch {
	case err == nil && existing.ID != selfID:
		return apperror.ErrDuplicateIngredient
	case err == nil, errors.Is(err, apperror.ErrNotFound):
		return nil
	default:
		return err
	}
}

func translateIngredientWrite(err error) error {
	switch {
	case errors.Is(err, apperror.ErrConflict):
		return apperror.ErrDuplicateIngredient
	case errors.Is(err, apperror.ErrNotFound):
		return apperror.ErrIngredientNotFound
	}
	return err
}

// wrapUnlessDomain passes domain singletons through untouched and adds
// context to everything else.
func wrapUnlessDomain(err error, op string) error {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) && appErr.Code != "" {
		return err
	}
	return fmt.Errorf("%s: %w", op, err)
}
