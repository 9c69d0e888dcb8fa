package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/sakif/hometender/internal/apperror"
	"github.com/sakif/hometender/internal/model"
	"github.com/sakif/hometender/internal/repository"
)

var _ repository.IngredientRepository = (*IngredientRepo)(nil)

// IngredientRepo stores ingredients in the ingredients table.
// Ownership is not checked here; services compare MemberID themselves.
type IngredientRepo struct {
	q sqlx.ExtContext
}

const ingredientColumns = `id, member_id, name, unit, created_at, updated_at`

func (r *IngredientRepo) Create(ctx context.Context, ing *model.Ingredient) error {
	now := time.Now().UTC()

	res, err := r.q.ExecContext(ctx,
		`INSERT INTO ingredients (member_id, name, unit, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?)`,
		ing.MemberID, ing.Name, ing.Unit, now, now,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("ingredient", ing.Name)
		}
		if isForeignKeyViolation(err) {
			return apperror.NotFound("member", strconv.FormatInt(ing.MemberID, 10))
		}
		return fmt.Errorf("sqlite: inserting ingredient %q: %w", ing.Name, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("sqlite: reading ingredient id: %w", err)
	}

	ing.ID = id
	ing.CreatedAt = now
	ing.UpdatedAt = now
	return nil
}

func (r *IngredientRepo) GetByID(ctx context.Context, id int64) (*model.Ingredient, error) {
	var ing model.Ingredient
	err := sqlx.GetContext(ctx, r.q, &ing,
		`SELECT `+ingredientColumns+` FROM ingredients WHERE id = ?`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("ingredient", strconv.FormatInt(id, 10))
		}
		return nil, fmt.Errorf("sqlite: getting ingredient %d: %w", id, err)
	}
	return &ing, nil
}

func (r *IngredientRepo) GetByName(ctx context.Context, memberID int64, name string) (*model.Ingredient, error) {
	var ing model.Ingredient
	err := sqlx.GetContext(ctx, r.q, &ing,
		`SELECT `+ingredientColumns+` FROM ingredients WHERE member_id = ? AND name = ?`,
		memberID, name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("ingredient", name)
		}
		return nil, fmt.Errorf("sqlite: getting ingredient %q: %w", name, err)
	}
	return &ing, nil
}

// ListByOwner returns the member's ingredients in insertion order. It never
// returns nil, so an empty catalog encodes as [] rather than null.
func (r *IngredientRepo) ListByOwner(ctx context.Context, memberID int64) ([]model.Ingredient, error) {
	list := []model.Ingredient{}
	err := sqlx.SelectContext(ctx, r.q, &list,
		`SELECT `+ingredientColumns+` FROM ingredients WHERE member_id = ? ORDER BY id`,
		memberID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing ingredients of member %d: %w", memberID, err)
	}
	return list, nil
}

// Update writes name and unit and refreshes UpdatedAt.
func (r *IngredientRepo) Update(ctx context.Context, ing *model.Ingredient) error {
	now := time.Now().UTC()

	res, err := r.q.ExecContext(ctx,
		`UPDATE ingredients SET name = ?, unit = ?, updated_at = ? WHERE id = ?`,
		ing.Name, ing.Unit, now, ing.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("ingredient", ing.Name)
		}
		return fmt.Errorf("sqlite: updating ingredient %d: %w", ing.ID, err)
	}
	if err := requireAffected(res, "ingredient", ing.ID); err != nil {
		return err
	}

	ing.UpdatedAt = now
	return nil
}

// Delete removes the ingredient. If a recipe line still references it the
// foreign key rejects the delete and an ErrConflict error is returned.
func (r *IngredientRepo) Delete(ctx context.Context, id int64) error {
	res, err := r.q.ExecContext(ctx, `DELETE FROM ingredients WHERE id = ?`, id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return apperror.Conflict("ingredient", strconv.FormatInt(id, 10))
		}
		return fmt.Errorf("sqlite: deleting ingredient %d: %w", id, err)
	}
	return requireAffected(res, "ingredient", id)
}
