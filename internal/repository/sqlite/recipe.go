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

var _ repository.RecipeRepository = (*RecipeRepo)(nil)

// RecipeRepo stores recipes in recipes and their lines in
// recipe_ingredients.
//
// Create and Update write several rows. They are only atomic when the repo
// is bound to a transaction, which is how the service layer always uses
// them (see DB.WithinTx).
type RecipeRepo struct {
	q sqlx.ExtContext
}

const recipeColumns = `id, member_id, name, created_at, updated_at`

// Create inserts the recipe row, then one line per element of
// recipe.Lines, numbering positions from 0.
func (r *RecipeRepo) Create(ctx context.Context, recipe *model.Recipe) error {
	now := time.Now().UTC()

	res, err := r.q.ExecContext(ctx,
		`INSERT INTO recipes (member_id, name, created_at, updated_at) VALUES (?, ?, ?, ?)`,
		recipe.MemberID, recipe.Name, now, now,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("recipe", recipe.Name)
		}
		return fmt.Errorf("sqlite: inserting recipe %q: %w", recipe.Name, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("sqlite: reading recipe id: %w", err)
	}

	recipe.ID = id
	recipe.CreatedAt = now
	recipe.UpdatedAt = now

	return r.insertLines(ctx, recipe)
}

func (r *RecipeRepo) insertLines(ctx context.Context, recipe *model.Recipe) error {
	for i := range recipe.Lines {
		line := &recipe.Lines[i]
		line.RecipeID = recipe.ID
		line.Position = i

		res, err := r.q.ExecContext(ctx,
			`INSERT INTO recipe_ingredients (recipe_id, ingredient_id, position, quantity)
			 VALUES (?, ?, ?, ?)`,
			line.RecipeID, line.IngredientID, line.Position, line.Quantity,
		)
		if err != nil {
			if isForeignKeyViolation(err) {
				return apperror.NotFound("ingredient", strconv.FormatInt(line.IngredientID, 10))
			}
			if isUniqueViolation(err) {
				return apperror.Conflict("recipe line", strconv.FormatInt(line.IngredientID, 10))
			}
			return fmt.Errorf("sqlite: inserting line %d of recipe %d: %w", i, recipe.ID, err)
		}

		lineID, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("sqlite: reading recipe line id: %w", err)
		}
		line.ID = lineID
	}
	return nil
}

// GetByID returns the recipe with its lines in position order. Each line
// carries the ingredient's current name and unit.
func (r *RecipeRepo) GetByID(ctx context.Context, id int64) (*model.Recipe, error) {
	var recipe model.Recipe
	err := sqlx.GetContext(ctx, r.q, &recipe,
		`SELECT `+recipeColumns+` FROM recipes WHERE id = ?`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("recipe", strconv.FormatInt(id, 10))
		}
		return nil, fmt.Errorf("sqlite: getting recipe %d: %w", id, err)
	}

	recipe.Lines = []model.RecipeIngredient{}
	err = sqlx.SelectContext(ctx, r.q, &recipe.Lines,
		`SELECT ri.id, ri.recipe_id, ri.ingredient_id, ri.position, ri.quantity,
		        i.name AS ingredient_name, i.unit
		 FROM recipe_ingredients ri
		 JOIN ingredients i ON i.id = ri.ingredient_id
		 WHERE ri.recipe_id = ?
		 ORDER BY ri.position`, id)
	if err != nil {
		return nil, fmt.Errorf("sqlite: getting lines of recipe %d: %w", id, err)
	}

	return &recipe, nil
}

// GetByName looks a recipe up by its owner-scoped name. Lines are not
// loaded.
func (r *RecipeRepo) GetByName(ctx context.Context, memberID int64, name string) (*model.Recipe, error) {
	var recipe model.Recipe
	err := sqlx.GetContext(ctx, r.q, &recipe,
		`SELECT `+recipeColumns+` FROM recipes WHERE member_id = ? AND name = ?`,
		memberID, name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("recipe", name)
		}
		return nil, fmt.Errorf("sqlite: getting recipe %q: %w", name, err)
	}
	return &recipe, nil
}

// ListByOwner returns one summary per recipe in insertion order.
func (r *RecipeRepo) ListByOwner(ctx context.Context, memberID int64) ([]model.RecipeSummary, error) {
	list := []model.RecipeSummary{}
	err := sqlx.SelectContext(ctx, r.q, &list,
		`SELECT r.id, r.name, COUNT(ri.id) AS ingredient_count
		 FROM recipes r
		 LEFT JOIN recipe_ingredients ri ON ri.recipe_id = r.id
		 WHERE r.member_id = ?
		 GROUP BY r.id, r.name
		 ORDER BY r.id`, memberID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing recipes of member %d: %w", memberID, err)
	}
	return list, nil
}

// Update renames the recipe and replaces all of its lines: the old lines
// are deleted and recipe.Lines is inserted in their place.
func (r *RecipeRepo) Update(ctx context.Context, recipe *model.Recipe) error {
	now := time.Now().UTC()

	res, err := r.q.ExecContext(ctx,
		`UPDATE recipes SET name = ?, updated_at = ? WHERE id = ?`,
		recipe.Name, now, recipe.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("recipe", recipe.Name)
		}
		return fmt.Errorf("sqlite: updating recipe %d: %w", recipe.ID, err)
	}
	if err := requireAffected(res, "recipe", recipe.ID); err != nil {
		return err
	}

	if _, err := r.q.ExecContext(ctx,
		`DELETE FROM recipe_ingredients WHERE recipe_id = ?`, recipe.ID); err != nil {
		return fmt.Errorf("sqlite: clearing lines of recipe %d: %w", recipe.ID, err)
	}

	recipe.UpdatedAt = now
	return r.insertLines(ctx, recipe)
}

// Delete removes the recipe; its lines go with it via ON DELETE CASCADE.
func (r *RecipeRepo) Delete(ctx context.Context, id int64) error {
	res, err := r.q.ExecContext(ctx, `DELETE FROM recipes WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting recipe %d: %w", id, err)
	}
	return requireAffected(res, "recipe", id)
}
