// Package repository declares the data-access interfaces used by the
// service layer. Implementations live in subpackages (see sqlite/).
//
// Every lookup that fails to find a row returns an error wrapping
// apperror.ErrNotFound; every unique or foreign-key violation returns an
// error wrapping apperror.ErrConflict. Services translate those kinds into
// the domain errors clients see.
package repository

import (
	"context"

	"github.com/sakif/hometender/internal/model"
)

type MemberRepository interface {
	Create(ctx context.Context, member *model.Member) error
	GetByID(ctx context.Context, id int64) (*model.Member, error)
	GetByLoginID(ctx context.Context, loginID string) (*model.Member, error)
	Delete(ctx context.Context, id int64) error
}

type IngredientRepository interface {
	Create(ctx context.Context, ingredient *model.Ingredient) error
	GetByID(ctx context.Context, id int64) (*model.Ingredient, error)
	GetByName(ctx context.Context, memberID int64, name string) (*model.Ingredient, error)
	ListByOwner(ctx context.Context, memberID int64) ([]model.Ingredient, error)
	Update(ctx context.Context, ingredient *model.Ingredient) error
	Delete(ctx context.Context, id int64) error
}

// RecipeRepository persists a recipe together with its lines. Create and
// Update write the lines in Recipe.Lines order; Update replaces them all.
type RecipeRepository interface {
	Create(ctx context.Context, recipe *model.Recipe) error
	GetByID(ctx context.Context, id int64) (*model.Recipe, error)
	GetByName(ctx context.Context, memberID int64, name string) (*model.Recipe, error)
	ListByOwner(ctx context.Context, memberID int64) ([]model.RecipeSummary, error)
	Update(ctx context.Context, recipe *model.Recipe) error
	Delete(ctx context.Context, id int64) error
}

// Store groups the per-entity repositories that share one connection or
// one transaction.
type Store interface {
	Members() MemberRepository
	Ingredients() IngredientRepository
	Recipes() RecipeRepository
}

// Transactor is a Store that can also run fn inside a single transaction.
// The Store passed to fn is bound to that transaction; fn must not touch
// the outer Store. A non-nil error from fn rolls the transaction back.
type Transactor interface {
	Store
	WithinTx(ctx context.Context, fn func(Store) error) error
}
