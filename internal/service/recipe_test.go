package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/hometender/internal/apperror"
)

func TestRecipePost(t *testing.T) {
	ts := newTestServices(t)
	ctx := context.Background()
	alice := ts.join(t, "alice")
	gin := ts.ingredient(t, alice, "gin")
	vermouth := ts.ingredient(t, alice, "vermouth")

	recipe, err := ts.recipes.Post(ctx, alice, RecipeInput{Name: " martini ", Lines: []RecipeLineInput{
		{IngredientID: vermouth, Quantity: 10},
		{IngredientID: gin, Quantity: 60},
	}})
	require.NoError(t, err)
	assert.NotZero(t, recipe.ID)
	assert.Equal(t, "martini", recipe.Name)

	got, err := ts.recipes.Get(ctx, recipe.ID, alice)
	require.NoError(t, err)
	require.Len(t, got.Lines, 2)
	assert.Equal(t, "vermouth", got.Lines[0].IngredientName)
	assert.Equal(t, "ml", got.Lines[0].Unit)
	assert.InDelta(t, 10, got.Lines[0].Quantity, 1e-9)
	assert.Equal(t, "gin", got.Lines[1].IngredientName)
}

func TestRecipePost_EmptyLinesWritesNothing(t *testing.T) {
	ts := newTestServices(t)
	alice := ts.join(t, "alice")
	before := ts.store.txCount

	_, err := ts.recipes.Post(context.Background(), alice, RecipeInput{Name: "air"})
	assert.ErrorIs(t, err, apperror.ErrRecipeIngredientIsEmpty)
	assert.Equal(t, before, ts.store.txCount, "rejected before any transaction")
	assert.Empty(t, ts.store.recipes)
}

func TestRecipePost_LineRules(t *testing.T) {
	ts := newTestServices(t)
	alice := ts.join(t, "alice")
	bob := ts.join(t, "bob")
	gin := ts.ingredient(t, alice, "gin")
	rum := ts.ingredient(t, bob, "rum")

	tests := []struct {
		name    string
		lines   []RecipeLineInput
		wantErr error
	}{
		{"zero quantity", []RecipeLineInput{{IngredientID: gin, Quantity: 0}}, apperror.ErrValidation},
		{"negative quantity", []RecipeLineInput{{IngredientID: gin, Quantity: -1}}, apperror.ErrValidation},
		{"duplicate ingredient", []RecipeLineInput{{IngredientID: gin, Quantity: 1}, {IngredientID: gin, Quantity: 2}}, apperror.ErrValidation},
		{"unknown ingredient", []RecipeLineInput{{IngredientID: 999, Quantity: 1}}, apperror.ErrIngredientNotFound},
		{"foreign ingredient", []RecipeLineInput{{IngredientID: rum, Quantity: 1}}, apperror.ErrIngredientNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ts.recipes.Post(context.Background(), alice, RecipeInput{Name: "r", Lines: tt.lines})
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Empty(t, ts.store.recipes, "nothing may be written")
		})
	}
}

func TestRecipePost_DuplicateName(t *testing.T) {
	ts := newTestServices(t)
	ctx := context.Background()
	alice := ts.join(t, "alice")
	gin := ts.ingredient(t, alice, "gin")
	lines := []RecipeLineInput{{IngredientID: gin, Quantity: 1}}

	_, err := ts.recipes.Post(ctx, alice, RecipeInput{Name: "shot", Lines: lines})
	require.NoError(t, err)

	_, err = ts.recipes.Post(ctx, alice, RecipeInput{Name: "shot", Lines: lines})
	assert.ErrorIs(t, err, apperror.ErrDuplicateRecipe)
	assert.Len(t, ts.store.recipes, 1)
}

func TestRecipeGetList(t *testing.T) {
	ts := newTestServices(t)
	ctx := context.Background()
	alice := ts.join(t, "alice")
	bob := ts.join(t, "bob")
	gin := ts.ingredient(t, alice, "gin")
	vermouth := ts.ingredient(t, alice, "vermouth")

	_, err := ts.recipes.Post(ctx, alice, RecipeInput{Name: "martini", Lines: []RecipeLineInput{
		{IngredientID: gin, Quantity: 60}, {IngredientID: vermouth, Quantity: 10},
	}})
	require.NoError(t, err)
	_, err = ts.recipes.Post(ctx, alice, RecipeInput{Name: "shot", Lines: []RecipeLineInput{{IngredientID: gin, Quantity: 30}}})
	require.NoError(t, err)

	list, err := ts.recipes.GetList(ctx, alice)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "martini", list[0].Name)
	assert.Equal(t, 2, list[0].IngredientCount)
	assert.Equal(t, 1, list[1].IngredientCount)

	empty, err := ts.recipes.GetList(ctx, bob)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestRecipePut(t *testing.T) {
	ts := newTestServices(t)
	ctx := context.Background()
	alice := ts.join(t, "alice")
	gin := ts.ingredient(t, alice, "gin")
	vermouth := ts.ingredient(t, alice, "vermouth")

	recipe, err := ts.recipes.Post(ctx, alice, RecipeInput{Name: "martini", Lines: []RecipeLineInput{
		{IngredientID: gin, Quantity: 60}, {IngredientID: vermouth, Quantity: 10},
	}})
	require.NoError(t, err)

	err = ts.recipes.Put(ctx, recipe.ID, alice, RecipeInput{Name: "dry martini", Lines: []RecipeLineInput{{IngredientID: gin, Quantity: 75}}})
	require.NoError(t, err)

	got, err := ts.recipes.Get(ctx, recipe.ID, alice)
	require.NoError(t, err)
	assert.Equal(t, "dry martini", got.Name)
	require.Len(t, got.Lines, 1)
	assert.InDelta(t, 75, got.Lines[0].Quantity, 1e-9)
}

func TestRecipePut_RejectsAndKeepsOld(t *testing.T) {
	ts := newTestServices(t)
	ctx := context.Background()
	alice := ts.join(t, "alice")
	bob := ts.join(t, "bob")
	gin := ts.ingredient(t, alice, "gin")

	recipe, err := ts.recipes.Post(ctx, alice, RecipeInput{Name: "shot", Lines: []RecipeLineInput{{IngredientID: gin, Quantity: 30}}})
	require.NoError(t, err)

	err = ts.recipes.Put(ctx, recipe.ID, alice, RecipeInput{Name: "shot"})
	assert.ErrorIs(t, err, apperror.ErrRecipeIngredientIsEmpty)

	err = ts.recipes.Put(ctx, recipe.ID, alice, RecipeInput{Name: "shot", Lines: []RecipeLineInput{{IngredientID: 999, Quantity: 1}}})
	assert.ErrorIs(t, err, apperror.ErrIngredientNotFound)

	err = ts.recipes.Put(ctx, recipe.ID, bob, RecipeInput{Name: "stolen", Lines: []RecipeLineInput{{IngredientID: gin, Quantity: 1}}})
	assert.ErrorIs(t, err, apperror.ErrRecipeNotFound)

	got, err := ts.recipes.Get(ctx, recipe.ID, alice)
	require.NoError(t, err)
	assert.Equal(t, "shot", got.Name)
	require.Len(t, got.Lines, 1)
	assert.InDelta(t, 30, got.Lines[0].Quantity, 1e-9)
}

func TestRecipeDelete(t *testing.T) {
	ts := newTestServices(t)
	ctx := context.Background()
	alice := ts.join(t, "alice")
	bob := ts.join(t, "bob")
	gin := ts.ingredient(t, alice, "gin")

	recipe, err := ts.recipes.Post(ctx, alice, RecipeInput{Name: "shot", Lines: []RecipeLineInput{{IngredientID: gin, Quantity: 30}}})
	require.NoError(t, err)

	assert.ErrorIs(t, ts.recipes.Delete(ctx, recipe.ID, bob), apperror.ErrRecipeNotFound)
	require.NoError(t, ts.recipes.Delete(ctx, recipe.ID, alice))
	assert.ErrorIs(t, ts.recipes.Delete(ctx, recipe.ID, alice), apperror.ErrRecipeNotFound)

	_, err = ts.recipes.Get(ctx, recipe.ID, alice)
	assert.ErrorIs(t, err, apperror.ErrRecipeNotFound)
}
