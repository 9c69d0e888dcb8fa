package model

import "time"

// Recipe is a named, ordered list of ingredient quantities owned by one
// member. Name is unique per member.
//
// Lines is not a column; repositories load it from recipe_ingredients.
type Recipe struct {
	ID        int64              `json:"id"        db:"id"`
	MemberID  int64              `json:"-"         db:"member_id"`
	Name      string             `json:"name"      db:"name"`
	CreatedAt time.Time          `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time          `json:"updatedAt" db:"updated_at"`
	Lines     []RecipeIngredient `json:"ingredientLines" db:"-"`
}

// RecipeIngredient is one line of a recipe. Position keeps the order the
// member submitted. IngredientName and Unit are filled by a join when the
// recipe is read back and are ignored on write.
type RecipeIngredient struct {
	ID             int64   `json:"-"            db:"id"`
	RecipeID       int64   `json:"-"            db:"recipe_id"`
	IngredientID   int64   `json:"ingredientId" db:"ingredient_id"`
	Position       int     `json:"-"            db:"position"`
	Quantity       float64 `json:"quantity"     db:"quantity"`
	IngredientName string  `json:"name"         db:"ingredient_name"`
	Unit           string  `json:"unit"         db:"unit"`
}

// RecipeSummary is a list row: the recipe plus how many lines it has.
type RecipeSummary struct {
	ID              int64  `json:"id"              db:"id"`
	Name            string `json:"name"            db:"name"`
	IngredientCount int    `json:"ingredientCount" db:"ingredient_count"`
}
