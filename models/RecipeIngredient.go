package models

import "time"

// RecipeIngredient is one weighted ingredient line attached to a recipe.
// A recipe may reference an ingredient at most once; lines are replaced
// wholesale on recipe update, never patched individually. Rows are hard
// deleted so the composite index never traps a stale pair.
type RecipeIngredient struct {
	ID           uint        `gorm:"primarykey" json:"-"`
	CreatedAt    time.Time   `json:"-"`
	RecipeID     uint        `gorm:"not null;uniqueIndex:idx_recipe_ingredient" json:"recipe_id"`
	IngredientID uint        `gorm:"not null;uniqueIndex:idx_recipe_ingredient" json:"ingredient_id"`
	Amount       int         `gorm:"not null;check:amount >= 1" json:"amount"`
	Ingredient   *Ingredient `gorm:"foreignKey:IngredientID" json:"ingredient,omitempty"`
}
