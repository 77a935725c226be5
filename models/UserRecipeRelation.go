package models

import "time"

// RelationKind discriminates the per-user boolean relations a user can hold
// against a recipe.
type RelationKind string

const (
	RelationFavorite RelationKind = "favorite"
	RelationCart     RelationKind = "cart"
)

// UserRecipeRelation records one (user, recipe, kind) fact. The composite
// unique index is the authority on duplicates: concurrent identical adds
// resolve at the storage layer, one insert commits and the other fails.
// Rows are hard deleted so remove-then-add cycles never hit a stale index
// entry.
type UserRecipeRelation struct {
	ID        uint         `gorm:"primarykey" json:"-"`
	CreatedAt time.Time    `json:"-"`
	UserID    uint         `gorm:"not null;uniqueIndex:idx_user_recipe_kind" json:"user_id"`
	RecipeID  uint         `gorm:"not null;uniqueIndex:idx_user_recipe_kind" json:"recipe_id"`
	Kind      RelationKind `gorm:"type:varchar(16);not null;uniqueIndex:idx_user_recipe_kind" json:"kind"`
}
