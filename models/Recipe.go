package models

import (
	"gorm.io/gorm"
)

// Recipe is the aggregate root: the recipe row plus its tag associations and
// ingredient lines are written and read as one consistency unit. AuthorID is
// immutable after creation.
type Recipe struct {
	gorm.Model
	AuthorID    uint               `gorm:"not null;index" json:"author_id"`
	Author      *User              `gorm:"foreignKey:AuthorID" json:"author,omitempty"`
	Name        string             `gorm:"not null" json:"name"`
	Image       string             `gorm:"not null" json:"image"`
	Text        string             `gorm:"type:text" json:"text"`
	CookingTime int                `gorm:"not null;check:cooking_time >= 1" json:"cooking_time"`
	Tags        []Tag              `gorm:"many2many:recipe_tags" json:"tags"`
	Ingredients []RecipeIngredient `gorm:"foreignKey:RecipeID" json:"ingredients"`
}
