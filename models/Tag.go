package models

import (
	"gorm.io/gorm"
)

// Tag is a reference label attached to recipes. Tags are created ahead of
// recipes and are never deleted by recipe operations.
type Tag struct {
	gorm.Model
	Name string `gorm:"uniqueIndex;not null" json:"name"`
	Slug string `gorm:"uniqueIndex;not null" json:"slug"`
}
