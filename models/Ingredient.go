package models

import (
	"gorm.io/gorm"
)

// Ingredient is catalog reference data, loaded in bulk at setup time.
// The (name, measurement_unit) pair is unique so the same name may exist
// with different units.
type Ingredient struct {
	gorm.Model
	Name            string `gorm:"uniqueIndex:idx_ingredient_name_unit;not null" json:"name"`
	MeasurementUnit string `gorm:"uniqueIndex:idx_ingredient_name_unit;not null" json:"measurement_unit"`
}
