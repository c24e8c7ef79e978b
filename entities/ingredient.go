package entities

import (
	"github.com/google/uuid"
)

// Ingredient is catalog reference data. The (name, measurement_unit) pair is
// unique, so grouping by ingredient id and by name+unit are equivalent.
type Ingredient struct {
	ID              uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	Name            string    `gorm:"uniqueIndex:idx_ingredient_name_unit" json:"name"`
	MeasurementUnit string    `gorm:"uniqueIndex:idx_ingredient_name_unit" json:"measurement_unit"`

	Timestamp
}
