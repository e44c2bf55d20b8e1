package vehicle

import (
	"time"
)

// Vehicle is the inspected asset. OrderNumber is assigned on first save
// (max existing + 1), unique and immutable afterwards.
type Vehicle struct {
	ID           string    `gorm:"primaryKey;size:36"`
	Plate        string    `gorm:"size:10"` // optional, not unique
	OrderNumber  uint      `gorm:"uniqueIndex;not null"`
	Brand        string    `gorm:"size:100;not null"`
	Model        string    `gorm:"size:100;not null;default:'Sin modelo'"`
	Color        string    `gorm:"size:50;not null;default:'Sin color'"`
	FuelType     string    `gorm:"size:50;not null;default:'Sin especificar'"`
	EngineNumber string    `gorm:"size:100;not null;default:'Desconocido'"`
	ImageBase64  string    `gorm:"type:text"`
	OwnerID      string    `gorm:"index;size:36"` // technician who registered it
	RegisteredAt time.Time `gorm:"index;not null"`
	CreatedAt    time.Time `gorm:"autoCreateTime"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime"`
}

func (Vehicle) TableName() string { return "vehicles" }
