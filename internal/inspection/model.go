package inspection

import (
	"time"
)

// Detail is the inspection record of one system on one vehicle. One row per
// (vehicle, system) pair; points hang off it.
type Detail struct {
	ID         string     `gorm:"primaryKey;size:36"`
	VehicleID  string     `gorm:"size:36;not null;uniqueIndex:idx_vehicle_system"`
	System     SystemKind `gorm:"column:system_kind;size:30;not null;uniqueIndex:idx_vehicle_system"`
	ReviewedBy string     `gorm:"size:36"` // actor who opened the inspection
	CreatedAt  time.Time  `gorm:"autoCreateTime"`
	UpdatedAt  time.Time  `gorm:"autoUpdateTime"`

	Points []Point `gorm:"foreignKey:DetailID;constraint:OnDelete:CASCADE"`
}

func (Detail) TableName() string { return "inspection_details" }

// Point is one checked item inside a detail. Name is constrained to the
// system's fixed checklist.
type Point struct {
	ID          string    `gorm:"primaryKey;size:36"`
	DetailID    string    `gorm:"size:36;not null;uniqueIndex:idx_detail_name"`
	Name        string    `gorm:"size:50;not null;uniqueIndex:idx_detail_name"`
	Status      Status    `gorm:"type:varchar(15);not null;default:'REVISION'"`
	Observation string    `gorm:"type:text"`
	ReviewedBy  string    `gorm:"size:36"` // last actor who touched the point
	CreatedAt   time.Time `gorm:"autoCreateTime"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime"`

	Images []PointImage `gorm:"foreignKey:PointID;constraint:OnDelete:CASCADE"`
}

func (Point) TableName() string { return "inspection_points" }

// PointImage is evidence attached to a point. Points accept any number of
// images; uploads only append.
type PointImage struct {
	ID         string    `gorm:"primaryKey;size:36"`
	PointID    string    `gorm:"index;size:36;not null"`
	Base64     string    `gorm:"type:text;not null"`
	UploadedBy string    `gorm:"size:36"`
	CreatedAt  time.Time `gorm:"autoCreateTime"`
}

func (PointImage) TableName() string { return "inspection_point_images" }
