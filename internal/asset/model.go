package asset

import (
	"time"
)

// TextImage is a reusable labeled image, typically a logo or signature block
// embedded in generated reports.
type TextImage struct {
	ID        string    `gorm:"primaryKey;size:36"`
	Title     string    `gorm:"size:100;not null"`
	Text      string    `gorm:"type:text"`
	Base64    string    `gorm:"type:text;not null"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (TextImage) TableName() string { return "text_images" }
