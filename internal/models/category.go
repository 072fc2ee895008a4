package models

import "time"

// Category: Hiyerarşik ürün kategorisi (parent_id ile ağaç yapısı)
type Category struct {
	ID        uint   `gorm:"primaryKey"`
	Name      string `gorm:"size:100;not null"`
	ParentID  *uint  `gorm:"index"` // NULL ise kök kategori
	Parent    *Category
	Children  []Category `gorm:"foreignKey:ParentID"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
