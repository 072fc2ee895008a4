package models

import "time"

type SupplierStatus string

const (
	SupplierActive  SupplierStatus = "active"
	SupplierPassive SupplierStatus = "passive"
)

type Supplier struct {
	ID            uint           `gorm:"primaryKey"`
	Name          string         `gorm:"size:200;not null"`
	ContactPerson string         `gorm:"size:100"` // Yetkili kişi (opsiyonel)
	Phone         string         `gorm:"size:50"`
	Email         string         `gorm:"size:100"`
	Address       string         `gorm:"size:255"`
	Status        SupplierStatus `gorm:"size:20;not null;default:'active'"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
