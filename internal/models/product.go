package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type ProductStatus string

const (
	ProductActive   ProductStatus = "active"
	ProductInactive ProductStatus = "inactive"
)

type Product struct {
	ID         uint   `gorm:"primaryKey"`
	Name       string `gorm:"size:200;not null"`
	SKU        string `gorm:"size:50;uniqueIndex;not null"` // Stok kodu
	Barcode    string `gorm:"size:50;index"`                // Opsiyonel barkod
	BrandID    *uint  `gorm:"index"`
	Brand      *Brand
	CategoryID uint `gorm:"index;not null"`
	Category   Category
	SupplierID *uint `gorm:"index"`
	Supplier   *Supplier
	Unit       string          `gorm:"size:20;not null"`              // adet, kg, koli vs.
	Cost       decimal.Decimal `gorm:"type:numeric(12,2);not null"`   // Alış maliyeti
	Price      decimal.Decimal `gorm:"type:numeric(12,2);not null"`   // Satış fiyatı
	Stock      int             `gorm:"not null;default:0"`            // Sistem stok miktarı
	MinStock   int             `gorm:"not null;default:0"`            // Kritik stok eşiği
	Status     ProductStatus   `gorm:"size:20;not null;default:'active'"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
