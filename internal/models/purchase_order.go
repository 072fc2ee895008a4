package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type PurchaseOrderStatus string

const (
	POStatusDraft     PurchaseOrderStatus = "draft"
	POStatusOrdered   PurchaseOrderStatus = "ordered"
	POStatusReceived  PurchaseOrderStatus = "received"
	POStatusCancelled PurchaseOrderStatus = "cancelled"
)

// PurchaseOrder: Tedarikçiye verilen satın alma siparişi
type PurchaseOrder struct {
	ID           uint   `gorm:"primaryKey"`
	OrderNo      string `gorm:"size:50;uniqueIndex;not null"` // PO-20250101-0001 formatı
	SupplierID   uint   `gorm:"index;not null"`
	Supplier     Supplier
	Status       PurchaseOrderStatus `gorm:"size:20;not null;default:'draft'"`
	ExpectedDate *time.Time          // Beklenen teslim tarihi (opsiyonel)
	Notes        string              `gorm:"size:1000"`
	TotalAmount  decimal.Decimal     `gorm:"type:numeric(14,2);not null"` // Kalem toplamlarından hesaplanır
	OrderedAt    *time.Time
	ReceivedAt   *time.Time
	CreatedBy    uint `gorm:"not null"`
	CreatedAt    time.Time
	UpdatedAt    time.Time

	Items []PurchaseOrderItem `gorm:"foreignKey:PurchaseOrderID;constraint:OnDelete:CASCADE"`
}

type PurchaseOrderItem struct {
	ID              uint `gorm:"primaryKey"`
	PurchaseOrderID uint `gorm:"index;not null"`
	ProductID       uint `gorm:"index;not null"`
	Product         Product
	Quantity        int             `gorm:"not null"`                    // Sipariş miktarı
	UnitCost        decimal.Decimal `gorm:"type:numeric(12,2);not null"` // Birim alış fiyatı
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
