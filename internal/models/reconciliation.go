package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type ReconciliationStatus string

const (
	ReconStatusDraft    ReconciliationStatus = "draft"
	ReconStatusPending  ReconciliationStatus = "pending_approval"
	ReconStatusApproved ReconciliationStatus = "approved"
	ReconStatusRejected ReconciliationStatus = "rejected"
)

type DiscrepancyReason string

const (
	ReasonCountingError DiscrepancyReason = "counting_error"
	ReasonDamage        DiscrepancyReason = "damage"
	ReasonTheft         DiscrepancyReason = "theft"
	ReasonExpired       DiscrepancyReason = "expired"
	ReasonSupplierError DiscrepancyReason = "supplier_error"
	ReasonOther         DiscrepancyReason = "other"
)

// ValidDiscrepancyReason: sabit sebep listesi kontrolü (boş = sebep girilmemiş)
func ValidDiscrepancyReason(r DiscrepancyReason) bool {
	switch r {
	case "", ReasonCountingError, ReasonDamage, ReasonTheft, ReasonExpired, ReasonSupplierError, ReasonOther:
		return true
	}
	return false
}

// Reconciliation: Stok sayım mutabakatı (fiziksel sayım vs sistem stoku)
type Reconciliation struct {
	ID          uint                 `gorm:"primaryKey"`
	Title       string               `gorm:"size:255;not null"`
	Description string               `gorm:"size:255"`
	Notes       string               `gorm:"size:1000"`
	Status      ReconciliationStatus `gorm:"size:30;not null;default:'draft';index"`
	CreatedBy   uint                 `gorm:"not null"`
	CreatorName string               `gorm:"size:100"` // Denormalize
	SubmittedAt *time.Time
	ApprovedBy  *uint
	ApprovedAt  *time.Time
	RejectedAt  *time.Time
	RejectReason string `gorm:"size:500"`
	CreatedAt   time.Time
	UpdatedAt   time.Time

	Items []ReconciliationItem `gorm:"foreignKey:ReconciliationID;constraint:OnDelete:CASCADE"`
}

// ReconciliationItem: Sayım satırı. Fark (physical - system) API cevaplarında
// sayım değerlerinden türetilir; EstimatedImpact raporlama için her yazımda
// sunucuda yeniden hesaplanıp saklanır.
type ReconciliationItem struct {
	ID               uint `gorm:"primaryKey"`
	ReconciliationID uint `gorm:"index;not null;uniqueIndex:idx_recon_product"`
	ProductID        uint `gorm:"index;not null;uniqueIndex:idx_recon_product"` // Aynı mutabakatta bir ürün tek satır
	ProductName      string `gorm:"size:200;not null"` // Ekleme anındaki ad
	ProductSKU       string `gorm:"size:50;not null"`  // Ekleme anındaki stok kodu
	SystemCount      int    `gorm:"not null"`          // Ekleme anındaki sistem stoku (operatör değiştiremez)
	PhysicalCount    int    `gorm:"not null"`          // Operatörün saydığı miktar
	DiscrepancyReason DiscrepancyReason `gorm:"size:30"` // Opsiyonel sebep
	Notes            string            `gorm:"size:500"`
	UnitCost         decimal.Decimal `gorm:"type:numeric(12,2);not null"` // Ekleme anındaki birim maliyet (bilinmiyorsa 0)
	EstimatedImpact  decimal.Decimal `gorm:"type:numeric(14,2);not null"` // Kayıt anında hesaplanan parasal etki
	CreatedAt        time.Time
	UpdatedAt        time.Time
}
