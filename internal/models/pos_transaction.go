package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type PaymentMethod string

const (
	PaymentCash PaymentMethod = "cash"
	PaymentCard PaymentMethod = "card"
)

type PosTransactionStatus string

const (
	PosCompleted PosTransactionStatus = "completed"
	PosVoided    PosTransactionStatus = "voided"
)

// PosTransaction: Kasadan geçen satış fişi
type PosTransaction struct {
	ID            uint                 `gorm:"primaryKey"`
	ReceiptNo     string               `gorm:"size:50;uniqueIndex;not null"` // FIS-20250101-0001 formatı
	Date          time.Time            `gorm:"index;not null"`               // satış zamanı
	PaymentMethod PaymentMethod        `gorm:"size:20;not null"`
	Status        PosTransactionStatus `gorm:"size:20;not null;default:'completed'"`
	TotalAmount   decimal.Decimal      `gorm:"type:numeric(14,2);not null"` // Satır toplamlarından hesaplanır
	CashierID     uint                 `gorm:"index;not null"`              // Satışı yapan kullanıcı
	CashierName   string               `gorm:"size:100"`                    // Denormalize
	VoidedAt      *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time

	Lines []PosTransactionLine `gorm:"foreignKey:PosTransactionID;constraint:OnDelete:CASCADE"`
}

type PosTransactionLine struct {
	ID               uint `gorm:"primaryKey"`
	PosTransactionID uint `gorm:"index;not null"`
	ProductID        uint `gorm:"index;not null"`
	ProductName      string `gorm:"size:200;not null"` // Satış anındaki ad
	ProductSKU       string `gorm:"size:50;not null"`  // Satış anındaki stok kodu
	Quantity         int             `gorm:"not null"`
	UnitPrice        decimal.Decimal `gorm:"type:numeric(12,2);not null"` // Satış anındaki birim fiyat
	LineTotal        decimal.Decimal `gorm:"type:numeric(14,2);not null"` // Quantity * UnitPrice
	CreatedAt        time.Time
	UpdatedAt        time.Time
}
