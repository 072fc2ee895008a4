package reconciliation

import (
	"github.com/shopspring/decimal"

	"stokpos-backend/internal/models"
)

// Fark ve parasal etki API cevaplarında her zaman güncel satır değerlerinden
// türetilir. İşaret kuralı: pozitif = sayımda fazla çıktı, negatif = eksik.

// Discrepancy: fiziksel sayım - sistem stoku
func Discrepancy(item models.ReconciliationItem) int {
	return item.PhysicalCount - item.SystemCount
}

// Impact: fark * birim maliyet (maliyet bilinmiyorsa 0 kabul edilir)
func Impact(item models.ReconciliationItem) decimal.Decimal {
	return decimal.NewFromInt(int64(Discrepancy(item))).Mul(item.UnitCost)
}

// Totals: tüm satırların fark ve etki toplamı
func Totals(items []models.ReconciliationItem) (totalDiscrepancy int, totalImpact decimal.Decimal) {
	totalImpact = decimal.Zero
	for _, item := range items {
		totalDiscrepancy += Discrepancy(item)
		totalImpact = totalImpact.Add(Impact(item))
	}
	return totalDiscrepancy, totalImpact
}
