package reconciliation_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"stokpos-backend/internal/models"
	"stokpos-backend/internal/reconciliation"
)

func item(system, physical int, cost string) models.ReconciliationItem {
	return models.ReconciliationItem{
		SystemCount:   system,
		PhysicalCount: physical,
		UnitCost:      decimal.RequireFromString(cost),
	}
}

func TestDiscrepancy(t *testing.T) {
	// Fazla sayım pozitif, eksik sayım negatif fark verir
	assert.Equal(t, 2, reconciliation.Discrepancy(item(10, 12, "0")))
	assert.Equal(t, -3, reconciliation.Discrepancy(item(8, 5, "0")))
	assert.Equal(t, 0, reconciliation.Discrepancy(item(0, 0, "0")))
}

func TestImpact_UsesUnitCost(t *testing.T) {
	// +2 adet x 12.50 TL = +25.00 TL
	got := reconciliation.Impact(item(10, 12, "12.50"))
	assert.True(t, got.Equal(decimal.RequireFromString("25")), "beklenen 25, gelen %s", got)

	// -3 adet x 4.75 TL = -14.25 TL
	got = reconciliation.Impact(item(8, 5, "4.75"))
	assert.True(t, got.Equal(decimal.RequireFromString("-14.25")), "beklenen -14.25, gelen %s", got)
}

func TestImpact_ZeroCostProductContributesZero(t *testing.T) {
	// Maliyeti tanımsız (0) ürünün farkı parasal etkiye yansımaz
	got := reconciliation.Impact(item(10, 3, "0"))
	assert.True(t, got.IsZero())
}

func TestTotals_OffsettingDiscrepanciesSumToZero(t *testing.T) {
	// GIVEN: Bir satır +2, bir satır 0, bir satır -2 fark veriyor
	items := []models.ReconciliationItem{
		item(10, 12, "12.50"),
		item(0, 0, "3.00"),
		item(5, 3, "12.50"),
	}

	// WHEN
	totalDiscrepancy, totalImpact := reconciliation.Totals(items)

	// THEN: Adet farkları birbirini götürür, parasal etki de sıfırlanır
	assert.Equal(t, 0, totalDiscrepancy)
	assert.True(t, totalImpact.IsZero(), "beklenen 0, gelen %s", totalImpact)
}

func TestTotals_MixedCosts(t *testing.T) {
	items := []models.ReconciliationItem{
		item(10, 12, "12.50"), // +25.00
		item(8, 5, "4.75"),    // -14.25
	}

	totalDiscrepancy, totalImpact := reconciliation.Totals(items)

	assert.Equal(t, -1, totalDiscrepancy)
	assert.True(t, totalImpact.Equal(decimal.RequireFromString("10.75")), "beklenen 10.75, gelen %s", totalImpact)
}

func TestTotals_Empty(t *testing.T) {
	totalDiscrepancy, totalImpact := reconciliation.Totals(nil)
	assert.Equal(t, 0, totalDiscrepancy)
	assert.True(t, totalImpact.IsZero())
}
