package dashboard

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"stokpos-backend/internal/database"
	"stokpos-backend/internal/models"
)

// GET /api/dashboard/overview
// Yönetim panelinin açılış ekranı: stok, sipariş, sayım ve günlük ciro özeti
func OverviewHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var productCount int64
		if err := database.DB.Model(&models.Product{}).
			Where("status = ?", models.ProductActive).
			Count(&productCount).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Özet hesaplanamadı")
		}

		var lowStockCount int64
		if err := database.DB.Model(&models.Product{}).
			Where("status = ? AND stock <= min_stock", models.ProductActive).
			Count(&lowStockCount).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Özet hesaplanamadı")
		}

		var openOrderCount int64
		if err := database.DB.Model(&models.PurchaseOrder{}).
			Where("status IN ?", []models.PurchaseOrderStatus{models.POStatusDraft, models.POStatusOrdered}).
			Count(&openOrderCount).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Özet hesaplanamadı")
		}

		// Sayım durum kırılımı
		type statusCount struct {
			Status models.ReconciliationStatus
			Count  int64
		}
		var reconCounts []statusCount
		if err := database.DB.Model(&models.Reconciliation{}).
			Select("status, COUNT(*) as count").
			Group("status").
			Scan(&reconCounts).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Özet hesaplanamadı")
		}
		reconByStatus := fiber.Map{
			"draft":            int64(0),
			"pending_approval": int64(0),
			"approved":         int64(0),
			"rejected":         int64(0),
		}
		for _, sc := range reconCounts {
			reconByStatus[string(sc.Status)] = sc.Count
		}

		// Bugünün cirosu
		now := time.Now()
		dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
		var todaySales []models.PosTransaction
		if err := database.DB.
			Where("status = ? AND date >= ?", models.PosCompleted, dayStart).
			Find(&todaySales).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Özet hesaplanamadı")
		}
		todayTotal := decimal.Zero
		for _, txn := range todaySales {
			todayTotal = todayTotal.Add(txn.TotalAmount)
		}

		return c.JSON(fiber.Map{
			"data": fiber.Map{
				"active_product_count":     productCount,
				"low_stock_count":          lowStockCount,
				"open_purchase_orders":     openOrderCount,
				"reconciliations_by_state": reconByStatus,
				"today_sales_count":        len(todaySales),
				"today_sales_total":        todayTotal,
			},
		})
	}
}
