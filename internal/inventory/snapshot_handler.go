package inventory

import (
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"stokpos-backend/internal/catalog"
	"stokpos-backend/internal/database"
	"stokpos-backend/internal/models"
)

// SnapshotItem: Sayım ön doldurma için o anki sistem stoğu.
// PhysicalCount, operatör henüz saymadan önceki varsayılan olarak
// SystemCount ile aynı döner.
type SnapshotItem struct {
	ID            uint            `json:"id"`
	Name          string          `json:"name"`
	SKU           string          `json:"sku"`
	SystemCount   int             `json:"system_count"`
	PhysicalCount int             `json:"physical_count"`
	Cost          decimal.Decimal `json:"cost"`
	MinStock      int             `json:"min_stock"`
	Category      string          `json:"category"`
}

type snapshotPagination struct {
	NextCursor *uint `json:"next_cursor,omitempty"`
}

const snapshotMaxLimit = 500

// parseCategoryIDs: "1,2,3" -> [1 2 3]
func parseCategoryIDs(raw string) ([]uint, error) {
	ids := make([]uint, 0)
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		var id uint
		if _, err := fmt.Sscan(part, &id); err != nil || id == 0 {
			return nil, fmt.Errorf("geçersiz kategori id: %q", part)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// GET /api/inventory/snapshot?category_ids=1,2&include_zero=true&status=active&limit=500&after_id=0
// Seçilen kategoriler alt kategorileriyle birlikte çözülür, kapsamdaki
// ürünler düz liste olarak döner. Boş kategori seçimi sorgu atılmadan reddedilir.
func InventorySnapshotHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		ids, err := parseCategoryIDs(c.Query("category_ids"))
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if len(ids) == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "En az bir kategori seçmelisiniz")
		}

		includeZero := c.QueryBool("include_zero", true)

		status := c.Query("status", string(models.ProductActive))
		if status != string(models.ProductActive) && status != string(models.ProductInactive) {
			return fiber.NewError(fiber.StatusBadRequest, "status 'active' veya 'inactive' olmalı")
		}

		limit := c.QueryInt("limit", snapshotMaxLimit)
		if limit <= 0 || limit > snapshotMaxLimit {
			limit = snapshotMaxLimit
		}

		afterID := uint(c.QueryInt("after_id", 0))

		// Seçimi alt kategorilere aç
		var categories []models.Category
		if err := database.DB.Find(&categories).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Kategoriler okunamadı")
		}
		resolved := catalog.ResolveCategorySelection(ids, categories)
		if len(resolved) == 0 {
			// Seçilen id'lerin hiçbiri mevcut değil; boş sonuç, hata değil
			return c.JSON(fiber.Map{
				"data":       []SnapshotItem{},
				"pagination": snapshotPagination{},
			})
		}

		q := database.DB.Model(&models.Product{}).Preload("Category").
			Where("category_id IN ?", resolved).
			Where("status = ?", status)
		if !includeZero {
			q = q.Where("stock > 0")
		}
		if afterID > 0 {
			q = q.Where("id > ?", afterID)
		}

		var products []models.Product
		if err := q.Order("id asc").Limit(limit + 1).Find(&products).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Stok görüntüsü alınamadı")
		}

		// limit+1 çektik; fazlası varsa bir sonraki sayfa var demektir
		var nextCursor *uint
		if len(products) > limit {
			products = products[:limit]
			last := products[len(products)-1].ID
			nextCursor = &last
		}

		items := make([]SnapshotItem, 0, len(products))
		for _, p := range products {
			items = append(items, SnapshotItem{
				ID:            p.ID,
				Name:          p.Name,
				SKU:           p.SKU,
				SystemCount:   p.Stock,
				PhysicalCount: p.Stock,
				Cost:          p.Cost,
				MinStock:      p.MinStock,
				Category:      p.Category.Name,
			})
		}

		return c.JSON(fiber.Map{
			"data":       items,
			"pagination": snapshotPagination{NextCursor: nextCursor},
		})
	}
}
