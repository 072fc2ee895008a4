package inventory

import (
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"stokpos-backend/internal/audit"
	"stokpos-backend/internal/auth"
	"stokpos-backend/internal/database"
	"stokpos-backend/internal/models"
)

// -------------------------
// Request/Response Types
// -------------------------

type CreateProductRequest struct {
	Name       string          `json:"name"`
	SKU        string          `json:"sku"`
	Barcode    string          `json:"barcode"`
	BrandID    *uint           `json:"brand_id"`
	CategoryID uint            `json:"category_id"`
	SupplierID *uint           `json:"supplier_id"`
	Unit       string          `json:"unit"`
	Cost       decimal.Decimal `json:"cost"`
	Price      decimal.Decimal `json:"price"`
	Stock      int             `json:"stock"`
	MinStock   int             `json:"min_stock"`
}

type UpdateProductRequest struct {
	Name       *string          `json:"name"`
	Barcode    *string          `json:"barcode"`
	BrandID    *uint            `json:"brand_id"`
	CategoryID *uint            `json:"category_id"`
	SupplierID *uint            `json:"supplier_id"`
	Unit       *string          `json:"unit"`
	Cost       *decimal.Decimal `json:"cost"`
	Price      *decimal.Decimal `json:"price"`
	MinStock   *int             `json:"min_stock"`
	Status     *string          `json:"status"`
}

type ProductResponse struct {
	ID           uint            `json:"id"`
	Name         string          `json:"name"`
	SKU          string          `json:"sku"`
	Barcode      string          `json:"barcode"`
	BrandID      *uint           `json:"brand_id"`
	CategoryID   uint            `json:"category_id"`
	CategoryName string          `json:"category_name"`
	SupplierID   *uint           `json:"supplier_id"`
	Unit         string          `json:"unit"`
	Cost         decimal.Decimal `json:"cost"`
	Price        decimal.Decimal `json:"price"`
	Stock        int             `json:"stock"`
	MinStock     int             `json:"min_stock"`
	Status       string          `json:"status"`
	CreatedAt    string          `json:"created_at"`
	UpdatedAt    string          `json:"updated_at"`
}

// ListProductsQuery: liste ekranının filtre/sayfalama durumu.
// Ekran başına global filtre state'i yerine tek bir sorgu struct'ı.
type ListProductsQuery struct {
	Search     string `query:"search"`
	CategoryID uint   `query:"category_id"`
	BrandID    uint   `query:"brand_id"`
	SupplierID uint   `query:"supplier_id"`
	Status     string `query:"status"`
	LowStock   bool   `query:"low_stock"`
	Page       int    `query:"page"`
	Limit      int    `query:"limit"`
}

type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	TotalItems int64 `json:"total_items"`
	TotalPages int   `json:"total_pages"`
}

func productToResponse(p models.Product) ProductResponse {
	return ProductResponse{
		ID:           p.ID,
		Name:         p.Name,
		SKU:          p.SKU,
		Barcode:      p.Barcode,
		BrandID:      p.BrandID,
		CategoryID:   p.CategoryID,
		CategoryName: p.Category.Name,
		SupplierID:   p.SupplierID,
		Unit:         p.Unit,
		Cost:         p.Cost,
		Price:        p.Price,
		Stock:        p.Stock,
		MinStock:     p.MinStock,
		Status:       string(p.Status),
		CreatedAt:    p.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		UpdatedAt:    p.UpdatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

// Yardımcı: Kullanıcı bilgilerini al
func getUserInfoForInventory(c *fiber.Ctx) (uint, string, error) {
	userIDVal := c.Locals(auth.CtxUserIDKey)
	userID, ok := userIDVal.(uint)
	if !ok {
		return 0, "", fiber.NewError(fiber.StatusForbidden, "Kullanıcı bilgisi alınamadı")
	}

	var user models.User
	if err := database.DB.First(&user, "id = ?", userID).Error; err != nil {
		return 0, "", fiber.NewError(fiber.StatusInternalServerError, "Kullanıcı bulunamadı")
	}

	return userID, user.Name, nil
}

// -------------------------
// Product CRUD
// -------------------------

// POST /api/admin/products
func CreateProductHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateProductRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri")
		}

		if strings.TrimSpace(body.Name) == "" {
			return fiber.NewError(fiber.StatusBadRequest, "isim boş olamaz")
		}
		if strings.TrimSpace(body.SKU) == "" {
			return fiber.NewError(fiber.StatusBadRequest, "stok kodu (sku) boş olamaz")
		}
		if body.CategoryID == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "category_id zorunlu")
		}
		if strings.TrimSpace(body.Unit) == "" {
			return fiber.NewError(fiber.StatusBadRequest, "birim (unit) boş olamaz")
		}
		if body.Stock < 0 || body.MinStock < 0 {
			return fiber.NewError(fiber.StatusBadRequest, "stok miktarları negatif olamaz")
		}
		if body.Cost.IsNegative() || body.Price.IsNegative() {
			return fiber.NewError(fiber.StatusBadRequest, "maliyet ve fiyat negatif olamaz")
		}

		var category models.Category
		if err := database.DB.First(&category, "id = ?", body.CategoryID).Error; err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Kategori bulunamadı")
		}
		if body.BrandID != nil {
			var brand models.Brand
			if err := database.DB.First(&brand, "id = ?", *body.BrandID).Error; err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "Marka bulunamadı")
			}
		}
		if body.SupplierID != nil {
			var supplier models.Supplier
			if err := database.DB.First(&supplier, "id = ?", *body.SupplierID).Error; err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "Tedarikçi bulunamadı")
			}
		}

		product := models.Product{
			Name:       strings.TrimSpace(body.Name),
			SKU:        strings.ToUpper(strings.TrimSpace(body.SKU)),
			Barcode:    strings.TrimSpace(body.Barcode),
			BrandID:    body.BrandID,
			CategoryID: body.CategoryID,
			SupplierID: body.SupplierID,
			Unit:       strings.TrimSpace(body.Unit),
			Cost:       body.Cost,
			Price:      body.Price,
			Stock:      body.Stock,
			MinStock:   body.MinStock,
			Status:     models.ProductActive,
		}

		if err := database.DB.Create(&product).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Ürün kaydedilemedi (stok kodu benzersiz olmalı)")
		}

		userID, userName, err := getUserInfoForInventory(c)
		if err == nil {
			_ = audit.WriteLog(audit.LogOptions{
				UserID:      userID,
				UserName:    userName,
				EntityType:  "product",
				EntityID:    product.ID,
				Action:      models.AuditActionCreate,
				Description: fmt.Sprintf("Ürün eklendi: %s (%s)", product.Name, product.SKU),
				Before:      nil,
				After:       product,
			})
		}

		product.Category = category
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": productToResponse(product)})
	}
}

// GET /api/products
func ListProductsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var query ListProductsQuery
		if err := c.QueryParser(&query); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz sorgu parametreleri")
		}

		if query.Page <= 0 {
			query.Page = 1
		}
		if query.Limit <= 0 || query.Limit > 100 {
			query.Limit = 25
		}

		q := database.DB.Model(&models.Product{}).Preload("Category")

		if search := strings.TrimSpace(query.Search); search != "" {
			q = q.Where("name ILIKE ? OR sku ILIKE ? OR barcode ILIKE ?",
				"%"+search+"%", "%"+search+"%", "%"+search+"%")
		}
		if query.CategoryID != 0 {
			q = q.Where("category_id = ?", query.CategoryID)
		}
		if query.BrandID != 0 {
			q = q.Where("brand_id = ?", query.BrandID)
		}
		if query.SupplierID != 0 {
			q = q.Where("supplier_id = ?", query.SupplierID)
		}
		if query.Status != "" {
			if query.Status != string(models.ProductActive) && query.Status != string(models.ProductInactive) {
				return fiber.NewError(fiber.StatusBadRequest, "status 'active' veya 'inactive' olmalı")
			}
			q = q.Where("status = ?", query.Status)
		}
		if query.LowStock {
			q = q.Where("stock <= min_stock")
		}

		var total int64
		if err := q.Count(&total).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Ürünler sayılamadı")
		}

		var products []models.Product
		if err := q.Order("name asc").
			Offset((query.Page - 1) * query.Limit).
			Limit(query.Limit).
			Find(&products).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Ürünler listelenemedi")
		}

		resp := make([]ProductResponse, 0, len(products))
		for _, p := range products {
			resp = append(resp, productToResponse(p))
		}

		totalPages := int((total + int64(query.Limit) - 1) / int64(query.Limit))
		return c.JSON(fiber.Map{
			"data": resp,
			"pagination": Pagination{
				Page:       query.Page,
				Limit:      query.Limit,
				TotalItems: total,
				TotalPages: totalPages,
			},
		})
	}
}

// GET /api/products/search?q=&limit=
// Manuel ürün ekleme için sınırlı aday listesi (arama kutusu)
func SearchProductsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		term := strings.TrimSpace(c.Query("q"))
		if term == "" {
			return c.JSON(fiber.Map{"data": []ProductResponse{}})
		}

		limit := c.QueryInt("limit", 20)
		if limit <= 0 || limit > 50 {
			limit = 20
		}

		var products []models.Product
		if err := database.DB.Preload("Category").
			Where("status = ?", models.ProductActive).
			Where("name ILIKE ? OR sku ILIKE ?", "%"+term+"%", "%"+term+"%").
			Order("name asc").
			Limit(limit).
			Find(&products).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Ürün araması yapılamadı")
		}

		resp := make([]ProductResponse, 0, len(products))
		for _, p := range products {
			resp = append(resp, productToResponse(p))
		}

		return c.JSON(fiber.Map{"data": resp})
	}
}

// GET /api/products/:id
func GetProductHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		var product models.Product
		if err := database.DB.Preload("Category").First(&product, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Ürün bulunamadı")
		}
		return c.JSON(fiber.Map{"data": productToResponse(product)})
	}
}

// PUT /api/admin/products/:id
// Not: Stok miktarı buradan güncellenmez; stok sadece satış, mal kabul ve
// onaylanmış mutabakat ile değişir.
func UpdateProductHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		var product models.Product
		if err := database.DB.First(&product, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Ürün bulunamadı")
		}

		var body UpdateProductRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri")
		}

		before := product

		updated := false
		if body.Name != nil {
			name := strings.TrimSpace(*body.Name)
			if name == "" {
				return fiber.NewError(fiber.StatusBadRequest, "isim boş olamaz")
			}
			product.Name = name
			updated = true
		}
		if body.Barcode != nil {
			product.Barcode = strings.TrimSpace(*body.Barcode)
			updated = true
		}
		if body.BrandID != nil {
			if *body.BrandID == 0 {
				product.BrandID = nil
			} else {
				var brand models.Brand
				if err := database.DB.First(&brand, "id = ?", *body.BrandID).Error; err != nil {
					return fiber.NewError(fiber.StatusBadRequest, "Marka bulunamadı")
				}
				product.BrandID = body.BrandID
			}
			updated = true
		}
		if body.CategoryID != nil {
			var category models.Category
			if err := database.DB.First(&category, "id = ?", *body.CategoryID).Error; err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "Kategori bulunamadı")
			}
			product.CategoryID = *body.CategoryID
			updated = true
		}
		if body.SupplierID != nil {
			if *body.SupplierID == 0 {
				product.SupplierID = nil
			} else {
				var supplier models.Supplier
				if err := database.DB.First(&supplier, "id = ?", *body.SupplierID).Error; err != nil {
					return fiber.NewError(fiber.StatusBadRequest, "Tedarikçi bulunamadı")
				}
				product.SupplierID = body.SupplierID
			}
			updated = true
		}
		if body.Unit != nil {
			unit := strings.TrimSpace(*body.Unit)
			if unit == "" {
				return fiber.NewError(fiber.StatusBadRequest, "birim boş olamaz")
			}
			product.Unit = unit
			updated = true
		}
		if body.Cost != nil {
			if body.Cost.IsNegative() {
				return fiber.NewError(fiber.StatusBadRequest, "maliyet negatif olamaz")
			}
			product.Cost = *body.Cost
			updated = true
		}
		if body.Price != nil {
			if body.Price.IsNegative() {
				return fiber.NewError(fiber.StatusBadRequest, "fiyat negatif olamaz")
			}
			product.Price = *body.Price
			updated = true
		}
		if body.MinStock != nil {
			if *body.MinStock < 0 {
				return fiber.NewError(fiber.StatusBadRequest, "kritik stok negatif olamaz")
			}
			product.MinStock = *body.MinStock
			updated = true
		}
		if body.Status != nil {
			status := models.ProductStatus(*body.Status)
			if status != models.ProductActive && status != models.ProductInactive {
				return fiber.NewError(fiber.StatusBadRequest, "status 'active' veya 'inactive' olmalı")
			}
			product.Status = status
			updated = true
		}

		if !updated {
			database.DB.Preload("Category").First(&product, product.ID)
			return c.JSON(fiber.Map{"data": productToResponse(product)})
		}

		if err := database.DB.Save(&product).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Ürün güncellenemedi")
		}

		userID, userName, err := getUserInfoForInventory(c)
		if err == nil {
			_ = audit.WriteLog(audit.LogOptions{
				UserID:      userID,
				UserName:    userName,
				EntityType:  "product",
				EntityID:    product.ID,
				Action:      models.AuditActionUpdate,
				Description: fmt.Sprintf("Ürün güncellendi: %s (%s)", product.Name, product.SKU),
				Before:      before,
				After:       product,
			})
		}

		database.DB.Preload("Category").First(&product, product.ID)
		return c.JSON(fiber.Map{"data": productToResponse(product)})
	}
}

// DELETE /api/admin/products/:id
func DeleteProductHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		var product models.Product
		if err := database.DB.First(&product, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Ürün bulunamadı")
		}

		// Satış veya mutabakat geçmişi olan ürün silinmez, pasife alınır
		var lineCount int64
		database.DB.Model(&models.PosTransactionLine{}).Where("product_id = ?", product.ID).Count(&lineCount)
		if lineCount > 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Satış geçmişi olan ürün silinemez, pasife alın")
		}

		var reconCount int64
		database.DB.Model(&models.ReconciliationItem{}).Where("product_id = ?", product.ID).Count(&reconCount)
		if reconCount > 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Sayım geçmişi olan ürün silinemez, pasife alın")
		}

		if err := database.DB.Delete(&product).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Ürün silinemedi")
		}

		userID, userName, err := getUserInfoForInventory(c)
		if err == nil {
			_ = audit.WriteLog(audit.LogOptions{
				UserID:      userID,
				UserName:    userName,
				EntityType:  "product",
				EntityID:    product.ID,
				Action:      models.AuditActionDelete,
				Description: fmt.Sprintf("Ürün silindi: %s (%s)", product.Name, product.SKU),
				Before:      product,
				After:       product, // Undo için gerekli
			})
		}

		return c.JSON(fiber.Map{"message": "Ürün silindi"})
	}
}
