package catalog

import (
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"

	"stokpos-backend/internal/audit"
	"stokpos-backend/internal/auth"
	"stokpos-backend/internal/database"
	"stokpos-backend/internal/models"
)

// -------------------------
// Request/Response Types
// -------------------------

type CreateBrandRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type UpdateBrandRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

type BrandResponse struct {
	ID          uint   `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}

func brandToResponse(b models.Brand) BrandResponse {
	return BrandResponse{
		ID:          b.ID,
		Name:        b.Name,
		Description: b.Description,
		CreatedAt:   b.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		UpdatedAt:   b.UpdatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

// -------------------------
// Yardımcı Fonksiyonlar
// -------------------------

func getUserInfo(c *fiber.Ctx) (uint, string, error) {
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
// Brand CRUD
// -------------------------

// POST /api/admin/brands
func CreateBrandHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateBrandRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri")
		}

		if strings.TrimSpace(body.Name) == "" {
			return fiber.NewError(fiber.StatusBadRequest, "isim boş olamaz")
		}

		brand := models.Brand{
			Name:        strings.TrimSpace(body.Name),
			Description: strings.TrimSpace(body.Description),
		}

		if err := database.DB.Create(&brand).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Marka kaydedilemedi")
		}

		// Audit log yaz
		userID, userName, err := getUserInfo(c)
		if err == nil {
			_ = audit.WriteLog(audit.LogOptions{
				UserID:      userID,
				UserName:    userName,
				EntityType:  "brand",
				EntityID:    brand.ID,
				Action:      models.AuditActionCreate,
				Description: fmt.Sprintf("Marka eklendi: %s", brand.Name),
				Before:      nil,
				After:       brand,
			})
		}

		return c.Status(fiber.StatusCreated).JSON(brandToResponse(brand))
	}
}

// GET /api/brands?search=
func ListBrandsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		q := database.DB.Model(&models.Brand{}).Order("name asc")

		if search := strings.TrimSpace(c.Query("search")); search != "" {
			q = q.Where("name ILIKE ?", "%"+search+"%")
		}

		var brands []models.Brand
		if err := q.Find(&brands).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Markalar listelenemedi")
		}

		resp := make([]BrandResponse, 0, len(brands))
		for _, b := range brands {
			resp = append(resp, brandToResponse(b))
		}

		return c.JSON(fiber.Map{"data": resp})
	}
}

// PUT /api/admin/brands/:id
func UpdateBrandHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		var brand models.Brand
		if err := database.DB.First(&brand, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Marka bulunamadı")
		}

		var body UpdateBrandRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri")
		}

		before := brand

		updated := false
		if body.Name != nil {
			name := strings.TrimSpace(*body.Name)
			if name == "" {
				return fiber.NewError(fiber.StatusBadRequest, "isim boş olamaz")
			}
			brand.Name = name
			updated = true
		}
		if body.Description != nil {
			brand.Description = strings.TrimSpace(*body.Description)
			updated = true
		}

		if !updated {
			return c.JSON(brandToResponse(brand))
		}

		if err := database.DB.Save(&brand).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Marka güncellenemedi")
		}

		userID, userName, err := getUserInfo(c)
		if err == nil {
			_ = audit.WriteLog(audit.LogOptions{
				UserID:      userID,
				UserName:    userName,
				EntityType:  "brand",
				EntityID:    brand.ID,
				Action:      models.AuditActionUpdate,
				Description: fmt.Sprintf("Marka güncellendi: %s", brand.Name),
				Before:      before,
				After:       brand,
			})
		}

		return c.JSON(brandToResponse(brand))
	}
}

// DELETE /api/admin/brands/:id
func DeleteBrandHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		var brand models.Brand
		if err := database.DB.First(&brand, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Marka bulunamadı")
		}

		// Markaya bağlı ürün varsa silme
		var productCount int64
		database.DB.Model(&models.Product{}).Where("brand_id = ?", brand.ID).Count(&productCount)
		if productCount > 0 {
			return fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf("Bu markaya bağlı %d ürün var, önce ürünleri taşıyın", productCount))
		}

		if err := database.DB.Delete(&brand).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Marka silinemedi")
		}

		userID, userName, err := getUserInfo(c)
		if err == nil {
			_ = audit.WriteLog(audit.LogOptions{
				UserID:      userID,
				UserName:    userName,
				EntityType:  "brand",
				EntityID:    brand.ID,
				Action:      models.AuditActionDelete,
				Description: fmt.Sprintf("Marka silindi: %s", brand.Name),
				Before:      brand,
				After:       brand, // Undo için gerekli
			})
		}

		return c.JSON(fiber.Map{"message": "Marka silindi"})
	}
}
