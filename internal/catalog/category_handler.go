package catalog

import (
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"

	"stokpos-backend/internal/audit"
	"stokpos-backend/internal/database"
	"stokpos-backend/internal/models"
)

// -------------------------
// Request/Response Types
// -------------------------

type CreateCategoryRequest struct {
	Name     string `json:"name"`
	ParentID *uint  `json:"parent_id"`
}

type UpdateCategoryRequest struct {
	Name     *string `json:"name"`
	ParentID *uint   `json:"parent_id"` // 0 gönderilirse kök kategoriye taşınır
}

type CategoryResponse struct {
	ID        uint   `json:"id"`
	Name      string `json:"name"`
	ParentID  *uint  `json:"parent_id"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

func categoryToResponse(cat models.Category) CategoryResponse {
	return CategoryResponse{
		ID:        cat.ID,
		Name:      cat.Name,
		ParentID:  cat.ParentID,
		CreatedAt: cat.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		UpdatedAt: cat.UpdatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

// -------------------------
// Category CRUD
// -------------------------

// POST /api/admin/categories
func CreateCategoryHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateCategoryRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri")
		}

		if strings.TrimSpace(body.Name) == "" {
			return fiber.NewError(fiber.StatusBadRequest, "isim boş olamaz")
		}

		if body.ParentID != nil {
			var parent models.Category
			if err := database.DB.First(&parent, "id = ?", *body.ParentID).Error; err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "Üst kategori bulunamadı")
			}
		}

		category := models.Category{
			Name:     strings.TrimSpace(body.Name),
			ParentID: body.ParentID,
		}

		if err := database.DB.Create(&category).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Kategori kaydedilemedi")
		}

		userID, userName, err := getUserInfo(c)
		if err == nil {
			_ = audit.WriteLog(audit.LogOptions{
				UserID:      userID,
				UserName:    userName,
				EntityType:  "category",
				EntityID:    category.ID,
				Action:      models.AuditActionCreate,
				Description: fmt.Sprintf("Kategori eklendi: %s", category.Name),
				Before:      nil,
				After:       category,
			})
		}

		return c.Status(fiber.StatusCreated).JSON(categoryToResponse(category))
	}
}

// GET /api/categories
// Düz liste; hiyerarşi için /api/categories/tree kullan
func ListCategoriesHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var categories []models.Category
		if err := database.DB.Order("name asc").Find(&categories).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Kategoriler listelenemedi")
		}

		resp := make([]CategoryResponse, 0, len(categories))
		for _, cat := range categories {
			resp = append(resp, categoryToResponse(cat))
		}

		return c.JSON(fiber.Map{"data": resp})
	}
}

// GET /api/categories/tree
func CategoryTreeHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var categories []models.Category
		if err := database.DB.Find(&categories).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Kategoriler listelenemedi")
		}

		return c.JSON(fiber.Map{"data": BuildCategoryTree(categories)})
	}
}

// PUT /api/admin/categories/:id
func UpdateCategoryHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		var category models.Category
		if err := database.DB.First(&category, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Kategori bulunamadı")
		}

		var body UpdateCategoryRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri")
		}

		before := category

		updated := false
		if body.Name != nil {
			name := strings.TrimSpace(*body.Name)
			if name == "" {
				return fiber.NewError(fiber.StatusBadRequest, "isim boş olamaz")
			}
			category.Name = name
			updated = true
		}
		if body.ParentID != nil {
			if *body.ParentID == 0 {
				category.ParentID = nil
			} else {
				if *body.ParentID == category.ID {
					return fiber.NewError(fiber.StatusBadRequest, "Kategori kendi üst kategorisi olamaz")
				}
				var parent models.Category
				if err := database.DB.First(&parent, "id = ?", *body.ParentID).Error; err != nil {
					return fiber.NewError(fiber.StatusBadRequest, "Üst kategori bulunamadı")
				}
				// Taşıma, kategorinin kendi alt ağacına yapılamaz (döngü oluşur)
				var all []models.Category
				if err := database.DB.Find(&all).Error; err != nil {
					return fiber.NewError(fiber.StatusInternalServerError, "Kategoriler okunamadı")
				}
				subtree := ResolveCategorySelection([]uint{category.ID}, all)
				for _, sid := range subtree {
					if sid == *body.ParentID {
						return fiber.NewError(fiber.StatusBadRequest, "Kategori kendi alt kategorisine taşınamaz")
					}
				}
				category.ParentID = body.ParentID
			}
			updated = true
		}

		if !updated {
			return c.JSON(categoryToResponse(category))
		}

		if err := database.DB.Save(&category).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Kategori güncellenemedi")
		}

		userID, userName, err := getUserInfo(c)
		if err == nil {
			_ = audit.WriteLog(audit.LogOptions{
				UserID:      userID,
				UserName:    userName,
				EntityType:  "category",
				EntityID:    category.ID,
				Action:      models.AuditActionUpdate,
				Description: fmt.Sprintf("Kategori güncellendi: %s", category.Name),
				Before:      before,
				After:       category,
			})
		}

		return c.JSON(categoryToResponse(category))
	}
}

// DELETE /api/admin/categories/:id
func DeleteCategoryHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		var category models.Category
		if err := database.DB.First(&category, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Kategori bulunamadı")
		}

		var childCount int64
		database.DB.Model(&models.Category{}).Where("parent_id = ?", category.ID).Count(&childCount)
		if childCount > 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Alt kategorileri olan kategori silinemez")
		}

		var productCount int64
		database.DB.Model(&models.Product{}).Where("category_id = ?", category.ID).Count(&productCount)
		if productCount > 0 {
			return fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf("Bu kategoriye bağlı %d ürün var, önce ürünleri taşıyın", productCount))
		}

		if err := database.DB.Delete(&category).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Kategori silinemedi")
		}

		userID, userName, err := getUserInfo(c)
		if err == nil {
			_ = audit.WriteLog(audit.LogOptions{
				UserID:      userID,
				UserName:    userName,
				EntityType:  "category",
				EntityID:    category.ID,
				Action:      models.AuditActionDelete,
				Description: fmt.Sprintf("Kategori silindi: %s", category.Name),
				Before:      category,
				After:       category, // Undo için gerekli
			})
		}

		return c.JSON(fiber.Map{"message": "Kategori silindi"})
	}
}
