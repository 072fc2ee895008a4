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

type CreateSupplierRequest struct {
	Name          string `json:"name"`
	ContactPerson string `json:"contact_person"`
	Phone         string `json:"phone"`
	Email         string `json:"email"`
	Address       string `json:"address"`
}

type UpdateSupplierRequest struct {
	Name          *string `json:"name"`
	ContactPerson *string `json:"contact_person"`
	Phone         *string `json:"phone"`
	Email         *string `json:"email"`
	Address       *string `json:"address"`
	Status        *string `json:"status"`
}

type SupplierResponse struct {
	ID            uint   `json:"id"`
	Name          string `json:"name"`
	ContactPerson string `json:"contact_person"`
	Phone         string `json:"phone"`
	Email         string `json:"email"`
	Address       string `json:"address"`
	Status        string `json:"status"`
	CreatedAt     string `json:"created_at"`
	UpdatedAt     string `json:"updated_at"`
}

func supplierToResponse(s models.Supplier) SupplierResponse {
	return SupplierResponse{
		ID:            s.ID,
		Name:          s.Name,
		ContactPerson: s.ContactPerson,
		Phone:         s.Phone,
		Email:         s.Email,
		Address:       s.Address,
		Status:        string(s.Status),
		CreatedAt:     s.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		UpdatedAt:     s.UpdatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

// -------------------------
// Supplier CRUD
// -------------------------

// POST /api/admin/suppliers
func CreateSupplierHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateSupplierRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri")
		}

		if strings.TrimSpace(body.Name) == "" {
			return fiber.NewError(fiber.StatusBadRequest, "isim boş olamaz")
		}

		supplier := models.Supplier{
			Name:          strings.TrimSpace(body.Name),
			ContactPerson: strings.TrimSpace(body.ContactPerson),
			Phone:         strings.TrimSpace(body.Phone),
			Email:         strings.TrimSpace(strings.ToLower(body.Email)),
			Address:       strings.TrimSpace(body.Address),
			Status:        models.SupplierActive,
		}

		if err := database.DB.Create(&supplier).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Tedarikçi kaydedilemedi")
		}

		userID, userName, err := getUserInfo(c)
		if err == nil {
			_ = audit.WriteLog(audit.LogOptions{
				UserID:      userID,
				UserName:    userName,
				EntityType:  "supplier",
				EntityID:    supplier.ID,
				Action:      models.AuditActionCreate,
				Description: fmt.Sprintf("Tedarikçi eklendi: %s", supplier.Name),
				Before:      nil,
				After:       supplier,
			})
		}

		return c.Status(fiber.StatusCreated).JSON(supplierToResponse(supplier))
	}
}

// GET /api/suppliers?search=&status=
func ListSuppliersHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		q := database.DB.Model(&models.Supplier{}).Order("name asc")

		if search := strings.TrimSpace(c.Query("search")); search != "" {
			q = q.Where("name ILIKE ? OR contact_person ILIKE ?", "%"+search+"%", "%"+search+"%")
		}
		if status := c.Query("status"); status != "" {
			if status != string(models.SupplierActive) && status != string(models.SupplierPassive) {
				return fiber.NewError(fiber.StatusBadRequest, "status 'active' veya 'passive' olmalı")
			}
			q = q.Where("status = ?", status)
		}

		var suppliers []models.Supplier
		if err := q.Find(&suppliers).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Tedarikçiler listelenemedi")
		}

		resp := make([]SupplierResponse, 0, len(suppliers))
		for _, s := range suppliers {
			resp = append(resp, supplierToResponse(s))
		}

		return c.JSON(fiber.Map{"data": resp})
	}
}

// GET /api/suppliers/:id
func GetSupplierHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		var supplier models.Supplier
		if err := database.DB.First(&supplier, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Tedarikçi bulunamadı")
		}
		return c.JSON(fiber.Map{"data": supplierToResponse(supplier)})
	}
}

// PUT /api/admin/suppliers/:id
func UpdateSupplierHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		var supplier models.Supplier
		if err := database.DB.First(&supplier, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Tedarikçi bulunamadı")
		}

		var body UpdateSupplierRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri")
		}

		before := supplier

		updated := false
		if body.Name != nil {
			name := strings.TrimSpace(*body.Name)
			if name == "" {
				return fiber.NewError(fiber.StatusBadRequest, "isim boş olamaz")
			}
			supplier.Name = name
			updated = true
		}
		if body.ContactPerson != nil {
			supplier.ContactPerson = strings.TrimSpace(*body.ContactPerson)
			updated = true
		}
		if body.Phone != nil {
			supplier.Phone = strings.TrimSpace(*body.Phone)
			updated = true
		}
		if body.Email != nil {
			supplier.Email = strings.TrimSpace(strings.ToLower(*body.Email))
			updated = true
		}
		if body.Address != nil {
			supplier.Address = strings.TrimSpace(*body.Address)
			updated = true
		}
		if body.Status != nil {
			status := models.SupplierStatus(*body.Status)
			if status != models.SupplierActive && status != models.SupplierPassive {
				return fiber.NewError(fiber.StatusBadRequest, "status 'active' veya 'passive' olmalı")
			}
			supplier.Status = status
			updated = true
		}

		if !updated {
			return c.JSON(supplierToResponse(supplier))
		}

		if err := database.DB.Save(&supplier).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Tedarikçi güncellenemedi")
		}

		userID, userName, err := getUserInfo(c)
		if err == nil {
			_ = audit.WriteLog(audit.LogOptions{
				UserID:      userID,
				UserName:    userName,
				EntityType:  "supplier",
				EntityID:    supplier.ID,
				Action:      models.AuditActionUpdate,
				Description: fmt.Sprintf("Tedarikçi güncellendi: %s", supplier.Name),
				Before:      before,
				After:       supplier,
			})
		}

		return c.JSON(supplierToResponse(supplier))
	}
}

// DELETE /api/admin/suppliers/:id
func DeleteSupplierHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		var supplier models.Supplier
		if err := database.DB.First(&supplier, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Tedarikçi bulunamadı")
		}

		// Tedarikçiye bağlı ürün veya sipariş varsa silme
		var productCount int64
		database.DB.Model(&models.Product{}).Where("supplier_id = ?", supplier.ID).Count(&productCount)
		if productCount > 0 {
			return fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf("Bu tedarikçiye bağlı %d ürün var", productCount))
		}

		var orderCount int64
		database.DB.Model(&models.PurchaseOrder{}).Where("supplier_id = ?", supplier.ID).Count(&orderCount)
		if orderCount > 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Bu tedarikçiye ait satın alma siparişleri var, tedarikçiyi pasife alın")
		}

		if err := database.DB.Delete(&supplier).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Tedarikçi silinemedi")
		}

		userID, userName, err := getUserInfo(c)
		if err == nil {
			_ = audit.WriteLog(audit.LogOptions{
				UserID:      userID,
				UserName:    userName,
				EntityType:  "supplier",
				EntityID:    supplier.ID,
				Action:      models.AuditActionDelete,
				Description: fmt.Sprintf("Tedarikçi silindi: %s", supplier.Name),
				Before:      supplier,
				After:       supplier, // Undo için gerekli
			})
		}

		return c.JSON(fiber.Map{"message": "Tedarikçi silindi"})
	}
}
