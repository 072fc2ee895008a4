package reconciliation

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"stokpos-backend/internal/audit"
	"stokpos-backend/internal/auth"
	"stokpos-backend/internal/catalog"
	"stokpos-backend/internal/database"
	"stokpos-backend/internal/models"
)

var validate = validator.New()

// -------------------------
// Request/Response Types
// -------------------------

type ReconciliationItemInput struct {
	ProductID         uint   `json:"product_id" validate:"required"`
	SystemCount       int    `json:"system_count" validate:"gte=0"`
	PhysicalCount     int    `json:"physical_count" validate:"gte=0"`
	DiscrepancyReason string `json:"discrepancy_reason"`
	Notes             string `json:"notes" validate:"max=500"`
}

type CreateReconciliationRequest struct {
	Title       string                    `json:"title" validate:"required,max=255"`
	Description string                    `json:"description" validate:"max=255"`
	Notes       string                    `json:"notes" validate:"max=1000"`
	Items       []ReconciliationItemInput `json:"items" validate:"required,min=1,dive"`
}

type AddItemRequest struct {
	ProductID uint `json:"product_id" validate:"required"`
}

type UpdateItemRequest struct {
	PhysicalCount     *int    `json:"physical_count" validate:"omitempty,gte=0"`
	DiscrepancyReason *string `json:"discrepancy_reason"`
	Notes             *string `json:"notes" validate:"omitempty,max=500"`
}

type LoadSnapshotRequest struct {
	CategoryIDs []uint `json:"category_ids"`
	IncludeZero *bool  `json:"include_zero"` // varsayılan true
}

type RejectRequest struct {
	Reason string `json:"reason" validate:"required,max=500"`
}

type ItemResponse struct {
	ID                uint            `json:"id"`
	ProductID         uint            `json:"product_id"`
	ProductName       string          `json:"product_name"`
	ProductSKU        string          `json:"product_sku"`
	SystemCount       int             `json:"system_count"`
	PhysicalCount     int             `json:"physical_count"`
	Discrepancy       int             `json:"discrepancy"`
	DiscrepancyReason string          `json:"discrepancy_reason"`
	Notes             string          `json:"notes"`
	UnitCost          decimal.Decimal `json:"unit_cost"`
	EstimatedImpact   decimal.Decimal `json:"estimated_impact"`
}

type ReconciliationResponse struct {
	ID               uint            `json:"id"`
	Title            string          `json:"title"`
	Description      string          `json:"description"`
	Notes            string          `json:"notes"`
	Status           string          `json:"status"`
	CreatorName      string          `json:"creator_name"`
	ItemCount        int             `json:"item_count"`
	TotalDiscrepancy int             `json:"total_discrepancy"`
	TotalImpact      decimal.Decimal `json:"total_impact"`
	SubmittedAt      *string         `json:"submitted_at"`
	ApprovedAt       *string         `json:"approved_at"`
	RejectedAt       *string         `json:"rejected_at"`
	RejectReason     string          `json:"reject_reason,omitempty"`
	CreatedAt        string          `json:"created_at"`
	Items            []ItemResponse  `json:"items,omitempty"`
}

type ListReconciliationsQuery struct {
	Status string `query:"status"`
	Search string `query:"search"`
	Page   int    `query:"page"`
	Limit  int    `query:"limit"`
}

func itemToResponse(item models.ReconciliationItem) ItemResponse {
	return ItemResponse{
		ID:                item.ID,
		ProductID:         item.ProductID,
		ProductName:       item.ProductName,
		ProductSKU:        item.ProductSKU,
		SystemCount:       item.SystemCount,
		PhysicalCount:     item.PhysicalCount,
		Discrepancy:       Discrepancy(item),
		DiscrepancyReason: string(item.DiscrepancyReason),
		Notes:             item.Notes,
		UnitCost:          item.UnitCost,
		EstimatedImpact:   Impact(item),
	}
}

func toResponse(recon models.Reconciliation, withItems bool) ReconciliationResponse {
	totalDiscrepancy, totalImpact := Totals(recon.Items)

	resp := ReconciliationResponse{
		ID:               recon.ID,
		Title:            recon.Title,
		Description:      recon.Description,
		Notes:            recon.Notes,
		Status:           string(recon.Status),
		CreatorName:      recon.CreatorName,
		ItemCount:        len(recon.Items),
		TotalDiscrepancy: totalDiscrepancy,
		TotalImpact:      totalImpact,
		RejectReason:     recon.RejectReason,
		CreatedAt:        recon.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
	if recon.SubmittedAt != nil {
		s := recon.SubmittedAt.Format("2006-01-02T15:04:05Z07:00")
		resp.SubmittedAt = &s
	}
	if recon.ApprovedAt != nil {
		s := recon.ApprovedAt.Format("2006-01-02T15:04:05Z07:00")
		resp.ApprovedAt = &s
	}
	if recon.RejectedAt != nil {
		s := recon.RejectedAt.Format("2006-01-02T15:04:05Z07:00")
		resp.RejectedAt = &s
	}

	if withItems {
		resp.Items = make([]ItemResponse, 0, len(recon.Items))
		for _, item := range recon.Items {
			resp.Items = append(resp.Items, itemToResponse(item))
		}
	}
	return resp
}

// validationMessage: validator hatasını kullanıcıya gösterilecek mesaja çevir
func validationMessage(err error) string {
	if errs, ok := err.(validator.ValidationErrors); ok && len(errs) > 0 {
		e := errs[0]
		switch e.Tag() {
		case "required":
			return fmt.Sprintf("%s alanı zorunlu", e.Field())
		case "max":
			return fmt.Sprintf("%s alanı en fazla %s karakter olabilir", e.Field(), e.Param())
		case "min":
			return fmt.Sprintf("%s alanı için en az %s öğe gerekli", e.Field(), e.Param())
		case "gte":
			return fmt.Sprintf("%s alanı negatif olamaz", e.Field())
		}
		return fmt.Sprintf("%s alanı geçersiz", e.Field())
	}
	return "Geçersiz veri"
}

// -------------------------
// Yardımcı Fonksiyonlar
// -------------------------

func getUserInfoForRecon(c *fiber.Ctx) (uint, string, error) {
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

func findReconciliation(id string) (*models.Reconciliation, error) {
	var recon models.Reconciliation
	if err := database.DB.Preload("Items").First(&recon, "id = ?", id).Error; err != nil {
		return nil, fiber.NewError(fiber.StatusNotFound, "Mutabakat bulunamadı")
	}
	return &recon, nil
}

// -------------------------
// Reconciliation Handlers
// -------------------------

// POST /api/reconciliations
// Taslak oluşturur. Başlık ve en az bir satır zorunlu; aynı ürün iki satırda
// olamaz. Birim maliyet sunucuda üründen çözülür, parasal etki sunucuda hesaplanır.
func CreateReconciliationHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateReconciliationRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}

		body.Title = strings.TrimSpace(body.Title)

		if err := validate.Struct(body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, validationMessage(err))
		}

		// Duplike ürün kontrolü
		seen := make(map[uint]bool, len(body.Items))
		for _, in := range body.Items {
			if seen[in.ProductID] {
				return fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf("Aynı ürün birden fazla satırda olamaz (ürün id: %d)", in.ProductID))
			}
			seen[in.ProductID] = true

			if !models.ValidDiscrepancyReason(models.DiscrepancyReason(in.DiscrepancyReason)) {
				return fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf("Geçersiz fark sebebi: %s", in.DiscrepancyReason))
			}
		}

		userID, userName, err := getUserInfoForRecon(c)
		if err != nil {
			return err
		}

		recon := models.Reconciliation{
			Title:       body.Title,
			Description: strings.TrimSpace(body.Description),
			Notes:       strings.TrimSpace(body.Notes),
			Status:      models.ReconStatusDraft,
			CreatedBy:   userID,
			CreatorName: userName,
		}

		// Satırları ürünlerden zenginleştirip tek transaction'da yaz;
		// herhangi bir satır hatalıysa hiçbir şey kaydedilmez
		err = database.DB.Transaction(func(tx *gorm.DB) error {
			if err := tx.Create(&recon).Error; err != nil {
				return fmt.Errorf("mutabakat oluşturulamadı")
			}

			for _, in := range body.Items {
				var product models.Product
				if err := tx.First(&product, "id = ?", in.ProductID).Error; err != nil {
					return fmt.Errorf("ürün bulunamadı (id: %d)", in.ProductID)
				}

				item := models.ReconciliationItem{
					ReconciliationID:  recon.ID,
					ProductID:         product.ID,
					ProductName:       product.Name,
					ProductSKU:        product.SKU,
					SystemCount:       in.SystemCount,
					PhysicalCount:     in.PhysicalCount,
					DiscrepancyReason: models.DiscrepancyReason(in.DiscrepancyReason),
					Notes:             strings.TrimSpace(in.Notes),
					UnitCost:          product.Cost,
				}
				item.EstimatedImpact = Impact(item)

				if err := tx.Create(&item).Error; err != nil {
					return fmt.Errorf("mutabakat satırı kaydedilemedi")
				}
			}
			return nil
		})
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		_ = audit.WriteLog(audit.LogOptions{
			UserID:      userID,
			UserName:    userName,
			EntityType:  "reconciliation",
			EntityID:    recon.ID,
			Action:      models.AuditActionCreate,
			Description: fmt.Sprintf("Stok mutabakatı oluşturuldu: %s (%d satır)", recon.Title, len(body.Items)),
			Before:      nil,
			After:       recon,
		})

		database.DB.Preload("Items").First(&recon, recon.ID)
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": toResponse(recon, true)})
	}
}

// GET /api/reconciliations
func ListReconciliationsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var query ListReconciliationsQuery
		if err := c.QueryParser(&query); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz sorgu parametreleri")
		}

		if query.Page <= 0 {
			query.Page = 1
		}
		if query.Limit <= 0 || query.Limit > 100 {
			query.Limit = 25
		}

		q := database.DB.Model(&models.Reconciliation{})

		if query.Status != "" {
			switch models.ReconciliationStatus(query.Status) {
			case models.ReconStatusDraft, models.ReconStatusPending, models.ReconStatusApproved, models.ReconStatusRejected:
				q = q.Where("status = ?", query.Status)
			default:
				return fiber.NewError(fiber.StatusBadRequest, "Geçersiz status filtresi")
			}
		}
		if search := strings.TrimSpace(query.Search); search != "" {
			q = q.Where("title ILIKE ?", "%"+search+"%")
		}

		var total int64
		if err := q.Count(&total).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Mutabakatlar sayılamadı")
		}

		var recons []models.Reconciliation
		if err := q.Preload("Items").
			Order("created_at DESC").
			Offset((query.Page - 1) * query.Limit).
			Limit(query.Limit).
			Find(&recons).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Mutabakatlar listelenemedi")
		}

		resp := make([]ReconciliationResponse, 0, len(recons))
		for _, r := range recons {
			resp = append(resp, toResponse(r, false))
		}

		totalPages := int((total + int64(query.Limit) - 1) / int64(query.Limit))
		return c.JSON(fiber.Map{
			"data": resp,
			"pagination": fiber.Map{
				"page":        query.Page,
				"limit":       query.Limit,
				"total_items": total,
				"total_pages": totalPages,
			},
		})
	}
}

// GET /api/reconciliations/:id
func GetReconciliationHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		recon, err := findReconciliation(c.Params("id"))
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"data": toResponse(*recon, true)})
	}
}

// POST /api/reconciliations/:id/items
// Manuel ürün ekleme: mevcut satırlara DOKUNMADAN yeni satır ekler.
// Ürün zaten listede ise 409 döner ve satırlar değişmez.
func AddItemHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		recon, err := findReconciliation(c.Params("id"))
		if err != nil {
			return err
		}
		if recon.Status != models.ReconStatusDraft {
			return fiber.NewError(fiber.StatusBadRequest, "Sadece taslak mutabakata satır eklenebilir")
		}

		var body AddItemRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}
		if err := validate.Struct(body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, validationMessage(err))
		}

		for _, item := range recon.Items {
			if item.ProductID == body.ProductID {
				return fiber.NewError(fiber.StatusConflict, "Bu ürün zaten sayım listesinde")
			}
		}

		var product models.Product
		if err := database.DB.First(&product, "id = ?", body.ProductID).Error; err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Ürün bulunamadı")
		}

		// Yeni satır o anki sistem stoğuyla açılır; operatör saymadan önce
		// fiziksel sayım = sistem stoku varsayılır
		item := models.ReconciliationItem{
			ReconciliationID: recon.ID,
			ProductID:        product.ID,
			ProductName:      product.Name,
			ProductSKU:       product.SKU,
			SystemCount:      product.Stock,
			PhysicalCount:    product.Stock,
			UnitCost:         product.Cost,
		}
		item.EstimatedImpact = Impact(item)

		if err := database.DB.Create(&item).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Satır eklenemedi")
		}

		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": itemToResponse(item)})
	}
}

// PUT /api/reconciliations/:id/items/:itemID
// Fiziksel sayım miktarını ve sebep/not alanlarını günceller (sadece taslakta)
func UpdateItemHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		recon, err := findReconciliation(c.Params("id"))
		if err != nil {
			return err
		}
		if recon.Status != models.ReconStatusDraft {
			return fiber.NewError(fiber.StatusBadRequest, "Sadece taslak mutabakat düzenlenebilir")
		}

		var item models.ReconciliationItem
		if err := database.DB.First(&item, "id = ? AND reconciliation_id = ?", c.Params("itemID"), recon.ID).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Satır bulunamadı")
		}

		var body UpdateItemRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}
		if err := validate.Struct(body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, validationMessage(err))
		}

		if body.PhysicalCount != nil {
			item.PhysicalCount = *body.PhysicalCount
		}
		if body.DiscrepancyReason != nil {
			reason := models.DiscrepancyReason(*body.DiscrepancyReason)
			if !models.ValidDiscrepancyReason(reason) {
				return fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf("Geçersiz fark sebebi: %s", *body.DiscrepancyReason))
			}
			item.DiscrepancyReason = reason
		}
		if body.Notes != nil {
			item.Notes = strings.TrimSpace(*body.Notes)
		}

		item.EstimatedImpact = Impact(item)

		if err := database.DB.Save(&item).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Satır güncellenemedi")
		}

		return c.JSON(fiber.Map{"data": itemToResponse(item)})
	}
}

// DELETE /api/reconciliations/:id/items/:itemID
func DeleteItemHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		recon, err := findReconciliation(c.Params("id"))
		if err != nil {
			return err
		}
		if recon.Status != models.ReconStatusDraft {
			return fiber.NewError(fiber.StatusBadRequest, "Sadece taslak mutabakat düzenlenebilir")
		}

		var item models.ReconciliationItem
		if err := database.DB.First(&item, "id = ? AND reconciliation_id = ?", c.Params("itemID"), recon.ID).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Satır bulunamadı")
		}

		if err := database.DB.Delete(&item).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Satır silinemedi")
		}

		return c.JSON(fiber.Map{"message": "Satır silindi"})
	}
}

// POST /api/reconciliations/:id/load-snapshot
// Toplu ön doldurma: seçilen kategoriler (alt kategorileriyle) kapsamındaki
// ürünlerden satırları yeniden kurar. Mevcut satırlar TAMAMEN değiştirilir
// (ekleme değil); işlem tek transaction'dadır, hata olursa eski satırlar korunur.
func LoadSnapshotHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		recon, err := findReconciliation(c.Params("id"))
		if err != nil {
			return err
		}
		if recon.Status != models.ReconStatusDraft {
			return fiber.NewError(fiber.StatusBadRequest, "Sadece taslak mutabakata yükleme yapılabilir")
		}

		var body LoadSnapshotRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}

		// Boş seçim ağa çıkmadan reddedilir
		if len(body.CategoryIDs) == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "En az bir kategori seçmelisiniz")
		}

		includeZero := true
		if body.IncludeZero != nil {
			includeZero = *body.IncludeZero
		}

		var categories []models.Category
		if err := database.DB.Find(&categories).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Kategoriler okunamadı")
		}
		resolved := catalog.ResolveCategorySelection(body.CategoryIDs, categories)

		var products []models.Product
		if len(resolved) > 0 {
			q := database.DB.Where("category_id IN ?", resolved).
				Where("status = ?", models.ProductActive)
			if !includeZero {
				q = q.Where("stock > 0")
			}
			if err := q.Order("id asc").Find(&products).Error; err != nil {
				return fiber.NewError(fiber.StatusInternalServerError, "Ürünler okunamadı")
			}
		}

		err = database.DB.Transaction(func(tx *gorm.DB) error {
			// Tam değiştirme: önce mevcut satırlar silinir
			if err := tx.Where("reconciliation_id = ?", recon.ID).
				Delete(&models.ReconciliationItem{}).Error; err != nil {
				return err
			}

			for _, product := range products {
				item := models.ReconciliationItem{
					ReconciliationID: recon.ID,
					ProductID:        product.ID,
					ProductName:      product.Name,
					ProductSKU:       product.SKU,
					SystemCount:      product.Stock,
					PhysicalCount:    product.Stock, // sayım öncesi varsayılan
					UnitCost:         product.Cost,
				}
				item.EstimatedImpact = Impact(item)
				if err := tx.Create(&item).Error; err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Satırlar yüklenemedi, mevcut satırlar korundu")
		}

		database.DB.Preload("Items").First(recon, recon.ID)

		message := fmt.Sprintf("%d ürün yüklendi", len(products))
		if len(products) == 0 {
			// Bilgilendirme, hata değil
			message = "Seçilen kategorilerde ürün bulunamadı"
		}

		return c.JSON(fiber.Map{
			"message": message,
			"data":    toResponse(*recon, true),
		})
	}
}

// POST /api/reconciliations/:id/submit
// Taslağı onaya gönderir. Oluşturma başarılı olup bu adım başarısız kalırsa
// kayıt sunucuda taslak olarak durur; operatör tekrar göndermelidir.
func SubmitReconciliationHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		recon, err := findReconciliation(c.Params("id"))
		if err != nil {
			return err
		}
		if recon.Status != models.ReconStatusDraft {
			return fiber.NewError(fiber.StatusBadRequest, "Sadece taslak mutabakat onaya gönderilebilir")
		}
		if len(recon.Items) == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Boş mutabakat onaya gönderilemez")
		}

		now := time.Now()
		recon.Status = models.ReconStatusPending
		recon.SubmittedAt = &now

		if err := database.DB.Save(recon).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Mutabakat onaya gönderilemedi")
		}

		userID, userName, err := getUserInfoForRecon(c)
		if err == nil {
			_ = audit.WriteLog(audit.LogOptions{
				UserID:      userID,
				UserName:    userName,
				EntityType:  "reconciliation",
				EntityID:    recon.ID,
				Action:      models.AuditActionUpdate,
				Description: fmt.Sprintf("Mutabakat onaya gönderildi: %s", recon.Title),
				Before:      nil,
				After:       recon,
			})
		}

		return c.JSON(fiber.Map{"data": toResponse(*recon, false)})
	}
}

// POST /api/admin/reconciliations/:id/approve
// Onaylanan sayım sonuçları ürün stoklarına uygulanır: her satır için
// sistem stoku fiziksel sayım değerine çekilir.
func ApproveReconciliationHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		recon, err := findReconciliation(c.Params("id"))
		if err != nil {
			return err
		}
		if recon.Status != models.ReconStatusPending {
			return fiber.NewError(fiber.StatusBadRequest, "Sadece onay bekleyen mutabakat onaylanabilir")
		}

		userID, userName, uerr := getUserInfoForRecon(c)
		if uerr != nil {
			return uerr
		}

		now := time.Now()
		err = database.DB.Transaction(func(tx *gorm.DB) error {
			for _, item := range recon.Items {
				if err := tx.Model(&models.Product{}).
					Where("id = ?", item.ProductID).
					Update("stock", item.PhysicalCount).Error; err != nil {
					return err
				}
			}

			recon.Status = models.ReconStatusApproved
			recon.ApprovedBy = &userID
			recon.ApprovedAt = &now
			return tx.Save(recon).Error
		})
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Mutabakat onaylanamadı")
		}

		totalDiscrepancy, totalImpact := Totals(recon.Items)
		_ = audit.WriteLog(audit.LogOptions{
			UserID:      userID,
			UserName:    userName,
			EntityType:  "reconciliation",
			EntityID:    recon.ID,
			Action:      models.AuditActionUpdate,
			Description: fmt.Sprintf("Mutabakat onaylandı: %s (toplam fark: %d, etki: %s)", recon.Title, totalDiscrepancy, totalImpact.StringFixed(2)),
			Before:      nil,
			After:       recon,
		})

		return c.JSON(fiber.Map{"data": toResponse(*recon, false)})
	}
}

// POST /api/admin/reconciliations/:id/reject
func RejectReconciliationHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		recon, err := findReconciliation(c.Params("id"))
		if err != nil {
			return err
		}
		if recon.Status != models.ReconStatusPending {
			return fiber.NewError(fiber.StatusBadRequest, "Sadece onay bekleyen mutabakat reddedilebilir")
		}

		var body RejectRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}
		if err := validate.Struct(body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, validationMessage(err))
		}

		now := time.Now()
		recon.Status = models.ReconStatusRejected
		recon.RejectedAt = &now
		recon.RejectReason = strings.TrimSpace(body.Reason)

		if err := database.DB.Save(recon).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Mutabakat reddedilemedi")
		}

		userID, userName, uerr := getUserInfoForRecon(c)
		if uerr == nil {
			_ = audit.WriteLog(audit.LogOptions{
				UserID:      userID,
				UserName:    userName,
				EntityType:  "reconciliation",
				EntityID:    recon.ID,
				Action:      models.AuditActionUpdate,
				Description: fmt.Sprintf("Mutabakat reddedildi: %s", recon.Title),
				Before:      nil,
				After:       recon,
			})
		}

		return c.JSON(fiber.Map{"data": toResponse(*recon, false)})
	}
}

// DELETE /api/reconciliations/:id
func DeleteReconciliationHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		recon, err := findReconciliation(c.Params("id"))
		if err != nil {
			return err
		}
		if recon.Status != models.ReconStatusDraft {
			return fiber.NewError(fiber.StatusBadRequest, "Sadece taslak mutabakat silinebilir")
		}

		if err := database.DB.Select("Items").Delete(recon).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Mutabakat silinemedi")
		}

		userID, userName, uerr := getUserInfoForRecon(c)
		if uerr == nil {
			_ = audit.WriteLog(audit.LogOptions{
				UserID:      userID,
				UserName:    userName,
				EntityType:  "reconciliation",
				EntityID:    recon.ID,
				Action:      models.AuditActionDelete,
				Description: fmt.Sprintf("Taslak mutabakat silindi: %s", recon.Title),
				Before:      recon,
				After:       nil,
			})
		}

		return c.JSON(fiber.Map{"message": "Mutabakat silindi"})
	}
}
