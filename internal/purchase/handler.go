package purchase

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
	"stokpos-backend/internal/database"
	"stokpos-backend/internal/models"
)

var validate = validator.New()

// -------------------------
// Request/Response Types
// -------------------------

type PurchaseOrderItemInput struct {
	ProductID uint            `json:"product_id" validate:"required"`
	Quantity  int             `json:"quantity" validate:"required,gt=0"`
	UnitCost  decimal.Decimal `json:"unit_cost"`
}

type CreatePurchaseOrderRequest struct {
	SupplierID   uint                     `json:"supplier_id" validate:"required"`
	ExpectedDate string                   `json:"expected_date"` // "2025-12-09" (opsiyonel)
	Notes        string                   `json:"notes" validate:"max=1000"`
	Items        []PurchaseOrderItemInput `json:"items" validate:"required,min=1,dive"`
}

type PurchaseOrderItemResponse struct {
	ID          uint            `json:"id"`
	ProductID   uint            `json:"product_id"`
	ProductName string          `json:"product_name"`
	ProductSKU  string          `json:"product_sku"`
	Quantity    int             `json:"quantity"`
	UnitCost    decimal.Decimal `json:"unit_cost"`
	LineTotal   decimal.Decimal `json:"line_total"`
}

type PurchaseOrderResponse struct {
	ID           uint                        `json:"id"`
	OrderNo      string                      `json:"order_no"`
	SupplierID   uint                        `json:"supplier_id"`
	SupplierName string                      `json:"supplier_name"`
	Status       string                      `json:"status"`
	ExpectedDate *string                     `json:"expected_date"`
	Notes        string                      `json:"notes"`
	TotalAmount  decimal.Decimal             `json:"total_amount"`
	OrderedAt    *string                     `json:"ordered_at"`
	ReceivedAt   *string                     `json:"received_at"`
	CreatedAt    string                      `json:"created_at"`
	Items        []PurchaseOrderItemResponse `json:"items,omitempty"`
}

func orderToResponse(po models.PurchaseOrder, withItems bool) PurchaseOrderResponse {
	resp := PurchaseOrderResponse{
		ID:           po.ID,
		OrderNo:      po.OrderNo,
		SupplierID:   po.SupplierID,
		SupplierName: po.Supplier.Name,
		Status:       string(po.Status),
		Notes:        po.Notes,
		TotalAmount:  po.TotalAmount,
		CreatedAt:    po.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
	if po.ExpectedDate != nil {
		s := po.ExpectedDate.Format("2006-01-02")
		resp.ExpectedDate = &s
	}
	if po.OrderedAt != nil {
		s := po.OrderedAt.Format("2006-01-02T15:04:05Z07:00")
		resp.OrderedAt = &s
	}
	if po.ReceivedAt != nil {
		s := po.ReceivedAt.Format("2006-01-02T15:04:05Z07:00")
		resp.ReceivedAt = &s
	}
	if withItems {
		resp.Items = make([]PurchaseOrderItemResponse, 0, len(po.Items))
		for _, item := range po.Items {
			resp.Items = append(resp.Items, PurchaseOrderItemResponse{
				ID:          item.ID,
				ProductID:   item.ProductID,
				ProductName: item.Product.Name,
				ProductSKU:  item.Product.SKU,
				Quantity:    item.Quantity,
				UnitCost:    item.UnitCost,
				LineTotal:   item.UnitCost.Mul(decimal.NewFromInt(int64(item.Quantity))),
			})
		}
	}
	return resp
}

// Yardımcı: Kullanıcı bilgilerini al
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

// generateOrderNo: PO-20251209-0003 formatında sıra numarası üretir
func generateOrderNo(tx *gorm.DB, now time.Time) (string, error) {
	prefix := "PO-" + now.Format("20060102")
	var count int64
	if err := tx.Model(&models.PurchaseOrder{}).
		Where("order_no LIKE ?", prefix+"%").
		Count(&count).Error; err != nil {
		return "", err
	}
	return fmt.Sprintf("%s-%04d", prefix, count+1), nil
}

func findOrder(id string) (*models.PurchaseOrder, error) {
	var po models.PurchaseOrder
	if err := database.DB.Preload("Supplier").Preload("Items").Preload("Items.Product").
		First(&po, "id = ?", id).Error; err != nil {
		return nil, fiber.NewError(fiber.StatusNotFound, "Sipariş bulunamadı")
	}
	return &po, nil
}

// -------------------------
// Purchase Order Handlers
// -------------------------

// POST /api/purchase-orders
func CreatePurchaseOrderHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreatePurchaseOrderRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}
		if err := validate.Struct(body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Sipariş bilgileri eksik veya hatalı")
		}

		var supplier models.Supplier
		if err := database.DB.First(&supplier, "id = ?", body.SupplierID).Error; err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Tedarikçi bulunamadı")
		}
		if supplier.Status != models.SupplierActive {
			return fiber.NewError(fiber.StatusBadRequest, "Pasif tedarikçiye sipariş verilemez")
		}

		var expectedDate *time.Time
		if body.ExpectedDate != "" {
			d, err := time.Parse("2006-01-02", body.ExpectedDate)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "Tarih formatı 'YYYY-MM-DD' olmalı")
			}
			expectedDate = &d
		}

		// Duplike ürün kontrolü
		seen := make(map[uint]bool, len(body.Items))
		for _, in := range body.Items {
			if seen[in.ProductID] {
				return fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf("Aynı ürün birden fazla satırda olamaz (ürün id: %d)", in.ProductID))
			}
			seen[in.ProductID] = true
			if in.UnitCost.IsNegative() {
				return fiber.NewError(fiber.StatusBadRequest, "Birim maliyet negatif olamaz")
			}
		}

		userID, userName, err := getUserInfo(c)
		if err != nil {
			return err
		}

		now := time.Now()
		var po models.PurchaseOrder

		err = database.DB.Transaction(func(tx *gorm.DB) error {
			orderNo, err := generateOrderNo(tx, now)
			if err != nil {
				return fmt.Errorf("sipariş numarası üretilemedi")
			}

			po = models.PurchaseOrder{
				OrderNo:      orderNo,
				SupplierID:   supplier.ID,
				Status:       models.POStatusDraft,
				ExpectedDate: expectedDate,
				Notes:        strings.TrimSpace(body.Notes),
				TotalAmount:  decimal.Zero,
				CreatedBy:    userID,
			}
			if err := tx.Create(&po).Error; err != nil {
				return fmt.Errorf("sipariş oluşturulamadı")
			}

			total := decimal.Zero
			for _, in := range body.Items {
				var product models.Product
				if err := tx.First(&product, "id = ?", in.ProductID).Error; err != nil {
					return fmt.Errorf("ürün bulunamadı (id: %d)", in.ProductID)
				}

				unitCost := in.UnitCost
				if unitCost.IsZero() {
					// Maliyet verilmemişse üründeki güncel alış maliyeti kullanılır
					unitCost = product.Cost
				}

				item := models.PurchaseOrderItem{
					PurchaseOrderID: po.ID,
					ProductID:       product.ID,
					Quantity:        in.Quantity,
					UnitCost:        unitCost,
				}
				if err := tx.Create(&item).Error; err != nil {
					return fmt.Errorf("sipariş satırı kaydedilemedi")
				}
				total = total.Add(unitCost.Mul(decimal.NewFromInt(int64(in.Quantity))))
			}

			po.TotalAmount = total
			return tx.Save(&po).Error
		})
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		_ = audit.WriteLog(audit.LogOptions{
			UserID:      userID,
			UserName:    userName,
			EntityType:  "purchase_order",
			EntityID:    po.ID,
			Action:      models.AuditActionCreate,
			Description: fmt.Sprintf("Satın alma siparişi oluşturuldu: %s (%s)", po.OrderNo, supplier.Name),
			Before:      nil,
			After:       po,
		})

		created, ferr := findOrder(fmt.Sprint(po.ID))
		if ferr != nil {
			return ferr
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": orderToResponse(*created, true)})
	}
}

// GET /api/purchase-orders?status=&supplier_id=&page=&limit=
func ListPurchaseOrdersHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		page := c.QueryInt("page", 1)
		if page <= 0 {
			page = 1
		}
		limit := c.QueryInt("limit", 25)
		if limit <= 0 || limit > 100 {
			limit = 25
		}

		q := database.DB.Model(&models.PurchaseOrder{}).Preload("Supplier")

		if status := c.Query("status"); status != "" {
			switch models.PurchaseOrderStatus(status) {
			case models.POStatusDraft, models.POStatusOrdered, models.POStatusReceived, models.POStatusCancelled:
				q = q.Where("status = ?", status)
			default:
				return fiber.NewError(fiber.StatusBadRequest, "Geçersiz status filtresi")
			}
		}
		if supplierID := c.QueryInt("supplier_id", 0); supplierID > 0 {
			q = q.Where("supplier_id = ?", supplierID)
		}

		var total int64
		if err := q.Count(&total).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Siparişler sayılamadı")
		}

		var orders []models.PurchaseOrder
		if err := q.Order("created_at DESC").
			Offset((page - 1) * limit).
			Limit(limit).
			Find(&orders).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Siparişler listelenemedi")
		}

		resp := make([]PurchaseOrderResponse, 0, len(orders))
		for _, po := range orders {
			resp = append(resp, orderToResponse(po, false))
		}

		totalPages := int((total + int64(limit) - 1) / int64(limit))
		return c.JSON(fiber.Map{
			"data": resp,
			"pagination": fiber.Map{
				"page":        page,
				"limit":       limit,
				"total_items": total,
				"total_pages": totalPages,
			},
		})
	}
}

// GET /api/purchase-orders/:id
func GetPurchaseOrderHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		po, err := findOrder(c.Params("id"))
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"data": orderToResponse(*po, true)})
	}
}

// POST /api/purchase-orders/:id/order
// Taslağı tedarikçiye verilmiş sipariş durumuna geçirir
func MarkOrderedHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		po, err := findOrder(c.Params("id"))
		if err != nil {
			return err
		}
		if po.Status != models.POStatusDraft {
			return fiber.NewError(fiber.StatusBadRequest, "Sadece taslak sipariş verilebilir")
		}

		now := time.Now()
		po.Status = models.POStatusOrdered
		po.OrderedAt = &now

		if err := database.DB.Save(po).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Sipariş güncellenemedi")
		}

		userID, userName, uerr := getUserInfo(c)
		if uerr == nil {
			_ = audit.WriteLog(audit.LogOptions{
				UserID:      userID,
				UserName:    userName,
				EntityType:  "purchase_order",
				EntityID:    po.ID,
				Action:      models.AuditActionUpdate,
				Description: fmt.Sprintf("Sipariş verildi: %s", po.OrderNo),
				Before:      nil,
				After:       po,
			})
		}

		return c.JSON(fiber.Map{"data": orderToResponse(*po, false)})
	}
}

// POST /api/purchase-orders/:id/receive
// Mal kabul: sipariş kalemlerindeki miktarlar ürün stoklarına eklenir
func ReceivePurchaseOrderHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		po, err := findOrder(c.Params("id"))
		if err != nil {
			return err
		}
		if po.Status != models.POStatusOrdered {
			return fiber.NewError(fiber.StatusBadRequest, "Sadece verilmiş sipariş mal kabul edilebilir")
		}

		now := time.Now()
		err = database.DB.Transaction(func(tx *gorm.DB) error {
			for _, item := range po.Items {
				if err := tx.Model(&models.Product{}).
					Where("id = ?", item.ProductID).
					Update("stock", gorm.Expr("stock + ?", item.Quantity)).Error; err != nil {
					return err
				}
			}

			po.Status = models.POStatusReceived
			po.ReceivedAt = &now
			return tx.Save(po).Error
		})
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Mal kabul yapılamadı")
		}

		userID, userName, uerr := getUserInfo(c)
		if uerr == nil {
			_ = audit.WriteLog(audit.LogOptions{
				UserID:      userID,
				UserName:    userName,
				EntityType:  "purchase_order",
				EntityID:    po.ID,
				Action:      models.AuditActionUpdate,
				Description: fmt.Sprintf("Mal kabul yapıldı: %s (%d kalem)", po.OrderNo, len(po.Items)),
				Before:      nil,
				After:       po,
			})
		}

		return c.JSON(fiber.Map{"data": orderToResponse(*po, true)})
	}
}

// POST /api/purchase-orders/:id/cancel
func CancelPurchaseOrderHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		po, err := findOrder(c.Params("id"))
		if err != nil {
			return err
		}
		if po.Status != models.POStatusDraft && po.Status != models.POStatusOrdered {
			return fiber.NewError(fiber.StatusBadRequest, "Sadece taslak veya verilmiş sipariş iptal edilebilir")
		}

		po.Status = models.POStatusCancelled
		if err := database.DB.Save(po).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Sipariş iptal edilemedi")
		}

		userID, userName, uerr := getUserInfo(c)
		if uerr == nil {
			_ = audit.WriteLog(audit.LogOptions{
				UserID:      userID,
				UserName:    userName,
				EntityType:  "purchase_order",
				EntityID:    po.ID,
				Action:      models.AuditActionUpdate,
				Description: fmt.Sprintf("Sipariş iptal edildi: %s", po.OrderNo),
				Before:      nil,
				After:       po,
			})
		}

		return c.JSON(fiber.Map{"data": orderToResponse(*po, false)})
	}
}

// DELETE /api/purchase-orders/:id
func DeletePurchaseOrderHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		po, err := findOrder(c.Params("id"))
		if err != nil {
			return err
		}
		if po.Status != models.POStatusDraft {
			return fiber.NewError(fiber.StatusBadRequest, "Sadece taslak sipariş silinebilir")
		}

		if err := database.DB.Select("Items").Delete(po).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Sipariş silinemedi")
		}

		userID, userName, uerr := getUserInfo(c)
		if uerr == nil {
			_ = audit.WriteLog(audit.LogOptions{
				UserID:      userID,
				UserName:    userName,
				EntityType:  "purchase_order",
				EntityID:    po.ID,
				Action:      models.AuditActionDelete,
				Description: fmt.Sprintf("Taslak sipariş silindi: %s", po.OrderNo),
				Before:      po,
				After:       nil,
			})
		}

		return c.JSON(fiber.Map{"message": "Sipariş silindi"})
	}
}
