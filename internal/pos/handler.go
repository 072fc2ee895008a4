package pos

import (
	"fmt"
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

type SaleLineInput struct {
	ProductID uint `json:"product_id" validate:"required"`
	Quantity  int  `json:"quantity" validate:"required,gt=0"`
}

type CreateSaleRequest struct {
	PaymentMethod string          `json:"payment_method" validate:"required,oneof=cash card"`
	Lines         []SaleLineInput `json:"lines" validate:"required,min=1,dive"`
}

type SaleLineResponse struct {
	ID          uint            `json:"id"`
	ProductID   uint            `json:"product_id"`
	ProductName string          `json:"product_name"`
	ProductSKU  string          `json:"product_sku"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	LineTotal   decimal.Decimal `json:"line_total"`
}

type SaleResponse struct {
	ID            uint               `json:"id"`
	ReceiptNo     string             `json:"receipt_no"`
	Date          string             `json:"date"`
	PaymentMethod string             `json:"payment_method"`
	Status        string             `json:"status"`
	TotalAmount   decimal.Decimal    `json:"total_amount"`
	CashierID     uint               `json:"cashier_id"`
	CashierName   string             `json:"cashier_name"`
	VoidedAt      *string            `json:"voided_at"`
	Lines         []SaleLineResponse `json:"lines,omitempty"`
}

func saleToResponse(txn models.PosTransaction, withLines bool) SaleResponse {
	resp := SaleResponse{
		ID:            txn.ID,
		ReceiptNo:     txn.ReceiptNo,
		Date:          txn.Date.Format("2006-01-02T15:04:05Z07:00"),
		PaymentMethod: string(txn.PaymentMethod),
		Status:        string(txn.Status),
		TotalAmount:   txn.TotalAmount,
		CashierID:     txn.CashierID,
		CashierName:   txn.CashierName,
	}
	if txn.VoidedAt != nil {
		s := txn.VoidedAt.Format("2006-01-02T15:04:05Z07:00")
		resp.VoidedAt = &s
	}
	if withLines {
		resp.Lines = make([]SaleLineResponse, 0, len(txn.Lines))
		for _, line := range txn.Lines {
			resp.Lines = append(resp.Lines, SaleLineResponse{
				ID:          line.ID,
				ProductID:   line.ProductID,
				ProductName: line.ProductName,
				ProductSKU:  line.ProductSKU,
				Quantity:    line.Quantity,
				UnitPrice:   line.UnitPrice,
				LineTotal:   line.LineTotal,
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

// generateReceiptNo: FIS-20251209-0012 formatında fiş numarası üretir
func generateReceiptNo(tx *gorm.DB, now time.Time) (string, error) {
	prefix := "FIS-" + now.Format("20060102")
	var count int64
	if err := tx.Model(&models.PosTransaction{}).
		Where("receipt_no LIKE ?", prefix+"%").
		Count(&count).Error; err != nil {
		return "", err
	}
	return fmt.Sprintf("%s-%04d", prefix, count+1), nil
}

// -------------------------
// POS Transaction Handlers
// -------------------------

// POST /api/pos/transactions
// Satış: her satırdaki miktar ürün stokundan düşülür
func CreateSaleHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateSaleRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}
		if err := validate.Struct(body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Satış bilgileri eksik veya hatalı")
		}

		// Duplike ürün kontrolü
		seen := make(map[uint]bool, len(body.Lines))
		for _, in := range body.Lines {
			if seen[in.ProductID] {
				return fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf("Aynı ürün birden fazla satırda olamaz (ürün id: %d)", in.ProductID))
			}
			seen[in.ProductID] = true
		}

		userID, userName, err := getUserInfo(c)
		if err != nil {
			return err
		}

		now := time.Now()
		var txn models.PosTransaction

		err = database.DB.Transaction(func(tx *gorm.DB) error {
			receiptNo, err := generateReceiptNo(tx, now)
			if err != nil {
				return fiber.NewError(fiber.StatusInternalServerError, "Fiş numarası üretilemedi")
			}

			txn = models.PosTransaction{
				ReceiptNo:     receiptNo,
				Date:          now,
				PaymentMethod: models.PaymentMethod(body.PaymentMethod),
				Status:        models.PosCompleted,
				TotalAmount:   decimal.Zero,
				CashierID:     userID,
				CashierName:   userName,
			}
			if err := tx.Create(&txn).Error; err != nil {
				return fiber.NewError(fiber.StatusInternalServerError, "Satış kaydedilemedi")
			}

			total := decimal.Zero
			for _, in := range body.Lines {
				var product models.Product
				if err := tx.First(&product, "id = ?", in.ProductID).Error; err != nil {
					return fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf("Ürün bulunamadı (id: %d)", in.ProductID))
				}
				if product.Status != models.ProductActive {
					return fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf("Pasif ürün satılamaz: %s", product.Name))
				}
				if product.Stock < in.Quantity {
					return fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf("Yetersiz stok: %s (mevcut: %d)", product.Name, product.Stock))
				}

				lineTotal := product.Price.Mul(decimal.NewFromInt(int64(in.Quantity)))
				line := models.PosTransactionLine{
					PosTransactionID: txn.ID,
					ProductID:        product.ID,
					ProductName:      product.Name,
					ProductSKU:       product.SKU,
					Quantity:         in.Quantity,
					UnitPrice:        product.Price,
					LineTotal:        lineTotal,
				}
				if err := tx.Create(&line).Error; err != nil {
					return fiber.NewError(fiber.StatusInternalServerError, "Satış satırı kaydedilemedi")
				}

				if err := tx.Model(&models.Product{}).
					Where("id = ?", product.ID).
					Update("stock", gorm.Expr("stock - ?", in.Quantity)).Error; err != nil {
					return fiber.NewError(fiber.StatusInternalServerError, "Stok güncellenemedi")
				}

				total = total.Add(lineTotal)
			}

			txn.TotalAmount = total
			return tx.Save(&txn).Error
		})
		if err != nil {
			if fe, ok := err.(*fiber.Error); ok {
				return fe
			}
			return fiber.NewError(fiber.StatusInternalServerError, "Satış kaydedilemedi")
		}

		_ = audit.WriteLog(audit.LogOptions{
			UserID:      userID,
			UserName:    userName,
			EntityType:  "pos_transaction",
			EntityID:    txn.ID,
			Action:      models.AuditActionCreate,
			Description: fmt.Sprintf("Satış yapıldı: %s (%s TL)", txn.ReceiptNo, txn.TotalAmount.StringFixed(2)),
			Before:      nil,
			After:       txn,
		})

		var created models.PosTransaction
		if err := database.DB.Preload("Lines").First(&created, "id = ?", txn.ID).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Satış okunamadı")
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": saleToResponse(created, true)})
	}
}

// GET /api/pos/transactions?status=&payment_method=&start_date=&end_date=&page=&limit=
func ListSalesHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		page := c.QueryInt("page", 1)
		if page <= 0 {
			page = 1
		}
		limit := c.QueryInt("limit", 25)
		if limit <= 0 || limit > 100 {
			limit = 25
		}

		q := database.DB.Model(&models.PosTransaction{})

		if status := c.Query("status"); status != "" {
			switch models.PosTransactionStatus(status) {
			case models.PosCompleted, models.PosVoided:
				q = q.Where("status = ?", status)
			default:
				return fiber.NewError(fiber.StatusBadRequest, "Geçersiz status filtresi")
			}
		}
		if method := c.Query("payment_method"); method != "" {
			switch models.PaymentMethod(method) {
			case models.PaymentCash, models.PaymentCard:
				q = q.Where("payment_method = ?", method)
			default:
				return fiber.NewError(fiber.StatusBadRequest, "Geçersiz ödeme yöntemi filtresi")
			}
		}
		if start := c.Query("start_date"); start != "" {
			d, err := time.Parse("2006-01-02", start)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "Tarih formatı 'YYYY-MM-DD' olmalı")
			}
			q = q.Where("date >= ?", d)
		}
		if end := c.Query("end_date"); end != "" {
			d, err := time.Parse("2006-01-02", end)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "Tarih formatı 'YYYY-MM-DD' olmalı")
			}
			q = q.Where("date < ?", d.AddDate(0, 0, 1))
		}

		var total int64
		if err := q.Count(&total).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Satışlar sayılamadı")
		}

		var txns []models.PosTransaction
		if err := q.Order("date DESC").
			Offset((page - 1) * limit).
			Limit(limit).
			Find(&txns).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Satışlar listelenemedi")
		}

		resp := make([]SaleResponse, 0, len(txns))
		for _, txn := range txns {
			resp = append(resp, saleToResponse(txn, false))
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

// GET /api/pos/transactions/:id
func GetSaleHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var txn models.PosTransaction
		if err := database.DB.Preload("Lines").First(&txn, "id = ?", c.Params("id")).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Satış bulunamadı")
		}
		return c.JSON(fiber.Map{"data": saleToResponse(txn, true)})
	}
}

// POST /api/pos/transactions/:id/void
// İptal: satırlardaki miktarlar ürün stoklarına geri eklenir
func VoidSaleHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var txn models.PosTransaction
		if err := database.DB.Preload("Lines").First(&txn, "id = ?", c.Params("id")).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Satış bulunamadı")
		}
		if txn.Status != models.PosCompleted {
			return fiber.NewError(fiber.StatusBadRequest, "Satış zaten iptal edilmiş")
		}

		now := time.Now()
		err := database.DB.Transaction(func(tx *gorm.DB) error {
			for _, line := range txn.Lines {
				if err := tx.Model(&models.Product{}).
					Where("id = ?", line.ProductID).
					Update("stock", gorm.Expr("stock + ?", line.Quantity)).Error; err != nil {
					return err
				}
			}

			txn.Status = models.PosVoided
			txn.VoidedAt = &now
			return tx.Save(&txn).Error
		})
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Satış iptal edilemedi")
		}

		userID, userName, uerr := getUserInfo(c)
		if uerr == nil {
			_ = audit.WriteLog(audit.LogOptions{
				UserID:      userID,
				UserName:    userName,
				EntityType:  "pos_transaction",
				EntityID:    txn.ID,
				Action:      models.AuditActionUpdate,
				Description: fmt.Sprintf("Satış iptal edildi: %s", txn.ReceiptNo),
				Before:      nil,
				After:       txn,
			})
		}

		return c.JSON(fiber.Map{"data": saleToResponse(txn, true)})
	}
}

// GET /api/pos/summary/daily?date=
// Günün satış özeti: fiş sayısı, ciro, ödeme yöntemi kırılımı
func DailySummaryHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		day := time.Now()
		if dateStr := c.Query("date"); dateStr != "" {
			d, err := time.Parse("2006-01-02", dateStr)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "Tarih formatı 'YYYY-MM-DD' olmalı")
			}
			day = d
		}
		dayStart := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
		dayEnd := dayStart.AddDate(0, 0, 1)

		var txns []models.PosTransaction
		if err := database.DB.
			Where("status = ? AND date >= ? AND date < ?", models.PosCompleted, dayStart, dayEnd).
			Find(&txns).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Satış özeti alınamadı")
		}

		totalAmount := decimal.Zero
		cashAmount := decimal.Zero
		cardAmount := decimal.Zero
		for _, txn := range txns {
			totalAmount = totalAmount.Add(txn.TotalAmount)
			switch txn.PaymentMethod {
			case models.PaymentCash:
				cashAmount = cashAmount.Add(txn.TotalAmount)
			case models.PaymentCard:
				cardAmount = cardAmount.Add(txn.TotalAmount)
			}
		}

		return c.JSON(fiber.Map{
			"data": fiber.Map{
				"date":              dayStart.Format("2006-01-02"),
				"transaction_count": len(txns),
				"total_amount":      totalAmount,
				"cash_amount":       cashAmount,
				"card_amount":       cardAmount,
			},
		})
	}
}
