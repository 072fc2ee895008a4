package audit

import (
	"encoding/json"
	"fmt"
	"time"

	"stokpos-backend/internal/database"
	"stokpos-backend/internal/models"
)

type LogOptions struct {
	UserID      uint
	UserName    string
	EntityType  string
	EntityID    uint
	Action      models.AuditAction
	Description string
	Before      any
	After       any
}

func WriteLog(opts LogOptions) error {
	// PostgreSQL jsonb için boş string yerine "null" JSON string'i kullanmalıyız
	beforeStr := "null"
	afterStr := "null"

	if opts.Before != nil {
		if b, err := json.Marshal(opts.Before); err == nil {
			beforeStr = string(b)
		}
	}
	if opts.After != nil {
		if b, err := json.Marshal(opts.After); err == nil {
			afterStr = string(b)
		}
	}

	log := models.AuditLog{
		UserID:      opts.UserID,
		UserName:    opts.UserName,
		EntityType:  opts.EntityType,
		EntityID:    opts.EntityID,
		Action:      opts.Action,
		Description: opts.Description,
		BeforeData:  beforeStr,
		AfterData:   afterStr,
		Undone:      false,
		IsUndone:    false,
	}

	if err := database.DB.Create(&log).Error; err != nil {
		return fmt.Errorf("audit log kaydedilemedi: %w", err)
	}

	return nil
}

// UndoLog - Bir audit log'u undo et
// Sadece basit katalog entity'leri geri alınabilir; stok hareketi doğuran
// işlemler (POS satışı, mutabakat onayı) geri alınamaz.
func UndoLog(logID uint, userID uint, userName string) error {
	var log models.AuditLog
	if err := database.DB.First(&log, "id = ?", logID).Error; err != nil {
		return fmt.Errorf("log bulunamadı: %w", err)
	}

	// Zaten undo edilmiş mi?
	if log.IsUndone {
		return fmt.Errorf("bu işlem zaten geri alınmış")
	}

	switch log.Action {
	case models.AuditActionCreate:
		// Create ise entity'yi sil
		if err := deleteEntity(log.EntityType, log.EntityID); err != nil {
			return fmt.Errorf("entity silinemedi: %w", err)
		}

	case models.AuditActionUpdate:
		// Update ise önceki haline geri döndür
		if err := restoreEntity(log.EntityType, log.EntityID, log.BeforeData); err != nil {
			return fmt.Errorf("entity geri yüklenemedi: %w", err)
		}

	case models.AuditActionDelete:
		// Delete ise entity'yi geri oluştur
		if err := recreateEntity(log.EntityType, log.AfterData); err != nil {
			return fmt.Errorf("entity geri oluşturulamadı: %w", err)
		}

	default:
		return fmt.Errorf("bu işlem türü geri alınamaz")
	}

	// Log'u işaretle
	now := time.Now()
	log.IsUndone = true
	log.UndoneBy = &userID
	log.UndoneAt = &now

	if err := database.DB.Save(&log).Error; err != nil {
		return fmt.Errorf("log güncellenemedi: %w", err)
	}

	// Undo işlemi için yeni bir log oluştur
	undoLog := models.AuditLog{
		UserID:      userID,
		UserName:    userName,
		EntityType:  log.EntityType,
		EntityID:    log.EntityID,
		Action:      models.AuditActionUndo,
		Description: fmt.Sprintf("Geri alındı: %s", log.Description),
		BeforeData:  log.AfterData,
		AfterData:   log.BeforeData,
		Undone:      true,
		IsUndone:    false,
	}

	if err := database.DB.Create(&undoLog).Error; err != nil {
		return fmt.Errorf("undo log kaydedilemedi: %w", err)
	}

	return nil
}

func deleteEntity(entityType string, entityID uint) error {
	switch entityType {
	case "brand":
		return database.DB.Delete(&models.Brand{}, "id = ?", entityID).Error
	case "category":
		return database.DB.Delete(&models.Category{}, "id = ?", entityID).Error
	case "supplier":
		return database.DB.Delete(&models.Supplier{}, "id = ?", entityID).Error
	case "product":
		return database.DB.Delete(&models.Product{}, "id = ?", entityID).Error
	default:
		return fmt.Errorf("bilinmeyen veya geri alınamaz entity tipi: %s", entityType)
	}
}

func recreateEntity(entityType string, dataJSON string) error {
	switch entityType {
	case "brand":
		var brand models.Brand
		if err := json.Unmarshal([]byte(dataJSON), &brand); err != nil {
			return err
		}
		brand.ID = 0 // Yeni entity oluştur
		return database.DB.Create(&brand).Error

	case "category":
		var category models.Category
		if err := json.Unmarshal([]byte(dataJSON), &category); err != nil {
			return err
		}
		category.ID = 0
		return database.DB.Create(&category).Error

	case "supplier":
		var supplier models.Supplier
		if err := json.Unmarshal([]byte(dataJSON), &supplier); err != nil {
			return err
		}
		supplier.ID = 0
		return database.DB.Create(&supplier).Error

	case "product":
		var product models.Product
		if err := json.Unmarshal([]byte(dataJSON), &product); err != nil {
			return err
		}
		product.ID = 0
		return database.DB.Create(&product).Error

	default:
		return fmt.Errorf("bilinmeyen veya geri alınamaz entity tipi: %s", entityType)
	}
}

func restoreEntity(entityType string, entityID uint, dataJSON string) error {
	switch entityType {
	case "brand":
		var brand models.Brand
		if err := json.Unmarshal([]byte(dataJSON), &brand); err != nil {
			return err
		}
		return database.DB.Model(&models.Brand{}).Where("id = ?", entityID).Updates(map[string]interface{}{
			"name":        brand.Name,
			"description": brand.Description,
		}).Error

	case "category":
		var category models.Category
		if err := json.Unmarshal([]byte(dataJSON), &category); err != nil {
			return err
		}
		return database.DB.Model(&models.Category{}).Where("id = ?", entityID).Updates(map[string]interface{}{
			"name":      category.Name,
			"parent_id": category.ParentID,
		}).Error

	case "supplier":
		var supplier models.Supplier
		if err := json.Unmarshal([]byte(dataJSON), &supplier); err != nil {
			return err
		}
		return database.DB.Model(&models.Supplier{}).Where("id = ?", entityID).Updates(map[string]interface{}{
			"name":           supplier.Name,
			"contact_person": supplier.ContactPerson,
			"phone":          supplier.Phone,
			"email":          supplier.Email,
			"address":        supplier.Address,
			"status":         supplier.Status,
		}).Error

	case "product":
		var product models.Product
		if err := json.Unmarshal([]byte(dataJSON), &product); err != nil {
			return err
		}
		return database.DB.Model(&models.Product{}).Where("id = ?", entityID).Updates(map[string]interface{}{
			"name":        product.Name,
			"sku":         product.SKU,
			"barcode":     product.Barcode,
			"brand_id":    product.BrandID,
			"category_id": product.CategoryID,
			"supplier_id": product.SupplierID,
			"unit":        product.Unit,
			"cost":        product.Cost,
			"price":       product.Price,
			"stock":       product.Stock,
			"min_stock":   product.MinStock,
			"status":      product.Status,
		}).Error

	default:
		return fmt.Errorf("bilinmeyen veya geri alınamaz entity tipi: %s", entityType)
	}
}
