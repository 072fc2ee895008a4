package reconciliation_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"stokpos-backend/internal/auth"
	"stokpos-backend/internal/database"
	"stokpos-backend/internal/models"
	"stokpos-backend/internal/reconciliation"
)

// -------------------------
// Test Setup
// -------------------------

func setupApp(t *testing.T) (*fiber.App, models.User) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	database.DB = db

	user := models.User{Name: "Test Operatör", Email: "op@test.local", PasswordHash: "x", Role: models.RoleOperator}
	require.NoError(t, db.Create(&user).Error)

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if e, ok := err.(*fiber.Error); ok {
				return c.Status(e.Code).JSON(fiber.Map{"error": e.Message})
			}
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		},
	})
	app.Use(func(c *fiber.Ctx) error {
		c.Locals(auth.CtxUserIDKey, user.ID)
		c.Locals(auth.CtxUserRoleKey, user.Role)
		return c.Next()
	})

	api := app.Group("/api")
	api.Post("/reconciliations", reconciliation.CreateReconciliationHandler())
	api.Get("/reconciliations", reconciliation.ListReconciliationsHandler())
	api.Get("/reconciliations/:id", reconciliation.GetReconciliationHandler())
	api.Delete("/reconciliations/:id", reconciliation.DeleteReconciliationHandler())
	api.Post("/reconciliations/:id/items", reconciliation.AddItemHandler())
	api.Put("/reconciliations/:id/items/:itemID", reconciliation.UpdateItemHandler())
	api.Delete("/reconciliations/:id/items/:itemID", reconciliation.DeleteItemHandler())
	api.Post("/reconciliations/:id/load-snapshot", reconciliation.LoadSnapshotHandler())
	api.Post("/reconciliations/:id/submit", reconciliation.SubmitReconciliationHandler())
	api.Post("/reconciliations/:id/approve", reconciliation.ApproveReconciliationHandler())
	api.Post("/reconciliations/:id/reject", reconciliation.RejectReconciliationHandler())

	return app, user
}

func seedCategory(t *testing.T, name string, parentID *uint) models.Category {
	t.Helper()
	cat := models.Category{Name: name, ParentID: parentID}
	require.NoError(t, database.DB.Create(&cat).Error)
	return cat
}

func seedProduct(t *testing.T, name, sku string, categoryID uint, stock int, cost string) models.Product {
	t.Helper()
	product := models.Product{
		Name:       name,
		SKU:        sku,
		CategoryID: categoryID,
		Unit:       "adet",
		Cost:       decimal.RequireFromString(cost),
		Price:      decimal.RequireFromString(cost).Mul(decimal.NewFromInt(2)),
		Stock:      stock,
		Status:     models.ProductActive,
	}
	require.NoError(t, database.DB.Create(&product).Error)
	return product
}

func doJSON(t *testing.T, app *fiber.App, method, path string, body any) (*http.Response, map[string]json.RawMessage) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	envelope := map[string]json.RawMessage{}
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &envelope), "gövde çözümlenemedi: %s", raw)
	}
	return resp, envelope
}

type itemPayload struct {
	ID              uint            `json:"id"`
	ProductID       uint            `json:"product_id"`
	SystemCount     int             `json:"system_count"`
	PhysicalCount   int             `json:"physical_count"`
	Discrepancy     int             `json:"discrepancy"`
	UnitCost        decimal.Decimal `json:"unit_cost"`
	EstimatedImpact decimal.Decimal `json:"estimated_impact"`
}

type reconPayload struct {
	ID               uint            `json:"id"`
	Title            string          `json:"title"`
	Status           string          `json:"status"`
	ItemCount        int             `json:"item_count"`
	TotalDiscrepancy int             `json:"total_discrepancy"`
	TotalImpact      decimal.Decimal `json:"total_impact"`
	Items            []itemPayload   `json:"items"`
}

func decodeRecon(t *testing.T, envelope map[string]json.RawMessage) reconPayload {
	t.Helper()
	var payload reconPayload
	require.NoError(t, json.Unmarshal(envelope["data"], &payload))
	return payload
}

// -------------------------
// Creation
// -------------------------

func TestCreateReconciliation_EmptyTitleRejected(t *testing.T) {
	// GIVEN
	app, _ := setupApp(t)
	cat := seedCategory(t, "İçecekler", nil)
	product := seedProduct(t, "Kola 1L", "KOLA-1L", cat.ID, 10, "12.50")

	// WHEN: Başlık boşlukla doldurulmuş olsa bile
	resp, envelope := doJSON(t, app, "POST", "/api/reconciliations", fiber.Map{
		"title": "   ",
		"items": []fiber.Map{{"product_id": product.ID, "system_count": 10, "physical_count": 12}},
	})

	// THEN: 400 döner ve hiçbir kayıt yazılmaz
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, string(envelope["error"]), "Title")

	var count int64
	database.DB.Model(&models.Reconciliation{}).Count(&count)
	assert.Equal(t, int64(0), count)
}

func TestCreateReconciliation_NoItemsRejected(t *testing.T) {
	app, _ := setupApp(t)

	resp, _ := doJSON(t, app, "POST", "/api/reconciliations", fiber.Map{
		"title": "Aralık sayımı",
		"items": []fiber.Map{},
	})

	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestCreateReconciliation_DuplicateProductRowsRejected(t *testing.T) {
	// GIVEN
	app, _ := setupApp(t)
	cat := seedCategory(t, "İçecekler", nil)
	product := seedProduct(t, "Kola 1L", "KOLA-1L", cat.ID, 10, "12.50")

	// WHEN: Aynı ürün iki satırda
	resp, _ := doJSON(t, app, "POST", "/api/reconciliations", fiber.Map{
		"title": "Aralık sayımı",
		"items": []fiber.Map{
			{"product_id": product.ID, "system_count": 10, "physical_count": 12},
			{"product_id": product.ID, "system_count": 10, "physical_count": 8},
		},
	})

	// THEN
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	var count int64
	database.DB.Model(&models.Reconciliation{}).Count(&count)
	assert.Equal(t, int64(0), count)
}

func TestCreateReconciliation_UnknownProductRollsBackEverything(t *testing.T) {
	// GIVEN
	app, _ := setupApp(t)
	cat := seedCategory(t, "İçecekler", nil)
	product := seedProduct(t, "Kola 1L", "KOLA-1L", cat.ID, 10, "12.50")

	// WHEN: Geçerli bir satır + var olmayan ürün
	resp, _ := doJSON(t, app, "POST", "/api/reconciliations", fiber.Map{
		"title": "Aralık sayımı",
		"items": []fiber.Map{
			{"product_id": product.ID, "system_count": 10, "physical_count": 12},
			{"product_id": 9999, "system_count": 1, "physical_count": 1},
		},
	})

	// THEN: Kısmi kayıt kalmaz
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	var reconCount, itemCount int64
	database.DB.Model(&models.Reconciliation{}).Count(&reconCount)
	database.DB.Model(&models.ReconciliationItem{}).Count(&itemCount)
	assert.Equal(t, int64(0), reconCount)
	assert.Equal(t, int64(0), itemCount)
}

func TestCreateReconciliation_ImpactComputedFromProductCost(t *testing.T) {
	// GIVEN: Maliyeti 12.50 olan ürün
	app, _ := setupApp(t)
	cat := seedCategory(t, "İçecekler", nil)
	product := seedProduct(t, "Kola 1L", "KOLA-1L", cat.ID, 10, "12.50")

	// WHEN: Fiziksel sayım 2 fazla
	resp, envelope := doJSON(t, app, "POST", "/api/reconciliations", fiber.Map{
		"title": "Aralık sayımı",
		"items": []fiber.Map{
			{"product_id": product.ID, "system_count": 10, "physical_count": 12},
		},
	})

	// THEN: Birim maliyet üründen çözülür, etki sunucuda hesaplanır
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	payload := decodeRecon(t, envelope)
	assert.Equal(t, "draft", payload.Status)
	require.Len(t, payload.Items, 1)
	assert.Equal(t, 2, payload.Items[0].Discrepancy)
	assert.True(t, payload.Items[0].UnitCost.Equal(decimal.RequireFromString("12.50")))
	assert.True(t, payload.Items[0].EstimatedImpact.Equal(decimal.RequireFromString("25")))
	assert.Equal(t, 2, payload.TotalDiscrepancy)
	assert.True(t, payload.TotalImpact.Equal(decimal.RequireFromString("25")))
}

// -------------------------
// Manual item add
// -------------------------

func TestAddItem_DuplicateLeavesItemsUnchanged(t *testing.T) {
	// GIVEN: Üründen satırı olan taslak
	app, _ := setupApp(t)
	cat := seedCategory(t, "İçecekler", nil)
	product := seedProduct(t, "Kola 1L", "KOLA-1L", cat.ID, 10, "12.50")

	resp, envelope := doJSON(t, app, "POST", "/api/reconciliations", fiber.Map{
		"title": "Aralık sayımı",
		"items": []fiber.Map{{"product_id": product.ID, "system_count": 10, "physical_count": 12}},
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	recon := decodeRecon(t, envelope)

	// WHEN: Aynı ürün tekrar eklenmek istenir
	resp, _ = doJSON(t, app, "POST", fmt.Sprintf("/api/reconciliations/%d/items", recon.ID), fiber.Map{
		"product_id": product.ID,
	})

	// THEN: 409 döner, satırlar ve sayım değerleri aynen kalır
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)

	var items []models.ReconciliationItem
	database.DB.Where("reconciliation_id = ?", recon.ID).Find(&items)
	require.Len(t, items, 1)
	assert.Equal(t, 12, items[0].PhysicalCount)
}

func TestAddItem_SeedsPhysicalFromCurrentStock(t *testing.T) {
	// GIVEN
	app, _ := setupApp(t)
	cat := seedCategory(t, "İçecekler", nil)
	first := seedProduct(t, "Kola 1L", "KOLA-1L", cat.ID, 10, "12.50")
	second := seedProduct(t, "Su 0.5L", "SU-05L", cat.ID, 37, "2.00")

	resp, envelope := doJSON(t, app, "POST", "/api/reconciliations", fiber.Map{
		"title": "Aralık sayımı",
		"items": []fiber.Map{{"product_id": first.ID, "system_count": 10, "physical_count": 10}},
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	recon := decodeRecon(t, envelope)

	// WHEN: İkinci ürün manuel eklenir
	resp, envelope = doJSON(t, app, "POST", fmt.Sprintf("/api/reconciliations/%d/items", recon.ID), fiber.Map{
		"product_id": second.ID,
	})

	// THEN: Satır o anki sistem stoğuyla açılır, fiziksel = sistem
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	var item itemPayload
	require.NoError(t, json.Unmarshal(envelope["data"], &item))
	assert.Equal(t, 37, item.SystemCount)
	assert.Equal(t, 37, item.PhysicalCount)
	assert.Equal(t, 0, item.Discrepancy)
}

// -------------------------
// Snapshot load
// -------------------------

func TestLoadSnapshot_EmptySelectionRejected(t *testing.T) {
	// GIVEN
	app, _ := setupApp(t)
	cat := seedCategory(t, "İçecekler", nil)
	product := seedProduct(t, "Kola 1L", "KOLA-1L", cat.ID, 10, "12.50")

	resp, envelope := doJSON(t, app, "POST", "/api/reconciliations", fiber.Map{
		"title": "Aralık sayımı",
		"items": []fiber.Map{{"product_id": product.ID, "system_count": 10, "physical_count": 12}},
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	recon := decodeRecon(t, envelope)

	// WHEN: Boş kategori seçimiyle yükleme denenir
	resp, _ = doJSON(t, app, "POST", fmt.Sprintf("/api/reconciliations/%d/load-snapshot", recon.ID), fiber.Map{
		"category_ids": []uint{},
	})

	// THEN: 400 döner, mevcut satırlar korunur
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	var count int64
	database.DB.Model(&models.ReconciliationItem{}).Where("reconciliation_id = ?", recon.ID).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestLoadSnapshot_ReplacesExistingRows(t *testing.T) {
	// GIVEN: Taslakta başka kategoriden manuel satır var
	app, _ := setupApp(t)
	drinks := seedCategory(t, "İçecekler", nil)
	snacks := seedCategory(t, "Atıştırmalık", nil)
	cola := seedProduct(t, "Kola 1L", "KOLA-1L", drinks.ID, 10, "12.50")
	water := seedProduct(t, "Su 0.5L", "SU-05L", drinks.ID, 0, "2.00")
	chips := seedProduct(t, "Cips", "CIPS-01", snacks.ID, 5, "8.00")

	resp, envelope := doJSON(t, app, "POST", "/api/reconciliations", fiber.Map{
		"title": "Aralık sayımı",
		"items": []fiber.Map{{"product_id": chips.ID, "system_count": 5, "physical_count": 4}},
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	recon := decodeRecon(t, envelope)

	// WHEN: İçecekler kategorisi yüklenir
	resp, envelope = doJSON(t, app, "POST", fmt.Sprintf("/api/reconciliations/%d/load-snapshot", recon.ID), fiber.Map{
		"category_ids": []uint{drinks.ID},
	})

	// THEN: Ekleme değil tam değiştirme - eski satır gider, kapsamdaki
	// ürünler fiziksel = sistem olacak şekilde gelir
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	payload := decodeRecon(t, envelope)
	require.Len(t, payload.Items, 2)

	byProduct := map[uint]itemPayload{}
	for _, item := range payload.Items {
		byProduct[item.ProductID] = item
	}
	require.Contains(t, byProduct, cola.ID)
	require.Contains(t, byProduct, water.ID)
	assert.NotContains(t, byProduct, chips.ID)
	assert.Equal(t, 10, byProduct[cola.ID].SystemCount)
	assert.Equal(t, 10, byProduct[cola.ID].PhysicalCount)
	assert.Equal(t, 0, byProduct[water.ID].SystemCount)
	assert.Equal(t, 0, byProduct[water.ID].PhysicalCount)
}

func TestLoadSnapshot_IncludesDescendantCategories(t *testing.T) {
	// GIVEN: İçecekler > Gazlı; ürün alt kategoride
	app, _ := setupApp(t)
	drinks := seedCategory(t, "İçecekler", nil)
	fizzy := seedCategory(t, "Gazlı", &drinks.ID)
	cola := seedProduct(t, "Kola 1L", "KOLA-1L", fizzy.ID, 10, "12.50")

	resp, envelope := doJSON(t, app, "POST", "/api/reconciliations", fiber.Map{
		"title": "Aralık sayımı",
		"items": []fiber.Map{{"product_id": cola.ID, "system_count": 1, "physical_count": 1}},
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	recon := decodeRecon(t, envelope)

	// WHEN: Sadece üst kategori seçilir
	resp, envelope = doJSON(t, app, "POST", fmt.Sprintf("/api/reconciliations/%d/load-snapshot", recon.ID), fiber.Map{
		"category_ids": []uint{drinks.ID},
	})

	// THEN: Alt kategorideki ürün kapsamdadır
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	payload := decodeRecon(t, envelope)
	require.Len(t, payload.Items, 1)
	assert.Equal(t, cola.ID, payload.Items[0].ProductID)
}

func TestLoadSnapshot_ExcludeZeroStock(t *testing.T) {
	app, _ := setupApp(t)
	drinks := seedCategory(t, "İçecekler", nil)
	cola := seedProduct(t, "Kola 1L", "KOLA-1L", drinks.ID, 10, "12.50")
	seedProduct(t, "Su 0.5L", "SU-05L", drinks.ID, 0, "2.00")

	resp, envelope := doJSON(t, app, "POST", "/api/reconciliations", fiber.Map{
		"title": "Aralık sayımı",
		"items": []fiber.Map{{"product_id": cola.ID, "system_count": 1, "physical_count": 1}},
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	recon := decodeRecon(t, envelope)

	resp, envelope = doJSON(t, app, "POST", fmt.Sprintf("/api/reconciliations/%d/load-snapshot", recon.ID), fiber.Map{
		"category_ids": []uint{drinks.ID},
		"include_zero": false,
	})

	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	payload := decodeRecon(t, envelope)
	require.Len(t, payload.Items, 1)
	assert.Equal(t, cola.ID, payload.Items[0].ProductID)
}

// -------------------------
// Submit / approve / reject
// -------------------------

func TestSubmit_EmptyReconciliationRejected(t *testing.T) {
	// GIVEN: Satırsız taslak (doğrudan DB'ye yazılmış)
	app, user := setupApp(t)
	recon := models.Reconciliation{Title: "Boş sayım", Status: models.ReconStatusDraft, CreatedBy: user.ID, CreatorName: user.Name}
	require.NoError(t, database.DB.Create(&recon).Error)

	// WHEN
	resp, _ := doJSON(t, app, "POST", fmt.Sprintf("/api/reconciliations/%d/submit", recon.ID), nil)

	// THEN: Taslak olarak kalır
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	var saved models.Reconciliation
	require.NoError(t, database.DB.First(&saved, recon.ID).Error)
	assert.Equal(t, models.ReconStatusDraft, saved.Status)
}

func TestSubmitThenApprove_AppliesPhysicalCounts(t *testing.T) {
	// GIVEN: Fiziksel sayımı sistemden farklı taslak
	app, _ := setupApp(t)
	cat := seedCategory(t, "İçecekler", nil)
	cola := seedProduct(t, "Kola 1L", "KOLA-1L", cat.ID, 10, "12.50")
	water := seedProduct(t, "Su 0.5L", "SU-05L", cat.ID, 8, "2.00")

	resp, envelope := doJSON(t, app, "POST", "/api/reconciliations", fiber.Map{
		"title": "Aralık sayımı",
		"items": []fiber.Map{
			{"product_id": cola.ID, "system_count": 10, "physical_count": 12},
			{"product_id": water.ID, "system_count": 8, "physical_count": 5, "discrepancy_reason": "damage"},
		},
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	recon := decodeRecon(t, envelope)

	// WHEN: Onaya gönderilip onaylanır
	resp, envelope = doJSON(t, app, "POST", fmt.Sprintf("/api/reconciliations/%d/submit", recon.ID), nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "pending_approval", decodeRecon(t, envelope).Status)

	resp, envelope = doJSON(t, app, "POST", fmt.Sprintf("/api/reconciliations/%d/approve", recon.ID), nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "approved", decodeRecon(t, envelope).Status)

	// THEN: Sistem stokları fiziksel sayım değerlerine çekilir
	var savedCola, savedWater models.Product
	require.NoError(t, database.DB.First(&savedCola, cola.ID).Error)
	require.NoError(t, database.DB.First(&savedWater, water.ID).Error)
	assert.Equal(t, 12, savedCola.Stock)
	assert.Equal(t, 5, savedWater.Stock)
}

func TestApprove_DraftRejected(t *testing.T) {
	// GIVEN: Henüz onaya gönderilmemiş taslak
	app, _ := setupApp(t)
	cat := seedCategory(t, "İçecekler", nil)
	cola := seedProduct(t, "Kola 1L", "KOLA-1L", cat.ID, 10, "12.50")

	resp, envelope := doJSON(t, app, "POST", "/api/reconciliations", fiber.Map{
		"title": "Aralık sayımı",
		"items": []fiber.Map{{"product_id": cola.ID, "system_count": 10, "physical_count": 12}},
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	recon := decodeRecon(t, envelope)

	// WHEN: Taslak doğrudan onaylanmak istenir
	resp, _ = doJSON(t, app, "POST", fmt.Sprintf("/api/reconciliations/%d/approve", recon.ID), nil)

	// THEN: Reddedilir, stok değişmez
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	var saved models.Product
	require.NoError(t, database.DB.First(&saved, cola.ID).Error)
	assert.Equal(t, 10, saved.Stock)
}

func TestReject_RequiresReason(t *testing.T) {
	// GIVEN: Onay bekleyen sayım
	app, _ := setupApp(t)
	cat := seedCategory(t, "İçecekler", nil)
	cola := seedProduct(t, "Kola 1L", "KOLA-1L", cat.ID, 10, "12.50")

	resp, envelope := doJSON(t, app, "POST", "/api/reconciliations", fiber.Map{
		"title": "Aralık sayımı",
		"items": []fiber.Map{{"product_id": cola.ID, "system_count": 10, "physical_count": 12}},
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	recon := decodeRecon(t, envelope)

	resp, _ = doJSON(t, app, "POST", fmt.Sprintf("/api/reconciliations/%d/submit", recon.ID), nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	// WHEN/THEN: Sebepsiz ret kabul edilmez
	resp, _ = doJSON(t, app, "POST", fmt.Sprintf("/api/reconciliations/%d/reject", recon.ID), fiber.Map{})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	// Sebeple ret edilir, stok değişmez
	resp, envelope = doJSON(t, app, "POST", fmt.Sprintf("/api/reconciliations/%d/reject", recon.ID), fiber.Map{
		"reason": "Sayım eksik yapılmış",
	})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "rejected", decodeRecon(t, envelope).Status)

	var saved models.Product
	require.NoError(t, database.DB.First(&saved, cola.ID).Error)
	assert.Equal(t, 10, saved.Stock)
}

func TestUpdateItem_RecomputesImpact(t *testing.T) {
	// GIVEN
	app, _ := setupApp(t)
	cat := seedCategory(t, "İçecekler", nil)
	cola := seedProduct(t, "Kola 1L", "KOLA-1L", cat.ID, 10, "12.50")

	resp, envelope := doJSON(t, app, "POST", "/api/reconciliations", fiber.Map{
		"title": "Aralık sayımı",
		"items": []fiber.Map{{"product_id": cola.ID, "system_count": 10, "physical_count": 10}},
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	recon := decodeRecon(t, envelope)
	require.Len(t, recon.Items, 1)

	// WHEN: Fiziksel sayım güncellenir
	resp, envelope = doJSON(t, app, "PUT",
		fmt.Sprintf("/api/reconciliations/%d/items/%d", recon.ID, recon.Items[0].ID),
		fiber.Map{"physical_count": 7, "discrepancy_reason": "theft"})

	// THEN: Fark ve etki sunucuda yeniden hesaplanır
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var item itemPayload
	require.NoError(t, json.Unmarshal(envelope["data"], &item))
	assert.Equal(t, -3, item.Discrepancy)
	assert.True(t, item.EstimatedImpact.Equal(decimal.RequireFromString("-37.50")), "beklenen -37.50, gelen %s", item.EstimatedImpact)
}
