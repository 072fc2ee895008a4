package purchase_test

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
	"stokpos-backend/internal/purchase"
)

func setupApp(t *testing.T) *fiber.App {
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
	api.Post("/purchase-orders", purchase.CreatePurchaseOrderHandler())
	api.Get("/purchase-orders/:id", purchase.GetPurchaseOrderHandler())
	api.Post("/purchase-orders/:id/order", purchase.MarkOrderedHandler())
	api.Post("/purchase-orders/:id/receive", purchase.ReceivePurchaseOrderHandler())
	api.Post("/purchase-orders/:id/cancel", purchase.CancelPurchaseOrderHandler())

	return app
}

func seedSupplier(t *testing.T, name string, status models.SupplierStatus) models.Supplier {
	t.Helper()
	supplier := models.Supplier{Name: name, Status: status}
	require.NoError(t, database.DB.Create(&supplier).Error)
	return supplier
}

func seedProduct(t *testing.T, name, sku string, stock int, cost string) models.Product {
	t.Helper()
	cat := models.Category{Name: "Test Kategori " + sku}
	require.NoError(t, database.DB.Create(&cat).Error)
	product := models.Product{
		Name:       name,
		SKU:        sku,
		CategoryID: cat.ID,
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

type orderPayload struct {
	ID          uint            `json:"id"`
	OrderNo     string          `json:"order_no"`
	Status      string          `json:"status"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	Items       []struct {
		ProductID uint            `json:"product_id"`
		Quantity  int             `json:"quantity"`
		UnitCost  decimal.Decimal `json:"unit_cost"`
	} `json:"items"`
}

func TestCreatePurchaseOrder_TotalComputedOnServer(t *testing.T) {
	// GIVEN
	app := setupApp(t)
	supplier := seedSupplier(t, "Anadolu Gıda", models.SupplierActive)
	cola := seedProduct(t, "Kola 1L", "KOLA-1L", 5, "12.50")

	// WHEN: Birim maliyet verilmeden 10 adet sipariş edilir
	resp, envelope := doJSON(t, app, "POST", "/api/purchase-orders", fiber.Map{
		"supplier_id": supplier.ID,
		"items":       []fiber.Map{{"product_id": cola.ID, "quantity": 10}},
	})

	// THEN: Maliyet üründen çözülür, toplam sunucuda hesaplanır
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	var order orderPayload
	require.NoError(t, json.Unmarshal(envelope["data"], &order))
	assert.Equal(t, "draft", order.Status)
	assert.True(t, strings.HasPrefix(order.OrderNo, "PO-"))
	assert.True(t, order.TotalAmount.Equal(decimal.RequireFromString("125")), "beklenen 125, gelen %s", order.TotalAmount)
	require.Len(t, order.Items, 1)
	assert.True(t, order.Items[0].UnitCost.Equal(decimal.RequireFromString("12.50")))

	// Taslak aşamasında stok değişmez
	var saved models.Product
	require.NoError(t, database.DB.First(&saved, cola.ID).Error)
	assert.Equal(t, 5, saved.Stock)
}

func TestCreatePurchaseOrder_PassiveSupplierRejected(t *testing.T) {
	app := setupApp(t)
	supplier := seedSupplier(t, "Kapanan Tedarikçi", models.SupplierPassive)
	cola := seedProduct(t, "Kola 1L", "KOLA-1L", 5, "12.50")

	resp, _ := doJSON(t, app, "POST", "/api/purchase-orders", fiber.Map{
		"supplier_id": supplier.ID,
		"items":       []fiber.Map{{"product_id": cola.ID, "quantity": 10}},
	})

	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestReceivePurchaseOrder_IncrementsStock(t *testing.T) {
	// GIVEN: Verilmiş sipariş
	app := setupApp(t)
	supplier := seedSupplier(t, "Anadolu Gıda", models.SupplierActive)
	cola := seedProduct(t, "Kola 1L", "KOLA-1L", 5, "12.50")
	water := seedProduct(t, "Su 0.5L", "SU-05L", 0, "2.00")

	resp, envelope := doJSON(t, app, "POST", "/api/purchase-orders", fiber.Map{
		"supplier_id": supplier.ID,
		"items": []fiber.Map{
			{"product_id": cola.ID, "quantity": 10},
			{"product_id": water.ID, "quantity": 24},
		},
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	var order orderPayload
	require.NoError(t, json.Unmarshal(envelope["data"], &order))

	resp, _ = doJSON(t, app, "POST", fmt.Sprintf("/api/purchase-orders/%d/order", order.ID), nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	// WHEN: Mal kabul yapılır
	resp, envelope = doJSON(t, app, "POST", fmt.Sprintf("/api/purchase-orders/%d/receive", order.ID), nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(envelope["data"], &order))
	assert.Equal(t, "received", order.Status)

	// THEN: Kalem miktarları stoklara eklenir
	var savedCola, savedWater models.Product
	require.NoError(t, database.DB.First(&savedCola, cola.ID).Error)
	require.NoError(t, database.DB.First(&savedWater, water.ID).Error)
	assert.Equal(t, 15, savedCola.Stock)
	assert.Equal(t, 24, savedWater.Stock)
}

func TestReceivePurchaseOrder_DraftCannotBeReceived(t *testing.T) {
	// GIVEN: Henüz verilmemiş taslak
	app := setupApp(t)
	supplier := seedSupplier(t, "Anadolu Gıda", models.SupplierActive)
	cola := seedProduct(t, "Kola 1L", "KOLA-1L", 5, "12.50")

	resp, envelope := doJSON(t, app, "POST", "/api/purchase-orders", fiber.Map{
		"supplier_id": supplier.ID,
		"items":       []fiber.Map{{"product_id": cola.ID, "quantity": 10}},
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	var order orderPayload
	require.NoError(t, json.Unmarshal(envelope["data"], &order))

	// WHEN: Taslak doğrudan mal kabul edilmek istenir
	resp, _ = doJSON(t, app, "POST", fmt.Sprintf("/api/purchase-orders/%d/receive", order.ID), nil)

	// THEN: Reddedilir, stok değişmez
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	var saved models.Product
	require.NoError(t, database.DB.First(&saved, cola.ID).Error)
	assert.Equal(t, 5, saved.Stock)
}

func TestCancelPurchaseOrder_ReceivedCannotBeCancelled(t *testing.T) {
	// GIVEN: Mal kabulü yapılmış sipariş
	app := setupApp(t)
	supplier := seedSupplier(t, "Anadolu Gıda", models.SupplierActive)
	cola := seedProduct(t, "Kola 1L", "KOLA-1L", 5, "12.50")

	resp, envelope := doJSON(t, app, "POST", "/api/purchase-orders", fiber.Map{
		"supplier_id": supplier.ID,
		"items":       []fiber.Map{{"product_id": cola.ID, "quantity": 10}},
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	var order orderPayload
	require.NoError(t, json.Unmarshal(envelope["data"], &order))

	resp, _ = doJSON(t, app, "POST", fmt.Sprintf("/api/purchase-orders/%d/order", order.ID), nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	resp, _ = doJSON(t, app, "POST", fmt.Sprintf("/api/purchase-orders/%d/receive", order.ID), nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	// WHEN/THEN
	resp, _ = doJSON(t, app, "POST", fmt.Sprintf("/api/purchase-orders/%d/cancel", order.ID), nil)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}
