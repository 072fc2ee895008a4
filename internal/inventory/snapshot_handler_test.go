package inventory_test

import (
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

	"stokpos-backend/internal/database"
	"stokpos-backend/internal/inventory"
	"stokpos-backend/internal/models"
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

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if e, ok := err.(*fiber.Error); ok {
				return c.Status(e.Code).JSON(fiber.Map{"error": e.Message})
			}
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		},
	})
	app.Get("/api/inventory/snapshot", inventory.InventorySnapshotHandler())
	return app
}

func seedCategory(t *testing.T, name string, parentID *uint) models.Category {
	t.Helper()
	cat := models.Category{Name: name, ParentID: parentID}
	require.NoError(t, database.DB.Create(&cat).Error)
	return cat
}

func seedProduct(t *testing.T, name, sku string, categoryID uint, stock int, status models.ProductStatus) models.Product {
	t.Helper()
	product := models.Product{
		Name:       name,
		SKU:        sku,
		CategoryID: categoryID,
		Unit:       "adet",
		Cost:       decimal.RequireFromString("10.00"),
		Price:      decimal.RequireFromString("20.00"),
		Stock:      stock,
		Status:     status,
	}
	require.NoError(t, database.DB.Create(&product).Error)
	return product
}

func get(t *testing.T, app *fiber.App, path string) (*http.Response, map[string]json.RawMessage) {
	t.Helper()

	req := httptest.NewRequest("GET", path, nil)
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

type snapshotRow struct {
	ID            uint `json:"id"`
	SystemCount   int  `json:"system_count"`
	PhysicalCount int  `json:"physical_count"`
}

func decodeRows(t *testing.T, envelope map[string]json.RawMessage) []snapshotRow {
	t.Helper()
	var rows []snapshotRow
	require.NoError(t, json.Unmarshal(envelope["data"], &rows))
	return rows
}

func TestSnapshot_EmptyCategorySelectionRejected(t *testing.T) {
	// GIVEN
	app := setupApp(t)

	// WHEN: Kategori parametresi hiç verilmemiş / boş
	resp, _ := get(t, app, "/api/inventory/snapshot")

	// THEN: Sorgu atılmadan 400 döner
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp, _ = get(t, app, "/api/inventory/snapshot?category_ids=")
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestSnapshot_InvalidCategoryIDRejected(t *testing.T) {
	app := setupApp(t)

	resp, _ := get(t, app, "/api/inventory/snapshot?category_ids=1,abc")
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestSnapshot_PhysicalSeededFromSystem(t *testing.T) {
	// GIVEN
	app := setupApp(t)
	drinks := seedCategory(t, "İçecekler", nil)
	seedProduct(t, "Kola 1L", "KOLA-1L", drinks.ID, 10, models.ProductActive)
	seedProduct(t, "Su 0.5L", "SU-05L", drinks.ID, 0, models.ProductActive)

	// WHEN
	resp, envelope := get(t, app, fmt.Sprintf("/api/inventory/snapshot?category_ids=%d", drinks.ID))

	// THEN: Her satırda fiziksel sayım sistem stoğuyla aynı döner
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	rows := decodeRows(t, envelope)
	require.Len(t, rows, 2)
	for _, row := range rows {
		assert.Equal(t, row.SystemCount, row.PhysicalCount)
	}
}

func TestSnapshot_DescendantCategoriesResolved(t *testing.T) {
	// GIVEN: Ürünler alt kategoride
	app := setupApp(t)
	drinks := seedCategory(t, "İçecekler", nil)
	fizzy := seedCategory(t, "Gazlı", &drinks.ID)
	cola := seedProduct(t, "Kola 1L", "KOLA-1L", fizzy.ID, 10, models.ProductActive)

	// WHEN: Sadece üst kategori seçilir
	resp, envelope := get(t, app, fmt.Sprintf("/api/inventory/snapshot?category_ids=%d", drinks.ID))

	// THEN
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	rows := decodeRows(t, envelope)
	require.Len(t, rows, 1)
	assert.Equal(t, cola.ID, rows[0].ID)
}

func TestSnapshot_UnknownCategoriesGiveEmptyResult(t *testing.T) {
	// GIVEN: Hiç kategori yok
	app := setupApp(t)

	// WHEN: Var olmayan id'ler seçilir
	resp, envelope := get(t, app, "/api/inventory/snapshot?category_ids=42,43")

	// THEN: Hata değil boş liste
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	rows := decodeRows(t, envelope)
	assert.Empty(t, rows)
}

func TestSnapshot_FiltersZeroStockAndInactive(t *testing.T) {
	// GIVEN
	app := setupApp(t)
	drinks := seedCategory(t, "İçecekler", nil)
	cola := seedProduct(t, "Kola 1L", "KOLA-1L", drinks.ID, 10, models.ProductActive)
	seedProduct(t, "Su 0.5L", "SU-05L", drinks.ID, 0, models.ProductActive)
	seedProduct(t, "Eski Ürün", "ESKI-01", drinks.ID, 3, models.ProductInactive)

	// WHEN: Sıfır stoklular hariç
	resp, envelope := get(t, app, fmt.Sprintf("/api/inventory/snapshot?category_ids=%d&include_zero=false", drinks.ID))

	// THEN: Sadece aktif ve stoklu ürün döner
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	rows := decodeRows(t, envelope)
	require.Len(t, rows, 1)
	assert.Equal(t, cola.ID, rows[0].ID)
}

func TestSnapshot_CursorPagination(t *testing.T) {
	// GIVEN: Limitten fazla ürün
	app := setupApp(t)
	drinks := seedCategory(t, "İçecekler", nil)
	for i := 0; i < 5; i++ {
		seedProduct(t, fmt.Sprintf("Ürün %d", i), fmt.Sprintf("URN-%02d", i), drinks.ID, 10, models.ProductActive)
	}

	// WHEN: İlk sayfa limit 2
	resp, envelope := get(t, app, fmt.Sprintf("/api/inventory/snapshot?category_ids=%d&limit=2", drinks.ID))
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	rows := decodeRows(t, envelope)
	require.Len(t, rows, 2)

	var pagination struct {
		NextCursor *uint `json:"next_cursor"`
	}
	require.NoError(t, json.Unmarshal(envelope["pagination"], &pagination))
	require.NotNil(t, pagination.NextCursor)

	// THEN: İmleçle devam eden sayfalar kesişmez
	resp, envelope = get(t, app, fmt.Sprintf("/api/inventory/snapshot?category_ids=%d&limit=2&after_id=%d", drinks.ID, *pagination.NextCursor))
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	next := decodeRows(t, envelope)
	require.Len(t, next, 2)
	assert.Greater(t, next[0].ID, rows[1].ID)
}
