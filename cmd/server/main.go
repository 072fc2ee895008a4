package main

import (
	"strings"

	"stokpos-backend/internal/admin"
	"stokpos-backend/internal/audit"
	"stokpos-backend/internal/auth"
	"stokpos-backend/internal/catalog"
	"stokpos-backend/internal/config"
	"stokpos-backend/internal/dashboard"
	"stokpos-backend/internal/database"
	"stokpos-backend/internal/inventory"
	"stokpos-backend/internal/models"
	"stokpos-backend/internal/pos"
	"stokpos-backend/internal/purchase"
	"stokpos-backend/internal/reconciliation"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

func main() {
	if err := godotenv.Load(); err != nil {
		logrus.Info(".env dosyası bulunamadı, environment değişkenleri kullanılıyor")
	}

	cfg := config.Load()
	database.Init(cfg)

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if e, ok := err.(*fiber.Error); ok {
				return c.Status(e.Code).JSON(fiber.Map{
					"error": e.Message,
				})
			}
			logrus.WithError(err).Error("Beklenmeyen hata")
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Beklenmeyen sunucu hatası",
			})
		},
	})

	// CORS origins'i virgülle ayrılmış string'den array'e çevir
	corsOrigins := strings.Split(cfg.CORSOrigins, ",")
	for i := range corsOrigins {
		corsOrigins[i] = strings.TrimSpace(corsOrigins[i])
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(corsOrigins, ","),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
	}))

	api := app.Group("/api")

	// Public auth
	api.Post("/auth/register-admin", auth.RegisterAdminHandler(cfg))
	api.Post("/auth/login", auth.LoginHandler(cfg))

	// Protected
	protected := api.Group("")
	protected.Use(auth.JWTMiddleware(cfg))

	protected.Get("/auth/me", auth.MeHandler())

	// Admin routes
	adminRoutes := protected.Group("/admin")
	adminRoutes.Use(auth.RequireRole(models.RoleAdmin))

	// Kullanıcı yönetimi
	adminRoutes.Post("/users", admin.CreateUserHandler())
	adminRoutes.Get("/users", admin.ListUsersHandler())
	adminRoutes.Put("/users/:id", admin.UpdateUserHandler())
	adminRoutes.Delete("/users/:id", admin.DeleteUserHandler())

	// Marka yönetimi (yazma sadece admin)
	adminRoutes.Post("/brands", catalog.CreateBrandHandler())
	adminRoutes.Put("/brands/:id", catalog.UpdateBrandHandler())
	adminRoutes.Delete("/brands/:id", catalog.DeleteBrandHandler())

	// Kategori yönetimi
	adminRoutes.Post("/categories", catalog.CreateCategoryHandler())
	adminRoutes.Put("/categories/:id", catalog.UpdateCategoryHandler())
	adminRoutes.Delete("/categories/:id", catalog.DeleteCategoryHandler())

	// Tedarikçi yönetimi
	adminRoutes.Post("/suppliers", catalog.CreateSupplierHandler())
	adminRoutes.Put("/suppliers/:id", catalog.UpdateSupplierHandler())
	adminRoutes.Delete("/suppliers/:id", catalog.DeleteSupplierHandler())

	// Ürün yönetimi
	adminRoutes.Post("/products", inventory.CreateProductHandler())
	adminRoutes.Put("/products/:id", inventory.UpdateProductHandler())
	adminRoutes.Delete("/products/:id", inventory.DeleteProductHandler())

	// Ortak (auth gerektiren) route'lar

	// Katalog okuma
	protected.Get("/brands", catalog.ListBrandsHandler())
	protected.Get("/categories", catalog.ListCategoriesHandler())
	protected.Get("/categories/tree", catalog.CategoryTreeHandler())
	protected.Get("/suppliers", catalog.ListSuppliersHandler())
	protected.Get("/suppliers/:id", catalog.GetSupplierHandler())

	// Ürünler
	protected.Get("/products", inventory.ListProductsHandler())
	protected.Get("/products/search", inventory.SearchProductsHandler())
	protected.Get("/products/:id", inventory.GetProductHandler())

	// Stok görüntüsü (sayım hazırlığı)
	protected.Get("/inventory/snapshot", inventory.InventorySnapshotHandler())

	// Stok sayımları
	protected.Post("/reconciliations", reconciliation.CreateReconciliationHandler())
	protected.Get("/reconciliations", reconciliation.ListReconciliationsHandler())
	protected.Get("/reconciliations/:id", reconciliation.GetReconciliationHandler())
	protected.Get("/reconciliations/:id/export", reconciliation.ExportReconciliationHandler())
	protected.Delete("/reconciliations/:id", reconciliation.DeleteReconciliationHandler())
	protected.Post("/reconciliations/:id/items", reconciliation.AddItemHandler())
	protected.Put("/reconciliations/:id/items/:itemID", reconciliation.UpdateItemHandler())
	protected.Delete("/reconciliations/:id/items/:itemID", reconciliation.DeleteItemHandler())
	protected.Post("/reconciliations/:id/load-snapshot", reconciliation.LoadSnapshotHandler())
	protected.Post("/reconciliations/:id/submit", reconciliation.SubmitReconciliationHandler())

	// Sayım onayı sadece admin
	adminRoutes.Post("/reconciliations/:id/approve", reconciliation.ApproveReconciliationHandler())
	adminRoutes.Post("/reconciliations/:id/reject", reconciliation.RejectReconciliationHandler())

	// Satın alma siparişleri
	protected.Post("/purchase-orders", purchase.CreatePurchaseOrderHandler())
	protected.Get("/purchase-orders", purchase.ListPurchaseOrdersHandler())
	protected.Get("/purchase-orders/:id", purchase.GetPurchaseOrderHandler())
	protected.Post("/purchase-orders/:id/order", purchase.MarkOrderedHandler())
	protected.Post("/purchase-orders/:id/receive", purchase.ReceivePurchaseOrderHandler())
	protected.Post("/purchase-orders/:id/cancel", purchase.CancelPurchaseOrderHandler())
	protected.Delete("/purchase-orders/:id", purchase.DeletePurchaseOrderHandler())

	// Kasa satışları
	protected.Post("/pos/transactions", pos.CreateSaleHandler())
	protected.Get("/pos/transactions", pos.ListSalesHandler())
	protected.Get("/pos/transactions/:id", pos.GetSaleHandler())
	protected.Post("/pos/transactions/:id/void", pos.VoidSaleHandler())
	protected.Get("/pos/summary/daily", pos.DailySummaryHandler())

	// Dashboard
	protected.Get("/dashboard/overview", dashboard.OverviewHandler())

	// Audit logs
	protected.Get("/audit-logs", audit.ListAuditLogsHandler())
	adminRoutes.Post("/audit-logs/:id/undo", audit.UndoAuditLogHandler())

	logrus.Info("Server çalışıyor port: ", cfg.HTTPPort)
	if err := app.Listen(":" + cfg.HTTPPort); err != nil {
		logrus.Fatal(err)
	}
}
