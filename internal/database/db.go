package database

import (
	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"stokpos-backend/internal/config"
	"stokpos-backend/internal/models"
)

var DB *gorm.DB

func Init(cfg *config.Config) {
	var err error

	DB, err = gorm.Open(postgres.Open(cfg.DatabaseDSN), &gorm.Config{})
	if err != nil {
		logrus.Fatalf("Veritabanına bağlanılamadı: %v", err)
	}

	// Eski kurulumlarda reconciliation_items üzerinde (reconciliation_id, product_id)
	// unique index'i yoktu; AutoMigrate'ten önce duplike satırları temizle ki index eklenebilsin
	if DB.Migrator().HasTable(&models.ReconciliationItem{}) {
		if !DB.Migrator().HasIndex(&models.ReconciliationItem{}, "idx_recon_product") {
			logrus.Info("reconciliation_items duplike satır kontrolü yapılıyor...")
			if err := DB.Exec(`
				DELETE FROM reconciliation_items a
				USING reconciliation_items b
				WHERE a.id > b.id
				  AND a.reconciliation_id = b.reconciliation_id
				  AND a.product_id = b.product_id
			`).Error; err != nil {
				logrus.Warnf("Duplike satırlar temizlenirken hata (devam ediliyor): %v", err)
			}
		}
	}

	if err := Migrate(DB); err != nil {
		logrus.Fatalf("AutoMigrate hatası: %v", err)
	}

	logrus.Info("Veritabanı bağlantısı başarılı. Migration tamamlandı.")
}

// Migrate: Tüm tabloları oluştur/güncelle. Testlerde sqlite ile de kullanılır.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Brand{},
		&models.Category{},
		&models.Supplier{},
		&models.Product{},
		&models.PurchaseOrder{},
		&models.PurchaseOrderItem{},
		&models.PosTransaction{},
		&models.PosTransactionLine{},
		&models.Reconciliation{},
		&models.ReconciliationItem{},
		&models.AuditLog{},
	)
}
