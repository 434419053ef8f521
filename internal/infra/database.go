package infra

import (
	"fmt"

	"abasto/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDatabase establishes a GORM connection backed by pgx, runs AutoMigrate
// for all domain tables and applies the SQL objects GORM cannot express
// (the sequences behind the human-readable PROV-NNN / OC-NNNNN codes).
func NewDatabase(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)

	if err := RunMigrations(db); err != nil {
		return nil, err
	}
	return db, nil
}

// RunMigrations applies AutoMigrate plus idempotent SQL patches. Exposed
// separately for integration tests that boot their own database.
func RunMigrations(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&model.Proveedor{},
		&model.EvaluacionHistorial{},
		&model.Producto{},
		&model.OrdenCompra{},
		&model.OrdenItem{},
		&model.PagoOrden{},
		&model.UnidadInventario{},
		&model.ReservaVenta{},
	); err != nil {
		return fmt.Errorf("AutoMigrate: %w", err)
	}
	return applySchemaPatches(db)
}

// applySchemaPatches crea las secuencias de códigos legibles. Cada sentencia
// es idempotente: re-ejecutar sobre un esquema ya parchado es un no-op.
func applySchemaPatches(db *gorm.DB) error {
	patches := []string{
		`CREATE SEQUENCE IF NOT EXISTS proveedores_codigo_seq START 1`,
		`CREATE SEQUENCE IF NOT EXISTS ordenes_compra_numero_seq START 1`,
	}
	for _, sql := range patches {
		if err := db.Exec(sql).Error; err != nil {
			return fmt.Errorf("patch %q: %w", sql, err)
		}
	}
	return nil
}
