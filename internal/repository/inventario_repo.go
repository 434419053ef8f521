package repository

import (
	"context"
	"errors"

	"abasto/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// InventarioRepository es el colaborador de inventario del motor de compras:
// genera una unidad por cada unidad pedida al recibirse una orden.
type InventarioRepository interface {
	// GenerarUnidades crea las unidades dentro de la transacción tx (o de la
	// conexión base si tx es nil) y devuelve los códigos generados.
	GenerarUnidades(ctx context.Context, tx *gorm.DB, unidades []model.UnidadInventario) ([]string, error)
	ListByOrden(ctx context.Context, ordenID uuid.UUID) ([]model.UnidadInventario, error)
}

// ReservaRepository expone la consulta de reservas de venta abiertas usada
// para particionar las unidades recién recibidas.
type ReservaRepository interface {
	// FindAbiertaPorProducto devuelve nil, nil cuando no hay reserva abierta.
	FindAbiertaPorProducto(ctx context.Context, productoID uuid.UUID) (*model.ReservaVenta, error)
}

type inventarioRepo struct{ db *gorm.DB }

func NewInventarioRepository(db *gorm.DB) InventarioRepository { return &inventarioRepo{db: db} }

func (r *inventarioRepo) GenerarUnidades(ctx context.Context, tx *gorm.DB, unidades []model.UnidadInventario) ([]string, error) {
	db := tx
	if db == nil {
		db = r.db
	}
	if err := db.WithContext(ctx).Create(&unidades).Error; err != nil {
		return nil, err
	}
	codigos := make([]string, 0, len(unidades))
	for _, u := range unidades {
		codigos = append(codigos, u.Codigo)
	}
	return codigos, nil
}

func (r *inventarioRepo) ListByOrden(ctx context.Context, ordenID uuid.UUID) ([]model.UnidadInventario, error) {
	var unidades []model.UnidadInventario
	err := r.db.WithContext(ctx).Where("orden_compra_id = ?", ordenID).Order("codigo").Find(&unidades).Error
	return unidades, err
}

type reservaRepo struct{ db *gorm.DB }

func NewReservaRepository(db *gorm.DB) ReservaRepository { return &reservaRepo{db: db} }

func (r *reservaRepo) FindAbiertaPorProducto(ctx context.Context, productoID uuid.UUID) (*model.ReservaVenta, error) {
	var res model.ReservaVenta
	err := r.db.WithContext(ctx).
		Where("producto_id = ? AND abierta = true", productoID).
		Order("created_at ASC").
		First(&res).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &res, nil
}
