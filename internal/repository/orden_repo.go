package repository

import (
	"context"
	"errors"

	"abasto/internal/apierror"
	"abasto/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type OrdenFilter struct {
	ProveedorID *uuid.UUID
	Estado      string
	Page        int
	Limit       int
}

type OrdenCompraRepository interface {
	Create(ctx context.Context, o *model.OrdenCompra) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.OrdenCompra, error)
	// Update aplica el chequeo optimista de versión sobre la fila principal.
	// tx puede ser nil fuera de una transacción.
	Update(ctx context.Context, tx *gorm.DB, o *model.OrdenCompra) error
	CreatePago(ctx context.Context, tx *gorm.DB, pago *model.PagoOrden) error
	NextNumero(ctx context.Context) (string, error)
	List(ctx context.Context, filter OrdenFilter) ([]model.OrdenCompra, int64, error)
	// ListRecibidas devuelve el historial completo de órdenes recibidas en
	// orden de recepción, insumo de los motores de comparación y predicción.
	ListRecibidas(ctx context.Context) ([]model.OrdenCompra, error)
	ListRecibidasPorProveedor(ctx context.Context, proveedorID uuid.UUID) ([]model.OrdenCompra, error)
	DB() *gorm.DB // expone la DB para transacciones en la capa de servicio
}

type ordenRepo struct{ db *gorm.DB }

func NewOrdenCompraRepository(db *gorm.DB) OrdenCompraRepository { return &ordenRepo{db: db} }

func (r *ordenRepo) DB() *gorm.DB { return r.db }

func (r *ordenRepo) Create(ctx context.Context, o *model.OrdenCompra) error {
	return r.db.WithContext(ctx).Create(o).Error
}

func (r *ordenRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.OrdenCompra, error) {
	var o model.OrdenCompra
	err := r.db.WithContext(ctx).Preload("Items").Preload("Pagos").First(&o, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apierror.ErrNoEncontrado
	}
	return &o, err
}

func (r *ordenRepo) Update(ctx context.Context, tx *gorm.DB, o *model.OrdenCompra) error {
	db := tx
	if db == nil {
		db = r.db
	}
	version := o.Version
	o.Version = version + 1
	res := db.WithContext(ctx).Model(&model.OrdenCompra{}).
		Where("id = ? AND version = ?", o.ID, version).
		Select("*").Omit("id", "created_at").Updates(o)
	if res.Error != nil {
		o.Version = version
		return res.Error
	}
	if res.RowsAffected == 0 {
		o.Version = version
		return apierror.ErrConcurrencia
	}
	return nil
}

func (r *ordenRepo) CreatePago(ctx context.Context, tx *gorm.DB, pago *model.PagoOrden) error {
	db := tx
	if db == nil {
		db = r.db
	}
	return db.WithContext(ctx).Create(pago).Error
}

func (r *ordenRepo) NextNumero(ctx context.Context) (string, error) {
	var num int
	err := r.db.WithContext(ctx).Raw("SELECT nextval('ordenes_compra_numero_seq')").Scan(&num).Error
	if err != nil {
		return "", err
	}
	return numeroOrden(num), nil
}

func (r *ordenRepo) List(ctx context.Context, filter OrdenFilter) ([]model.OrdenCompra, int64, error) {
	var ordenes []model.OrdenCompra
	var total int64
	offset := (filter.Page - 1) * filter.Limit

	q := r.db.WithContext(ctx).Model(&model.OrdenCompra{})
	if filter.ProveedorID != nil {
		q = q.Where("proveedor_id = ?", *filter.ProveedorID)
	}
	if filter.Estado != "" && filter.Estado != "all" {
		q = q.Where("estado = ?", filter.Estado)
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := q.Preload("Items").Preload("Pagos").
		Order("created_at DESC").
		Offset(offset).Limit(filter.Limit).
		Find(&ordenes).Error
	return ordenes, total, err
}

func (r *ordenRepo) ListRecibidas(ctx context.Context) ([]model.OrdenCompra, error) {
	var ordenes []model.OrdenCompra
	err := r.db.WithContext(ctx).Preload("Items").
		Where("estado = ?", model.OrdenRecibida).
		Order("fecha_recepcion ASC").
		Find(&ordenes).Error
	return ordenes, err
}

func (r *ordenRepo) ListRecibidasPorProveedor(ctx context.Context, proveedorID uuid.UUID) ([]model.OrdenCompra, error) {
	var ordenes []model.OrdenCompra
	err := r.db.WithContext(ctx).Preload("Items").
		Where("estado = ? AND proveedor_id = ?", model.OrdenRecibida, proveedorID).
		Order("fecha_recepcion ASC").
		Find(&ordenes).Error
	return ordenes, err
}
