package repository

import (
	"context"
	"errors"

	"abasto/internal/apierror"
	"abasto/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const historialMaximo = 10

type ProveedorRepository interface {
	Create(ctx context.Context, p *model.Proveedor) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Proveedor, error)
	FindByNombre(ctx context.Context, nombre string) (*model.Proveedor, error)
	List(ctx context.Context, soloActivos bool) ([]model.Proveedor, error)
	// Update aplica el chequeo optimista de versión: falla con
	// apierror.ErrConcurrencia si otra mutación llegó primero.
	Update(ctx context.Context, p *model.Proveedor) error
	// UpdateConHistorial persiste la evaluación y su instantánea de historial
	// en una sola transacción: quedan ambas o ninguna.
	UpdateConHistorial(ctx context.Context, p *model.Proveedor, h *model.EvaluacionHistorial) error
	SoftDelete(ctx context.Context, id uuid.UUID) error
	NextCodigo(ctx context.Context) (string, error)

	// AppendHistorial inserta una instantánea y poda las que excedan el
	// tope de 10 entradas (las más antiguas primero).
	AppendHistorial(ctx context.Context, h *model.EvaluacionHistorial) error
	ListHistorial(ctx context.Context, proveedorID uuid.UUID) ([]model.EvaluacionHistorial, error)
}

type proveedorRepo struct{ db *gorm.DB }

func NewProveedorRepository(db *gorm.DB) ProveedorRepository { return &proveedorRepo{db: db} }

func (r *proveedorRepo) Create(ctx context.Context, p *model.Proveedor) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *proveedorRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Proveedor, error) {
	var p model.Proveedor
	err := r.db.WithContext(ctx).First(&p, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apierror.ErrNoEncontrado
	}
	return &p, err
}

func (r *proveedorRepo) FindByNombre(ctx context.Context, nombre string) (*model.Proveedor, error) {
	var p model.Proveedor
	err := r.db.WithContext(ctx).Where("LOWER(nombre) = LOWER(?)", nombre).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apierror.ErrNoEncontrado
	}
	return &p, err
}

func (r *proveedorRepo) List(ctx context.Context, soloActivos bool) ([]model.Proveedor, error) {
	var proveedores []model.Proveedor
	q := r.db.WithContext(ctx)
	if soloActivos {
		q = q.Where("activo = true")
	}
	err := q.Order("codigo").Find(&proveedores).Error
	return proveedores, err
}

func (r *proveedorRepo) Update(ctx context.Context, p *model.Proveedor) error {
	return updateProveedor(r.db.WithContext(ctx), p)
}

func (r *proveedorRepo) UpdateConHistorial(ctx context.Context, p *model.Proveedor, h *model.EvaluacionHistorial) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := updateProveedor(tx, p); err != nil {
			return err
		}
		return appendHistorial(tx, h)
	})
}

func updateProveedor(db *gorm.DB, p *model.Proveedor) error {
	version := p.Version
	p.Version = version + 1
	res := db.Model(&model.Proveedor{}).
		Where("id = ? AND version = ?", p.ID, version).
		Select("*").Omit("id", "created_at").Updates(p)
	if res.Error != nil {
		p.Version = version
		return res.Error
	}
	if res.RowsAffected == 0 {
		p.Version = version
		return apierror.ErrConcurrencia
	}
	return nil
}

func (r *proveedorRepo) SoftDelete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Model(&model.Proveedor{}).Where("id = ?", id).Update("activo", false)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apierror.ErrNoEncontrado
	}
	return nil
}

func (r *proveedorRepo) NextCodigo(ctx context.Context) (string, error) {
	var num int
	err := r.db.WithContext(ctx).Raw("SELECT nextval('proveedores_codigo_seq')").Scan(&num).Error
	if err != nil {
		return "", err
	}
	return codigoProveedor(num), nil
}

func (r *proveedorRepo) AppendHistorial(ctx context.Context, h *model.EvaluacionHistorial) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return appendHistorial(tx, h)
	})
}

func appendHistorial(tx *gorm.DB, h *model.EvaluacionHistorial) error {
	if err := tx.Create(h).Error; err != nil {
		return err
	}
	// Poda: conserva las 10 entradas más recientes
	return tx.Exec(`
		DELETE FROM evaluaciones_historial
		WHERE proveedor_id = ? AND id NOT IN (
			SELECT id FROM evaluaciones_historial
			WHERE proveedor_id = ?
			ORDER BY fecha DESC LIMIT ?
		)`, h.ProveedorID, h.ProveedorID, historialMaximo).Error
}

func (r *proveedorRepo) ListHistorial(ctx context.Context, proveedorID uuid.UUID) ([]model.EvaluacionHistorial, error) {
	var hs []model.EvaluacionHistorial
	err := r.db.WithContext(ctx).
		Where("proveedor_id = ?", proveedorID).
		Order("fecha ASC").
		Find(&hs).Error
	return hs, err
}
