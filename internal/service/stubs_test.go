package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"abasto/internal/apierror"
	"abasto/internal/model"
	"abasto/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ── Stubs ─────────────────────────────────────────────────────────────────────

// stubProveedorRepo is an in-memory ProveedorRepository for testing.
type stubProveedorRepo struct {
	proveedores   map[uuid.UUID]*model.Proveedor
	historial     map[uuid.UUID][]model.EvaluacionHistorial
	codigoSeq     int
	failUpdate    error
	failHistorial error
}

func newStubProveedorRepo() *stubProveedorRepo {
	return &stubProveedorRepo{
		proveedores: make(map[uuid.UUID]*model.Proveedor),
		historial:   make(map[uuid.UUID][]model.EvaluacionHistorial),
	}
}

func (r *stubProveedorRepo) Create(_ context.Context, p *model.Proveedor) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	r.proveedores[p.ID] = p
	return nil
}

func (r *stubProveedorRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Proveedor, error) {
	p, ok := r.proveedores[id]
	if !ok {
		return nil, apierror.ErrNoEncontrado
	}
	return p, nil
}

func (r *stubProveedorRepo) FindByNombre(_ context.Context, nombre string) (*model.Proveedor, error) {
	for _, p := range r.proveedores {
		if p.Nombre == nombre {
			return p, nil
		}
	}
	return nil, apierror.ErrNoEncontrado
}

func (r *stubProveedorRepo) List(_ context.Context, soloActivos bool) ([]model.Proveedor, error) {
	var out []model.Proveedor
	for _, p := range r.proveedores {
		if soloActivos && !p.Activo {
			continue
		}
		out = append(out, *p)
	}
	sort.Slice(out, func(a, b int) bool { return out[a].Codigo < out[b].Codigo })
	return out, nil
}

func (r *stubProveedorRepo) Update(_ context.Context, p *model.Proveedor) error {
	if r.failUpdate != nil {
		return r.failUpdate
	}
	if _, ok := r.proveedores[p.ID]; !ok {
		return apierror.ErrNoEncontrado
	}
	p.Version++
	r.proveedores[p.ID] = p
	return nil
}

func (r *stubProveedorRepo) SoftDelete(_ context.Context, id uuid.UUID) error {
	p, ok := r.proveedores[id]
	if !ok {
		return apierror.ErrNoEncontrado
	}
	p.Activo = false
	return nil
}

func (r *stubProveedorRepo) NextCodigo(_ context.Context) (string, error) {
	r.codigoSeq++
	return fmt.Sprintf("PROV-%03d", r.codigoSeq), nil
}

func (r *stubProveedorRepo) UpdateConHistorial(ctx context.Context, p *model.Proveedor, h *model.EvaluacionHistorial) error {
	// Un fallo del historial revierte la transacción completa: nada se aplica
	if r.failHistorial != nil {
		return r.failHistorial
	}
	if err := r.Update(ctx, p); err != nil {
		return err
	}
	return r.AppendHistorial(ctx, h)
}

func (r *stubProveedorRepo) AppendHistorial(_ context.Context, h *model.EvaluacionHistorial) error {
	if h.ID == uuid.Nil {
		h.ID = uuid.New()
	}
	hs := append(r.historial[h.ProveedorID], *h)
	// Misma poda que el repo real: conserva las 10 más recientes
	if len(hs) > 10 {
		hs = hs[len(hs)-10:]
	}
	r.historial[h.ProveedorID] = hs
	return nil
}

func (r *stubProveedorRepo) ListHistorial(_ context.Context, proveedorID uuid.UUID) ([]model.EvaluacionHistorial, error) {
	return r.historial[proveedorID], nil
}

var _ repository.ProveedorRepository = (*stubProveedorRepo)(nil)

// stubOrdenRepo is an in-memory OrdenCompraRepository.
type stubOrdenRepo struct {
	ordenes   map[uuid.UUID]*model.OrdenCompra
	pagos     []model.PagoOrden
	numeroSeq int
}

func newStubOrdenRepo() *stubOrdenRepo {
	return &stubOrdenRepo{ordenes: make(map[uuid.UUID]*model.OrdenCompra)}
}

func (r *stubOrdenRepo) Create(_ context.Context, o *model.OrdenCompra) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	if o.CreatedAt.IsZero() {
		o.CreatedAt = time.Now()
	}
	r.ordenes[o.ID] = o
	return nil
}

func (r *stubOrdenRepo) FindByID(_ context.Context, id uuid.UUID) (*model.OrdenCompra, error) {
	o, ok := r.ordenes[id]
	if !ok {
		return nil, apierror.ErrNoEncontrado
	}
	return o, nil
}

func (r *stubOrdenRepo) Update(_ context.Context, _ *gorm.DB, o *model.OrdenCompra) error {
	if _, ok := r.ordenes[o.ID]; !ok {
		return apierror.ErrNoEncontrado
	}
	o.Version++
	r.ordenes[o.ID] = o
	return nil
}

func (r *stubOrdenRepo) CreatePago(_ context.Context, _ *gorm.DB, pago *model.PagoOrden) error {
	if pago.ID == uuid.Nil {
		pago.ID = uuid.New()
	}
	pago.CreatedAt = time.Now()
	r.pagos = append(r.pagos, *pago)
	if o, ok := r.ordenes[pago.OrdenCompraID]; ok {
		o.Pagos = append(o.Pagos, *pago)
	}
	return nil
}

func (r *stubOrdenRepo) NextNumero(_ context.Context) (string, error) {
	r.numeroSeq++
	return fmt.Sprintf("OC-%05d", r.numeroSeq), nil
}

func (r *stubOrdenRepo) List(_ context.Context, filter repository.OrdenFilter) ([]model.OrdenCompra, int64, error) {
	var out []model.OrdenCompra
	for _, o := range r.ordenes {
		if filter.ProveedorID != nil && o.ProveedorID != *filter.ProveedorID {
			continue
		}
		if filter.Estado != "" && filter.Estado != "all" && o.Estado != filter.Estado {
			continue
		}
		out = append(out, *o)
	}
	return out, int64(len(out)), nil
}

func (r *stubOrdenRepo) ListRecibidas(_ context.Context) ([]model.OrdenCompra, error) {
	return r.recibidas(nil), nil
}

func (r *stubOrdenRepo) ListRecibidasPorProveedor(_ context.Context, proveedorID uuid.UUID) ([]model.OrdenCompra, error) {
	return r.recibidas(&proveedorID), nil
}

func (r *stubOrdenRepo) recibidas(proveedorID *uuid.UUID) []model.OrdenCompra {
	var out []model.OrdenCompra
	for _, o := range r.ordenes {
		if o.Estado != model.OrdenRecibida {
			continue
		}
		if proveedorID != nil && o.ProveedorID != *proveedorID {
			continue
		}
		out = append(out, *o)
	}
	// Mismo orden que el repo real: por fecha de recepción ascendente
	sort.Slice(out, func(a, b int) bool { return fechaCompra(&out[a]).Before(fechaCompra(&out[b])) })
	return out
}

func (r *stubOrdenRepo) DB() *gorm.DB { return nil }

var _ repository.OrdenCompraRepository = (*stubOrdenRepo)(nil)

// stubProductoRepo serves a fixed catalog.
type stubProductoRepo struct {
	productos map[uuid.UUID]*model.Producto
}

func newStubProductoRepo() *stubProductoRepo {
	return &stubProductoRepo{productos: make(map[uuid.UUID]*model.Producto)}
}

func (r *stubProductoRepo) agregar(sku, nombre string) uuid.UUID {
	p := &model.Producto{ID: uuid.New(), SKU: sku, Nombre: nombre, Activo: true}
	r.productos[p.ID] = p
	return p.ID
}

func (r *stubProductoRepo) Create(_ context.Context, p *model.Producto) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	r.productos[p.ID] = p
	return nil
}

func (r *stubProductoRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Producto, error) {
	p, ok := r.productos[id]
	if !ok {
		return nil, apierror.ErrNoEncontrado
	}
	return p, nil
}

func (r *stubProductoRepo) List(_ context.Context) ([]model.Producto, error) {
	var out []model.Producto
	for _, p := range r.productos {
		out = append(out, *p)
	}
	return out, nil
}

var _ repository.ProductoRepository = (*stubProductoRepo)(nil)

// stubInventarioRepo captures generated units.
type stubInventarioRepo struct {
	unidades []model.UnidadInventario
	fail     error
}

func (r *stubInventarioRepo) GenerarUnidades(_ context.Context, _ *gorm.DB, unidades []model.UnidadInventario) ([]string, error) {
	if r.fail != nil {
		return nil, r.fail
	}
	r.unidades = append(r.unidades, unidades...)
	codigos := make([]string, 0, len(unidades))
	for _, u := range unidades {
		codigos = append(codigos, u.Codigo)
	}
	return codigos, nil
}

func (r *stubInventarioRepo) ListByOrden(_ context.Context, ordenID uuid.UUID) ([]model.UnidadInventario, error) {
	var out []model.UnidadInventario
	for _, u := range r.unidades {
		if u.OrdenCompraID == ordenID {
			out = append(out, u)
		}
	}
	return out, nil
}

var _ repository.InventarioRepository = (*stubInventarioRepo)(nil)

// stubReservaRepo serves at most one open reservation per product.
type stubReservaRepo struct {
	reservas map[uuid.UUID]*model.ReservaVenta
}

func (r *stubReservaRepo) FindAbiertaPorProducto(_ context.Context, productoID uuid.UUID) (*model.ReservaVenta, error) {
	if r.reservas == nil {
		return nil, nil
	}
	return r.reservas[productoID], nil
}

var _ repository.ReservaRepository = (*stubReservaRepo)(nil)

// stubTasas returns a fixed exchange rate.
type stubTasas struct {
	tasa decimal.Decimal
	err  error
}

func (s *stubTasas) TasaActual(_ context.Context) (decimal.Decimal, error) {
	return s.tasa, s.err
}

// stubCola captures enqueued PDF jobs.
type stubCola struct {
	encoladas []uuid.UUID
}

func (s *stubCola) EncolarOrdenPDF(_ context.Context, ordenID uuid.UUID) error {
	s.encoladas = append(s.encoladas, ordenID)
	return nil
}

// ── Factories ─────────────────────────────────────────────────────────────────

// relojFijo returns a clock frozen at the given instant.
func relojFijo(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func nuevoProveedorActivo(repo *stubProveedorRepo, nombre string) *model.Proveedor {
	p := &model.Proveedor{
		ID:        uuid.New(),
		Codigo:    fmt.Sprintf("PROV-%03d", len(repo.proveedores)+1),
		Nombre:    nombre,
		Pais:      "Venezuela",
		Categoria: model.CategoriaDistribuidor,
		Activo:    true,
	}
	repo.proveedores[p.ID] = p
	return p
}

func buildOrdenSvc() (*ordenService, *stubOrdenRepo, *stubProveedorRepo, *stubProductoRepo, *stubInventarioRepo, *stubReservaRepo, *stubCola) {
	ordenes := newStubOrdenRepo()
	proveedores := newStubProveedorRepo()
	productos := newStubProductoRepo()
	inventario := &stubInventarioRepo{}
	reservas := &stubReservaRepo{}
	cola := &stubCola{}

	evaluacion := NewEvaluacionService(proveedores)
	metricas := NewMetricasService(proveedores, evaluacion)
	svc := NewOrdenService(ordenes, proveedores, productos, inventario, reservas, metricas, nil, cola).(*ordenService)
	return svc, ordenes, proveedores, productos, inventario, reservas, cola
}
