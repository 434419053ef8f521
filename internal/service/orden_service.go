package service

import (
	"context"
	"fmt"
	"time"

	"abasto/internal/apierror"
	"abasto/internal/dto"
	"abasto/internal/model"
	"abasto/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// TasaCambioProvider entrega la tasa de cambio USD→moneda local vigente.
// La implementación real consulta un servicio externo detrás de un circuit
// breaker; en tests se inyecta una tasa fija.
type TasaCambioProvider interface {
	TasaActual(ctx context.Context) (decimal.Decimal, error)
}

// ColaOrdenes encola trabajos asíncronos derivados del ciclo de la orden.
// Puede ser nil: el ciclo de vida nunca depende de la cola.
type ColaOrdenes interface {
	EncolarOrdenPDF(ctx context.Context, ordenID uuid.UUID) error
}

type OrdenService interface {
	// Crear valida las líneas, congela costos unitarios y tasa de cambio, y
	// persiste la orden en borrador con número OC-NNNNN.
	Crear(ctx context.Context, req dto.CrearOrdenRequest) (*dto.OrdenResponse, error)
	Obtener(ctx context.Context, id uuid.UUID) (*dto.OrdenResponse, error)
	Listar(ctx context.Context, filter dto.OrdenFilter) (*dto.OrdenListResponse, error)
	// Avanzar mueve la orden al estado destino si la transición es legal.
	// recibida genera inventario y pliega métricas; cancelada delega en Cancelar.
	Avanzar(ctx context.Context, id uuid.UUID, req dto.AvanzarOrdenRequest) (*dto.OrdenResponse, error)
	// RegistrarPago aplica un pago parcial o total, normalizado a USD, y
	// recalcula el estado de pago. Un sobrepago se acepta con advertencia.
	RegistrarPago(ctx context.Context, id uuid.UUID, req dto.RegistrarPagoRequest) (*dto.PagoResponse, error)
	Cancelar(ctx context.Context, id uuid.UUID, motivo *string) (*dto.OrdenResponse, error)
	// MarcarProblema marca la orden como problemática. Sobre una orden ya
	// recibida, además corrige los contadores del proveedor.
	MarcarProblema(ctx context.Context, id uuid.UUID, req dto.MarcarProblemaRequest) (*dto.OrdenResponse, error)
}

type ordenService struct {
	ordenes     repository.OrdenCompraRepository
	proveedores repository.ProveedorRepository
	productos   repository.ProductoRepository
	inventario  repository.InventarioRepository
	reservas    repository.ReservaRepository
	metricas    MetricasService
	tasas       TasaCambioProvider // puede ser nil
	cola        ColaOrdenes        // puede ser nil
	ahora       func() time.Time
}

func NewOrdenService(
	ordenes repository.OrdenCompraRepository,
	proveedores repository.ProveedorRepository,
	productos repository.ProductoRepository,
	inventario repository.InventarioRepository,
	reservas repository.ReservaRepository,
	metricas MetricasService,
	tasas TasaCambioProvider,
	cola ColaOrdenes,
) OrdenService {
	return &ordenService{
		ordenes:     ordenes,
		proveedores: proveedores,
		productos:   productos,
		inventario:  inventario,
		reservas:    reservas,
		metricas:    metricas,
		tasas:       tasas,
		cola:        cola,
		ahora:       time.Now,
	}
}

func (s *ordenService) WithClock(ahora func() time.Time) *ordenService {
	s.ahora = ahora
	return s
}

// ─── Crear ───────────────────────────────────────────────────────────────────

func (s *ordenService) Crear(ctx context.Context, req dto.CrearOrdenRequest) (*dto.OrdenResponse, error) {
	proveedorID, err := uuid.Parse(req.ProveedorID)
	if err != nil {
		return nil, fmt.Errorf("proveedor_id: %w", apierror.ErrValidacion)
	}
	proveedor, err := s.proveedores.FindByID(ctx, proveedorID)
	if err != nil {
		return nil, fmt.Errorf("crear orden: %w", err)
	}
	if !proveedor.Activo {
		return nil, fmt.Errorf("proveedor inactivo: %w", apierror.ErrValidacion)
	}
	if len(req.Items) == 0 {
		return nil, fmt.Errorf("orden sin líneas: %w", apierror.ErrValidacion)
	}

	items := make([]model.OrdenItem, 0, len(req.Items))
	subtotal := decimal.Zero
	for _, in := range req.Items {
		if in.Cantidad <= 0 || !in.CostoUnitario.IsPositive() {
			return nil, fmt.Errorf("línea con cantidad o costo no positivo: %w", apierror.ErrValidacion)
		}
		productoID, err := uuid.Parse(in.ProductoID)
		if err != nil {
			return nil, fmt.Errorf("producto_id: %w", apierror.ErrValidacion)
		}
		producto, err := s.productos.FindByID(ctx, productoID)
		if err != nil {
			return nil, fmt.Errorf("producto %s: %w", in.ProductoID, err)
		}
		linea := in.CostoUnitario.Mul(decimal.NewFromInt(int64(in.Cantidad))).Round(2)
		subtotal = subtotal.Add(linea)
		items = append(items, model.OrdenItem{
			ProductoID:       producto.ID,
			SKU:              producto.SKU,
			Cantidad:         in.Cantidad,
			CostoUnitarioUSD: in.CostoUnitario,
			SubtotalUSD:      linea,
		})
	}

	total := subtotal
	if req.EnvioUSD != nil {
		total = total.Add(*req.EnvioUSD)
	}
	if req.OtrosCostosUSD != nil {
		total = total.Add(*req.OtrosCostosUSD)
	}
	total = total.Round(2)

	tasa := req.TasaCompra
	if tasa == nil && s.tasas != nil {
		if t, err := s.tasas.TasaActual(ctx); err != nil {
			// Sin tasa la orden queda solo en USD; no es motivo de rechazo
			log.Warn().Err(err).Msg("tasa de cambio no disponible al crear orden")
		} else {
			tasa = &t
		}
	}

	numero, err := s.ordenes.NextNumero(ctx)
	if err != nil {
		return nil, err
	}

	orden := &model.OrdenCompra{
		Numero:          numero,
		ProveedorID:     proveedor.ID,
		ProveedorNombre: proveedor.Nombre,
		Items:           items,
		SubtotalUSD:     subtotal,
		EnvioUSD:        req.EnvioUSD,
		OtrosCostosUSD:  req.OtrosCostosUSD,
		TotalUSD:        total,
		TasaCompra:      tasa,
		Estado:          model.OrdenBorrador,
		EstadoPago:      model.PagoPendiente,
		AlmacenDestino:  req.AlmacenDestino,
	}
	if tasa != nil {
		local := ALocal(total, *tasa)
		orden.TotalLocal = &local
	}

	if err := s.ordenes.Create(ctx, orden); err != nil {
		return nil, err
	}
	log.Info().Str("numero", orden.Numero).Str("proveedor", proveedor.Nombre).
		Str("total_usd", total.String()).Msg("orden de compra creada")

	resp := ordenToResponse(orden)
	return &resp, nil
}

// ─── Lecturas ────────────────────────────────────────────────────────────────

func (s *ordenService) Obtener(ctx context.Context, id uuid.UUID) (*dto.OrdenResponse, error) {
	orden, err := s.ordenes.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ordenToResponse(orden)
	return &resp, nil
}

func (s *ordenService) Listar(ctx context.Context, filter dto.OrdenFilter) (*dto.OrdenListResponse, error) {
	page := filter.Page
	if page < 1 {
		page = 1
	}
	limit := filter.Limit
	if limit < 1 || limit > 100 {
		limit = 20
	}
	repoFilter := repository.OrdenFilter{Estado: filter.Estado, Page: page, Limit: limit}
	if filter.ProveedorID != "" {
		pid, err := uuid.Parse(filter.ProveedorID)
		if err != nil {
			return nil, fmt.Errorf("proveedor_id: %w", apierror.ErrValidacion)
		}
		repoFilter.ProveedorID = &pid
	}

	ordenes, total, err := s.ordenes.List(ctx, repoFilter)
	if err != nil {
		return nil, err
	}
	data := make([]dto.OrdenResponse, 0, len(ordenes))
	for i := range ordenes {
		data = append(data, ordenToResponse(&ordenes[i]))
	}
	return &dto.OrdenListResponse{Data: data, Total: total, Page: page, Limit: limit}, nil
}

// ─── Transiciones ────────────────────────────────────────────────────────────

func (s *ordenService) Avanzar(ctx context.Context, id uuid.UUID, req dto.AvanzarOrdenRequest) (*dto.OrdenResponse, error) {
	if req.Destino == model.OrdenCancelada {
		return s.Cancelar(ctx, id, req.Motivo)
	}

	orden, err := s.ordenes.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	switch req.Destino {
	case model.OrdenEnviada:
		if orden.Estado != model.OrdenBorrador {
			return nil, transicion(orden.Estado, req.Destino)
		}
		fecha := s.ahora()
		orden.Estado = model.OrdenEnviada
		orden.FechaEnvio = &fecha
		if req.Tracking != nil {
			orden.Tracking = req.Tracking
		}
		if req.Courier != nil {
			orden.Courier = req.Courier
		}
		if err := s.ordenes.Update(ctx, nil, orden); err != nil {
			return nil, err
		}
		s.encolarPDF(ctx, orden)

	case model.OrdenEnTransito:
		if orden.Estado != model.OrdenEnviada {
			return nil, transicion(orden.Estado, req.Destino)
		}
		if req.Tracking != nil {
			orden.Tracking = req.Tracking
		}
		if req.Courier != nil {
			orden.Courier = req.Courier
		}
		if orden.Tracking == nil || *orden.Tracking == "" {
			return nil, apierror.ErrFaltaTracking
		}
		fecha := s.ahora()
		orden.Estado = model.OrdenEnTransito
		orden.FechaTransito = &fecha
		if err := s.ordenes.Update(ctx, nil, orden); err != nil {
			return nil, err
		}

	case model.OrdenRecibida:
		if err := s.recibir(ctx, orden); err != nil {
			return nil, err
		}

	default:
		return nil, transicion(orden.Estado, req.Destino)
	}

	log.Info().Str("numero", orden.Numero).Str("estado", orden.Estado).Msg("orden avanzada")
	resp := ordenToResponse(orden)
	return &resp, nil
}

// recibir cierra el ciclo: genera una unidad de inventario por cada unidad
// pedida (particionadas contra reservas de venta abiertas), marca la orden y
// pliega el resultado en las métricas del proveedor. Idempotente por el guard
// de InventarioGenerado: reintentar una recepción ya aplicada falla sin
// duplicar unidades ni métricas.
func (s *ordenService) recibir(ctx context.Context, orden *model.OrdenCompra) error {
	if orden.InventarioGenerado || orden.Estado == model.OrdenRecibida {
		return apierror.ErrYaRecibida
	}
	if orden.Estado != model.OrdenEnviada && orden.Estado != model.OrdenEnTransito {
		return transicion(orden.Estado, model.OrdenRecibida)
	}

	fecha := s.ahora()
	unidades := make([]model.UnidadInventario, 0)
	secuencia := 0
	for _, item := range orden.Items {
		var reserva *model.ReservaVenta
		if s.reservas != nil {
			r, err := s.reservas.FindAbiertaPorProducto(ctx, item.ProductoID)
			if err != nil {
				return err
			}
			reserva = r
		}
		asignadas := 0
		for i := 0; i < item.Cantidad; i++ {
			secuencia++
			u := model.UnidadInventario{
				Codigo:        repository.CodigoUnidad(orden.Numero, secuencia),
				ProductoID:    item.ProductoID,
				SKU:           item.SKU,
				OrdenCompraID: orden.ID,
				Almacen:       orden.AlmacenDestino,
				Estado:        model.UnidadDisponible,
			}
			if reserva != nil && asignadas < reserva.Cantidad {
				u.Estado = model.UnidadReservada
				u.ReservaID = &reserva.ID
				asignadas++
			}
			unidades = append(unidades, u)
		}
	}

	err := runTx(ctx, s.ordenes.DB(), func(tx *gorm.DB) error {
		codigos, err := s.inventario.GenerarUnidades(ctx, tx, unidades)
		if err != nil {
			return err
		}
		orden.Estado = model.OrdenRecibida
		orden.FechaRecepcion = &fecha
		orden.InventarioGenerado = true
		orden.UnidadesGeneradas = codigos
		return s.ordenes.Update(ctx, tx, orden)
	})
	if err != nil {
		// La transacción revirtió; restaura el estado en memoria
		orden.Estado = model.OrdenEnTransito
		if orden.FechaTransito == nil {
			orden.Estado = model.OrdenEnviada
		}
		orden.FechaRecepcion = nil
		orden.InventarioGenerado = false
		orden.UnidadesGeneradas = nil
		return err
	}

	productoIDs := make([]string, 0, len(orden.Items))
	for _, item := range orden.Items {
		productoIDs = append(productoIDs, item.ProductoID.String())
	}
	ev := EventoOrdenCompletada{
		ProveedorID:   orden.ProveedorID,
		TotalUSD:      orden.TotalUSD,
		ProductoIDs:   productoIDs,
		DiasEntrega:   diasEntre(orden.FechaEnvio, fecha),
		TuvoProblemas: orden.TieneProblemas,
	}
	if err := s.metricas.RegistrarOrdenCompletada(ctx, ev); err != nil {
		// La recepción ya quedó firme; el agregador se repara en la corrida nocturna
		log.Error().Err(err).Str("numero", orden.Numero).Msg("métricas del proveedor no actualizadas")
	}
	return nil
}

func (s *ordenService) Cancelar(ctx context.Context, id uuid.UUID, motivo *string) (*dto.OrdenResponse, error) {
	orden, err := s.ordenes.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if orden.InventarioGenerado || orden.Estado == model.OrdenRecibida {
		return nil, fmt.Errorf("la orden ya generó inventario: %w", apierror.ErrTransicionInvalida)
	}
	if orden.Estado == model.OrdenCancelada {
		return nil, transicion(orden.Estado, model.OrdenCancelada)
	}

	fecha := s.ahora()
	orden.Estado = model.OrdenCancelada
	orden.FechaCancelacion = &fecha
	orden.MotivoCancelacion = motivo
	if err := s.ordenes.Update(ctx, nil, orden); err != nil {
		return nil, err
	}
	log.Info().Str("numero", orden.Numero).Msg("orden cancelada")

	resp := ordenToResponse(orden)
	return &resp, nil
}

func (s *ordenService) MarcarProblema(ctx context.Context, id uuid.UUID, req dto.MarcarProblemaRequest) (*dto.OrdenResponse, error) {
	orden, err := s.ordenes.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if orden.Estado == model.OrdenCancelada {
		return nil, transicion(orden.Estado, orden.Estado)
	}

	yaContada := orden.Estado == model.OrdenRecibida && !orden.TieneProblemas
	orden.TieneProblemas = true
	orden.NotaProblema = &req.Nota
	if err := s.ordenes.Update(ctx, nil, orden); err != nil {
		return nil, err
	}

	// Si la orden ya pasó por el agregador sin problema, corrige los contadores
	if yaContada {
		if err := s.metricas.RegistrarProblema(ctx, orden.ProveedorID); err != nil {
			log.Error().Err(err).Str("numero", orden.Numero).Msg("contador de problemas no actualizado")
		}
	}

	resp := ordenToResponse(orden)
	return &resp, nil
}

// ─── Pagos ───────────────────────────────────────────────────────────────────

func (s *ordenService) RegistrarPago(ctx context.Context, id uuid.UUID, req dto.RegistrarPagoRequest) (*dto.PagoResponse, error) {
	orden, err := s.ordenes.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if orden.Estado == model.OrdenCancelada {
		return nil, fmt.Errorf("no se puede pagar una orden cancelada: %w", apierror.ErrValidacion)
	}

	var montoUSD decimal.Decimal
	var tasaPago *decimal.Decimal
	switch req.Moneda {
	case model.MonedaUSD:
		montoUSD = req.Monto.Round(2)
	case model.MonedaVES:
		tasa := req.Tasa
		if tasa == nil {
			tasa = orden.TasaCompra
		}
		if tasa == nil || !tasa.IsPositive() {
			return nil, fmt.Errorf("pago en %s sin tasa de cambio: %w", req.Moneda, apierror.ErrValidacion)
		}
		montoUSD = AUSD(req.Monto, *tasa)
		tasaPago = tasa
	default:
		return nil, fmt.Errorf("moneda no soportada: %w", apierror.ErrValidacion)
	}

	pagadoUSD := montoUSD
	for _, p := range orden.Pagos {
		pagadoUSD = pagadoUSD.Add(p.MontoUSD)
	}

	var advertencia *string
	if excedeTotal(pagadoUSD, orden.TotalUSD) {
		msg := fmt.Sprintf("el total pagado %s USD excede el total de la orden %s USD",
			pagadoUSD.StringFixed(2), orden.TotalUSD.StringFixed(2))
		advertencia = &msg
	}

	switch {
	case cubreTotal(pagadoUSD, orden.TotalUSD):
		orden.EstadoPago = model.PagoPagada
	case pagadoUSD.IsPositive():
		orden.EstadoPago = model.PagoParcial
	}

	// Diferencia cambiaria: costo local real del pago contra el costo local
	// congelado con la tasa de compra. Solo aplica a pagos en moneda local.
	if tasaPago != nil && orden.TasaCompra != nil {
		dif := req.Monto.Sub(ALocal(montoUSD, *orden.TasaCompra)).Round(2)
		if orden.DiferenciaCambiaria != nil {
			dif = dif.Add(*orden.DiferenciaCambiaria)
		}
		orden.DiferenciaCambiaria = &dif
		orden.TasaPago = tasaPago
	}

	pago := &model.PagoOrden{
		OrdenCompraID: orden.ID,
		Monto:         req.Monto,
		Moneda:        req.Moneda,
		Tasa:          tasaPago,
		MontoUSD:      montoUSD,
		Metodo:        req.Metodo,
		Referencia:    req.Referencia,
	}
	err = runTx(ctx, s.ordenes.DB(), func(tx *gorm.DB) error {
		if err := s.ordenes.CreatePago(ctx, tx, pago); err != nil {
			return err
		}
		return s.ordenes.Update(ctx, tx, orden)
	})
	if err != nil {
		return nil, err
	}

	log.Info().Str("numero", orden.Numero).Str("monto_usd", montoUSD.String()).
		Str("estado_pago", orden.EstadoPago).Msg("pago registrado")

	return &dto.PagoResponse{
		OrdenID:             orden.ID.String(),
		PagadoUSD:           pagadoUSD,
		TotalUSD:            orden.TotalUSD,
		EstadoPago:          orden.EstadoPago,
		DiferenciaCambiaria: orden.DiferenciaCambiaria,
		Advertencia:         advertencia,
	}, nil
}

// ─── Helpers ─────────────────────────────────────────────────────────────────

func (s *ordenService) encolarPDF(ctx context.Context, orden *model.OrdenCompra) {
	if s.cola == nil {
		return
	}
	if err := s.cola.EncolarOrdenPDF(ctx, orden.ID); err != nil {
		log.Warn().Err(err).Str("numero", orden.Numero).Msg("no se pudo encolar el PDF de la orden")
	}
}

func transicion(desde, hacia string) error {
	return fmt.Errorf("%s → %s: %w", desde, hacia, apierror.ErrTransicionInvalida)
}

func diasEntre(desde *time.Time, hasta time.Time) float64 {
	if desde == nil {
		return 0
	}
	return hasta.Sub(*desde).Hours() / 24
}

func ordenToResponse(o *model.OrdenCompra) dto.OrdenResponse {
	items := make([]dto.OrdenItemResponse, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, dto.OrdenItemResponse{
			ProductoID:    it.ProductoID.String(),
			SKU:           it.SKU,
			Cantidad:      it.Cantidad,
			CostoUnitario: it.CostoUnitarioUSD,
			Subtotal:      it.SubtotalUSD,
		})
	}
	pagos := make([]dto.PagoOrdenResponse, 0, len(o.Pagos))
	for _, p := range o.Pagos {
		pagos = append(pagos, dto.PagoOrdenResponse{
			Monto:      p.Monto,
			Moneda:     p.Moneda,
			Tasa:       p.Tasa,
			MontoUSD:   p.MontoUSD,
			Metodo:     p.Metodo,
			Referencia: p.Referencia,
			Fecha:      p.CreatedAt.Format(time.RFC3339),
		})
	}
	return dto.OrdenResponse{
		ID:                  o.ID.String(),
		Numero:              o.Numero,
		ProveedorID:         o.ProveedorID.String(),
		ProveedorNombre:     o.ProveedorNombre,
		Items:               items,
		SubtotalUSD:         o.SubtotalUSD,
		EnvioUSD:            o.EnvioUSD,
		OtrosCostosUSD:      o.OtrosCostosUSD,
		TotalUSD:            o.TotalUSD,
		TasaCompra:          o.TasaCompra,
		TasaPago:            o.TasaPago,
		TotalLocal:          o.TotalLocal,
		DiferenciaCambiaria: o.DiferenciaCambiaria,
		Estado:              o.Estado,
		EstadoPago:          o.EstadoPago,
		FechaEnvio:          fechaOpcional(o.FechaEnvio),
		FechaTransito:       fechaOpcional(o.FechaTransito),
		FechaRecepcion:      fechaOpcional(o.FechaRecepcion),
		FechaCancelacion:    fechaOpcional(o.FechaCancelacion),
		Tracking:            o.Tracking,
		Courier:             o.Courier,
		AlmacenDestino:      o.AlmacenDestino,
		TieneProblemas:      o.TieneProblemas,
		InventarioGenerado:  o.InventarioGenerado,
		UnidadesGeneradas:   o.UnidadesGeneradas,
		Pagos:               pagos,
		CreatedAt:           o.CreatedAt.Format(time.RFC3339),
	}
}

func fechaOpcional(t *time.Time) *string {
	if t == nil {
		return nil
	}
	f := t.Format(time.RFC3339)
	return &f
}
