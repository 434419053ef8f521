package service

import (
	"context"
	"fmt"
	"time"

	"abasto/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// EventoOrdenCompletada es el evento que emite el ciclo de órdenes al
// recibirse una orden, consumido sincrónicamente por el agregador.
type EventoOrdenCompletada struct {
	ProveedorID   uuid.UUID
	TotalUSD      decimal.Decimal
	ProductoIDs   []string
	DiasEntrega   float64
	TuvoProblemas bool
}

type MetricasService interface {
	// RegistrarOrdenCompletada pliega el evento en las métricas del proveedor
	// de forma atómica y dispara el recálculo automático de la evaluación.
	RegistrarOrdenCompletada(ctx context.Context, ev EventoOrdenCompletada) error
	// RegistrarProblema corrige los contadores cuando una orden ya recibida
	// se marca como problemática después del hecho.
	RegistrarProblema(ctx context.Context, proveedorID uuid.UUID) error
}

type metricasService struct {
	repo       repository.ProveedorRepository
	evaluacion EvaluacionService
	ahora      func() time.Time
}

func NewMetricasService(repo repository.ProveedorRepository, evaluacion EvaluacionService) MetricasService {
	return &metricasService{repo: repo, evaluacion: evaluacion, ahora: time.Now}
}

func (s *metricasService) WithClock(ahora func() time.Time) *metricasService {
	s.ahora = ahora
	return s
}

func (s *metricasService) RegistrarOrdenCompletada(ctx context.Context, ev EventoOrdenCompletada) error {
	p, err := s.repo.FindByID(ctx, ev.ProveedorID)
	if err != nil {
		return fmt.Errorf("registrar orden completada: %w", err)
	}

	m := &p.Metricas
	m.TotalOrdenes++
	m.OrdenesCompletadas++
	m.TotalCompradoUSD = m.TotalCompradoUSD.Add(ev.TotalUSD)
	m.ProductosComprados = unirProductos(m.ProductosComprados, ev.ProductoIDs)
	if ev.TuvoProblemas {
		m.OrdenesConProblemas++
	}
	// Derivados siempre recalculados desde los contadores crudos
	m.TasaProblemas = float64(m.OrdenesConProblemas) / float64(m.OrdenesCompletadas) * 100

	// Promedio incremental en línea: newAvg = oldAvg + (x − oldAvg)/n.
	// La desviación es la distancia de la última muestra al promedio nuevo
	// (simplificación heredada, no una desviación estándar).
	n := float64(m.OrdenesCompletadas)
	m.PromedioDiasEntrega += (ev.DiasEntrega - m.PromedioDiasEntrega) / n
	m.DesviacionDiasEntrega = absFloat(ev.DiasEntrega - m.PromedioDiasEntrega)

	ultima := s.ahora()
	m.UltimaCompra = &ultima

	if err := s.repo.Update(ctx, p); err != nil {
		return err
	}

	if err := s.evaluacion.Recalcular(ctx, ev.ProveedorID); err != nil {
		// Las métricas ya quedaron persistidas; el recálculo se repite en la
		// corrida nocturna si esta pasada falla.
		log.Warn().Err(err).Str("proveedor_id", ev.ProveedorID.String()).
			Msg("recálculo post-métricas falló")
	}
	return nil
}

func (s *metricasService) RegistrarProblema(ctx context.Context, proveedorID uuid.UUID) error {
	p, err := s.repo.FindByID(ctx, proveedorID)
	if err != nil {
		return fmt.Errorf("registrar problema: %w", err)
	}

	m := &p.Metricas
	m.OrdenesConProblemas++
	if m.OrdenesCompletadas > 0 {
		m.TasaProblemas = float64(m.OrdenesConProblemas) / float64(m.OrdenesCompletadas) * 100
	}

	if err := s.repo.Update(ctx, p); err != nil {
		return err
	}

	if err := s.evaluacion.Recalcular(ctx, proveedorID); err != nil {
		log.Warn().Err(err).Str("proveedor_id", proveedorID.String()).
			Msg("recálculo post-problema falló")
	}
	return nil
}

func unirProductos(actuales, nuevos []string) []string {
	set := make(map[string]struct{}, len(actuales)+len(nuevos))
	out := make([]string, 0, len(actuales)+len(nuevos))
	for _, id := range actuales {
		if _, ok := set[id]; !ok {
			set[id] = struct{}{}
			out = append(out, id)
		}
	}
	for _, id := range nuevos {
		if _, ok := set[id]; !ok {
			set[id] = struct{}{}
			out = append(out, id)
		}
	}
	return out
}

func absFloat(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
