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
)

// Tendencias de evaluación.
const (
	TendenciaMejorando  = "mejorando"
	TendenciaEmpeorando = "empeorando"
	TendenciaEstable    = "estable"
)

// factorDefault es el valor inicial de los factores que no se calculan
// automáticamente (competitividad y comunicación) cuando el proveedor
// nunca fue evaluado.
const factorDefault = 15.0

type EvaluacionService interface {
	// Recalcular deriva calidad y puntualidad de las métricas; competitividad
	// y comunicación arrastran el último valor persistido. No genera historial.
	Recalcular(ctx context.Context, proveedorID uuid.UUID) error
	// RecalcularTodos recorre los proveedores activos; lo invoca el cron nocturno.
	RecalcularTodos(ctx context.Context) error
	// EvaluarManual valida factores en [0,25] y persiste la revisión humana
	// junto con su entrada de historial en una sola transacción.
	EvaluarManual(ctx context.Context, proveedorID uuid.UUID, req dto.EvaluacionManualRequest) (*dto.EvaluacionResponse, error)
	// Tendencia compara el puntaje vigente contra el inicio de la ventana de
	// historial: mejorando | empeorando | estable.
	Tendencia(ctx context.Context, proveedorID uuid.UUID) (string, error)
}

type evaluacionService struct {
	repo  repository.ProveedorRepository
	ahora func() time.Time
}

func NewEvaluacionService(repo repository.ProveedorRepository) EvaluacionService {
	return &evaluacionService{repo: repo, ahora: time.Now}
}

// WithClock fija el reloj inyectable (tests).
func (s *evaluacionService) WithClock(ahora func() time.Time) *evaluacionService {
	s.ahora = ahora
	return s
}

// Clasificar es función pura y total del puntaje: valores fuera de [0,100]
// se acotan antes de clasificar.
func Clasificar(puntaje float64) string {
	p := clampFloat(puntaje, 0, 100)
	switch {
	case p >= 80:
		return model.ClasificacionPreferido
	case p >= 60:
		return model.ClasificacionAprobado
	case p >= 40:
		return model.ClasificacionCondicional
	default:
		return model.ClasificacionSuspendido
	}
}

// factorCalidad deriva el factor de calidad de la tasa de problemas:
// 25 × (1 − tasa/100), acotado a [0,25].
func factorCalidad(tasaProblemas float64) float64 {
	return clampFloat(25*(1-tasaProblemas/100), 0, 25)
}

// factorPuntualidad es una tabla fija sobre la desviación de días de entrega.
func factorPuntualidad(desviacionDias float64) float64 {
	switch {
	case desviacionDias <= 1:
		return 25
	case desviacionDias <= 3:
		return 20
	case desviacionDias <= 5:
		return 15
	case desviacionDias <= 7:
		return 10
	default:
		return 5
	}
}

func (s *evaluacionService) Recalcular(ctx context.Context, proveedorID uuid.UUID) error {
	p, err := s.repo.FindByID(ctx, proveedorID)
	if err != nil {
		return fmt.Errorf("recalcular evaluación: %w", err)
	}

	ev := &p.Evaluacion
	ev.CalidadProducto = factorCalidad(p.Metricas.TasaProblemas)
	ev.PuntualidadEntrega = factorPuntualidad(p.Metricas.DesviacionDiasEntrega)
	if ev.FechaEvaluacion == nil {
		// Primera evaluación: sin valor previo que arrastrar
		ev.CompetitividadPrecio = factorDefault
		ev.Comunicacion = factorDefault
	}
	ev.Puntaje = ev.CalidadProducto + ev.PuntualidadEntrega + ev.CompetitividadPrecio + ev.Comunicacion
	ev.Clasificacion = Clasificar(ev.Puntaje)
	ev.CalculoAutomatico = true
	fecha := s.ahora()
	ev.FechaEvaluacion = &fecha

	return s.repo.Update(ctx, p)
}

func (s *evaluacionService) RecalcularTodos(ctx context.Context) error {
	proveedores, err := s.repo.List(ctx, true)
	if err != nil {
		return err
	}
	for _, p := range proveedores {
		if err := s.Recalcular(ctx, p.ID); err != nil {
			// Una concurrencia puntual no aborta la corrida completa
			log.Warn().Err(err).Str("proveedor_id", p.ID.String()).Msg("recálculo de evaluación falló")
		}
	}
	return nil
}

func (s *evaluacionService) EvaluarManual(ctx context.Context, proveedorID uuid.UUID, req dto.EvaluacionManualRequest) (*dto.EvaluacionResponse, error) {
	for nombre, f := range map[string]float64{
		"calidad_producto":      req.CalidadProducto,
		"puntualidad_entrega":   req.PuntualidadEntrega,
		"competitividad_precio": req.CompetitividadPrecio,
		"comunicacion":          req.Comunicacion,
	} {
		if f < 0 || f > 25 {
			return nil, fmt.Errorf("%s: %w", nombre, apierror.ErrFueraDeRango)
		}
	}

	p, err := s.repo.FindByID(ctx, proveedorID)
	if err != nil {
		return nil, fmt.Errorf("evaluación manual: %w", err)
	}

	ev := p.Evaluacion
	ev.CalidadProducto = req.CalidadProducto
	ev.PuntualidadEntrega = req.PuntualidadEntrega
	ev.CompetitividadPrecio = req.CompetitividadPrecio
	ev.Comunicacion = req.Comunicacion
	ev.Puntaje = req.CalidadProducto + req.PuntualidadEntrega + req.CompetitividadPrecio + req.Comunicacion
	ev.Clasificacion = Clasificar(ev.Puntaje)
	ev.CalculoAutomatico = false
	fecha := s.ahora()
	ev.FechaEvaluacion = &fecha

	// Evaluación vigente e historial se persisten en una sola transacción;
	// un fallo del historial no deja la evaluación a medias.
	actualizado := *p
	actualizado.Evaluacion = ev
	if err := s.repo.UpdateConHistorial(ctx, &actualizado, &model.EvaluacionHistorial{
		ProveedorID:          p.ID,
		Fecha:                fecha,
		Puntaje:              ev.Puntaje,
		CalidadProducto:      ev.CalidadProducto,
		PuntualidadEntrega:   ev.PuntualidadEntrega,
		CompetitividadPrecio: ev.CompetitividadPrecio,
		Comunicacion:         ev.Comunicacion,
		Evaluador:            req.Evaluador,
		Nota:                 req.Nota,
	}); err != nil {
		return nil, err
	}

	resp := evaluacionToResponse(&ev)
	return &resp, nil
}

func (s *evaluacionService) Tendencia(ctx context.Context, proveedorID uuid.UUID) (string, error) {
	p, err := s.repo.FindByID(ctx, proveedorID)
	if err != nil {
		return "", err
	}
	hist, err := s.repo.ListHistorial(ctx, proveedorID)
	if err != nil {
		return "", err
	}
	if len(hist) == 0 || p.Evaluacion.FechaEvaluacion == nil {
		return TendenciaEstable, nil
	}
	inicial := hist[0].Puntaje // la más antigua de la ventana acotada
	switch {
	case p.Evaluacion.Puntaje > inicial:
		return TendenciaMejorando, nil
	case p.Evaluacion.Puntaje < inicial:
		return TendenciaEmpeorando, nil
	default:
		return TendenciaEstable, nil
	}
}

func evaluacionToResponse(ev *model.EvaluacionProveedor) dto.EvaluacionResponse {
	resp := dto.EvaluacionResponse{
		CalidadProducto:      ev.CalidadProducto,
		PuntualidadEntrega:   ev.PuntualidadEntrega,
		CompetitividadPrecio: ev.CompetitividadPrecio,
		Comunicacion:         ev.Comunicacion,
		Puntaje:              ev.Puntaje,
		Clasificacion:        ev.Clasificacion,
		CalculoAutomatico:    ev.CalculoAutomatico,
	}
	if ev.FechaEvaluacion != nil {
		f := ev.FechaEvaluacion.Format(time.RFC3339)
		resp.FechaEvaluacion = &f
	}
	return resp
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
